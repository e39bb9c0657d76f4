package garage

// Pin identifies a digital input line (BCM numbering on a Raspberry Pi).
type Pin int

// Channel identifies a servo output channel on the servo driver.
type Channel int

// DigitalInput reads the instantaneous logic level of an input pin.
//
// Implementations must return an error when the level cannot be determined.
// A failed read is never reported as false.
type DigitalInput interface {
	Read(pin Pin) (bool, error)
}

// ServoActuator positions a servo on the given channel.
type ServoActuator interface {
	SetAngle(ch Channel, degrees int) error
}

// Display shows a single line of text, replacing whatever was shown before.
type Display interface {
	Render(text string) error
}
