package hal

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// clearScreen is the form feed most serial LCD backpacks treat as
// "clear and home".
const clearScreen = "\f"

// SerialDisplay drives a character display attached to a serial line.
type SerialDisplay struct {
	mu   sync.Mutex
	port io.WriteCloser
}

// NewSerialDisplay wraps an open port.
func NewSerialDisplay(port io.WriteCloser) *SerialDisplay {
	return &SerialDisplay{port: port}
}

// OpenSerialDisplay opens the serial device at path with the given options.
func OpenSerialDisplay(path string, opts PortOptions) (*SerialDisplay, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial display %s: %w", path, err)
	}
	return NewSerialDisplay(port), nil
}

// Render implements garage.Display.
func (d *SerialDisplay) Render(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	frame := clearScreen + text + "\r\n"
	n, err := d.port.Write([]byte(frame))
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("short write to serial display: %d of %d bytes", n, len(frame))
	}
	return nil
}

// Close closes the underlying port.
func (d *SerialDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.port.Close()
}
