// Package garage implements the gate controller for a two-lane parking
// garage: it polls the entrance and exit presence sensors, cycles the gate
// servos, and keeps the free-space count shown on the display.
//
// The controller is a single synchronous loop. Each poll reads the entrance
// sensor first and finishes any entrance gate cycle, including its blocking
// hold, before the exit sensor is read. Hardware is reached only through the
// DigitalInput, ServoActuator and Display ports; concrete drivers live in
// internal/hal.
package garage
