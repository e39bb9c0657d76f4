// Package hal binds the garage controller ports to real peripherals on a
// Raspberry Pi: BCM GPIO inputs for the presence sensors, a PCA9685 servo
// driver for the gates and an SSD1306 OLED (or a serial character display)
// for the free-space sign. It also provides the fixture-driven and logging
// stand-ins used in dev mode when no hardware is attached.
package hal

import "github.com/banshee-data/garage.gate/internal/monitoring"

var logf = monitoring.Component("hal")
