package api

import (
	"fmt"

	"github.com/banshee-data/garage.gate/internal/monitoring"
)

func captureLogs(lines *[]string) func() {
	prev := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, v...))
	})
	return func() { monitoring.SetLogger(prev) }
}
