package stack

import (
	"avaneesh/pdcp-lte-go/pkg/internal/logger"
)

// LogLevel represents logging level
type LogLevel int

const (
	// LevelDebug shows all log messages (most verbose)
	LevelDebug LogLevel = iota
	// LevelInfo shows info, warn, and error messages (default)
	LevelInfo
	// LevelWarn shows warn and error messages
	LevelWarn
	// LevelError shows only error messages
	LevelError
)

// SetLogLevel sets the global logging level
func SetLogLevel(level LogLevel) {
	l := logger.NewDefaultLogger(logger.Level(level))
	logger.SetDefault(l)
}

// EnablePDUDebug enables or disables PDU hex dumps in log output.
// When enabled, TX and RX traces include hex dumps of every PDU.
func EnablePDUDebug(enable bool) {
	logger.SetPDUDebug(enable)
}
