// Package logger adapts rs/zerolog to the core Logger interface.
package logger

import corelogger "github.com/kilianp07/drivesim/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.Nop

// New returns a Logger tagged with component. APP_ENV selects the output
// format and LOG_LEVEL the minimum level.
func New(component string) Logger {
	return NewZerologLogger(component)
}
