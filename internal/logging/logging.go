// Package logging wraps the standard library's log.Logger with the
// verbosity-gated phase-banner convention the teacher's main.go and
// utils/init.go use (log.Println for phases, a debug-level gate for
// anything chattier), per spec §4.10.
package logging

import (
	"fmt"
	"log"
	"os"
)

// Logger gates debug output behind a configured verbosity level (spec §6
// "debug-level").
type Logger struct {
	level int
	std   *log.Logger
}

// New returns a Logger writing to stderr, following the teacher's
// convention of leaving timestamps on for phase banners.
func New(level int) *Logger {
	return &Logger{level: level, std: log.New(os.Stderr, "", log.LstdFlags)}
}

// Phase announces a top-level stage of the run (spec §4.10 "phase
// banners"), always printed regardless of debug-level.
func (l *Logger) Phase(format string, args ...interface{}) {
	l.std.Printf("== "+format, args...)
}

// Debugf prints only when the configured debug-level is at least atLevel.
func (l *Logger) Debugf(atLevel int, format string, args ...interface{}) {
	if l.level < atLevel {
		return
	}
	l.std.Printf(format, args...)
}

// Fatalf logs and terminates the process, matching the teacher's
// log.Fatalln usage for configuration errors at startup (spec §7
// "configuration error: reported at façade-construction time; fatal").
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatalf(format, args...)
}

// Errorf formats an error the way the driver wraps package-load errors
// (spec §4.10), without terminating the process.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
