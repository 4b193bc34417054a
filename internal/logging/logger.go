// Package logging provides the small pluggable logger interface used by
// session and storage collaborators that need to be testable without the
// standard library's global logger.
package logging

import "log"

// Logger receives debug/info/warn/error messages from ingest components.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Default logs through the standard library's log package, matching the
// rest of this codebase's line-oriented log.Printf style.
type Default struct{}

func (Default) Debug(format string, args ...interface{}) { log.Printf("DEBUG "+format, args...) }
func (Default) Info(format string, args ...interface{})  { log.Printf(format, args...) }
func (Default) Warn(format string, args ...interface{})  { log.Printf("WARN "+format, args...) }
func (Default) Error(format string, args ...interface{}) { log.Printf("ERROR "+format, args...) }

// Noop discards all log output, for callers (such as tests) that want no
// log.Printf noise.
type Noop struct{}

func (Noop) Debug(string, ...interface{}) {}
func (Noop) Info(string, ...interface{})  {}
func (Noop) Warn(string, ...interface{})  {}
func (Noop) Error(string, ...interface{}) {}
