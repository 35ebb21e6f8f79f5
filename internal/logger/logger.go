// Package logger is the prefixed stdlib-log wrapper shared by the node daemon.
package logger

import "log"

// Quiet disables Info when true; Error always prints.
var Quiet bool

// Info logs an informational line unless Quiet is set.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf("seismic-node: "+format, args...)
}

// Error always logs a line, regardless of Quiet.
func Error(format string, args ...interface{}) {
	log.Printf("seismic-node: "+format, args...)
}

// Debug is a lower-priority line, also suppressed by Quiet. The DEBUG:
// protocol lines of the sample stream are written to the serial sink by
// the engine and do not pass through here.
func Debug(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf("seismic-node: "+format, args...)
}
