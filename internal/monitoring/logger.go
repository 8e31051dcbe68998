// Package monitoring holds the diagnostic logging hooks shared by the
// dataset, dashboard and report packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger used by library code. It
// defaults to log.Printf; binaries and tests may swap it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf logs only when verbose output has been enabled with SetVerbose.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces Logf. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose routes Debugf through Logf when on is true and mutes it
// otherwise.
func SetVerbose(on bool) {
	if !on {
		Debugf = func(string, ...interface{}) {}
		return
	}
	Debugf = func(format string, v ...interface{}) {
		Logf("[debug] "+format, v...)
	}
}
