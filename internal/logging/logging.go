// Package logging constructs the process-wide structured logger. The
// rest of the server takes a *zap.Logger at construction time rather
// than reaching for a package-level global.
package logging

import "go.uber.org/zap"

// New builds a production zap logger, or a development logger with
// human-readable output when debug is true.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
