// Package logger wraps zap with the conventions used across the daemon and
// its clients:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level parsing and runtime level changes,
//   - leveled shortcuts that pull the logger from a context (Infof, ErrorKV, ...).
//
// Every service derives a named context once and passes it down, so log lines
// carry the component name and any scoped key-value pairs.
package logger
