// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with console or JSON encoding,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level parsing and a shared atomic level,
//   - convenience functions (InfoKV, WarnKV, ErrorKV, etc.).
//
// Alarm handlers receive a context and log through the logger it carries,
// so every entry is tagged with the OLT device and indication it concerns.
package logger
