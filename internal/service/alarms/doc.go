// Package alarms is the OLT alarm manager.
//
// Manager.Dispatch classifies each indication by kind and runs the matching
// handler. A handler resolves the ONU identity (Resolver), turns the status
// into a raise/clear decision (Normalize), lets the Suppressor veto
// redundant OLT LOS clears, and hands what remains to the emitter.
//
// Dispatch isolates failures: an error or panic in one handler is logged and
// the next indication is processed normally. Simulate runs the same handlers
// for manual injection but reports errors back to the caller.
package alarms
