// Package emitter defines the sink the alarm manager hands its decisions to.
//
// Log records alarms as structured log entries, Broadcaster pushes them to
// live watchers, and Multi fans a single call out to several emitters.
package emitter
