// Package inject drives a running alarm manager from the command line:
// it injects indications, toggles suppression and follows emitted alarms.
package inject
