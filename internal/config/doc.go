// Package config defines the settings of the OLT alarm manager and provides
// helpers to load, validate and save them in YAML format.
//
// Log level, listener addresses and the suppression flag can be overridden
// with OLT_ALARMS_* environment variables.
package config
