// Package metrics exposes Prometheus collectors for the alarm pipeline.
package metrics
