package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "olt_alarms"

var (
	indicationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indications_total",
			Help:      "Indications received, partitioned by indication kind.",
		},
		[]string{"kind"},
	)

	alarmsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_emitted_total",
			Help:      "Alarm transitions handed to the emitter, partitioned by fault kind and decision.",
		},
		[]string{"fault_kind", "decision"},
	)

	clearsSuppressedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clears_suppressed_total",
			Help:      "Redundant clear transitions dropped by the suppression policy.",
		},
		[]string{"fault_kind"},
	)

	resolutionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_resolution_failures_total",
			Help:      "ONU identity lookups that fell back to the unresolved sentinel.",
		},
	)

	handlerFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_failures_total",
			Help:      "Indications whose handler failed, partitioned by indication kind.",
		},
		[]string{"kind"},
	)
)

// Register attaches the alarm pipeline collectors to reg.
// Collectors that are already registered are skipped.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		indicationsTotal,
		alarmsEmittedTotal,
		clearsSuppressedTotal,
		resolutionFailuresTotal,
		handlerFailuresTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}

			return err
		}
	}

	return nil
}

// ObserveIndication counts a received indication.
func ObserveIndication(kind string) {
	indicationsTotal.WithLabelValues(kind).Inc()
}

// ObserveEmission counts an alarm transition handed to the emitter.
func ObserveEmission(faultKind, decision string) {
	alarmsEmittedTotal.WithLabelValues(faultKind, decision).Inc()
}

// ObserveSuppressedClear counts a clear dropped by the suppression policy.
func ObserveSuppressedClear(faultKind string) {
	clearsSuppressedTotal.WithLabelValues(faultKind).Inc()
}

// ObserveResolutionFailure counts an identity lookup that returned the sentinel.
func ObserveResolutionFailure() {
	resolutionFailuresTotal.Inc()
}

// ObserveHandlerFailure counts an indication whose handler failed.
func ObserveHandlerFailure(kind string) {
	handlerFailuresTotal.WithLabelValues(kind).Inc()
}
