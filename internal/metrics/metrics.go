package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	analysesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "analyses_total",
		Help:      "Total transaction batches analyzed.",
	})

	fraudsDetected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "frauds_detected_total",
		Help:      "Total positive detections by fraud type.",
	}, []string{"fraud_type"}) // "CYCLE_DETECTED", "SMURFING", "STRUCTURING", "EXTERNAL_SIGNAL"

	blacklistedAccounts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "blacklisted_accounts_total",
		Help:      "Total accounts added to the blacklist ledger.",
	})

	cycleSearchAborts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "cycle_search_aborts_total",
		Help:      "Cycle enumerations aborted by the search budget.",
	})

	notarizationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "notarization_failures_total",
		Help:      "Blacklist notarization attempts that returned no reference.",
	})

	graphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "graph_nodes",
		Help:      "Accounts currently in the transaction graph.",
	})

	graphEdges = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fraudnets",
		Subsystem: "engine",
		Name:      "graph_edges",
		Help:      "Aggregated directed edges currently in the transaction graph.",
	})
)

func init() {
	prometheus.MustRegister(
		analysesTotal,
		fraudsDetected,
		blacklistedAccounts,
		cycleSearchAborts,
		notarizationFailures,
		graphNodes,
		graphEdges,
	)
}

// ObserveAnalysis records one pipeline invocation and its outcome.
func ObserveAnalysis(fraudType string, isFraud bool) {
	analysesTotal.Inc()
	if isFraud {
		fraudsDetected.WithLabelValues(fraudType).Inc()
	}
}

// ObserveBlacklisted records one account newly added to the ledger.
func ObserveBlacklisted() { blacklistedAccounts.Inc() }

// ObserveCycleAbort records a cycle search cut short by its budget.
func ObserveCycleAbort() { cycleSearchAborts.Inc() }

// ObserveNotarizationFailure records a notarization attempt with no reference.
func ObserveNotarizationFailure() { notarizationFailures.Inc() }

// SetGraphSize updates the live graph gauges.
func SetGraphSize(nodes, edges int) {
	graphNodes.Set(float64(nodes))
	graphEdges.Set(float64(edges))
}
