package models

import "time"

// Transaction is a single transfer between two accounts. Accounts are opaque
// string identifiers (a name or account number); there is no separate account
// entity. Immutable once created.
type Transaction struct {
	TxID      string  `json:"tx_id"`
	Sender    string  `json:"sender"`
	Receiver  string  `json:"receiver"`
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp,omitempty"` // ISO-8601, optional
}

// FraudType tags the pattern that won the detection pass.
type FraudType string

const (
	FraudNone        FraudType = "none"
	FraudCycle       FraudType = "CYCLE_DETECTED"
	FraudSmurfing    FraudType = "SMURFING"
	FraudStructuring FraudType = "STRUCTURING"
	FraudExternal    FraudType = "EXTERNAL_SIGNAL"
)

// DetectionResult is the verdict for one analyzed batch.
//
// FlaggedAccounts is always a subset of the persisted graph's nodes and is
// sorted for deterministic output. RiskScores covers every node in the graph,
// not just the accounts seen in the batch. BlacklistTxRef carries the opaque
// notarization reference returned for newly blacklisted accounts, when the
// notary answered in time; the JSON name keeps the wire format expected by
// the dashboard.
type DetectionResult struct {
	IsFraud         bool               `json:"is_fraud"`
	FraudType       FraudType          `json:"fraud_type"`
	FlaggedAccounts []string           `json:"flagged_accounts"`
	RiskScores      map[string]float64 `json:"risk_scores"`
	BlacklistTxRef  string             `json:"blockchain_tx_hash,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
}

// GraphNode is one account in the graph export.
type GraphNode struct {
	ID            string `json:"id"`
	IsBlacklisted bool   `json:"is_blacklisted"`
	InDegree      int    `json:"in_degree"`
	OutDegree     int    `json:"out_degree"`
}

// GraphEdge is one aggregated directed edge in the graph export. Weight is
// the sum of all amounts ever sent on the (source, target) pair.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// GraphExport is the read-only graph view served for visualization.
type GraphExport struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// StatsSnapshot holds the monotonic counters plus live graph size at one
// instant.
type StatsSnapshot struct {
	TotalAnalyses    uint64 `json:"total_analyses"`
	FraudsDetected   uint64 `json:"frauds_detected"`
	BlacklistedCount uint64 `json:"blacklisted_count"`
	NodeCount        int    `json:"node_count"`
	EdgeCount        int    `json:"edge_count"`
}
