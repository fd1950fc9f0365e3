package engine

import "math"

// Risk Scorer
//
// Produces a normalized [0,1] suspicion score for every node in the
// persisted graph, not just the accounts in the current batch. Connectivity
// gives the base signal, the winning flagged set adds a fixed boost, and
// blacklist membership overrides everything:
//
//	base  = min((in_degree + out_degree) / 10, 0.4)
//	base += 0.5                 if flagged this pass
//	score = 1.0                 if blacklisted (always, regardless of the rest)
//	score = min(base, 1.0)      otherwise, rounded to 2 decimals
//
// Cost is O(nodes) per call, which is fine for a session-bounded graph.

// scoreAccounts computes the risk score map over the whole graph.
func scoreAccounts(g *TransactionGraph, flagged, blacklisted map[string]bool) map[string]float64 {
	scores := make(map[string]float64, g.NodeCount())
	for _, account := range g.Nodes() {
		if blacklisted[account] {
			scores[account] = 1.0
			continue
		}
		base := float64(g.InDegree(account)+g.OutDegree(account)) / 10.0
		if base > 0.4 {
			base = 0.4
		}
		if flagged[account] {
			base += 0.5
		}
		scores[account] = round2(math.Min(base, 1.0))
	}
	return scores
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
