package engine

import (
	"sort"

	"github.com/fraudnets/detection-engine/pkg/models"
)

// TransactionGraph is the mutable weighted directed account graph. Nodes are
// every account seen so far; each (sender, receiver) pair carries a single
// edge whose weight is the sum of all amounts ever sent on that pair.
//
// Invariants: weights only grow (reset replaces the whole graph), edges are
// never removed, and self-loops are never inserted. The graph itself is not
// goroutine-safe; the owning Engine serializes all access.
type TransactionGraph struct {
	out map[string]map[string]float64 // sender → receiver → aggregated amount
	in  map[string]map[string]bool    // receiver → set of senders
}

func newTransactionGraph() *TransactionGraph {
	return &TransactionGraph{
		out: make(map[string]map[string]float64),
		in:  make(map[string]map[string]bool),
	}
}

// ingest merges a batch into the graph. The whole batch is validated before
// any mutation: either every transaction is applied or none is.
func (g *TransactionGraph) ingest(batch []models.Transaction) error {
	if err := validateBatch(batch); err != nil {
		return err
	}
	for _, tx := range batch {
		g.addNode(tx.Sender)
		g.addNode(tx.Receiver)
		g.out[tx.Sender][tx.Receiver] += tx.Amount
		g.in[tx.Receiver][tx.Sender] = true
	}
	return nil
}

func (g *TransactionGraph) addNode(account string) {
	if _, ok := g.out[account]; !ok {
		g.out[account] = make(map[string]float64)
		g.in[account] = make(map[string]bool)
	}
}

// NodeCount returns the number of accounts in the graph.
func (g *TransactionGraph) NodeCount() int { return len(g.out) }

// EdgeCount returns the number of aggregated directed edges.
func (g *TransactionGraph) EdgeCount() int {
	n := 0
	for _, receivers := range g.out {
		n += len(receivers)
	}
	return n
}

// Nodes returns all accounts in sorted order.
func (g *TransactionGraph) Nodes() []string {
	nodes := make([]string, 0, len(g.out))
	for account := range g.out {
		nodes = append(nodes, account)
	}
	sort.Strings(nodes)
	return nodes
}

// InDegree is the number of distinct accounts that have sent to account.
func (g *TransactionGraph) InDegree(account string) int { return len(g.in[account]) }

// OutDegree is the number of distinct accounts that account has sent to.
func (g *TransactionGraph) OutDegree(account string) int { return len(g.out[account]) }

// EdgeWeight returns the aggregated weight on (sender, receiver), zero when
// the edge does not exist.
func (g *TransactionGraph) EdgeWeight(sender, receiver string) float64 {
	return g.out[sender][receiver]
}

// Edges returns every aggregated edge, sorted by (source, target).
func (g *TransactionGraph) Edges() []models.GraphEdge {
	edges := make([]models.GraphEdge, 0, g.EdgeCount())
	for src, receivers := range g.out {
		for dst, weight := range receivers {
			edges = append(edges, models.GraphEdge{Source: src, Target: dst, Weight: weight})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
	return edges
}

// overlay builds a read-only adjacency view of the persisted graph plus the
// edges implied by a not-yet-merged batch. Cycle detection runs on this view
// so it sees the exact batch that is about to be committed, without mutating
// persisted state. Neighbor lists are sorted, which keeps the cycle search
// order (and therefore the abort point under a budget) deterministic.
func (g *TransactionGraph) overlay(batch []models.Transaction) map[string][]string {
	succ := make(map[string]map[string]bool, len(g.out))
	for src, receivers := range g.out {
		set := make(map[string]bool, len(receivers))
		for dst := range receivers {
			set[dst] = true
		}
		succ[src] = set
	}
	for _, tx := range batch {
		if tx.Sender == tx.Receiver {
			continue
		}
		if succ[tx.Sender] == nil {
			succ[tx.Sender] = make(map[string]bool)
		}
		succ[tx.Sender][tx.Receiver] = true
		if succ[tx.Receiver] == nil {
			succ[tx.Receiver] = make(map[string]bool)
		}
	}

	view := make(map[string][]string, len(succ))
	for src, set := range succ {
		neighbors := make([]string, 0, len(set))
		for dst := range set {
			neighbors = append(neighbors, dst)
		}
		sort.Strings(neighbors)
		view[src] = neighbors
	}
	return view
}
