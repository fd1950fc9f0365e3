package engine

import "sort"

// Cycle Detector
//
// Enumerates simple directed cycles of length >= MinCycleLength in the
// overlay view (persisted graph + pending batch) and flags every account on
// a qualifying cycle. A cycle qualifies only when it carries at least one
// edge contributed by the current batch: a verdict attributes fraud to the
// batch under analysis, so a ring that was already merged and reported in an
// earlier pass does not re-flag on every later call.
//
// Enumeration uses ordered DFS: cycles are discovered only from their
// lexicographically smallest member, so each simple cycle is counted exactly
// once and the discovered set is independent of map iteration order. The
// number of simple cycles is combinatorial in dense graphs, so the search
// carries a hard budget (MaxCycles, MaxCycleLength) that every enumerated
// cycle counts against, qualifying or not; exceeding it aborts the search.
// An aborted search is fail-open: the pipeline treats it as "no
// disqualifying cycles found" and moves on to the next detector.

// CycleSearch is the bounded outcome of one cycle enumeration. Completed
// searches expose the qualifying cycles found; aborted searches are
// distinguishable for observability but contribute nothing to detection.
type CycleSearch struct {
	Cycles  [][]string
	Aborted bool
}

// FlaggedAccounts returns the union of accounts on any qualifying cycle, or
// nil when the search was aborted.
func (cs CycleSearch) FlaggedAccounts() map[string]bool {
	if cs.Aborted {
		return nil
	}
	flagged := make(map[string]bool)
	for _, cycle := range cs.Cycles {
		for _, account := range cycle {
			flagged[account] = true
		}
	}
	return flagged
}

type cycleFinder struct {
	adj        map[string][]string
	batchEdges map[string]map[string]bool
	minLen     int
	maxLen     int
	maxCycles  int

	start   string
	path    []string
	onPath  map[string]bool
	seen    int
	cycles  [][]string
	aborted bool
}

// findCycles enumerates simple cycles over a sorted-adjacency view, keeping
// those that include at least one edge from batchEdges.
func findCycles(adj map[string][]string, batchEdges map[string]map[string]bool, p Params) CycleSearch {
	f := &cycleFinder{
		adj:        adj,
		batchEdges: batchEdges,
		minLen:     p.MinCycleLength,
		maxLen:     p.MaxCycleLength,
		maxCycles:  p.MaxCycles,
		onPath:     make(map[string]bool),
	}

	starts := make([]string, 0, len(adj))
	for node := range adj {
		starts = append(starts, node)
	}
	sort.Strings(starts)

	for _, start := range starts {
		f.start = start
		f.path = f.path[:0]
		f.dfs(start)
		if f.aborted {
			break
		}
	}

	return CycleSearch{Cycles: f.cycles, Aborted: f.aborted}
}

// dfs extends the current path from node. Only nodes >= f.start are visited,
// so every cycle is reported exactly once, rooted at its smallest member.
func (f *cycleFinder) dfs(node string) {
	if f.aborted {
		return
	}
	f.path = append(f.path, node)
	f.onPath[node] = true

	for _, next := range f.adj[node] {
		if f.aborted {
			break
		}
		if next == f.start {
			if len(f.path) >= f.minLen {
				f.seen++
				if f.pathTouchesBatch() {
					cycle := make([]string, len(f.path))
					copy(cycle, f.path)
					f.cycles = append(f.cycles, cycle)
				}
				if f.seen >= f.maxCycles {
					f.aborted = true
				}
			}
			continue
		}
		if next < f.start || f.onPath[next] {
			continue
		}
		if len(f.path) >= f.maxLen {
			continue
		}
		f.dfs(next)
	}

	f.path = f.path[:len(f.path)-1]
	delete(f.onPath, node)
}

// pathTouchesBatch reports whether the cycle currently on f.path (closed
// back to its start) uses an edge introduced by the batch.
func (f *cycleFinder) pathTouchesBatch() bool {
	for i := range f.path {
		src := f.path[i]
		dst := f.path[(i+1)%len(f.path)]
		if f.batchEdges[src][dst] {
			return true
		}
	}
	return false
}
