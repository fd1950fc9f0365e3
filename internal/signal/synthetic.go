// Package signal holds the optional statistical fraud signal consulted when
// the deterministic detectors find nothing. The engine treats it as a black
// box that emits zero or more account tokens; it must stay safe to disable.
package signal

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/fraudnets/detection-engine/internal/engine"
)

// Synthetic Degree Classifier
//
// Port of the demo-grade statistical collaborator: it scores a freshly
// generated synthetic graph (degree features + random volume features
// through fixed logistic weights) and maps positive predictions back onto
// the real batch's senders by position, capped at two accounts. The mapping
// between synthetic indices and real accounts carries no semantic meaning —
// it is kept only for wire compatibility with the original deployment, and
// the engine's correctness never depends on it. Real feature extraction from
// the live graph would replace this provider wholesale.

const (
	minNodes = 20
	minEdges = 40
	maxFlags = 2
)

// Classifier implements engine.SignalProvider over a synthetic graph.
type Classifier struct {
	mu     sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewClassifier builds a classifier. A fixed seed makes the output
// reproducible in tests; production wiring passes a time-derived seed.
func NewClassifier(seed int64, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger,
	}
}

// Flag generates a synthetic graph sized by the hint (floored to the
// training minimums) and returns up to two batch senders when the synthetic
// prediction is positive.
func (c *Classifier) Flag(ctx context.Context, hint engine.SignalHint) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(hint.BatchSenders) == 0 {
		return nil, nil
	}

	numNodes := hint.NodeCount
	if numNodes < minNodes {
		numNodes = minNodes
	}
	numEdges := hint.EdgeCount
	if numEdges < minEdges {
		numEdges = minEdges
	}

	predicted := c.predict(numNodes, numEdges)
	if len(predicted) == 0 {
		return nil, nil
	}

	n := maxFlags
	if len(hint.BatchSenders) < n {
		n = len(hint.BatchSenders)
	}
	flagged := make([]string, n)
	copy(flagged, hint.BatchSenders[:n])

	c.logger.Debug("synthetic classifier fired",
		zap.Int("synthetic_nodes", numNodes),
		zap.Int("predicted_indices", len(predicted)),
		zap.Int("flagged", len(flagged)))
	return flagged, nil
}

// predict builds the synthetic degree-feature graph and applies the fixed
// logistic weights, returning the indices classified as fraudulent.
func (c *Classifier) predict(numNodes, numEdges int) []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	inDegree := make([]float64, numNodes)
	outDegree := make([]float64, numNodes)
	volume := make([]float64, numNodes)
	avgAmount := make([]float64, numNodes)

	for i := range volume {
		volume[i] = c.rng.Float64()
		avgAmount[i] = c.rng.Float64()
	}
	for i := 0; i < numEdges; i++ {
		src := c.rng.Intn(numNodes)
		dst := c.rng.Intn(numNodes)
		if src == dst {
			continue
		}
		outDegree[src]++
		inDegree[dst]++
	}
	normalize(inDegree)
	normalize(outDegree)

	// Fixed logistic weights: high fan-out and volume dominate the score,
	// mirroring the degree-feature emphasis of the trained model.
	var predicted []int
	for i := 0; i < numNodes; i++ {
		z := 1.6*outDegree[i] + 1.1*inDegree[i] + 0.9*volume[i] + 0.4*avgAmount[i] - 2.2
		if 1.0/(1.0+math.Exp(-z)) > 0.5 {
			predicted = append(predicted, i)
		}
	}
	return predicted
}

func normalize(xs []float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	span := hi - lo + 1e-8
	for i := range xs {
		xs[i] = (xs[i] - lo) / span
	}
}
