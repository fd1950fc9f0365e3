package signal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudnets/detection-engine/internal/engine"
)

func TestFlag_EmptyBatchSenders(t *testing.T) {
	c := NewClassifier(1, nil)
	tokens, err := c.Flag(context.Background(), engine.SignalHint{NodeCount: 50, EdgeCount: 100})
	require.NoError(t, err)
	assert.Nil(t, tokens)
}

func TestFlag_AtMostTwoFromBatchSenders(t *testing.T) {
	senders := []string{"A", "B", "C", "D"}
	allowed := map[string]bool{"A": true, "B": true, "C": true, "D": true}

	// Across many seeds the classifier may or may not fire, but it must never
	// emit more than two tokens or a token outside the batch senders.
	for seed := int64(0); seed < 50; seed++ {
		c := NewClassifier(seed, nil)
		tokens, err := c.Flag(context.Background(), engine.SignalHint{
			NodeCount:    30,
			EdgeCount:    60,
			BatchSenders: senders,
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(tokens), 2, "seed %d", seed)
		for _, tok := range tokens {
			assert.True(t, allowed[tok], "seed %d emitted unknown token %q", seed, tok)
		}
	}
}

func TestFlag_DeterministicForSeed(t *testing.T) {
	hint := engine.SignalHint{NodeCount: 40, EdgeCount: 80, BatchSenders: []string{"A", "B", "C"}}

	first, err := NewClassifier(42, nil).Flag(context.Background(), hint)
	require.NoError(t, err)
	again, err := NewClassifier(42, nil).Flag(context.Background(), hint)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestFlag_FloorsSmallGraphs(t *testing.T) {
	// Tiny hints are floored to the training minimums rather than rejected.
	c := NewClassifier(7, nil)
	_, err := c.Flag(context.Background(), engine.SignalHint{
		NodeCount:    1,
		EdgeCount:    0,
		BatchSenders: []string{"A"},
	})
	require.NoError(t, err)
}

func TestFlag_CanceledContext(t *testing.T) {
	c := NewClassifier(1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Flag(ctx, engine.SignalHint{BatchSenders: []string{"A"}})
	assert.Error(t, err)
}
