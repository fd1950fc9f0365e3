package engine

import "github.com/fraudnets/detection-engine/pkg/models"

// Smurfing Detector
//
// The classic placement signature: one sender splitting a large sum into
// many sub-threshold transfers fanned out across mules inside a single
// burst. Operates on the current batch only — the burst is the pattern, not
// the lifetime volume — so the persisted graph is deliberately not consulted.
//
// A sender is flagged when, within the batch:
//   - it made at least SmurfMinCount transfers,
//   - every individual amount stayed below the reporting threshold,
//   - the amounts sum to at least SmurfSumRatio * threshold,
//   - and the transfers reach at least two distinct receivers.
//
// The sum ratio tolerates a few small outliers while still requiring the
// aggregate to be significant relative to the threshold. The fan-out
// condition separates this from structuring: repeated near-threshold
// transfers to a single counterparty are the structuring signature and must
// not be claimed here.

type senderTally struct {
	count     int
	total     float64
	allBelow  bool
	receivers map[string]bool
}

// detectSmurfing returns the set of senders exhibiting a smurf burst.
func detectSmurfing(batch []models.Transaction, p Params) map[string]bool {
	tallies := make(map[string]*senderTally)
	for _, tx := range batch {
		t, ok := tallies[tx.Sender]
		if !ok {
			t = &senderTally{allBelow: true, receivers: make(map[string]bool)}
			tallies[tx.Sender] = t
		}
		t.count++
		t.total += tx.Amount
		t.receivers[tx.Receiver] = true
		if tx.Amount >= p.ReportingThreshold {
			t.allBelow = false
		}
	}

	flagged := make(map[string]bool)
	for sender, t := range tallies {
		if t.count >= p.SmurfMinCount && t.allBelow &&
			t.total >= p.SmurfSumRatio*p.ReportingThreshold && len(t.receivers) >= 2 {
			flagged[sender] = true
		}
	}
	return flagged
}
