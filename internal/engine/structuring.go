package engine

import "github.com/fraudnets/detection-engine/pkg/models"

// Structuring Detector
//
// Flags senders that repeatedly transact amounts kept just under the
// reporting threshold. Unlike smurfing this does not require a minimum burst
// size or bound the absolute count; the signature is the repetition of
// near-threshold amounts specifically, in the half-open band
// [StructuringBandRatio * threshold, threshold).

// detectStructuring returns the senders with at least StructuringMinRepeat
// batch amounts inside the near-threshold band.
func detectStructuring(batch []models.Transaction, p Params) map[string]bool {
	bandLow := p.StructuringBandRatio * p.ReportingThreshold

	inBand := make(map[string]int)
	for _, tx := range batch {
		if tx.Amount >= bandLow && tx.Amount < p.ReportingThreshold {
			inBand[tx.Sender]++
		}
	}

	flagged := make(map[string]bool)
	for sender, n := range inBand {
		if n >= p.StructuringMinRepeat {
			flagged[sender] = true
		}
	}
	return flagged
}
