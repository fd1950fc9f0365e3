package engine

import (
	"fmt"

	"github.com/fraudnets/detection-engine/pkg/models"
)

// ValidationError rejects a whole batch before any state mutation. It is the
// caller-visible distinction between "malformed input" and a legitimate
// no-fraud verdict; the two must never be conflated.
type ValidationError struct {
	Index  int    // position of the offending transaction in the batch
	Field  string // which field failed
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transaction at index %d: %s %s", e.Index, e.Field, e.Reason)
}

// validateBatch checks every transaction before the graph is touched.
// Ingestion is all-or-nothing: one bad record rejects the entire batch.
func validateBatch(batch []models.Transaction) error {
	for i, tx := range batch {
		switch {
		case tx.Sender == "":
			return &ValidationError{Index: i, Field: "sender", Reason: "is required"}
		case tx.Receiver == "":
			return &ValidationError{Index: i, Field: "receiver", Reason: "is required"}
		case tx.Sender == tx.Receiver:
			return &ValidationError{Index: i, Field: "receiver", Reason: "equals sender (self-loop)"}
		case tx.Amount <= 0:
			return &ValidationError{Index: i, Field: "amount", Reason: "must be positive"}
		}
	}
	return nil
}
