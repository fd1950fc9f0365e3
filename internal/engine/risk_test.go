package engine

import (
	"testing"

	"github.com/fraudnets/detection-engine/pkg/models"
)

func TestScoreAccounts_ConnectivityBase(t *testing.T) {
	g := newTransactionGraph()
	// B has in-degree 1 and out-degree 1, A and C have one edge each.
	batch := []models.Transaction{
		{TxID: "t1", Sender: "A", Receiver: "B", Amount: 100},
		{TxID: "t2", Sender: "B", Receiver: "C", Amount: 100},
	}
	if err := g.ingest(batch); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	scores := scoreAccounts(g, nil, nil)
	if got := scores["B"]; got != 0.2 {
		t.Errorf("Expected 0.2 for degree-2 node B, got %v", got)
	}
	if got := scores["A"]; got != 0.1 {
		t.Errorf("Expected 0.1 for degree-1 node A, got %v", got)
	}
}

func TestScoreAccounts_BaseCappedAtPoint4(t *testing.T) {
	g := newTransactionGraph()
	// Hub with 6 counterparties: raw base 0.6 must cap at 0.4.
	var batch []models.Transaction
	for _, peer := range []string{"P1", "P2", "P3", "P4", "P5", "P6"} {
		batch = append(batch, models.Transaction{TxID: "t" + peer, Sender: "Hub", Receiver: peer, Amount: 10})
	}
	if err := g.ingest(batch); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	scores := scoreAccounts(g, nil, nil)
	if got := scores["Hub"]; got != 0.4 {
		t.Errorf("Expected base capped at 0.4, got %v", got)
	}
}

func TestScoreAccounts_FlaggedBoost(t *testing.T) {
	g := newTransactionGraph()
	if err := g.ingest([]models.Transaction{{TxID: "t1", Sender: "A", Receiver: "B", Amount: 100}}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	scores := scoreAccounts(g, map[string]bool{"A": true}, nil)
	if got := scores["A"]; got != 0.6 {
		t.Errorf("Expected 0.1 base + 0.5 flag boost = 0.6, got %v", got)
	}
	if got := scores["B"]; got != 0.1 {
		t.Errorf("Expected unflagged B at 0.1, got %v", got)
	}
}

func TestScoreAccounts_BlacklistOverridesEverything(t *testing.T) {
	g := newTransactionGraph()
	if err := g.ingest([]models.Transaction{{TxID: "t1", Sender: "A", Receiver: "B", Amount: 100}}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// Blacklisted and not flagged: still forced to 1.0.
	scores := scoreAccounts(g, nil, map[string]bool{"A": true})
	if got := scores["A"]; got != 1.0 {
		t.Errorf("Expected forced 1.0 for blacklisted account, got %v", got)
	}
}

func TestScoreAccounts_NeverExceedsOne(t *testing.T) {
	g := newTransactionGraph()
	var batch []models.Transaction
	for _, peer := range []string{"P1", "P2", "P3", "P4", "P5", "P6"} {
		batch = append(batch, models.Transaction{TxID: "t" + peer, Sender: "Hub", Receiver: peer, Amount: 10})
	}
	if err := g.ingest(batch); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	// Capped base 0.4 + 0.5 boost = 0.9; no combination exceeds 1.0.
	scores := scoreAccounts(g, map[string]bool{"Hub": true}, nil)
	if got := scores["Hub"]; got != 0.9 {
		t.Errorf("Expected 0.9, got %v", got)
	}
	for account, s := range scores {
		if s < 0 || s > 1 {
			t.Errorf("Score for %s out of [0,1]: %v", account, s)
		}
	}
}

func TestScoreAccounts_CoversWholeGraph(t *testing.T) {
	g := newTransactionGraph()
	batch := []models.Transaction{
		{TxID: "t1", Sender: "A", Receiver: "B", Amount: 100},
		{TxID: "t2", Sender: "C", Receiver: "D", Amount: 100},
	}
	if err := g.ingest(batch); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	scores := scoreAccounts(g, nil, nil)
	if len(scores) != g.NodeCount() {
		t.Errorf("Expected a score for every node: %d scores vs %d nodes", len(scores), g.NodeCount())
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.123, 0.12},
		{0.125, 0.13},
		{0.999, 1.0},
		{0.3, 0.3},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
