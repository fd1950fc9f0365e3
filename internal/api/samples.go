package api

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fraudnets/detection-engine/pkg/models"
)

// Demo sample generator. Produces synthetic transaction batches shaped like
// the known laundering patterns so dashboards can exercise the pipeline
// without real data. The generated batches are inputs to /analyze, never a
// detection shortcut: the pipeline re-derives the verdict from the amounts
// and topology alone.

var (
	firstNames = []string{
		"James", "Emma", "Liam", "Olivia", "Noah", "Ava", "William", "Sophia",
		"Benjamin", "Isabella", "Lucas", "Mia", "Henry", "Charlotte",
		"Alexander", "Amelia", "Sebastian", "Harper", "Jack", "Evelyn",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez",
	}
	samplePatterns = []string{"normal", "cycle", "smurf", "structuring", "signal_trigger"}
)

type sampleGenerator struct {
	rng *rand.Rand
}

func newSampleGenerator() *sampleGenerator {
	return &sampleGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// handleGenerateSample builds a demo batch for the requested pattern, or a
// random pattern when none is given.
func (h *APIHandler) handleGenerateSample(c *gin.Context) {
	g := newSampleGenerator()

	pattern := c.Query("pattern")
	if pattern == "" {
		pattern = samplePatterns[g.rng.Intn(len(samplePatterns))]
	}

	var batch []models.Transaction
	switch pattern {
	case "cycle":
		batch = g.cycleBatch()
	case "smurf":
		batch = g.smurfBatch()
	case "structuring":
		batch = g.structuringBatch()
	case "signal_trigger":
		batch = g.signalTriggerBatch()
	case "normal":
		batch = g.normalBatch()
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "Unknown pattern",
			"patterns": samplePatterns,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": batch, "pattern": pattern})
}

func (g *sampleGenerator) generateName() string {
	return firstNames[g.rng.Intn(len(firstNames))] + " " + lastNames[g.rng.Intn(len(lastNames))]
}

func (g *sampleGenerator) generateTxID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("TXN%s%s", time.Now().Format("20060102150405"), suffix)
}

func (g *sampleGenerator) tx(sender, receiver string, amount float64, offset time.Duration) models.Transaction {
	return models.Transaction{
		TxID:      g.generateTxID(),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Timestamp: time.Now().Add(offset).Format(time.RFC3339),
	}
}

// cycleBatch: three parties passing roughly the same amount around a ring.
func (g *sampleGenerator) cycleBatch() []models.Transaction {
	people := g.distinctNames(3)
	amount := float64(25000 + g.rng.Intn(25001))
	batch := make([]models.Transaction, 0, 3)
	for i := 0; i < 3; i++ {
		jitter := float64(g.rng.Intn(1001) - 500)
		batch = append(batch, g.tx(people[i], people[(i+1)%3], amount+jitter, time.Duration(i)*15*time.Minute))
	}
	return batch
}

// smurfBatch: one master splitting a large sum into five sub-threshold
// transfers to distinct receivers.
func (g *sampleGenerator) smurfBatch() []models.Transaction {
	people := g.distinctNames(6) // master + 5 mules, no accidental self-loop
	master := people[0]
	batch := make([]models.Transaction, 0, 5)
	for i := 0; i < 5; i++ {
		amount := float64(7000 + g.rng.Intn(2501)) // 7000..9500
		batch = append(batch, g.tx(master, people[i+1], amount, time.Duration(i)*10*time.Minute))
	}
	return batch
}

// structuringBatch: repeated near-threshold transfers between one pair.
func (g *sampleGenerator) structuringBatch() []models.Transaction {
	pair := g.distinctNames(2)
	sender, receiver := pair[0], pair[1]
	batch := make([]models.Transaction, 0, 4)
	for i := 0; i < 4; i++ {
		amount := float64(9000 + g.rng.Intn(901)) // 9000..9900, inside the band
		batch = append(batch, g.tx(sender, receiver, amount, time.Duration(i)*3*time.Hour))
	}
	return batch
}

// signalTriggerBatch: mid-sized transfers over a six-party chain, shaped to
// fall through the deterministic detectors so the statistical signal gets
// consulted. One forward transfer per sender keeps the topology acyclic and
// below every burst threshold.
func (g *sampleGenerator) signalTriggerBatch() []models.Transaction {
	people := g.distinctNames(6)
	batch := make([]models.Transaction, 0, 5)
	for i := 0; i < 5; i++ {
		amount := float64(2000 + g.rng.Intn(6001)) // 2000..8000, under the band
		batch = append(batch, g.tx(people[i], people[i+1], amount, time.Duration(i)*20*time.Minute))
	}
	return batch
}

// normalBatch: a few small, non-repeating transfers with no ring topology.
func (g *sampleGenerator) normalBatch() []models.Transaction {
	people := g.distinctNames(4)
	n := 2 + g.rng.Intn(3)
	batch := make([]models.Transaction, 0, n)
	for i := 0; i < n; i++ {
		// Forward-only pairs keep random noise from forming a ring.
		si := g.rng.Intn(len(people) - 1)
		ri := si + 1 + g.rng.Intn(len(people)-si-1)
		// Capped so even a repeat sender stays under the smurf sum ratio.
		amount := float64(100 + g.rng.Intn(1501))
		batch = append(batch, g.tx(people[si], people[ri], amount, time.Duration(i)*30*time.Minute))
	}
	return batch
}

// distinctNames draws n unique names from the pool.
func (g *sampleGenerator) distinctNames(n int) []string {
	seen := make(map[string]bool, n)
	names := make([]string, 0, n)
	for len(names) < n {
		name := g.generateName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
