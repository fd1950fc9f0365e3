package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fraudnets/detection-engine/internal/metrics"
	"github.com/fraudnets/detection-engine/pkg/models"
)

// Detection Pipeline
//
// One Engine owns the three pieces of session state — transaction graph,
// blacklist ledger, stats counters — and is the only way to mutate them.
// Every Analyze call runs ingest → detect → score → blacklist → count as a
// single atomic unit under one lock, so no caller ever observes a partially
// merged batch. Read-only queries share an RLock and see consistent
// snapshots.
//
// Detectors run in fixed priority order and the first non-empty flagged set
// wins. This is first-match, not best-match: a losing detector's flags are
// discarded even when non-empty. Deployments depend on that ordering for
// compatibility, so it is not configurable.

// SignalProvider is the optional last-resort statistical signal, consulted
// only when all deterministic detectors come back empty. Any error or
// timeout means "no additional signal"; the engine is fully correct with the
// provider absent.
type SignalProvider interface {
	Flag(ctx context.Context, hint SignalHint) ([]string, error)
}

// SignalHint is the sizing context handed to a SignalProvider.
type SignalHint struct {
	NodeCount    int
	EdgeCount    int
	BatchSenders []string // distinct senders of the current batch, sorted
}

// Notarizer records a blacklist event in an external immutable sink. One
// attempt, no retries; a failure yields no reference and is never surfaced
// as a pipeline error.
type Notarizer interface {
	Notarize(ctx context.Context, accountHash string) (string, error)
}

// DetectionStore persists detection outcomes for later investigation.
// Best-effort: storage failures are logged and swallowed.
type DetectionStore interface {
	SaveDetection(ctx context.Context, result models.DetectionResult, batchSize int) error
	SaveBlacklistEvent(ctx context.Context, account, accountHash, notaryRef string) error
}

// Engine is the fraud pattern detection and risk scoring engine.
type Engine struct {
	mu        sync.RWMutex
	graph     *TransactionGraph
	blacklist *blacklistLedger
	stats     models.StatsSnapshot

	params Params
	logger *zap.Logger

	signal  SignalProvider
	notary  Notarizer
	store   DetectionStore
	onFraud func(models.DetectionResult)

	signalTimeout time.Duration
	notaryTimeout time.Duration
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithSignalProvider plugs in the optional statistical signal.
func WithSignalProvider(p SignalProvider) Option { return func(e *Engine) { e.signal = p } }

// WithNotarizer plugs in the blacklist notarization sink.
func WithNotarizer(n Notarizer) Option { return func(e *Engine) { e.notary = n } }

// WithStore plugs in the optional detection store.
func WithStore(s DetectionStore) Option { return func(e *Engine) { e.store = s } }

// WithFraudCallback registers a callback invoked (outside the engine lock)
// for every positive detection. Used to broadcast alerts to the websocket
// hub.
func WithFraudCallback(fn func(models.DetectionResult)) Option {
	return func(e *Engine) { e.onFraud = fn }
}

// New creates an Engine with empty session state.
func New(params Params, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		graph:         newTransactionGraph(),
		blacklist:     newBlacklistLedger(),
		params:        params,
		logger:        logger,
		signalTimeout: 2 * time.Second,
		notaryTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze ingests one batch and returns the detection verdict.
//
// A validation failure rejects the batch before any mutation and is returned
// as a *ValidationError; graph, blacklist and stats are untouched. An empty
// batch is valid and produces is_fraud=false with only total_analyses
// incremented.
func (e *Engine) Analyze(ctx context.Context, batch []models.Transaction) (models.DetectionResult, error) {
	if err := validateBatch(batch); err != nil {
		return models.DetectionResult{}, err
	}

	e.mu.Lock()
	result := e.analyzeLocked(ctx, batch)
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.SaveDetection(ctx, result, len(batch)); err != nil {
			e.logger.Warn("failed to persist detection result", zap.Error(err))
		}
	}
	if result.IsFraud && e.onFraud != nil {
		e.onFraud(result)
	}
	return result, nil
}

// analyzeLocked runs the full ingest-detect-score-update sequence. Caller
// holds the write lock.
func (e *Engine) analyzeLocked(ctx context.Context, batch []models.Transaction) models.DetectionResult {
	// Cycle detection sees the persisted graph plus the un-merged batch, so
	// it evaluates exactly the state the commit below will produce. Only
	// cycles carrying a batch edge flag: historical rings were attributed to
	// the batch that completed them.
	search := findCycles(e.graph.overlay(batch), batchEdgeSet(batch), e.params)
	if search.Aborted {
		metrics.ObserveCycleAbort()
		e.logger.Warn("cycle search aborted by budget, treating as no cycles",
			zap.Int("cycles_enumerated", len(search.Cycles)),
			zap.Int("max_cycles", e.params.MaxCycles))
	}

	// Batch already validated; ingest cannot fail here.
	if err := e.graph.ingest(batch); err != nil {
		e.logger.Error("ingest rejected a validated batch", zap.Error(err))
		return e.emptyResult()
	}

	flagged := search.FlaggedAccounts()
	fraudType := models.FraudCycle
	if len(flagged) == 0 {
		flagged = detectSmurfing(batch, e.params)
		fraudType = models.FraudSmurfing
	}
	if len(flagged) == 0 {
		flagged = detectStructuring(batch, e.params)
		fraudType = models.FraudStructuring
	}
	// An empty batch never consults the signal: the empty-batch contract is
	// a clean verdict with only the analysis counter bumped.
	if len(flagged) == 0 && e.signal != nil && len(batch) > 0 {
		flagged = e.consultSignal(ctx, batch)
		fraudType = models.FraudExternal
	}
	if len(flagged) == 0 {
		fraudType = models.FraudNone
	}

	scores := scoreAccounts(e.graph, flagged, e.blacklist.members)

	notaryRef := e.blacklistFlagged(ctx, flagged)

	isFraud := fraudType != models.FraudNone
	e.stats.TotalAnalyses++
	if isFraud {
		e.stats.FraudsDetected++
	}
	metrics.ObserveAnalysis(string(fraudType), isFraud)
	metrics.SetGraphSize(e.graph.NodeCount(), e.graph.EdgeCount())

	return models.DetectionResult{
		IsFraud:         isFraud,
		FraudType:       fraudType,
		FlaggedAccounts: sortedKeys(flagged),
		RiskScores:      scores,
		BlacklistTxRef:  notaryRef,
		Timestamp:       time.Now().UTC(),
	}
}

// consultSignal asks the external statistical signal for additional flags.
// Fail-silent: errors and timeouts contribute nothing. Returned tokens are
// intersected with the graph's nodes so the flagged set stays a subset of
// known accounts regardless of what the provider emits.
func (e *Engine) consultSignal(ctx context.Context, batch []models.Transaction) map[string]bool {
	sctx, cancel := context.WithTimeout(ctx, e.signalTimeout)
	defer cancel()

	hint := SignalHint{
		NodeCount:    e.graph.NodeCount(),
		EdgeCount:    e.graph.EdgeCount(),
		BatchSenders: distinctSenders(batch),
	}
	tokens, err := e.signal.Flag(sctx, hint)
	if err != nil {
		e.logger.Debug("external signal unavailable", zap.Error(err))
		return nil
	}

	flagged := make(map[string]bool)
	for _, token := range tokens {
		if _, ok := e.graph.out[token]; ok {
			flagged[token] = true
		}
	}
	return flagged
}

// blacklistFlagged adds newly flagged accounts to the ledger and attempts
// one best-effort notarization per new entry. Returns the first reference
// the notary produced, if any.
func (e *Engine) blacklistFlagged(ctx context.Context, flagged map[string]bool) string {
	firstRef := ""
	for _, account := range sortedKeys(flagged) {
		if !e.blacklist.add(account) {
			continue
		}
		e.stats.BlacklistedCount++
		metrics.ObserveBlacklisted()
		accountHash := hashAccountID(account)
		e.logger.Info("account blacklisted", zap.String("account_hash", accountHash))

		ref := e.notarize(ctx, accountHash)
		if firstRef == "" {
			firstRef = ref
		}

		// Every ledger addition is recorded, with an empty reference when
		// the notary was absent or failed.
		if e.store != nil {
			if serr := e.store.SaveBlacklistEvent(ctx, account, accountHash, ref); serr != nil {
				e.logger.Warn("failed to persist blacklist event", zap.Error(serr))
			}
		}
	}
	return firstRef
}

// notarize performs the single fire-and-forget notarization attempt. The
// account is blacklisted either way; a failure only means no reference.
func (e *Engine) notarize(ctx context.Context, accountHash string) string {
	if e.notary == nil {
		return ""
	}
	nctx, cancel := context.WithTimeout(ctx, e.notaryTimeout)
	defer cancel()

	ref, err := e.notary.Notarize(nctx, accountHash)
	if err != nil {
		metrics.ObserveNotarizationFailure()
		e.logger.Warn("blacklist notarization failed",
			zap.String("account_hash", accountHash), zap.Error(err))
		return ""
	}
	return ref
}

func (e *Engine) emptyResult() models.DetectionResult {
	return models.DetectionResult{
		FraudType:       models.FraudNone,
		FlaggedAccounts: []string{},
		RiskScores:      map[string]float64{},
		Timestamp:       time.Now().UTC(),
	}
}

// Reset atomically replaces graph, blacklist and stats with empty initial
// values. It excludes all concurrent pipeline invocations.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph = newTransactionGraph()
	e.blacklist = newBlacklistLedger()
	e.stats = models.StatsSnapshot{}
	metrics.SetGraphSize(0, 0)
	e.logger.Info("engine state reset")
}

// ExportGraph returns a consistent snapshot of the graph for visualization.
func (e *Engine) ExportGraph() models.GraphExport {
	e.mu.RLock()
	defer e.mu.RUnlock()

	nodes := make([]models.GraphNode, 0, e.graph.NodeCount())
	for _, account := range e.graph.Nodes() {
		nodes = append(nodes, models.GraphNode{
			ID:            account,
			IsBlacklisted: e.blacklist.contains(account),
			InDegree:      e.graph.InDegree(account),
			OutDegree:     e.graph.OutDegree(account),
		})
	}
	return models.GraphExport{Nodes: nodes, Edges: e.graph.Edges()}
}

// Stats returns the counters plus live node/edge counts.
func (e *Engine) Stats() models.StatsSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := e.stats
	snap.NodeCount = e.graph.NodeCount()
	snap.EdgeCount = e.graph.EdgeCount()
	return snap
}

// Blacklist returns the current blacklist members, sorted.
func (e *Engine) Blacklist() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.blacklist.snapshot()
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// batchEdgeSet collects the (sender, receiver) pairs a batch introduces.
func batchEdgeSet(batch []models.Transaction) map[string]map[string]bool {
	edges := make(map[string]map[string]bool)
	for _, tx := range batch {
		if edges[tx.Sender] == nil {
			edges[tx.Sender] = make(map[string]bool)
		}
		edges[tx.Sender][tx.Receiver] = true
	}
	return edges
}

func distinctSenders(batch []models.Transaction) []string {
	seen := make(map[string]bool)
	for _, tx := range batch {
		seen[tx.Sender] = true
	}
	return sortedKeys(seen)
}
