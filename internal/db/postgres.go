package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fraudnets/detection-engine/pkg/models"
)

// schemaSQL is compiled into the binary at build time so schema init works
// inside the runtime image without shipping the .sql file alongside it.
//
//go:embed schema.sql
var schemaSQL string

// PostgresStore persists detection outcomes and blacklist events. It is an
// optional collaborator: the engine runs with a nil store and every write is
// best-effort from the pipeline's point of view.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect initializes the pgx connection pool.
func Connect(ctx context.Context, connStr string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping failed: %w", err)
	}
	logger.Info("connected to PostgreSQL detection store")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Close gracefully closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema DDL.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema migrations: %w", err)
	}
	s.logger.Info("detection store schema initialized")
	return nil
}

// SaveDetection persists one pipeline verdict.
func (s *PostgresStore) SaveDetection(ctx context.Context, result models.DetectionResult, batchSize int) error {
	sql := `
		INSERT INTO detections (id, detected_at, is_fraud, fraud_type, flagged_accounts, batch_size, notary_ref)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''));
	`
	_, err := s.pool.Exec(ctx, sql,
		uuid.New(),
		result.Timestamp,
		result.IsFraud,
		string(result.FraudType),
		result.FlaggedAccounts,
		batchSize,
		result.BlacklistTxRef,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection: %w", err)
	}
	return nil
}

// SaveBlacklistEvent records one ledger addition together with its
// notarization reference, when the notary produced one.
func (s *PostgresStore) SaveBlacklistEvent(ctx context.Context, account, accountHash, notaryRef string) error {
	sql := `
		INSERT INTO blacklist_events (account, account_hash, notary_ref)
		VALUES ($1, $2, NULLIF($3, ''));
	`
	if _, err := s.pool.Exec(ctx, sql, account, accountHash, notaryRef); err != nil {
		return fmt.Errorf("failed to insert blacklist event: %w", err)
	}
	return nil
}

// DetectionRecord is one row of the stored detection history.
type DetectionRecord struct {
	ID              string           `json:"id"`
	DetectedAt      string           `json:"detected_at"`
	IsFraud         bool             `json:"is_fraud"`
	FraudType       models.FraudType `json:"fraud_type"`
	FlaggedAccounts []string         `json:"flagged_accounts"`
	BatchSize       int              `json:"batch_size"`
	NotaryRef       string           `json:"notary_ref,omitempty"`
}

// RecentDetections returns the newest stored verdicts, most recent first.
func (s *PostgresStore) RecentDetections(ctx context.Context, limit int) ([]DetectionRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	sql := `
		SELECT id::text, detected_at::text, is_fraud, fraud_type, flagged_accounts, batch_size, COALESCE(notary_ref, '')
		FROM detections
		ORDER BY detected_at DESC
		LIMIT $1;
	`
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]DetectionRecord, 0, limit)
	for rows.Next() {
		var rec DetectionRecord
		var fraudType string
		if err := rows.Scan(&rec.ID, &rec.DetectedAt, &rec.IsFraud, &fraudType,
			&rec.FlaggedAccounts, &rec.BatchSize, &rec.NotaryRef); err != nil {
			return nil, err
		}
		rec.FraudType = models.FraudType(fraudType)
		records = append(records, rec)
	}
	return records, rows.Err()
}
