// Package store is the durable transaction store: one row per submitted
// job, SQLite-backed via database/sql and modernc.org/sqlite (pure Go, no
// cgo).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
	"go.uber.org/zap"
)

// Status is a TransactionJob's lifecycle state. It moves monotonically:
// queued -> pending -> (succeeded | failed), or queued -> failed directly.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is the durable record of one transact request and its on-chain
// outcome.
type Job struct {
	ID              string
	ChainID         uint64
	SpendType       string
	BridgeType      string
	Status          Status
	PoolAddress     string
	AssetSymbol     string
	AssetDecimals   uint8
	CircuitType     string
	Signature       string
	ProofPayload    []byte
	TransactionHash string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateParams carries the fields a new job is created with; status always
// starts at StatusQueued.
type CreateParams struct {
	ChainID       uint64
	SpendType     string
	BridgeType    string
	PoolAddress   string
	AssetSymbol   string
	AssetDecimals uint8
	CircuitType   string
	Signature     string
	ProofPayload  []byte
}

// UpdateParams is a partial, idempotent update; nil fields are left
// unchanged.
type UpdateParams struct {
	Status          *Status
	TransactionHash *string
	ErrorMessage    *string
}

// Store is the shared transaction store: any number of concurrent readers,
// writes on the same job id serialized through a small lock table keyed by
// id hash, with no global write lock.
type Store struct {
	db     *sql.DB
	locks  *lockTable
	logger *zap.Logger
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	id INTEGER PRIMARY KEY
)`

// migrations is append-only: new entries are added to the end, never
// edited or removed.
var migrations = []string{
	`CREATE TABLE transactions (
		id TEXT PRIMARY KEY,
		chain_id INTEGER NOT NULL,
		spend_type TEXT NOT NULL,
		bridge_type TEXT NOT NULL,
		status TEXT NOT NULL,
		pool_address TEXT NOT NULL,
		asset_symbol TEXT NOT NULL,
		asset_decimals INTEGER NOT NULL,
		circuit_type TEXT NOT NULL,
		signature TEXT NOT NULL,
		proof_payload BLOB,
		transaction_hash TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX idx_transactions_signature ON transactions(signature)`,
	`CREATE TABLE accounts (
		chain_id INTEGER NOT NULL,
		chain_address TEXT NOT NULL,
		available INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (chain_id, chain_address)
	)`,
}

// Open opens (creating if needed) the SQLite database at path and runs any
// migrations not yet applied.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: serialize writers at the connection level
	s := &Store{db: db, locks: newLockTable(64), logger: logger}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrationsTable); err != nil {
		return fmt.Errorf("store: create migrations table: %w", err)
	}
	var applied int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied); err != nil {
		return fmt.Errorf("store: count migrations: %w", err)
	}
	for i := applied; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("store: begin migration %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: apply migration %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(id) VALUES (?)`, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: record migration %d: %w", i, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("store: commit migration %d: %w", i, err)
		}
		if s.logger != nil {
			s.logger.Info("applied store migration", zap.Int("migration", i))
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create persists a new job with status=queued and a freshly generated id.
func (s *Store) Create(ctx context.Context, p CreateParams) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:            uuid.New().String(),
		ChainID:       p.ChainID,
		SpendType:     p.SpendType,
		BridgeType:    p.BridgeType,
		Status:        StatusQueued,
		PoolAddress:   p.PoolAddress,
		AssetSymbol:   p.AssetSymbol,
		AssetDecimals: p.AssetDecimals,
		CircuitType:   p.CircuitType,
		Signature:     p.Signature,
		ProofPayload:  p.ProofPayload,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	unlock := s.locks.lock(job.ID)
	defer unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(id, chain_id, spend_type, bridge_type, status, pool_address, asset_symbol, asset_decimals, circuit_type, signature, proof_payload, transaction_hash, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', '', ?, ?)`,
		job.ID, job.ChainID, job.SpendType, job.BridgeType, job.Status, job.PoolAddress,
		job.AssetSymbol, job.AssetDecimals, job.CircuitType, job.Signature, job.ProofPayload,
		job.CreatedAt.Format(time.RFC3339Nano), job.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("store: create job: %w", err)
	}
	return job, nil
}

// Find returns the job with id, or (nil, nil) if absent.
func (s *Store) Find(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		id, chain_id, spend_type, bridge_type, status, pool_address, asset_symbol, asset_decimals,
		circuit_type, signature, proof_payload, transaction_hash, error_message, created_at, updated_at
		FROM transactions WHERE id = ?`, id)
	return scanJob(row)
}

// IsRepeated reports whether any non-failed job already carries signature.
func (s *Store) IsRepeated(ctx context.Context, signature string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE signature = ? AND status != ?`,
		signature, StatusFailed).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: is_repeated: %w", err)
	}
	return count > 0, nil
}

// Update applies a partial update to job id. It is idempotent: re-applying
// an identical payload succeeds silently. Returns (nil, nil) if id is
// absent — a soft no-op, not an error.
func (s *Store) Update(ctx context.Context, id string, p UpdateParams) (*Job, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	existing, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	status := existing.Status
	if p.Status != nil {
		status = *p.Status
	}
	hash := existing.TransactionHash
	if p.TransactionHash != nil {
		hash = *p.TransactionHash
	}
	errMsg := existing.ErrorMessage
	if p.ErrorMessage != nil {
		errMsg = *p.ErrorMessage
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx, `UPDATE transactions SET status = ?, transaction_hash = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status, hash, errMsg, now.Format(time.RFC3339Nano), id)
	if err != nil {
		return nil, fmt.Errorf("store: update job %s: %w", id, err)
	}

	existing.Status = status
	existing.TransactionHash = hash
	existing.ErrorMessage = errMsg
	existing.UpdatedAt = now
	return existing, nil
}

// RecordAccount writes an informational snapshot row for a configured
// account — audit/debugging only, never read back by the core.
func (s *Store) RecordAccount(ctx context.Context, chainID uint64, chainAddress string, available bool) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO accounts (chain_id, chain_address, available, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chain_id, chain_address) DO UPDATE SET available = excluded.available, recorded_at = excluded.recorded_at`,
		chainID, chainAddress, available, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var created, updated string
	err := row.Scan(&j.ID, &j.ChainID, &j.SpendType, &j.BridgeType, &j.Status, &j.PoolAddress,
		&j.AssetSymbol, &j.AssetDecimals, &j.CircuitType, &j.Signature, &j.ProofPayload,
		&j.TransactionHash, &j.ErrorMessage, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan job: %w", err)
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	j.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return &j, nil
}

// lockTable shards per-id mutexes across a fixed number of stripes so
// writes to the same job id serialize without a single global write lock.
type lockTable struct {
	stripes []sync.Mutex
}

func newLockTable(n int) *lockTable {
	return &lockTable{stripes: make([]sync.Mutex, n)}
}

func (t *lockTable) lock(id string) (unlock func()) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	idx := int(h.Sum32()) % len(t.stripes)
	if idx < 0 {
		idx += len(t.stripes)
	}
	t.stripes[idx].Lock()
	return t.stripes[idx].Unlock
}
