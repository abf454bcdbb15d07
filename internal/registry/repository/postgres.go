package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/anchorledger/internal/registry/model"
	"github.com/jmerrifield20/anchorledger/pkg/digest"
	"go.uber.org/zap"
)

// advisoryLockKey serialises Write calls across every process sharing the
// database. The value is arbitrary but must be the same everywhere.
const advisoryLockKey = int64(2_026_101_900)

const uniqueViolation = "23505"

// PostgresStore persists anchor records to PostgreSQL.
// Schema: migrations/001_init.up.sql.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, hash digest.Digest) (*model.Record, error) {
	var (
		rec     model.Record
		raw     []byte
		ordinal int64
	)
	err := s.pool.QueryRow(ctx,
		`SELECT hash, submitter, ordinal, observed_at FROM anchors WHERE hash = $1`,
		hash[:],
	).Scan(&raw, &rec.Submitter, &ordinal, &rec.ObservedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotAnchored
		}
		return nil, fmt.Errorf("get anchor %s: %w", hash, err)
	}
	if rec.Hash, err = digest.FromBytes(raw); err != nil {
		return nil, fmt.Errorf("decode anchor %s: %w", hash, err)
	}
	rec.Ordinal = uint64(ordinal)
	rec.ObservedAt = rec.ObservedAt.UTC()
	return &rec, nil
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context) (model.Stats, error) {
	var (
		n    int
		last int64
	)
	if err := s.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM anchors), (SELECT last_ordinal FROM anchor_sequence WHERE id = 1)`,
	).Scan(&n, &last); err != nil {
		return model.Stats{}, fmt.Errorf("anchor stats: %w", err)
	}
	return model.Stats{Records: n, LastOrdinal: uint64(last)}, nil
}

// Write implements Store.
// It opens a transaction, takes a transaction-scoped advisory lock, reserves
// the next ordinal and runs fn. Each Insert runs under its own savepoint.
// The transaction is committed when fn succeeds, or when fn fails after at
// least one Insert, in which case those inserts are kept.
func (s *PostgresStore) Write(ctx context.Context, fn func(ctx context.Context, w Writer) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	var last int64
	if err := tx.QueryRow(ctx,
		`SELECT last_ordinal FROM anchor_sequence WHERE id = 1`,
	).Scan(&last); err != nil {
		return fmt.Errorf("read anchor sequence: %w", err)
	}

	w := &pgWriter{tx: tx, ordinal: uint64(last + 1)}
	fnErr := fn(ctx, w)
	if fnErr != nil && w.inserted == 0 {
		return fnErr
	}

	if _, err := tx.Exec(ctx,
		`UPDATE anchor_sequence SET last_ordinal = $1 WHERE id = 1`, last+1,
	); err != nil {
		return errors.Join(fnErr, fmt.Errorf("advance anchor sequence: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Join(fnErr, fmt.Errorf("commit anchor tx: %w", err))
	}

	if fnErr != nil {
		s.logger.Warn("anchor write partially committed",
			zap.Int64("ordinal", last+1),
			zap.Int("inserted", w.inserted),
			zap.Error(fnErr),
		)
		return fnErr
	}
	s.logger.Debug("anchor write committed",
		zap.Int64("ordinal", last+1),
		zap.Int("inserted", w.inserted),
	)
	return nil
}

type pgWriter struct {
	tx       pgx.Tx
	ordinal  uint64
	inserted int
}

func (w *pgWriter) Ordinal() uint64 { return w.ordinal }

func (w *pgWriter) Exists(ctx context.Context, hash digest.Digest) (bool, error) {
	var exists bool
	if err := w.tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM anchors WHERE hash = $1)`, hash[:],
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check anchor %s: %w", hash, err)
	}
	return exists, nil
}

func (w *pgWriter) Insert(ctx context.Context, rec *model.Record) error {
	sp, err := w.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint for %s: %w", rec.Hash, err)
	}
	defer sp.Rollback(ctx) //nolint:errcheck

	if _, err := sp.Exec(ctx,
		`INSERT INTO anchors (hash, submitter, ordinal, observed_at) VALUES ($1, $2, $3, $4)`,
		rec.Hash[:], rec.Submitter, int64(rec.Ordinal), rec.ObservedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert %s: %w", rec.Hash, model.ErrAlreadyAnchored)
		}
		return fmt.Errorf("insert anchor %s: %w", rec.Hash, err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release savepoint for %s: %w", rec.Hash, err)
	}
	w.inserted++
	return nil
}
