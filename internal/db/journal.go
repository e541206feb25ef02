// Package db archives committed status transitions to Postgres. The
// in-process record table is authoritative; this journal exists for audit
// queries that outlive a process, so writes are best-effort from the
// engine's point of view.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/guardrail-labs/guardrail-api/internal/engine"
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS tx_transitions (
    id             BIGSERIAL PRIMARY KEY,
    tx_id          BIGINT      NOT NULL,
    from_status    TEXT        NOT NULL,
    to_status      TEXT        NOT NULL,
    actor          TEXT        NOT NULL,
    function_id    TEXT        NOT NULL,
    note           TEXT        NOT NULL DEFAULT '',
    correlation_id TEXT        NOT NULL DEFAULT '',
    occurred_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS tx_transitions_tx_id_idx ON tx_transitions (tx_id);
`

// Store is the pgx-backed journal.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and ensures the journal table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to journal database")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging journal database")
	}
	if _, err := pool.Exec(ctx, journalSchema); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "creating journal schema")
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RecordTransition appends one committed transition.
func (s *Store) RecordTransition(ctx context.Context, t engine.Transition) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tx_transitions (tx_id, from_status, to_status, actor, function_id, note, correlation_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		int64(t.TxID),
		t.From,
		t.To,
		t.Actor.Hex(),
		t.Function.Hex(),
		t.Note,
		t.CorrelationID,
		pgtype.Timestamptz{Time: t.At, Valid: true},
	)
	return errors.Wrapf(err, "journaling transition for tx %d", t.TxID)
}

// TransitionRow is one archived transition as stored.
type TransitionRow struct {
	ID            int64  `json:"id"`
	TxID          uint64 `json:"tx_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Actor         string `json:"actor"`
	Function      string `json:"function"`
	Note          string `json:"note,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// ListTransitions returns a record's archived transitions in commit order.
func (s *Store) ListTransitions(ctx context.Context, txID uint64) ([]TransitionRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tx_id, from_status, to_status, actor, function_id, note, correlation_id, occurred_at
		 FROM tx_transitions WHERE tx_id = $1 ORDER BY id`,
		int64(txID),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "listing transitions for tx %d", txID)
	}
	defer rows.Close()

	var out []TransitionRow
	for rows.Next() {
		var (
			row TransitionRow
			id  int64
			ts  pgtype.Timestamptz
		)
		if err := rows.Scan(&row.ID, &id, &row.From, &row.To, &row.Actor, &row.Function, &row.Note, &row.CorrelationID, &ts); err != nil {
			return nil, errors.Wrap(err, "scanning transition row")
		}
		row.TxID = uint64(id)
		if ts.Valid {
			row.OccurredAt = ts.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00")
		}
		out = append(out, row)
	}
	return out, errors.Wrap(rows.Err(), "iterating transition rows")
}
