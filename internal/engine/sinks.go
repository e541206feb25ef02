package engine

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// Transition describes one committed status change, on either the execution
// axis or the payment axis. From and To carry status wire names so one row
// shape covers both.
type Transition struct {
	TxID          uint64         `json:"tx_id"`
	From          string         `json:"from"`
	To            string         `json:"to"`
	Actor         common.Address `json:"actor"`
	Function      guard.Selector `json:"function"`
	Note          string         `json:"note,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	At            time.Time      `json:"at"`
}

// Journal archives committed transitions. Journaling is best-effort: the
// in-process record table is authoritative and a journal failure must not
// roll back a committed transition, so errors are logged, not returned to
// callers.
type Journal interface {
	RecordTransition(ctx context.Context, t Transition) error
}

// Publisher emits committed transitions to downstream consumers.
type Publisher interface {
	PublishTransition(ctx context.Context, t Transition) error
}

// Alerter notifies operators when an execution lands in Failed.
type Alerter interface {
	ExecutionFailed(ctx context.Context, record *guard.TxRecord, reason string) error
}
