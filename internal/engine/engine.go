// Package engine owns the transaction state machine and the single critical
// section guarding all registry state. The intended execution model is strict
// global serialization of mutating calls: permission checks and the mutation
// they gate run under one writer lock, so a role or permission change cannot
// slip between check and use. Read-only queries share a read lock and see a
// consistent snapshot.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/admin"
	"github.com/guardrail-labs/guardrail-api/internal/authz"
	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/logger"
	"github.com/guardrail-labs/guardrail-api/internal/metatx"
	"github.com/guardrail-labs/guardrail-api/internal/middleware"
	"github.com/guardrail-labs/guardrail-api/internal/schema"
)

// Config carries the engine's deployment identity and collaborators.
// Journal, Publisher, and Alerter are optional sinks; Invoker is required
// for any deployment that executes against external targets.
type Config struct {
	DomainID      uint64
	HandlerTarget common.Address
	TimeLock      time.Duration
	Invoker       Invoker
	Journal       Journal
	Publisher     Publisher
	Alerter       Alerter
	Logger        *zap.Logger
	Clock         func() time.Time
}

// Engine is the process-wide registry state: roles, schemas, whitelists, the
// transaction record table, and the per-signer nonce ledger, all guarded by
// one lock.
type Engine struct {
	mu sync.RWMutex

	logger *zap.Logger

	roles   *authz.Registry
	schemas *schema.Registry

	records  map[uint64]*guard.TxRecord
	order    []uint64
	nextTxID uint64

	nonces map[common.Address]uint64

	timeLock      time.Duration
	domainID      uint64
	handlerTarget common.Address
	batchSelector guard.Selector

	invoker   Invoker
	journal   Journal
	publisher Publisher
	alerter   Alerter

	now func() time.Time
}

// New builds an engine and registers the configuration-batch executor's own
// schema, so administrative permissions can be granted against it from the
// first bootstrap batch onward.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logger.Log
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	e := &Engine{
		logger:        log,
		roles:         authz.NewRegistry(),
		schemas:       schema.NewRegistry(),
		records:       make(map[uint64]*guard.TxRecord),
		nextTxID:      1,
		nonces:        make(map[common.Address]uint64),
		timeLock:      cfg.TimeLock,
		domainID:      cfg.DomainID,
		handlerTarget: cfg.HandlerTarget,
		batchSelector: admin.BatchSelector(),
		invoker:       cfg.Invoker,
		journal:       cfg.Journal,
		publisher:     cfg.Publisher,
		alerter:       cfg.Alerter,
		now:           clock,
	}
	_, err := e.schemas.Register(schema.RegisterParams{
		Signature:         admin.BatchFunctionSignature,
		OperationName:     "configuration batch",
		OperationCategory: guard.CategoryHash("ADMINISTRATION"),
		SupportedActions: guard.NewActionSet(
			guard.ActionDirectRequest,
			guard.ActionDirectApprove,
			guard.ActionDirectCancel,
			guard.ActionSignRequestAndApprove,
			guard.ActionSignApprove,
			guard.ActionSignCancel,
			guard.ActionExecuteRequestAndApprove,
			guard.ActionExecuteApprove,
			guard.ActionExecuteCancel,
		),
		Guarded: true,
	})
	if err != nil {
		// Only reachable if the built-in signature were registered twice.
		panic(fmt.Sprintf("registering batch executor schema: %v", err))
	}
	return e
}

// hasPermissionLocked is the core authorization predicate: the address must
// belong to a role granting the action for the function, and the governing
// schema must support that action.
func (e *Engine) hasPermissionLocked(addr common.Address, fn guard.Selector, action guard.ActionKind) bool {
	return e.roles.HoldsAction(addr, fn, action) && e.schemas.Supports(fn, action)
}

func permissionError(addr common.Address, fn guard.Selector, action guard.ActionKind) error {
	return fmt.Errorf("%s lacks %s for function %s: %w", addr.Hex(), action, fn, guard.ErrPermissionDenied)
}

// Request creates a Pending record for the caller's operation. The caller
// becomes the requester regardless of what the payload claimed.
func (e *Engine) Request(ctx context.Context, caller common.Address, params guard.TxParams) (*guard.TxRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasPermissionLocked(caller, params.Function, guard.ActionDirectRequest) {
		return nil, permissionError(caller, params.Function, guard.ActionDirectRequest)
	}
	params.Requester = caller
	rec := e.createRecordLocked(ctx, caller, params, e.now().Add(e.timeLock))

	e.logger.Info("transaction requested",
		zap.Uint64("tx_id", rec.TxID),
		zap.String("requester", caller.Hex()),
		zap.String("function", params.Function.Hex()),
		zap.Time("release_time", rec.ReleaseTime),
	)
	return rec.Clone(), nil
}

// Approve executes a Pending record after its time lock has elapsed. A
// failing target commits status Failed rather than surfacing an error, so
// the audit trail keeps the attempt.
func (e *Engine) Approve(ctx context.Context, caller common.Address, txID uint64) (*guard.TxRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.recordLocked(txID)
	if err != nil {
		return nil, err
	}
	fn := rec.Params.Function
	if !e.hasPermissionLocked(caller, fn, guard.ActionDirectApprove) {
		return nil, permissionError(caller, fn, guard.ActionDirectApprove)
	}
	if rec.Status != guard.StatusPending {
		return nil, fmt.Errorf("tx %d is %s, approval requires PENDING: %w", txID, rec.Status, guard.ErrInvalidStateTransition)
	}
	if e.now().Before(rec.ReleaseTime) {
		return nil, fmt.Errorf("tx %d releases at %s: %w", txID, rec.ReleaseTime.Format(time.RFC3339), guard.ErrTimeLockNotElapsed)
	}
	if !e.schemas.IsTargetWhitelisted(fn, rec.Params.Target) {
		return nil, fmt.Errorf("tx %d target %s: %w", txID, rec.Params.Target.Hex(), guard.ErrTargetNotWhitelisted)
	}

	e.executeLocked(ctx, rec, caller)
	return rec.Clone(), nil
}

// Cancel withdraws a Pending record. Cancellation is legal both before and
// after the release time: an unapproved record stays cancellable for as long
// as it remains Pending.
func (e *Engine) Cancel(ctx context.Context, caller common.Address, txID uint64) (*guard.TxRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.recordLocked(txID)
	if err != nil {
		return nil, err
	}
	fn := rec.Params.Function
	if !e.hasPermissionLocked(caller, fn, guard.ActionDirectCancel) {
		return nil, permissionError(caller, fn, guard.ActionDirectCancel)
	}
	if rec.Status != guard.StatusPending {
		return nil, fmt.Errorf("tx %d is %s, cancellation requires PENDING: %w", txID, rec.Status, guard.ErrInvalidStateTransition)
	}

	e.setStatusLocked(ctx, rec, guard.StatusCancelled, caller, "")
	return rec.Clone(), nil
}

// UpdatePayment settles a record that reached Completed or Failed. The
// payment axis only moves forward: UNSET, PROCESSING, SETTLED.
func (e *Engine) UpdatePayment(ctx context.Context, caller common.Address, txID uint64, status guard.PaymentStatus, payer common.Address, amount *big.Int) (*guard.TxRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.recordLocked(txID)
	if err != nil {
		return nil, err
	}
	fn := rec.Params.Function
	if !e.hasPermissionLocked(caller, fn, guard.ActionUpdatePayment) {
		return nil, permissionError(caller, fn, guard.ActionUpdatePayment)
	}
	if rec.Status != guard.StatusCompleted && rec.Status != guard.StatusFailed {
		return nil, fmt.Errorf("tx %d is %s, payment update requires COMPLETED or FAILED: %w", txID, rec.Status, guard.ErrInvalidStateTransition)
	}
	if status <= rec.Payment.Status {
		return nil, fmt.Errorf("tx %d payment is %s, cannot move to %s: %w", txID, rec.Payment.Status, status, guard.ErrInvalidStateTransition)
	}

	from := rec.Payment.Status
	rec.Payment.Status = status
	rec.Payment.Payer = payer
	if amount != nil {
		rec.Payment.Amount = new(big.Int).Set(amount)
	}
	if status == guard.PaymentSettled {
		rec.Payment.SettledAt = e.now()
	}
	rec.UpdatedAt = e.now()

	e.emitTransitionLocked(ctx, Transition{
		TxID:     rec.TxID,
		From:     "PAYMENT_" + from.String(),
		To:       "PAYMENT_" + status.String(),
		Actor:    caller,
		Function: fn,
		At:       e.now(),
	})
	return rec.Clone(), nil
}

// ExecuteSigned verifies a relayed meta-transaction and, when every gate
// passes, performs the authorized transition. The gates run in a fixed
// order and any failure leaves all state untouched, including the signer's
// nonce; the nonce advances only once the transition is certain to commit.
func (e *Engine) ExecuteSigned(ctx context.Context, relayer common.Address, smt guard.SignedMetaTransaction) (*guard.TxRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var execAction guard.ActionKind
	newRecord := false
	switch smt.Params.Action {
	case guard.ActionSignApprove:
		execAction = guard.ActionExecuteApprove
	case guard.ActionSignCancel:
		execAction = guard.ActionExecuteCancel
	case guard.ActionSignRequestAndApprove:
		execAction = guard.ActionExecuteRequestAndApprove
		newRecord = true
	default:
		return nil, fmt.Errorf("action %s cannot authorize a meta-transaction: %w", smt.Params.Action, guard.ErrUnsupportedAction)
	}

	var rec *guard.TxRecord
	var params guard.TxParams
	if newRecord {
		params = smt.TxRecord.Params
	} else {
		var err error
		rec, err = e.recordLocked(smt.TxRecord.TxID)
		if err != nil {
			return nil, err
		}
		if smt.CommitmentHash != rec.CommitmentHash {
			return nil, fmt.Errorf("tx %d commitment mismatch: %w", rec.TxID, guard.ErrSignatureInvalid)
		}
		// The digest is recomputed from the stored parameters, never from
		// the relayer's copy.
		params = rec.Params
	}

	digest := metatx.Digest(smt.Params, params)
	recovered, err := metatx.RecoverSigner(digest, smt.Signature)
	if err != nil {
		return nil, err
	}
	if recovered != smt.Params.Signer {
		return nil, fmt.Errorf("recovered %s, expected %s: %w", recovered.Hex(), smt.Params.Signer.Hex(), guard.ErrSignatureInvalid)
	}
	if e.now().After(smt.Params.Deadline) {
		return nil, fmt.Errorf("deadline %s: %w", smt.Params.Deadline.Format(time.RFC3339), guard.ErrExpired)
	}
	if expected := e.nonces[smt.Params.Signer]; smt.Params.Nonce != expected {
		return nil, fmt.Errorf("signer %s nonce %d, expected %d: %w", smt.Params.Signer.Hex(), smt.Params.Nonce, expected, guard.ErrNonceMismatch)
	}
	if smt.Params.DomainID != e.domainID || smt.Params.HandlerTarget != e.handlerTarget {
		return nil, fmt.Errorf("domain %d target %s, verifier is domain %d target %s: %w",
			smt.Params.DomainID, smt.Params.HandlerTarget.Hex(), e.domainID, e.handlerTarget.Hex(), guard.ErrDomainMismatch)
	}
	if !e.hasPermissionLocked(smt.Params.Signer, params.Function, smt.Params.Action) {
		return nil, permissionError(smt.Params.Signer, params.Function, smt.Params.Action)
	}
	if !e.hasPermissionLocked(relayer, params.Function, execAction) {
		return nil, permissionError(relayer, params.Function, execAction)
	}
	if smt.Params.Action != guard.ActionSignCancel {
		if !e.schemas.IsTargetWhitelisted(params.Function, params.Target) {
			return nil, fmt.Errorf("target %s: %w", params.Target.Hex(), guard.ErrTargetNotWhitelisted)
		}
	}
	if !newRecord && rec.Status != guard.StatusPending {
		return nil, fmt.Errorf("tx %d is %s, meta %s requires PENDING: %w", rec.TxID, rec.Status, smt.Params.Action, guard.ErrInvalidStateTransition)
	}

	// All gates passed; the transition below always commits, so the nonce
	// advances with it. Two concurrent relays of the same message cannot
	// both reach this line.
	e.nonces[smt.Params.Signer]++

	switch smt.Params.Action {
	case guard.ActionSignCancel:
		e.setStatusLocked(ctx, rec, guard.StatusCancelled, relayer, "meta-cancel signed by "+smt.Params.Signer.Hex())
	case guard.ActionSignApprove:
		// Delegated approval is the designed fast path: no time-lock wait.
		e.executeLocked(ctx, rec, relayer)
	case guard.ActionSignRequestAndApprove:
		rec = e.createRecordLocked(ctx, smt.Params.Signer, params, e.now())
		e.executeLocked(ctx, rec, relayer)
	}

	e.logger.Info("meta-transaction executed",
		zap.Uint64("tx_id", rec.TxID),
		zap.String("action", smt.Params.Action.String()),
		zap.String("signer", smt.Params.Signer.Hex()),
		zap.String("relayer", relayer.Hex()),
		zap.String("status", rec.Status.String()),
	)
	return rec.Clone(), nil
}

// Bootstrap applies a configuration batch without the permission predicate.
// It is only legal while no role exists, so a deployment seeds itself once
// and every later change must flow through an authorized batch.
func (e *Engine) Bootstrap(ctx context.Context, batch admin.Batch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roles.Empty() {
		return fmt.Errorf("bootstrap refused, registry already seeded: %w", guard.ErrInvalidStateTransition)
	}
	if _, err := e.applyBatchLocked(batch); err != nil {
		return err
	}
	e.logger.Info("registry bootstrapped", zap.Int("actions", len(batch)))
	_ = ctx
	return nil
}

// createRecordLocked assigns the next txId, computes the commitment hash,
// and stores the Pending record. TxIds are strictly increasing and never
// reused or reassigned.
func (e *Engine) createRecordLocked(ctx context.Context, actor common.Address, params guard.TxParams, releaseTime time.Time) *guard.TxRecord {
	now := e.now()
	rec := &guard.TxRecord{
		TxID:        e.nextTxID,
		ReleaseTime: releaseTime,
		Status:      guard.StatusPending,
		Params:      params,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec.CommitmentHash = metatx.CommitmentHash(rec.TxID, params)
	e.nextTxID++
	e.records[rec.TxID] = rec
	e.order = append(e.order, rec.TxID)

	e.emitTransitionLocked(ctx, Transition{
		TxID:     rec.TxID,
		From:     "NONE",
		To:       rec.Status.String(),
		Actor:    actor,
		Function: params.Function,
		At:       now,
	})
	return rec
}

// executeLocked runs Pending → Executing → Completed/Failed. The target
// call is atomic on its side; the record's own status transition always
// commits, recording failure instead of disappearing.
func (e *Engine) executeLocked(ctx context.Context, rec *guard.TxRecord, actor common.Address) {
	e.setStatusLocked(ctx, rec, guard.StatusExecuting, actor, "")

	result, err := e.invokeLocked(ctx, rec)
	if err != nil {
		rec.Result = []byte(err.Error())
		e.setStatusLocked(ctx, rec, guard.StatusFailed, actor, fmt.Sprintf("%s: %v", guard.ErrExecutionFailed, err))
		e.logger.Warn("target execution failed",
			zap.Uint64("tx_id", rec.TxID),
			zap.String("target", rec.Params.Target.Hex()),
			zap.Error(err),
		)
		if e.alerter != nil {
			if alertErr := e.alerter.ExecutionFailed(ctx, rec.Clone(), err.Error()); alertErr != nil {
				e.logger.Error("failure alert not delivered", zap.Uint64("tx_id", rec.TxID), zap.Error(alertErr))
			}
		}
		return
	}
	rec.Result = result
	e.setStatusLocked(ctx, rec, guard.StatusCompleted, actor, "")
}

func (e *Engine) invokeLocked(ctx context.Context, rec *guard.TxRecord) ([]byte, error) {
	p := rec.Params
	if p.Function == e.batchSelector && p.Target == e.handlerTarget {
		return e.applyBatchBytesLocked(p.ExecutionArgs)
	}
	if e.invoker == nil {
		return nil, fmt.Errorf("no invoker configured for target %s", p.Target.Hex())
	}
	return e.invoker.Invoke(ctx, p.Target, p.Value, p.ExecutionBudget, p.Function, p.ExecutionArgs)
}

func (e *Engine) setStatusLocked(ctx context.Context, rec *guard.TxRecord, to guard.TxStatus, actor common.Address, note string) {
	from := rec.Status
	rec.Status = to
	rec.UpdatedAt = e.now()
	e.emitTransitionLocked(ctx, Transition{
		TxID:     rec.TxID,
		From:     from.String(),
		To:       to.String(),
		Actor:    actor,
		Function: rec.Params.Function,
		Note:     note,
		At:       rec.UpdatedAt,
	})
}

// emitTransitionLocked feeds the journal and the event publisher. Both are
// best-effort sinks; the in-process table is authoritative.
func (e *Engine) emitTransitionLocked(ctx context.Context, t Transition) {
	t.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	if e.journal != nil {
		if err := e.journal.RecordTransition(ctx, t); err != nil {
			e.logger.Error("journal write failed",
				zap.Uint64("tx_id", t.TxID),
				zap.String("to", t.To),
				zap.Error(err),
			)
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishTransition(ctx, t); err != nil {
			e.logger.Error("transition publish failed",
				zap.Uint64("tx_id", t.TxID),
				zap.String("to", t.To),
				zap.Error(err),
			)
		}
	}
}

func (e *Engine) recordLocked(txID uint64) (*guard.TxRecord, error) {
	rec, ok := e.records[txID]
	if !ok {
		return nil, fmt.Errorf("tx %d: %w", txID, guard.ErrResourceNotFound)
	}
	return rec, nil
}

// applyBatchBytesLocked is the execution body of the batch function.
func (e *Engine) applyBatchBytesLocked(args []byte) ([]byte, error) {
	batch, err := admin.DecodeBatch(args)
	if err != nil {
		return nil, err
	}
	return e.applyBatchLocked(batch)
}

// applyBatchLocked applies a batch all-or-nothing: actions run against
// clones of both registries and a staged time-lock value, which replace the
// live state only if every action succeeds.
func (e *Engine) applyBatchLocked(batch admin.Batch) ([]byte, error) {
	roles := e.roles.Clone()
	schemas := e.schemas.Clone()
	timeLock := e.timeLock

	for i, action := range batch {
		if err := e.applyActionLocked(roles, schemas, &timeLock, action); err != nil {
			return nil, fmt.Errorf("batch action %d (%s): %w", i, action.Kind, err)
		}
	}

	e.roles = roles
	e.schemas = schemas
	e.timeLock = timeLock

	result, err := json.Marshal(map[string]int{"applied": len(batch)})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) applyActionLocked(roles *authz.Registry, schemas *schema.Registry, timeLock *time.Duration, action admin.Action) error {
	switch action.Kind {
	case admin.KindCreateRole:
		var p admin.CreateRolePayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		_, err := roles.CreateRole(p.Name, p.MaxMembers)
		return err

	case admin.KindRemoveRole:
		var p admin.RemoveRolePayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		return roles.RemoveRole(p.RoleHash)

	case admin.KindAddMember:
		var p admin.MemberPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		return roles.AddMember(p.RoleHash, p.Address)

	case admin.KindRevokeMember:
		var p admin.MemberPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		return roles.RevokeMember(p.RoleHash, p.Address)

	case admin.KindGrantPermission:
		var p admin.GrantPermissionPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		// Write-time superset check when the schema already exists; the
		// evaluation-time double predicate covers grants that precede
		// their schema.
		if schemas.Exists(p.Permission.Function) {
			fs, err := schemas.Schema(p.Permission.Function)
			if err != nil {
				return err
			}
			if !p.Permission.Actions.SubsetOf(fs.SupportedActions) {
				return fmt.Errorf("function %s: %w", p.Permission.Function, guard.ErrUnsupportedAction)
			}
		}
		return roles.GrantFunctionPermission(p.RoleHash, p.Permission)

	case admin.KindRevokePermission:
		var p admin.RevokePermissionPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		return roles.RevokeFunctionPermission(p.RoleHash, p.Function)

	case admin.KindRegisterFunction:
		var p admin.RegisterFunctionPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		advertised := false
		if e.invoker != nil {
			advertised = e.invoker.Advertises(guard.SelectorFromSignature(p.Signature))
		}
		_, err := schemas.Register(schema.RegisterParams{
			Signature:         p.Signature,
			OperationName:     p.OperationName,
			OperationCategory: guard.CategoryHash(p.OperationCategory),
			SupportedActions:  p.SupportedActions,
			Guarded:           p.Guarded,
			HandlerFor:        p.HandlerFor,
			Advertised:        advertised,
		})
		return err

	case admin.KindUnregisterFunction:
		var p admin.UnregisterFunctionPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		if p.SafeRemoval && roles.AnyPermissionReferences(p.Function) {
			return fmt.Errorf("function %s: %w", p.Function, guard.ErrPermissionStillReferenced)
		}
		return schemas.Unregister(p.Function)

	case admin.KindWhitelistAdd:
		var p admin.WhitelistPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		return schemas.AddWhitelist(p.Function, p.Target)

	case admin.KindWhitelistRemove:
		var p admin.WhitelistPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		return schemas.RemoveWhitelist(p.Function, p.Target)

	case admin.KindSetTimeLock:
		var p admin.SetTimeLockPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return err
		}
		*timeLock = time.Duration(p.Seconds) * time.Second
		return nil

	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// Record returns a snapshot of one record.
func (e *Engine) Record(txID uint64) (*guard.TxRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, err := e.recordLocked(txID)
	if err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// PendingIDs returns the ids of all Pending records in request order.
func (e *Engine) PendingIDs() []uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]uint64, 0)
	for _, id := range e.order {
		if e.records[id].Status == guard.StatusPending {
			out = append(out, id)
		}
	}
	return out
}

// NextNonce returns the signer's next expected nonce.
func (e *Engine) NextNonce(signer common.Address) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.nonces[signer]
}

// Schema returns the schema registered for a selector.
func (e *Engine) Schema(fn guard.Selector) (schema.FunctionSchema, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schemas.Schema(fn)
}

// Schemas returns all registered schemas.
func (e *Engine) Schemas() []schema.FunctionSchema {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.schemas.Schemas()
}

// Role returns a snapshot of one role with its permissions and members.
func (e *Engine) Role(hash common.Hash) (authz.RoleView, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.Role(hash)
}

// Roles returns snapshots of all roles.
func (e *Engine) Roles() []authz.RoleView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roles.Roles()
}

// HasPermission exposes the authorization predicate for queries.
func (e *Engine) HasPermission(addr common.Address, fn guard.Selector, action guard.ActionKind) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasPermissionLocked(addr, fn, action)
}

// Whitelist returns the configured targets for a function and whether the
// function is restricted at all (false means default allow).
func (e *Engine) Whitelist(fn guard.Selector) ([]common.Address, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	targets := e.schemas.Whitelist(fn)
	return targets, targets != nil
}

// DigestForRecord rebuilds the signing digest for an existing record from
// its stored parameters, so an off-line signer and the verifier agree on
// the exact message.
func (e *Engine) DigestForRecord(params guard.MetaTxParams, txID uint64) (common.Hash, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, err := e.recordLocked(txID)
	if err != nil {
		return common.Hash{}, err
	}
	return metatx.Digest(params, rec.Params), nil
}

// TimeLock returns the current request-to-approval delay.
func (e *Engine) TimeLock() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timeLock
}

// DomainID returns the deployment's domain identifier.
func (e *Engine) DomainID() uint64 { return e.domainID }

// HandlerTarget returns the verifying handler address.
func (e *Engine) HandlerTarget() common.Address { return e.handlerTarget }
