package engine

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// Invoker executes an approved operation against its target. Advertises
// reports whether any attached target natively exposes a selector; schema
// registration consults it to enforce the explicit-guarding rule.
type Invoker interface {
	Invoke(ctx context.Context, target common.Address, value *big.Int, budget uint64, fn guard.Selector, args []byte) ([]byte, error)
	Advertises(fn guard.Selector) bool
}

// Callback is an in-process target function.
type Callback func(ctx context.Context, value *big.Int, budget uint64, args []byte) ([]byte, error)

// CallbackInvoker dispatches to in-process callbacks registered per
// (target, selector) pair. It is the default invoker for deployments where
// the guarded operations are collaborator services wired in at startup.
type CallbackInvoker struct {
	mu      sync.RWMutex
	targets map[common.Address]map[guard.Selector]Callback
}

// NewCallbackInvoker returns an empty invoker.
func NewCallbackInvoker() *CallbackInvoker {
	return &CallbackInvoker{
		targets: make(map[common.Address]map[guard.Selector]Callback),
	}
}

// RegisterTarget attaches a callback for a (target, selector) pair,
// replacing any previous one.
func (i *CallbackInvoker) RegisterTarget(target common.Address, fn guard.Selector, cb Callback) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fns, ok := i.targets[target]
	if !ok {
		fns = make(map[guard.Selector]Callback)
		i.targets[target] = fns
	}
	fns[fn] = cb
}

// Invoke runs the callback registered for the pair.
func (i *CallbackInvoker) Invoke(ctx context.Context, target common.Address, value *big.Int, budget uint64, fn guard.Selector, args []byte) ([]byte, error) {
	i.mu.RLock()
	cb := i.targets[target][fn]
	i.mu.RUnlock()
	if cb == nil {
		return nil, fmt.Errorf("no handler for target %s function %s", target.Hex(), fn)
	}
	return cb(ctx, value, budget, args)
}

// Advertises reports whether any attached target exposes the selector.
func (i *CallbackInvoker) Advertises(fn guard.Selector) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, fns := range i.targets {
		if _, ok := fns[fn]; ok {
			return true
		}
	}
	return false
}
