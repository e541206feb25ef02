// Package schema holds the function schema and target-whitelist registry:
// which function identifiers exist, what actions each can support, and which
// targets a restricted function may be executed against. Like the role
// registry it is pure data; the engine serializes access.
package schema

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// FunctionSchema describes one registered function identifier. The signature
// is immutable once registered; re-registration under the same identifier is
// rejected unless the schema is unregistered first.
type FunctionSchema struct {
	Function          guard.Selector   `json:"function"`
	Signature         string           `json:"signature"`
	OperationCategory common.Hash      `json:"operation_category"`
	OperationName     string           `json:"operation_name"`
	SupportedActions  guard.ActionSet  `json:"supported_actions"`
	Guarded           bool             `json:"guarded"`
	HandlerFor        []guard.Selector `json:"handler_for,omitempty"`
}

// RegisterParams are the inputs to Register. Advertised marks whether the
// identifier collides with a function that physically exists on the target
// surface; such identifiers must be explicitly guarded, otherwise identifier
// reuse would silently bypass permissions.
type RegisterParams struct {
	Signature         string
	OperationName     string
	OperationCategory common.Hash
	SupportedActions  guard.ActionSet
	Guarded           bool
	HandlerFor        []guard.Selector
	Advertised        bool
}

// Registry maps selectors to schemas and holds the per-function target
// whitelists.
type Registry struct {
	schemas   map[guard.Selector]FunctionSchema
	whitelist map[guard.Selector]map[common.Address]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas:   make(map[guard.Selector]FunctionSchema),
		whitelist: make(map[guard.Selector]map[common.Address]struct{}),
	}
}

// Register derives the selector from the signature and stores the schema.
func (r *Registry) Register(params RegisterParams) (FunctionSchema, error) {
	if params.Signature == "" {
		return FunctionSchema{}, fmt.Errorf("function signature is required")
	}
	if len(params.SupportedActions) == 0 {
		return FunctionSchema{}, fmt.Errorf("function %q: supported actions are required", params.Signature)
	}
	for a := range params.SupportedActions {
		if !a.Valid() {
			return FunctionSchema{}, fmt.Errorf("function %q: invalid action kind %d", params.Signature, int(a))
		}
	}
	sel := guard.SelectorFromSignature(params.Signature)
	if existing, ok := r.schemas[sel]; ok {
		return FunctionSchema{}, fmt.Errorf("function %q: selector %s already registered as %q: %w",
			params.Signature, sel, existing.Signature, guard.ErrResourceAlreadyExists)
	}
	if params.Advertised && !params.Guarded {
		return FunctionSchema{}, fmt.Errorf("function %q: %w", params.Signature, guard.ErrMustBeExplicitlyGuarded)
	}
	if err := r.checkNoCycle(sel, params.HandlerFor); err != nil {
		return FunctionSchema{}, err
	}
	fs := FunctionSchema{
		Function:          sel,
		Signature:         params.Signature,
		OperationCategory: params.OperationCategory,
		OperationName:     params.OperationName,
		SupportedActions:  params.SupportedActions.Clone(),
		Guarded:           params.Guarded,
		HandlerFor:        append([]guard.Selector(nil), params.HandlerFor...),
	}
	r.schemas[sel] = fs
	return fs, nil
}

// Unregister removes a schema and its whitelist. The caller is responsible
// for the safe-removal check against the role registry.
func (r *Registry) Unregister(fn guard.Selector) error {
	if _, ok := r.schemas[fn]; !ok {
		return fmt.Errorf("function %s: %w", fn, guard.ErrResourceNotFound)
	}
	delete(r.schemas, fn)
	delete(r.whitelist, fn)
	return nil
}

// Schema returns the schema for a selector.
func (r *Registry) Schema(fn guard.Selector) (FunctionSchema, error) {
	fs, ok := r.schemas[fn]
	if !ok {
		return FunctionSchema{}, fmt.Errorf("function %s: %w", fn, guard.ErrResourceNotFound)
	}
	fs.SupportedActions = fs.SupportedActions.Clone()
	fs.HandlerFor = append([]guard.Selector(nil), fs.HandlerFor...)
	return fs, nil
}

// Exists reports whether the selector carries a schema.
func (r *Registry) Exists(fn guard.Selector) bool {
	_, ok := r.schemas[fn]
	return ok
}

// Supports reports whether the schema for fn supports the action. An
// unregistered function supports nothing.
func (r *Registry) Supports(fn guard.Selector, action guard.ActionKind) bool {
	fs, ok := r.schemas[fn]
	if !ok {
		return false
	}
	return fs.SupportedActions.Has(action)
}

// AddWhitelist permits a target for a restricted function.
func (r *Registry) AddWhitelist(fn guard.Selector, target common.Address) error {
	if _, ok := r.schemas[fn]; !ok {
		return fmt.Errorf("function %s: %w", fn, guard.ErrResourceNotFound)
	}
	set, ok := r.whitelist[fn]
	if !ok {
		set = make(map[common.Address]struct{})
		r.whitelist[fn] = set
	}
	if _, ok := set[target]; ok {
		return fmt.Errorf("function %s target %s: %w", fn, target.Hex(), guard.ErrResourceAlreadyExists)
	}
	set[target] = struct{}{}
	return nil
}

// RemoveWhitelist withdraws a target. Removing the last entry returns the
// function to default-allow.
func (r *Registry) RemoveWhitelist(fn guard.Selector, target common.Address) error {
	set, ok := r.whitelist[fn]
	if !ok {
		return fmt.Errorf("function %s target %s: %w", fn, target.Hex(), guard.ErrResourceNotFound)
	}
	if _, ok := set[target]; !ok {
		return fmt.Errorf("function %s target %s: %w", fn, target.Hex(), guard.ErrResourceNotFound)
	}
	delete(set, target)
	if len(set) == 0 {
		delete(r.whitelist, fn)
	}
	return nil
}

// IsTargetWhitelisted reports whether execution of fn against target is
// permitted: true when no whitelist is configured for fn (default allow) or
// the pair is present.
func (r *Registry) IsTargetWhitelisted(fn guard.Selector, target common.Address) bool {
	set, ok := r.whitelist[fn]
	if !ok {
		return true
	}
	_, ok = set[target]
	return ok
}

// Whitelist returns the configured targets for fn, sorted, or nil when the
// function is default-allow.
func (r *Registry) Whitelist(fn guard.Selector) []common.Address {
	set, ok := r.whitelist[fn]
	if !ok {
		return nil
	}
	out := make([]common.Address, 0, len(set))
	for target := range set {
		out = append(out, target)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Hex() < out[j].Hex()
	})
	return out
}

// Schemas returns all registered schemas sorted by selector.
func (r *Registry) Schemas() []FunctionSchema {
	out := make([]FunctionSchema, 0, len(r.schemas))
	for sel := range r.schemas {
		fs, _ := r.Schema(sel)
		out = append(out, fs)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Function.Hex() < out[j].Function.Hex()
	})
	return out
}

// Clone returns a deep copy for all-or-nothing batch application.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for sel, fs := range r.schemas {
		fs.SupportedActions = fs.SupportedActions.Clone()
		fs.HandlerFor = append([]guard.Selector(nil), fs.HandlerFor...)
		out.schemas[sel] = fs
	}
	for sel, set := range r.whitelist {
		clonedSet := make(map[common.Address]struct{}, len(set))
		for target := range set {
			clonedSet[target] = struct{}{}
		}
		out.whitelist[sel] = clonedSet
	}
	return out
}

// checkNoCycle verifies that adding handler→effective edges for the new
// selector keeps the handler indirection graph acyclic.
func (r *Registry) checkNoCycle(sel guard.Selector, handlerFor []guard.Selector) error {
	if len(handlerFor) == 0 {
		return nil
	}
	edges := make(map[guard.Selector][]guard.Selector, len(r.schemas)+1)
	for s, fs := range r.schemas {
		edges[s] = fs.HandlerFor
	}
	edges[sel] = handlerFor

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[guard.Selector]int, len(edges))
	var visit func(s guard.Selector) bool
	visit = func(s guard.Selector) bool {
		switch state[s] {
		case visiting:
			return false
		case done:
			return true
		}
		state[s] = visiting
		for _, next := range edges[s] {
			if !visit(next) {
				return false
			}
		}
		state[s] = done
		return true
	}
	if !visit(sel) {
		return fmt.Errorf("function %s: %w", sel, guard.ErrHandlerIndirectionCycle)
	}
	return nil
}
