// Package admin defines the batch configuration actions: every
// administrative mutation of the registries is expressed as an ordered list
// of typed actions applied all-or-nothing. The batch executes through the
// same transaction machinery as any other function, under its own registered
// selector, so configuration changes pass the identical authorization
// predicate they themselves govern.
package admin

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/guardrail-labs/guardrail-api/internal/authz"
	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// BatchFunctionSignature is the signature the batch executor registers
// itself under. Its selector is the functionId administrative permissions
// are granted against.
const BatchFunctionSignature = "applyConfigurationBatch(bytes)"

// BatchSelector returns the selector of the batch executor function.
func BatchSelector() guard.Selector {
	return guard.SelectorFromSignature(BatchFunctionSignature)
}

// ActionKind enumerates the administrative mutations a batch can carry.
type ActionKind string

const (
	KindCreateRole         ActionKind = "CREATE_ROLE"
	KindRemoveRole         ActionKind = "REMOVE_ROLE"
	KindAddMember          ActionKind = "ADD_MEMBER"
	KindRevokeMember       ActionKind = "REVOKE_MEMBER"
	KindGrantPermission    ActionKind = "GRANT_PERMISSION"
	KindRevokePermission   ActionKind = "REVOKE_PERMISSION"
	KindRegisterFunction   ActionKind = "REGISTER_FUNCTION"
	KindUnregisterFunction ActionKind = "UNREGISTER_FUNCTION"
	KindWhitelistAdd       ActionKind = "WHITELIST_ADD"
	KindWhitelistRemove    ActionKind = "WHITELIST_REMOVE"
	KindSetTimeLock        ActionKind = "SET_TIME_LOCK"
)

var knownKinds = map[ActionKind]struct{}{
	KindCreateRole:         {},
	KindRemoveRole:         {},
	KindAddMember:          {},
	KindRevokeMember:       {},
	KindGrantPermission:    {},
	KindRevokePermission:   {},
	KindRegisterFunction:   {},
	KindUnregisterFunction: {},
	KindWhitelistAdd:       {},
	KindWhitelistRemove:    {},
	KindSetTimeLock:        {},
}

// Valid reports whether the kind is a member of the closed enum.
func (k ActionKind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Action is one (kind, payload) pair of a batch.
type Action struct {
	Kind    ActionKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Batch is the ordered list of actions applied as a unit.
type Batch []Action

// CreateRolePayload creates a role.
type CreateRolePayload struct {
	Name       string `json:"name"`
	MaxMembers int    `json:"max_members"`
}

// RemoveRolePayload removes an empty role.
type RemoveRolePayload struct {
	RoleHash common.Hash `json:"role_hash"`
}

// MemberPayload adds or revokes a role member.
type MemberPayload struct {
	RoleHash common.Hash    `json:"role_hash"`
	Address  common.Address `json:"address"`
}

// GrantPermissionPayload attaches a function permission to a role.
type GrantPermissionPayload struct {
	RoleHash   common.Hash              `json:"role_hash"`
	Permission authz.FunctionPermission `json:"permission"`
}

// RevokePermissionPayload detaches a function permission from a role.
type RevokePermissionPayload struct {
	RoleHash common.Hash    `json:"role_hash"`
	Function guard.Selector `json:"function"`
}

// RegisterFunctionPayload registers a function schema. The operation
// category is given by name and hashed to its identifier.
type RegisterFunctionPayload struct {
	Signature         string           `json:"signature"`
	OperationName     string           `json:"operation_name"`
	OperationCategory string           `json:"operation_category"`
	SupportedActions  guard.ActionSet  `json:"supported_actions"`
	Guarded           bool             `json:"guarded"`
	HandlerFor        []guard.Selector `json:"handler_for,omitempty"`
}

// UnregisterFunctionPayload removes a function schema. With SafeRemoval set
// the removal fails while any role permission still references the id.
type UnregisterFunctionPayload struct {
	Function    guard.Selector `json:"function"`
	SafeRemoval bool           `json:"safe_removal"`
}

// WhitelistPayload adds or removes a (function, target) whitelist entry.
type WhitelistPayload struct {
	Function guard.Selector `json:"function"`
	Target   common.Address `json:"target"`
}

// SetTimeLockPayload changes the delay between request and direct approval.
type SetTimeLockPayload struct {
	Seconds uint64 `json:"seconds"`
}

// DecodeBatch parses the executionArgs of a batch transaction.
func DecodeBatch(data []byte) (Batch, error) {
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("decoding configuration batch: %w", err)
	}
	if len(batch) == 0 {
		return nil, fmt.Errorf("configuration batch is empty")
	}
	for i, action := range batch {
		if !action.Kind.Valid() {
			return nil, fmt.Errorf("configuration batch action %d: unknown kind %q", i, action.Kind)
		}
	}
	return batch, nil
}

// EncodeBatch serializes a batch into executionArgs form.
func EncodeBatch(batch Batch) ([]byte, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("configuration batch is empty")
	}
	return json.Marshal(batch)
}

// NewAction marshals a payload into an Action of the given kind.
func NewAction(kind ActionKind, payload any) (Action, error) {
	if !kind.Valid() {
		return Action{}, fmt.Errorf("unknown action kind %q", kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("encoding %s payload: %w", kind, err)
	}
	return Action{Kind: kind, Payload: raw}, nil
}

// MustAction is NewAction for static payloads; it panics on a marshal
// failure and exists for seed/bootstrap code paths.
func MustAction(kind ActionKind, payload any) Action {
	a, err := NewAction(kind, payload)
	if err != nil {
		panic(err)
	}
	return a
}
