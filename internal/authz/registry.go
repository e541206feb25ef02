// Package authz holds the role and permission registry: named groups of
// addresses, each carrying a set of per-function permissions. The registry is
// pure data with invariant checks; it performs no locking of its own and
// relies on the engine to serialize access (permission checks and the
// mutations they gate must share one critical section).
package authz

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// FunctionPermission grants a set of actions for one function identifier.
// ActsOn lets a handler identifier carry permissions that apply when
// executing a different underlying identifier.
type FunctionPermission struct {
	Function guard.Selector   `json:"function"`
	Actions  guard.ActionSet  `json:"actions"`
	ActsOn   []guard.Selector `json:"acts_on,omitempty"`
}

// Role is a named group of member addresses with a capacity bound.
type Role struct {
	Hash       common.Hash
	Name       string
	MaxMembers int
	members    map[common.Address]struct{}
	perms      map[guard.Selector]FunctionPermission
}

// RoleView is the read-only snapshot handed out by queries.
type RoleView struct {
	Hash        common.Hash          `json:"hash"`
	Name        string               `json:"name"`
	MaxMembers  int                  `json:"max_members"`
	Members     []common.Address     `json:"members"`
	Permissions []FunctionPermission `json:"permissions"`
}

// Registry maps role hashes to roles and member addresses to the roles they
// belong to.
type Registry struct {
	roles       map[common.Hash]*Role
	rolesByAddr map[common.Address]map[common.Hash]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		roles:       make(map[common.Hash]*Role),
		rolesByAddr: make(map[common.Address]map[common.Hash]struct{}),
	}
}

// Empty reports whether no role has ever been created. Used to gate
// bootstrap seeding.
func (r *Registry) Empty() bool {
	return len(r.roles) == 0
}

// CreateRole registers a role under keccak256(name) and returns the hash.
func (r *Registry) CreateRole(name string, maxMembers int) (common.Hash, error) {
	if name == "" {
		return common.Hash{}, fmt.Errorf("role name is required")
	}
	if maxMembers <= 0 {
		return common.Hash{}, fmt.Errorf("role %q: max members must be positive", name)
	}
	hash := guard.RoleHash(name)
	if _, ok := r.roles[hash]; ok {
		return common.Hash{}, fmt.Errorf("role %q: %w", name, guard.ErrResourceAlreadyExists)
	}
	r.roles[hash] = &Role{
		Hash:       hash,
		Name:       name,
		MaxMembers: maxMembers,
		members:    make(map[common.Address]struct{}),
		perms:      make(map[guard.Selector]FunctionPermission),
	}
	return hash, nil
}

// RemoveRole deletes an empty role. Removing a role with members would
// silently strip their permissions, so it is refused.
func (r *Registry) RemoveRole(hash common.Hash) error {
	role, ok := r.roles[hash]
	if !ok {
		return fmt.Errorf("role %s: %w", hash.Hex(), guard.ErrResourceNotFound)
	}
	if len(role.members) > 0 {
		return fmt.Errorf("role %q: %w", role.Name, guard.ErrRoleHasActiveMembers)
	}
	delete(r.roles, hash)
	return nil
}

// AddMember adds an address to a role, respecting the capacity bound.
func (r *Registry) AddMember(hash common.Hash, addr common.Address) error {
	role, ok := r.roles[hash]
	if !ok {
		return fmt.Errorf("role %s: %w", hash.Hex(), guard.ErrResourceNotFound)
	}
	if _, ok := role.members[addr]; ok {
		return fmt.Errorf("role %q member %s: %w", role.Name, addr.Hex(), guard.ErrAlreadyMember)
	}
	if len(role.members) >= role.MaxMembers {
		return fmt.Errorf("role %q: %w", role.Name, guard.ErrCapacityExceeded)
	}
	role.members[addr] = struct{}{}
	set, ok := r.rolesByAddr[addr]
	if !ok {
		set = make(map[common.Hash]struct{})
		r.rolesByAddr[addr] = set
	}
	set[hash] = struct{}{}
	return nil
}

// RevokeMember removes an address from a role.
func (r *Registry) RevokeMember(hash common.Hash, addr common.Address) error {
	role, ok := r.roles[hash]
	if !ok {
		return fmt.Errorf("role %s: %w", hash.Hex(), guard.ErrResourceNotFound)
	}
	if _, ok := role.members[addr]; !ok {
		return fmt.Errorf("role %q member %s: %w", role.Name, addr.Hex(), guard.ErrResourceNotFound)
	}
	delete(role.members, addr)
	if set := r.rolesByAddr[addr]; set != nil {
		delete(set, hash)
		if len(set) == 0 {
			delete(r.rolesByAddr, addr)
		}
	}
	return nil
}

// GrantFunctionPermission attaches a permission to a role. Every granted
// action must be a defined kind; whether the governing schema supports it is
// checked at evaluation time, so a grant can precede its schema.
func (r *Registry) GrantFunctionPermission(hash common.Hash, perm FunctionPermission) error {
	role, ok := r.roles[hash]
	if !ok {
		return fmt.Errorf("role %s: %w", hash.Hex(), guard.ErrResourceNotFound)
	}
	if perm.Function.IsZero() {
		return fmt.Errorf("role %q: permission function selector is required", role.Name)
	}
	if len(perm.Actions) == 0 {
		return fmt.Errorf("role %q: permission grants no actions", role.Name)
	}
	for a := range perm.Actions {
		if !a.Valid() {
			return fmt.Errorf("role %q function %s: invalid action kind %d", role.Name, perm.Function, int(a))
		}
	}
	if _, ok := role.perms[perm.Function]; ok {
		return fmt.Errorf("role %q function %s: %w", role.Name, perm.Function, guard.ErrResourceAlreadyExists)
	}
	perm.Actions = perm.Actions.Clone()
	perm.ActsOn = append([]guard.Selector(nil), perm.ActsOn...)
	role.perms[perm.Function] = perm
	return nil
}

// RevokeFunctionPermission removes a role's permission for a function.
func (r *Registry) RevokeFunctionPermission(hash common.Hash, fn guard.Selector) error {
	role, ok := r.roles[hash]
	if !ok {
		return fmt.Errorf("role %s: %w", hash.Hex(), guard.ErrResourceNotFound)
	}
	if _, ok := role.perms[fn]; !ok {
		return fmt.Errorf("role %q function %s: %w", role.Name, fn, guard.ErrResourceNotFound)
	}
	delete(role.perms, fn)
	return nil
}

// HoldsAction reports whether the address belongs to some role holding a
// permission for fn (directly, or through a handler permission whose ActsOn
// list contains fn) with the action granted. This is only half of the
// authorization predicate: the engine additionally requires the governing
// schema to support the action.
func (r *Registry) HoldsAction(addr common.Address, fn guard.Selector, action guard.ActionKind) bool {
	for hash := range r.rolesByAddr[addr] {
		role, ok := r.roles[hash]
		if !ok {
			continue
		}
		if perm, ok := role.perms[fn]; ok && perm.Actions.Has(action) {
			return true
		}
		for _, perm := range role.perms {
			for _, effective := range perm.ActsOn {
				if effective == fn && perm.Actions.Has(action) {
					return true
				}
			}
		}
	}
	return false
}

// AnyPermissionReferences reports whether any role still holds a permission
// naming fn, directly or through ActsOn. Used by safe function removal.
func (r *Registry) AnyPermissionReferences(fn guard.Selector) bool {
	for _, role := range r.roles {
		if _, ok := role.perms[fn]; ok {
			return true
		}
		for _, perm := range role.perms {
			for _, effective := range perm.ActsOn {
				if effective == fn {
					return true
				}
			}
		}
	}
	return false
}

// Role returns a snapshot of one role.
func (r *Registry) Role(hash common.Hash) (RoleView, error) {
	role, ok := r.roles[hash]
	if !ok {
		return RoleView{}, fmt.Errorf("role %s: %w", hash.Hex(), guard.ErrResourceNotFound)
	}
	return role.view(), nil
}

// Roles returns snapshots of all roles.
func (r *Registry) Roles() []RoleView {
	out := make([]RoleView, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, role.view())
	}
	return out
}

// IsMember reports membership of addr in the role.
func (r *Registry) IsMember(hash common.Hash, addr common.Address) bool {
	role, ok := r.roles[hash]
	if !ok {
		return false
	}
	_, ok = role.members[addr]
	return ok
}

// Clone returns a deep copy. Batch application works on a clone and swaps
// it in on success so a failing batch leaves the registry untouched.
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for hash, role := range r.roles {
		cloned := &Role{
			Hash:       role.Hash,
			Name:       role.Name,
			MaxMembers: role.MaxMembers,
			members:    make(map[common.Address]struct{}, len(role.members)),
			perms:      make(map[guard.Selector]FunctionPermission, len(role.perms)),
		}
		for addr := range role.members {
			cloned.members[addr] = struct{}{}
		}
		for fn, perm := range role.perms {
			perm.Actions = perm.Actions.Clone()
			perm.ActsOn = append([]guard.Selector(nil), perm.ActsOn...)
			cloned.perms[fn] = perm
		}
		out.roles[hash] = cloned
	}
	for addr, set := range r.rolesByAddr {
		clonedSet := make(map[common.Hash]struct{}, len(set))
		for hash := range set {
			clonedSet[hash] = struct{}{}
		}
		out.rolesByAddr[addr] = clonedSet
	}
	return out
}

func (role *Role) view() RoleView {
	v := RoleView{
		Hash:       role.Hash,
		Name:       role.Name,
		MaxMembers: role.MaxMembers,
	}
	for addr := range role.members {
		v.Members = append(v.Members, addr)
	}
	for _, perm := range role.perms {
		perm.Actions = perm.Actions.Clone()
		perm.ActsOn = append([]guard.Selector(nil), perm.ActsOn...)
		v.Permissions = append(v.Permissions, perm)
	}
	return v
}
