package guard

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ActionKind identifies one of the gated transition types a permission can
// grant. Direct* actions gate live calls, Sign* actions gate the signer of a
// meta-transaction, Execute* actions gate the relayer submitting one.
type ActionKind int

const (
	ActionDirectRequest ActionKind = iota
	ActionDirectApprove
	ActionDirectCancel
	ActionSignRequestAndApprove
	ActionSignApprove
	ActionSignCancel
	ActionExecuteRequestAndApprove
	ActionExecuteApprove
	ActionExecuteCancel
	ActionUpdatePayment

	numActionKinds
)

var actionNames = map[ActionKind]string{
	ActionDirectRequest:            "DIRECT_REQUEST",
	ActionDirectApprove:            "DIRECT_APPROVE",
	ActionDirectCancel:             "DIRECT_CANCEL",
	ActionSignRequestAndApprove:    "SIGN_REQUEST_AND_APPROVE",
	ActionSignApprove:              "SIGN_APPROVE",
	ActionSignCancel:               "SIGN_CANCEL",
	ActionExecuteRequestAndApprove: "EXECUTE_REQUEST_AND_APPROVE",
	ActionExecuteApprove:           "EXECUTE_APPROVE",
	ActionExecuteCancel:            "EXECUTE_CANCEL",
	ActionUpdatePayment:            "UPDATE_PAYMENT",
}

var actionsByName = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(actionNames))
	for k, n := range actionNames {
		m[n] = k
	}
	return m
}()

// Valid reports whether the value is one of the defined action kinds.
func (a ActionKind) Valid() bool {
	return a >= 0 && a < numActionKinds
}

func (a ActionKind) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("ActionKind(%d)", int(a))
}

// ParseActionKind converts the wire name of an action back to its kind.
func ParseActionKind(name string) (ActionKind, error) {
	if a, ok := actionsByName[name]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("unknown action kind %q", name)
}

// MarshalJSON encodes the action as its wire name.
func (a ActionKind) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid action kind %d", int(a))
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action from its wire name.
func (a *ActionKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseActionKind(name)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionSet is an explicit set of action kinds. The original encoding was a
// fixed-width bitmap; a set keeps the subset checks readable.
type ActionSet map[ActionKind]struct{}

// NewActionSet builds a set from the given kinds.
func NewActionSet(kinds ...ActionKind) ActionSet {
	s := make(ActionSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s ActionSet) Has(a ActionKind) bool {
	_, ok := s[a]
	return ok
}

// Add inserts a kind.
func (s ActionSet) Add(a ActionKind) {
	s[a] = struct{}{}
}

// Remove deletes a kind.
func (s ActionSet) Remove(a ActionKind) {
	delete(s, a)
}

// SubsetOf reports whether every member of s is also in other.
func (s ActionSet) SubsetOf(other ActionSet) bool {
	for a := range s {
		if !other.Has(a) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s ActionSet) Clone() ActionSet {
	out := make(ActionSet, len(s))
	for a := range s {
		out[a] = struct{}{}
	}
	return out
}

// Kinds returns the members in declaration order.
func (s ActionSet) Kinds() []ActionKind {
	out := make([]ActionKind, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted array of wire names.
func (s ActionSet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(s))
	for _, a := range s.Kinds() {
		names = append(names, a.String())
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a set from an array of wire names.
func (s *ActionSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	out := make(ActionSet, len(names))
	for _, n := range names {
		a, err := ParseActionKind(n)
		if err != nil {
			return err
		}
		out.Add(a)
	}
	*s = out
	return nil
}
