package guard

import "errors"

// Error taxonomy shared by the registries, the state machine, and the
// meta-transaction pipeline. Gate failures are rejected before any mutation;
// ErrExecutionFailed is the one kind that commits a status change (Failed)
// so the audit trail survives.
var (
	ErrPermissionDenied       = errors.New("permission denied")
	ErrResourceNotFound       = errors.New("resource not found")
	ErrResourceAlreadyExists  = errors.New("resource already exists")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrTimeLockNotElapsed     = errors.New("time lock has not elapsed")
	ErrSignatureInvalid       = errors.New("signature invalid")
	ErrExpired                = errors.New("meta-transaction deadline expired")
	ErrNonceMismatch          = errors.New("nonce mismatch")
	ErrDomainMismatch         = errors.New("domain mismatch")
	ErrTargetNotWhitelisted   = errors.New("target not whitelisted")
	ErrCapacityExceeded       = errors.New("role capacity exceeded")
	ErrExecutionFailed        = errors.New("target execution failed")

	ErrRoleHasActiveMembers      = errors.New("role still has active members")
	ErrAlreadyMember             = errors.New("address is already a member")
	ErrMustBeExplicitlyGuarded   = errors.New("existing target function must be explicitly guarded")
	ErrUnsupportedAction         = errors.New("action not supported by function schema")
	ErrHandlerIndirectionCycle   = errors.New("handler indirection would create a cycle")
	ErrPermissionStillReferenced = errors.New("function still referenced by a role permission")
)
