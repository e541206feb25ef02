package schema

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

var (
	targetA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	targetB = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func registerTransfer(t *testing.T, r *Registry) FunctionSchema {
	t.Helper()
	fs, err := r.Register(RegisterParams{
		Signature:         "transfer(address,uint256)",
		OperationName:     "token transfer",
		OperationCategory: guard.CategoryHash("PAYMENTS"),
		SupportedActions:  guard.NewActionSet(guard.ActionDirectRequest, guard.ActionDirectApprove),
	})
	require.NoError(t, err)
	return fs
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	fs := registerTransfer(t, r)

	assert.Equal(t, guard.SelectorFromSignature("transfer(address,uint256)"), fs.Function)
	assert.True(t, r.Exists(fs.Function))
	assert.True(t, r.Supports(fs.Function, guard.ActionDirectRequest))
	assert.False(t, r.Supports(fs.Function, guard.ActionDirectCancel))

	got, err := r.Schema(fs.Function)
	require.NoError(t, err)
	assert.Equal(t, "transfer(address,uint256)", got.Signature)

	// Unregistered selectors support nothing.
	other := guard.SelectorFromSignature("mint(address,uint256)")
	assert.False(t, r.Supports(other, guard.ActionDirectRequest))
	_, err = r.Schema(other)
	require.ErrorIs(t, err, guard.ErrResourceNotFound)
}

func TestRegisterRejectsDuplicateSelector(t *testing.T) {
	r := NewRegistry()
	registerTransfer(t, r)

	_, err := r.Register(RegisterParams{
		Signature:        "transfer(address,uint256)",
		SupportedActions: guard.NewActionSet(guard.ActionDirectRequest),
	})
	require.ErrorIs(t, err, guard.ErrResourceAlreadyExists)

	// Unregister frees the selector for a fresh registration.
	fn := guard.SelectorFromSignature("transfer(address,uint256)")
	require.NoError(t, r.Unregister(fn))
	registerTransfer(t, r)
}

func TestRegisterInputValidation(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register(RegisterParams{
		SupportedActions: guard.NewActionSet(guard.ActionDirectRequest),
	})
	require.Error(t, err, "missing signature")

	_, err = r.Register(RegisterParams{Signature: "noop()"})
	require.Error(t, err, "missing supported actions")
}

func TestAdvertisedRequiresGuarded(t *testing.T) {
	r := NewRegistry()

	_, err := r.Register(RegisterParams{
		Signature:        "withdraw(uint256)",
		SupportedActions: guard.NewActionSet(guard.ActionDirectRequest),
		Advertised:       true,
	})
	require.ErrorIs(t, err, guard.ErrMustBeExplicitlyGuarded)

	_, err = r.Register(RegisterParams{
		Signature:        "withdraw(uint256)",
		SupportedActions: guard.NewActionSet(guard.ActionDirectRequest),
		Advertised:       true,
		Guarded:          true,
	})
	require.NoError(t, err)
}

func TestHandlerIndirectionCycle(t *testing.T) {
	r := NewRegistry()
	actions := guard.NewActionSet(guard.ActionDirectRequest)

	a := guard.SelectorFromSignature("handlerA(bytes)")
	b := guard.SelectorFromSignature("handlerB(bytes)")

	_, err := r.Register(RegisterParams{
		Signature:        "handlerA(bytes)",
		SupportedActions: actions,
		HandlerFor:       []guard.Selector{b},
	})
	require.NoError(t, err)

	// B handling A closes the loop A -> B -> A.
	_, err = r.Register(RegisterParams{
		Signature:        "handlerB(bytes)",
		SupportedActions: actions,
		HandlerFor:       []guard.Selector{a},
	})
	require.ErrorIs(t, err, guard.ErrHandlerIndirectionCycle)

	// Self-reference is the smallest cycle.
	c := guard.SelectorFromSignature("handlerC(bytes)")
	_, err = r.Register(RegisterParams{
		Signature:        "handlerC(bytes)",
		SupportedActions: actions,
		HandlerFor:       []guard.Selector{c},
	})
	require.ErrorIs(t, err, guard.ErrHandlerIndirectionCycle)
}

func TestWhitelistDefaultAllow(t *testing.T) {
	r := NewRegistry()
	fs := registerTransfer(t, r)

	// No whitelist configured: any target passes.
	assert.True(t, r.IsTargetWhitelisted(fs.Function, targetA))
	assert.Nil(t, r.Whitelist(fs.Function))

	require.NoError(t, r.AddWhitelist(fs.Function, targetA))
	assert.True(t, r.IsTargetWhitelisted(fs.Function, targetA))
	assert.False(t, r.IsTargetWhitelisted(fs.Function, targetB))
	assert.Equal(t, []common.Address{targetA}, r.Whitelist(fs.Function))

	err := r.AddWhitelist(fs.Function, targetA)
	require.ErrorIs(t, err, guard.ErrResourceAlreadyExists)

	// Removing the last entry reverts to default-allow.
	require.NoError(t, r.RemoveWhitelist(fs.Function, targetA))
	assert.True(t, r.IsTargetWhitelisted(fs.Function, targetB))

	err = r.RemoveWhitelist(fs.Function, targetA)
	require.ErrorIs(t, err, guard.ErrResourceNotFound)
}

func TestWhitelistRequiresSchema(t *testing.T) {
	r := NewRegistry()
	fn := guard.SelectorFromSignature("ghost()")
	err := r.AddWhitelist(fn, targetA)
	require.ErrorIs(t, err, guard.ErrResourceNotFound)
}

func TestUnregisterDropsWhitelist(t *testing.T) {
	r := NewRegistry()
	fs := registerTransfer(t, r)
	require.NoError(t, r.AddWhitelist(fs.Function, targetA))

	require.NoError(t, r.Unregister(fs.Function))

	// Re-registering starts with a clean default-allow state.
	fs = registerTransfer(t, r)
	assert.True(t, r.IsTargetWhitelisted(fs.Function, targetB))
}

func TestCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	fs := registerTransfer(t, r)
	require.NoError(t, r.AddWhitelist(fs.Function, targetA))

	clone := r.Clone()
	require.NoError(t, clone.Unregister(fs.Function))

	assert.True(t, r.Exists(fs.Function))
	assert.False(t, clone.Exists(fs.Function))
	assert.Equal(t, []common.Address{targetA}, r.Whitelist(fs.Function))
}
