package admin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

func TestBatchSelectorIsStable(t *testing.T) {
	assert.Equal(t, guard.SelectorFromSignature("applyConfigurationBatch(bytes)"), BatchSelector())
}

func TestActionKindValid(t *testing.T) {
	for _, kind := range []ActionKind{
		KindCreateRole, KindRemoveRole, KindAddMember, KindRevokeMember,
		KindGrantPermission, KindRevokePermission, KindRegisterFunction,
		KindUnregisterFunction, KindWhitelistAdd, KindWhitelistRemove,
		KindSetTimeLock,
	} {
		assert.True(t, kind.Valid(), string(kind))
	}
	assert.False(t, ActionKind("MAKE_COFFEE").Valid())
	assert.False(t, ActionKind("").Valid())
}

func TestEncodeDecodeBatch(t *testing.T) {
	batch := Batch{
		MustAction(KindCreateRole, CreateRolePayload{Name: "OPERATOR", MaxMembers: 3}),
		MustAction(KindSetTimeLock, SetTimeLockPayload{Seconds: 120}),
	}
	data, err := EncodeBatch(batch)
	require.NoError(t, err)

	decoded, err := DecodeBatch(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, KindCreateRole, decoded[0].Kind)

	var p CreateRolePayload
	require.NoError(t, json.Unmarshal(decoded[0].Payload, &p))
	assert.Equal(t, "OPERATOR", p.Name)
	assert.Equal(t, 3, p.MaxMembers)
}

func TestDecodeBatchRejectsBadInput(t *testing.T) {
	_, err := DecodeBatch([]byte("not json"))
	require.Error(t, err)

	_, err = DecodeBatch([]byte("[]"))
	require.Error(t, err, "empty batch")

	_, err = DecodeBatch([]byte(`[{"kind":"MAKE_COFFEE","payload":{}}]`))
	require.Error(t, err, "unknown kind")
}

func TestEncodeBatchRejectsEmpty(t *testing.T) {
	_, err := EncodeBatch(nil)
	require.Error(t, err)
}

func TestNewActionRejectsUnknownKind(t *testing.T) {
	_, err := NewAction(ActionKind("MAKE_COFFEE"), CreateRolePayload{})
	require.Error(t, err)
}
