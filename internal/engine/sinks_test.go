package engine_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/admin"
	"github.com/guardrail-labs/guardrail-api/internal/authz"
	"github.com/guardrail-labs/guardrail-api/internal/engine"
	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/mocks"
)

var (
	sinkOperator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	sinkTarget   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	sinkHandler  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

const sinkTransferSig = "transfer(address,uint256)"

func sinkSeed() admin.Batch {
	fn := guard.SelectorFromSignature(sinkTransferSig)
	actions := guard.NewActionSet(guard.ActionDirectRequest, guard.ActionDirectApprove, guard.ActionDirectCancel)
	return admin.Batch{
		admin.MustAction(admin.KindRegisterFunction, admin.RegisterFunctionPayload{
			Signature:         sinkTransferSig,
			OperationName:     "token transfer",
			OperationCategory: "PAYMENTS",
			SupportedActions:  actions,
			Guarded:           true,
		}),
		admin.MustAction(admin.KindCreateRole, admin.CreateRolePayload{Name: "OPERATOR", MaxMembers: 2}),
		admin.MustAction(admin.KindAddMember, admin.MemberPayload{
			RoleHash: guard.RoleHash("OPERATOR"),
			Address:  sinkOperator,
		}),
		admin.MustAction(admin.KindGrantPermission, admin.GrantPermissionPayload{
			RoleHash: guard.RoleHash("OPERATOR"),
			Permission: authz.FunctionPermission{
				Function: fn,
				Actions:  actions.Clone(),
			},
		}),
	}
}

func TestTransitionsReachJournalAndPublisher(t *testing.T) {
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockJournal(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	invoker := mocks.NewMockInvoker(ctrl)

	// One transition for the request, two for approve (Executing, Completed).
	journal.EXPECT().RecordTransition(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	publisher.EXPECT().PublishTransition(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	invoker.EXPECT().Advertises(gomock.Any()).Return(false).AnyTimes()
	invoker.EXPECT().
		Invoke(gomock.Any(), sinkTarget, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]byte("ok"), nil)

	eng := engine.New(engine.Config{
		DomainID:      1,
		HandlerTarget: sinkHandler,
		TimeLock:      0,
		Invoker:       invoker,
		Journal:       journal,
		Publisher:     publisher,
		Logger:        zap.NewNop(),
	})
	ctx := context.Background()
	require.NoError(t, eng.Bootstrap(ctx, sinkSeed()))

	rec, err := eng.Request(ctx, sinkOperator, guard.TxParams{
		Target:   sinkTarget,
		Value:    big.NewInt(1),
		Function: guard.SelectorFromSignature(sinkTransferSig),
	})
	require.NoError(t, err)

	got, err := eng.Approve(ctx, sinkOperator, rec.TxID)
	require.NoError(t, err)
	assert.Equal(t, guard.StatusCompleted, got.Status)
}

func TestJournalFailureDoesNotBlockTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	journal := mocks.NewMockJournal(ctrl)

	journal.EXPECT().
		RecordTransition(gomock.Any(), gomock.Any()).
		Return(errors.New("connection refused")).
		AnyTimes()

	eng := engine.New(engine.Config{
		DomainID:      1,
		HandlerTarget: sinkHandler,
		TimeLock:      time.Hour,
		Journal:       journal,
		Logger:        zap.NewNop(),
	})
	ctx := context.Background()
	require.NoError(t, eng.Bootstrap(ctx, sinkSeed()))

	// The request commits even though every journal write fails.
	rec, err := eng.Request(ctx, sinkOperator, guard.TxParams{
		Target:   sinkTarget,
		Function: guard.SelectorFromSignature(sinkTransferSig),
	})
	require.NoError(t, err)

	got, err := eng.Record(rec.TxID)
	require.NoError(t, err)
	assert.Equal(t, guard.StatusPending, got.Status)
}

func TestAlerterFiresOnExecutionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	invoker := mocks.NewMockInvoker(ctrl)
	alerter := mocks.NewMockAlerter(ctrl)

	invoker.EXPECT().Advertises(gomock.Any()).Return(false).AnyTimes()
	invoker.EXPECT().
		Invoke(gomock.Any(), sinkTarget, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("out of gas"))
	alerter.EXPECT().
		ExecutionFailed(gomock.Any(), gomock.Any(), "out of gas").
		Return(nil)

	eng := engine.New(engine.Config{
		DomainID:      1,
		HandlerTarget: sinkHandler,
		TimeLock:      0,
		Invoker:       invoker,
		Alerter:       alerter,
		Logger:        zap.NewNop(),
	})
	ctx := context.Background()
	require.NoError(t, eng.Bootstrap(ctx, sinkSeed()))

	rec, err := eng.Request(ctx, sinkOperator, guard.TxParams{
		Target:   sinkTarget,
		Function: guard.SelectorFromSignature(sinkTransferSig),
	})
	require.NoError(t, err)

	got, err := eng.Approve(ctx, sinkOperator, rec.TxID)
	require.NoError(t, err)
	assert.Equal(t, guard.StatusFailed, got.Status)
}
