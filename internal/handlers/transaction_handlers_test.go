package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/admin"
	"github.com/guardrail-labs/guardrail-api/internal/authz"
	"github.com/guardrail-labs/guardrail-api/internal/constants"
	"github.com/guardrail-labs/guardrail-api/internal/engine"
	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/types/responses"
)

var (
	testOperator = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTarget   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testHandler  = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

const testTransferSig = "transfer(address,uint256)"

type testEnv struct {
	router *gin.Engine
	engine *engine.Engine
}

// newTestEnv wires a seeded engine behind the full route table. The operator
// address holds every action for both the transfer function and the batch
// executor, and the time lock is zero so direct approvals pass immediately.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fn := guard.SelectorFromSignature(testTransferSig)
	invoker := engine.NewCallbackInvoker()
	invoker.RegisterTarget(testTarget, fn,
		func(ctx context.Context, value *big.Int, budget uint64, args []byte) ([]byte, error) {
			return []byte("done"), nil
		})

	eng := engine.New(engine.Config{
		DomainID:      1,
		HandlerTarget: testHandler,
		TimeLock:      0,
		Invoker:       invoker,
		Logger:        zap.NewNop(),
	})

	allActions := guard.NewActionSet(
		guard.ActionDirectRequest,
		guard.ActionDirectApprove,
		guard.ActionDirectCancel,
		guard.ActionUpdatePayment,
	)
	seed := admin.Batch{
		admin.MustAction(admin.KindRegisterFunction, admin.RegisterFunctionPayload{
			Signature:         testTransferSig,
			OperationName:     "token transfer",
			OperationCategory: "PAYMENTS",
			SupportedActions:  allActions,
			Guarded:           true,
		}),
		admin.MustAction(admin.KindCreateRole, admin.CreateRolePayload{Name: constants.AdminRoleName, MaxMembers: 3}),
		admin.MustAction(admin.KindAddMember, admin.MemberPayload{
			RoleHash: guard.RoleHash(constants.AdminRoleName),
			Address:  testOperator,
		}),
		admin.MustAction(admin.KindGrantPermission, admin.GrantPermissionPayload{
			RoleHash: guard.RoleHash(constants.AdminRoleName),
			Permission: authz.FunctionPermission{
				Function: fn,
				Actions:  allActions.Clone(),
			},
		}),
		admin.MustAction(admin.KindGrantPermission, admin.GrantPermissionPayload{
			RoleHash: guard.RoleHash(constants.AdminRoleName),
			Permission: authz.FunctionPermission{
				Function: admin.BatchSelector(),
				Actions:  guard.NewActionSet(guard.ActionDirectRequest, guard.ActionDirectApprove),
			},
		}),
	}
	require.NoError(t, eng.Bootstrap(context.Background(), seed))

	svc := NewCommonServices(CommonServicesConfig{Engine: eng, Logger: zap.NewNop()})
	txHandler := NewTransactionHandler(svc)
	metaHandler := NewMetaTransactionHandler(svc)
	regHandler := NewRegistryHandler(svc)

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/transactions", txHandler.CreateTransaction)
		v1.GET("/transactions/pending", txHandler.ListPendingTransactions)
		v1.POST("/transactions/meta/digest", metaHandler.PreviewDigest)
		v1.GET("/transactions/:tx_id", txHandler.GetTransaction)
		v1.POST("/transactions/:tx_id/approve", txHandler.ApproveTransaction)
		v1.POST("/transactions/:tx_id/cancel", txHandler.CancelTransaction)
		v1.POST("/transactions/:tx_id/payment", txHandler.UpdatePayment)
		v1.GET("/signers/:address/nonce", metaHandler.GetNonce)
		v1.GET("/roles", regHandler.ListRoles)
		v1.GET("/roles/:role", regHandler.GetRole)
		v1.GET("/functions", regHandler.ListFunctions)
		v1.GET("/functions/:selector", regHandler.GetFunction)
		v1.GET("/functions/:selector/whitelist", regHandler.GetWhitelist)
		v1.POST("/admin/batch", regHandler.SubmitBatch)
	}
	return &testEnv{router: router, engine: eng}
}

func (env *testEnv) do(t *testing.T, method, path string, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(constants.CallerAddressHeader, caller)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func createBody() map[string]any {
	return map[string]any{
		"target":             testTarget.Hex(),
		"value":              "1000",
		"execution_budget":   21000,
		"operation_category": "PAYMENTS",
		"function":           guard.SelectorFromSignature(testTransferSig).Hex(),
		"execution_args":     "0x0102",
	}
}

func TestCreateTransactionRequiresCallerHeader(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/transactions", "", createBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/transactions", "not-an-address", createBody())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTransaction(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp responses.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.TxID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, testOperator.Hex(), resp.Requester)
	assert.Equal(t, "1000", resp.Value)
	assert.NotEmpty(t, resp.CommitmentHash)
}

func TestCreateTransactionDeniedForStranger(t *testing.T) {
	env := newTestEnv(t)

	stranger := common.HexToAddress("0x9999999999999999999999999999999999999999")
	w := env.do(t, http.MethodPost, "/api/v1/transactions", stranger.Hex(), createBody())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateTransactionRejectsBadBody(t *testing.T) {
	env := newTestEnv(t)

	body := createBody()
	body["function"] = "0xzz"
	w := env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	delete(body, "function")
	w = env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApproveAndGetTransaction(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/approve", testOperator.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp responses.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "COMPLETED", resp.Status)
	assert.Equal(t, "0x646f6e65", resp.Result) // "done"

	w = env.do(t, http.MethodGet, "/api/v1/transactions/1", testOperator.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/transactions/42", testOperator.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/transactions/abc", testOperator.Hex(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelTransaction(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/cancel", testOperator.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CANCELLED", resp.Status)

	// A cancelled record cannot be approved.
	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/approve", testOperator.Hex(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdatePaymentFlow(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())
	w := env.do(t, http.MethodPost, "/api/v1/transactions/1/approve", testOperator.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/payment", testOperator.Hex(), map[string]any{
		"status": "PROCESSING",
		"payer":  testOperator.Hex(),
		"amount": "500",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/payment", testOperator.Hex(), map[string]any{
		"status": "SETTLED",
		"payer":  testOperator.Hex(),
		"amount": "500",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SETTLED", resp.Payment.Status)
	require.NotNil(t, resp.Payment.SettledAt)

	// Backwards movement conflicts.
	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/payment", testOperator.Hex(), map[string]any{
		"status": "PROCESSING",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown status names never reach the engine.
	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/payment", testOperator.Hex(), map[string]any{
		"status": "REFUNDED",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPendingList(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())
	env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())
	env.do(t, http.MethodPost, "/api/v1/transactions/1/cancel", testOperator.Hex(), nil)

	w := env.do(t, http.MethodGet, "/api/v1/transactions/pending", testOperator.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.PendingTransactionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []uint64{2}, resp.TxIDs)
}

func TestGetNonce(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/signers/"+testOperator.Hex()+"/nonce", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp responses.NonceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(0), resp.Nonce)
	assert.Equal(t, testOperator.Hex(), resp.Signer)

	w = env.do(t, http.MethodGet, "/api/v1/signers/nonsense/nonce", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDigestPreviewForRecord(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/transactions", testOperator.Hex(), createBody())

	body := map[string]any{
		"tx_id": 1,
		"params": map[string]any{
			"domain_id":        1,
			"nonce":            0,
			"handler_target":   testHandler.Hex(),
			"handler_function": guard.SelectorFromSignature(testTransferSig).Hex(),
			"action":           "SIGN_APPROVE",
			"deadline":         time.Now().Add(time.Hour).Unix(),
			"signer":           testOperator.Hex(),
		},
	}
	w := env.do(t, http.MethodPost, "/api/v1/transactions/meta/digest", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp responses.DigestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Digest, 66)

	// Unknown record.
	body["tx_id"] = 9
	w = env.do(t, http.MethodPost, "/api/v1/transactions/meta/digest", "", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Neither tx_id nor tx_params.
	delete(body, "tx_id")
	w = env.do(t, http.MethodPost, "/api/v1/transactions/meta/digest", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistryReadSurface(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/roles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var roles []responses.RoleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roles))
	require.Len(t, roles, 1)
	assert.Equal(t, constants.AdminRoleName, roles[0].Name)
	assert.Contains(t, roles[0].Members, testOperator.Hex())

	// Lookup by name and by hash resolve to the same role.
	w = env.do(t, http.MethodGet, "/api/v1/roles/"+constants.AdminRoleName, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/roles/"+guard.RoleHash(constants.AdminRoleName).Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/roles/GHOST", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	fn := guard.SelectorFromSignature(testTransferSig)
	w = env.do(t, http.MethodGet, "/api/v1/functions/"+fn.Hex(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var schema responses.FunctionSchemaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Equal(t, testTransferSig, schema.Signature)

	// The batch executor registers itself, so two functions exist.
	w = env.do(t, http.MethodGet, "/api/v1/functions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var schemas []responses.FunctionSchemaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schemas))
	assert.Len(t, schemas, 2)

	w = env.do(t, http.MethodGet, "/api/v1/functions/"+fn.Hex()+"/whitelist", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var wl responses.WhitelistResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wl))
	assert.False(t, wl.Restricted)
}

func TestSubmitBatchThroughDirectPath(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"actions": []map[string]any{
			{
				"kind":    "CREATE_ROLE",
				"payload": map[string]any{"name": "AUDITOR", "max_members": 2},
			},
		},
	}
	w := env.do(t, http.MethodPost, "/api/v1/admin/batch", testOperator.Hex(), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp responses.TransactionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// The batch is a normal pending transaction until approved.
	w = env.do(t, http.MethodGet, "/api/v1/roles/AUDITOR", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/transactions/1/approve", testOperator.Hex(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/roles/AUDITOR", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown kinds are rejected before a record is created.
	body["actions"] = []map[string]any{{"kind": "MAKE_COFFEE", "payload": map[string]any{}}}
	w = env.do(t, http.MethodPost, "/api/v1/admin/batch", testOperator.Hex(), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
