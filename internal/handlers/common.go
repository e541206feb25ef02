package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/constants"
	"github.com/guardrail-labs/guardrail-api/internal/db"
	"github.com/guardrail-labs/guardrail-api/internal/engine"
	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/logger"
	"github.com/guardrail-labs/guardrail-api/internal/types/responses"
)

// CommonServices holds common dependencies used across handlers
type CommonServices struct {
	engine  *engine.Engine
	journal *db.Store // optional, nil when no journal DSN is configured
	logger  *zap.Logger
}

// CommonServicesConfig contains all dependencies needed to create CommonServices
type CommonServicesConfig struct {
	Engine  *engine.Engine
	Journal *db.Store
	Logger  *zap.Logger
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(config CommonServicesConfig) *CommonServices {
	if config.Logger == nil {
		config.Logger = logger.Log
	}
	return &CommonServices{
		engine:  config.Engine,
		journal: config.Journal,
		logger:  config.Logger,
	}
}

// callerAddress extracts the authenticated caller identity set by the
// upstream gateway. Writes the error response itself when missing.
func callerAddress(c *gin.Context) (common.Address, bool) {
	raw := c.GetHeader(constants.CallerAddressHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, responses.ErrorResponse{Error: constants.CallerAddressMissing})
		return common.Address{}, false
	}
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid caller address"})
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// respondError maps the engine's error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, guard.ErrPermissionDenied),
		errors.Is(err, guard.ErrTargetNotWhitelisted):
		status = http.StatusForbidden
	case errors.Is(err, guard.ErrResourceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, guard.ErrResourceAlreadyExists),
		errors.Is(err, guard.ErrInvalidStateTransition),
		errors.Is(err, guard.ErrTimeLockNotElapsed),
		errors.Is(err, guard.ErrNonceMismatch),
		errors.Is(err, guard.ErrCapacityExceeded),
		errors.Is(err, guard.ErrRoleHasActiveMembers),
		errors.Is(err, guard.ErrAlreadyMember),
		errors.Is(err, guard.ErrPermissionStillReferenced):
		status = http.StatusConflict
	case errors.Is(err, guard.ErrSignatureInvalid),
		errors.Is(err, guard.ErrExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, guard.ErrDomainMismatch),
		errors.Is(err, guard.ErrUnsupportedAction),
		errors.Is(err, guard.ErrMustBeExplicitlyGuarded),
		errors.Is(err, guard.ErrHandlerIndirectionCycle):
		status = http.StatusBadRequest
	}
	c.JSON(status, responses.ErrorResponse{Error: err.Error()})
}

func errInvalidField(name string) error {
	return errors.New("invalid " + name)
}

// parseOptionalBig parses a decimal string, treating "" as nil.
func parseOptionalBig(s string) (*big.Int, bool) {
	if s == "" {
		return nil, true
	}
	v, ok := new(big.Int).SetString(s, 10)
	return v, ok
}

// parseOptionalHex decodes a 0x-prefixed byte string, treating "" as nil.
func parseOptionalHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}

func toTransactionResponse(rec *guard.TxRecord) responses.TransactionResponse {
	resp := responses.TransactionResponse{
		TxID:           rec.TxID,
		Status:         rec.Status.String(),
		ReleaseTime:    rec.ReleaseTime,
		Requester:      rec.Params.Requester.Hex(),
		Target:         rec.Params.Target.Hex(),
		Value:          "0",
		Function:       rec.Params.Function.Hex(),
		Category:       rec.Params.OperationCategory.Hex(),
		CommitmentHash: rec.CommitmentHash.Hex(),
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
		Payment: responses.PaymentResponse{
			Status: rec.Payment.Status.String(),
		},
	}
	if rec.Params.Value != nil {
		resp.Value = rec.Params.Value.String()
	}
	if len(rec.Result) > 0 {
		resp.Result = hexutil.Encode(rec.Result)
	}
	if rec.Payment.Status != guard.PaymentUnset {
		resp.Payment.Payer = rec.Payment.Payer.Hex()
		if rec.Payment.Amount != nil {
			resp.Payment.Amount = rec.Payment.Amount.String()
		}
	}
	if rec.Payment.Status == guard.PaymentSettled {
		settled := rec.Payment.SettledAt
		resp.Payment.SettledAt = &settled
	}
	return resp
}
