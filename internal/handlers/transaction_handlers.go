package handlers

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/types/requests"
	"github.com/guardrail-labs/guardrail-api/internal/types/responses"
)

// TransactionHandler handles the direct (time-delayed) transaction flow
type TransactionHandler struct {
	common *CommonServices
}

// NewTransactionHandler creates a new TransactionHandler instance
func NewTransactionHandler(common *CommonServices) *TransactionHandler {
	return &TransactionHandler{common: common}
}

// txParamsFromRequest builds execution parameters from the wire form. The
// requester field is filled in by the engine from the caller identity.
func txParamsFromRequest(req *requests.CreateTransactionRequest) (guard.TxParams, error) {
	var params guard.TxParams
	if !common.IsHexAddress(req.Target) {
		return params, errInvalidField("target")
	}
	fn, err := guard.ParseSelector(req.Function)
	if err != nil {
		return params, err
	}
	value, ok := parseOptionalBig(req.Value)
	if !ok {
		return params, errInvalidField("value")
	}
	args, err := parseOptionalHex(req.ExecutionArgs)
	if err != nil {
		return params, err
	}
	params = guard.TxParams{
		Target:          common.HexToAddress(req.Target),
		Value:           value,
		ExecutionBudget: req.ExecutionBudget,
		Function:        fn,
		ExecutionArgs:   args,
	}
	if req.OperationCategory != "" {
		params.OperationCategory = guard.CategoryHash(req.OperationCategory)
	}
	return params, nil
}

func txIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("tx_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid transaction id"})
		return 0, false
	}
	return id, true
}

// CreateTransaction godoc
// @Summary Request a new time-delayed transaction
// @Description Creates a PENDING transaction record that becomes approvable after the configured time lock
// @Tags transactions
// @Accept json
// @Produce json
// @Param body body requests.CreateTransactionRequest true "Transaction request"
// @Success 201 {object} responses.TransactionResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 403 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}

	var req requests.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	params, err := txParamsFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	rec, err := h.common.engine.Request(c.Request.Context(), caller, params)
	if err != nil {
		respondError(c, err)
		return
	}

	h.common.logger.Info("transaction requested",
		zap.Uint64("tx_id", rec.TxID),
		zap.String("requester", caller.Hex()),
		zap.String("function", rec.Params.Function.Hex()),
	)
	c.JSON(http.StatusCreated, toTransactionResponse(rec))
}

// ApproveTransaction godoc
// @Summary Approve and execute a pending transaction
// @Description Executes a PENDING transaction once its release time has passed
// @Tags transactions
// @Produce json
// @Param tx_id path int true "Transaction ID"
// @Success 200 {object} responses.TransactionResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{tx_id}/approve [post]
func (h *TransactionHandler) ApproveTransaction(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	txID, ok := txIDParam(c)
	if !ok {
		return
	}

	rec, err := h.common.engine.Approve(c.Request.Context(), caller, txID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(rec))
}

// CancelTransaction godoc
// @Summary Cancel a pending transaction
// @Description Cancels a PENDING transaction; allowed before and after the release time
// @Tags transactions
// @Produce json
// @Param tx_id path int true "Transaction ID"
// @Success 200 {object} responses.TransactionResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{tx_id}/cancel [post]
func (h *TransactionHandler) CancelTransaction(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	txID, ok := txIDParam(c)
	if !ok {
		return
	}

	rec, err := h.common.engine.Cancel(c.Request.Context(), caller, txID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(rec))
}

// UpdatePayment godoc
// @Summary Update the payment status of a settled transaction
// @Description Moves the payment axis forward (UNSET -> PROCESSING -> SETTLED) on a COMPLETED or FAILED transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param tx_id path int true "Transaction ID"
// @Param body body requests.UpdatePaymentRequest true "Payment update"
// @Success 200 {object} responses.TransactionResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{tx_id}/payment [post]
func (h *TransactionHandler) UpdatePayment(c *gin.Context) {
	caller, ok := callerAddress(c)
	if !ok {
		return
	}
	txID, ok := txIDParam(c)
	if !ok {
		return
	}

	var req requests.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	var status guard.PaymentStatus
	switch req.Status {
	case guard.PaymentProcessing.String():
		status = guard.PaymentProcessing
	case guard.PaymentSettled.String():
		status = guard.PaymentSettled
	default:
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "payment status must be PROCESSING or SETTLED"})
		return
	}

	var payer common.Address
	if req.Payer != "" {
		if !common.IsHexAddress(req.Payer) {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid payer address"})
			return
		}
		payer = common.HexToAddress(req.Payer)
	}
	amount, ok := parseOptionalBig(req.Amount)
	if !ok {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid amount"})
		return
	}

	rec, err := h.common.engine.UpdatePayment(c.Request.Context(), caller, txID, status, payer, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(rec))
}

// GetTransaction godoc
// @Summary Get a transaction by ID
// @Tags transactions
// @Produce json
// @Param tx_id path int true "Transaction ID"
// @Success 200 {object} responses.TransactionResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{tx_id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	txID, ok := txIDParam(c)
	if !ok {
		return
	}

	rec, err := h.common.engine.Record(txID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponse(rec))
}

// ListPendingTransactions godoc
// @Summary List pending transaction ids
// @Description Returns the ids of all PENDING transactions in request order
// @Tags transactions
// @Produce json
// @Success 200 {object} responses.PendingTransactionsResponse
// @Security ApiKeyAuth
// @Router /transactions/pending [get]
func (h *TransactionHandler) ListPendingTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, responses.PendingTransactionsResponse{
		TxIDs: h.common.engine.PendingIDs(),
	})
}

// GetTransitionHistory godoc
// @Summary Get the archived transition history of a transaction
// @Description Reads the journal rows recorded for a transaction; requires a configured journal database
// @Tags transactions
// @Produce json
// @Param tx_id path int true "Transaction ID"
// @Success 200 {object} responses.TransitionHistoryResponse
// @Failure 404 {object} responses.ErrorResponse
// @Failure 503 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/{tx_id}/transitions [get]
func (h *TransactionHandler) GetTransitionHistory(c *gin.Context) {
	txID, ok := txIDParam(c)
	if !ok {
		return
	}
	if h.common.journal == nil {
		c.JSON(http.StatusServiceUnavailable, responses.ErrorResponse{Error: "transition journal is not configured"})
		return
	}
	if _, err := h.common.engine.Record(txID); err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.common.journal.ListTransitions(c.Request.Context(), txID)
	if err != nil {
		h.common.logger.Error("failed to read transition history", zap.Uint64("tx_id", txID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{Error: "failed to read transition history"})
		return
	}
	c.JSON(http.StatusOK, responses.TransitionHistoryResponse{TxID: txID, Transitions: rows})
}
