package handlers

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
	"github.com/guardrail-labs/guardrail-api/internal/metatx"
	"github.com/guardrail-labs/guardrail-api/internal/types/requests"
	"github.com/guardrail-labs/guardrail-api/internal/types/responses"
)

// MetaTransactionHandler handles the relayed (signed) transaction flow
type MetaTransactionHandler struct {
	common *CommonServices
}

// NewMetaTransactionHandler creates a new MetaTransactionHandler instance
func NewMetaTransactionHandler(common *CommonServices) *MetaTransactionHandler {
	return &MetaTransactionHandler{common: common}
}

func metaParamsFromPayload(p *requests.MetaTxParamsPayload) (guard.MetaTxParams, error) {
	var params guard.MetaTxParams
	if !common.IsHexAddress(p.HandlerTarget) {
		return params, errInvalidField("handler_target")
	}
	if !common.IsHexAddress(p.Signer) {
		return params, errInvalidField("signer")
	}
	fn, err := guard.ParseSelector(p.HandlerFunction)
	if err != nil {
		return params, err
	}
	action, err := guard.ParseActionKind(p.Action)
	if err != nil {
		return params, err
	}
	price, ok := parseOptionalBig(p.MaxExecutionPrice)
	if !ok {
		return params, errInvalidField("max_execution_price")
	}
	return guard.MetaTxParams{
		DomainID:          p.DomainID,
		Nonce:             p.Nonce,
		HandlerTarget:     common.HexToAddress(p.HandlerTarget),
		HandlerFunction:   fn,
		Action:            action,
		Deadline:          time.Unix(p.Deadline, 0).UTC(),
		MaxExecutionPrice: price,
		Signer:            common.HexToAddress(p.Signer),
	}, nil
}

// proposedTxParams builds the execution parameters of a record that does not
// exist yet, with the requester taken from the request body since the signed
// path carries no gateway identity for the requester.
func proposedTxParams(txReq *requests.CreateTransactionRequest, requester string) (guard.TxParams, error) {
	params, err := txParamsFromRequest(txReq)
	if err != nil {
		return params, err
	}
	if requester != "" {
		if !common.IsHexAddress(requester) {
			return params, errInvalidField("requester")
		}
		params.Requester = common.HexToAddress(requester)
	}
	return params, nil
}

// ExecuteMetaTransaction godoc
// @Summary Execute a signed meta-transaction
// @Description Verifies the signed envelope (signature, deadline, nonce, domain, permissions) and performs the authorized transition; approval via this path does not wait for the time lock
// @Tags meta-transactions
// @Accept json
// @Produce json
// @Param body body requests.MetaTransactionRequest true "Signed meta-transaction"
// @Success 200 {object} responses.TransactionResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 401 {object} responses.ErrorResponse
// @Failure 403 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/meta [post]
func (h *MetaTransactionHandler) ExecuteMetaTransaction(c *gin.Context) {
	relayer, ok := callerAddress(c)
	if !ok {
		return
	}

	var req requests.MetaTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	params, err := metaParamsFromPayload(&req.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}
	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid signature encoding"})
		return
	}
	aux, err := parseOptionalHex(req.AuxiliaryData)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid auxiliary_data"})
		return
	}

	smt := guard.SignedMetaTransaction{
		Params:        params,
		Signature:     signature,
		AuxiliaryData: aux,
	}
	if req.TxParams != nil {
		txParams, err := proposedTxParams(req.TxParams, req.Requester)
		if err != nil {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
			return
		}
		smt.TxRecord = guard.TxRecord{Params: txParams}
	} else {
		smt.TxRecord = guard.TxRecord{TxID: req.TxID}
	}
	if req.CommitmentHash != "" {
		smt.CommitmentHash = common.HexToHash(req.CommitmentHash)
	}

	rec, err := h.common.engine.ExecuteSigned(c.Request.Context(), relayer, smt)
	if err != nil {
		respondError(c, err)
		return
	}

	h.common.logger.Info("meta-transaction relayed",
		zap.Uint64("tx_id", rec.TxID),
		zap.String("relayer", relayer.Hex()),
		zap.String("signer", params.Signer.Hex()),
	)
	c.JSON(http.StatusOK, toTransactionResponse(rec))
}

// PreviewDigest godoc
// @Summary Compute the signing digest for a meta-transaction
// @Description Returns the exact digest an off-chain signer must sign for the given envelope, for an existing record (tx_id) or a proposed one (tx_params)
// @Tags meta-transactions
// @Accept json
// @Produce json
// @Param body body requests.DigestPreviewRequest true "Digest preview request"
// @Success 200 {object} responses.DigestResponse
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /transactions/meta/digest [post]
func (h *MetaTransactionHandler) PreviewDigest(c *gin.Context) {
	var req requests.DigestPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	params, err := metaParamsFromPayload(&req.Params)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
		return
	}

	var digest common.Hash
	switch {
	case req.TxParams != nil:
		txParams, err := proposedTxParams(req.TxParams, req.Requester)
		if err != nil {
			c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: err.Error()})
			return
		}
		digest = metatx.Digest(params, txParams)
	case req.TxID != 0:
		digest, err = h.common.engine.DigestForRecord(params, req.TxID)
		if err != nil {
			respondError(c, err)
			return
		}
	default:
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "either tx_id or tx_params is required"})
		return
	}

	c.JSON(http.StatusOK, responses.DigestResponse{Digest: digest.Hex()})
}

// GetNonce godoc
// @Summary Get the next expected nonce of a signer
// @Tags meta-transactions
// @Produce json
// @Param address path string true "Signer address"
// @Success 200 {object} responses.NonceResponse
// @Failure 400 {object} responses.ErrorResponse
// @Security ApiKeyAuth
// @Router /signers/{address}/nonce [get]
func (h *MetaTransactionHandler) GetNonce(c *gin.Context) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{Error: "invalid signer address"})
		return
	}
	signer := common.HexToAddress(raw)
	c.JSON(http.StatusOK, responses.NonceResponse{
		Signer: signer.Hex(),
		Nonce:  h.common.engine.NextNonce(signer),
	})
}
