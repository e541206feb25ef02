package requests

// CreateTransactionRequest represents the request body for a direct
// time-delay request. The caller identity comes from the gateway-set
// X-Caller-Address header, not the body.
type CreateTransactionRequest struct {
	Target            string `json:"target" binding:"required"`
	Value             string `json:"value,omitempty"`              // decimal string, wei-style integer
	ExecutionBudget   uint64 `json:"execution_budget,omitempty"`
	OperationCategory string `json:"operation_category,omitempty"` // category name, hashed server-side
	Function          string `json:"function" binding:"required"`  // 0x-prefixed 4-byte selector
	ExecutionArgs     string `json:"execution_args,omitempty"`     // 0x-prefixed hex
}

// UpdatePaymentRequest represents the request body for a payment settlement
// update on a completed or failed transaction.
type UpdatePaymentRequest struct {
	Status string `json:"status" binding:"required"` // PROCESSING or SETTLED
	Payer  string `json:"payer,omitempty"`
	Amount string `json:"amount,omitempty"` // decimal string
}

// MetaTransactionRequest represents the request body for the relayed
// (signed) path. For approve/cancel of an existing record TxID is set; for
// request-and-approve the embedded params describe the new record.
type MetaTransactionRequest struct {
	TxID           uint64                    `json:"tx_id,omitempty"`
	Params         MetaTxParamsPayload       `json:"params" binding:"required"`
	TxParams       *CreateTransactionRequest `json:"tx_params,omitempty"`
	Requester      string                    `json:"requester,omitempty"`
	CommitmentHash string                    `json:"commitment_hash,omitempty"`
	Signature      string                    `json:"signature" binding:"required"` // 0x-prefixed 65-byte hex
	AuxiliaryData  string                    `json:"auxiliary_data,omitempty"`
}

// MetaTxParamsPayload mirrors the signed envelope parameters.
type MetaTxParamsPayload struct {
	DomainID          uint64 `json:"domain_id"`
	Nonce             uint64 `json:"nonce"`
	HandlerTarget     string `json:"handler_target"`
	HandlerFunction   string `json:"handler_function"`
	Action            string `json:"action"`
	Deadline          int64  `json:"deadline"` // unix seconds
	MaxExecutionPrice string `json:"max_execution_price,omitempty"`
	Signer            string `json:"signer"`
}

// DigestPreviewRequest asks the engine for the exact digest an off-chain
// signer must sign. Either TxID (existing record) or TxParams (proposed
// record) must be supplied.
type DigestPreviewRequest struct {
	TxID      uint64                    `json:"tx_id,omitempty"`
	Params    MetaTxParamsPayload       `json:"params" binding:"required"`
	TxParams  *CreateTransactionRequest `json:"tx_params,omitempty"`
	Requester string                    `json:"requester,omitempty"`
}
