package responses

import "time"

// TransactionResponse is the wire form of a transaction record.
type TransactionResponse struct {
	TxID           uint64          `json:"tx_id"`
	Status         string          `json:"status"`
	ReleaseTime    time.Time       `json:"release_time"`
	Requester      string          `json:"requester"`
	Target         string          `json:"target"`
	Value          string          `json:"value"`
	Function       string          `json:"function"`
	Category       string          `json:"operation_category"`
	CommitmentHash string          `json:"commitment_hash"`
	Result         string          `json:"result,omitempty"` // 0x-prefixed hex
	Payment        PaymentResponse `json:"payment"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PaymentResponse is the settlement state of a record.
type PaymentResponse struct {
	Status    string     `json:"status"`
	Payer     string     `json:"payer,omitempty"`
	Amount    string     `json:"amount,omitempty"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// PendingTransactionsResponse lists pending transaction ids in request order.
type PendingTransactionsResponse struct {
	TxIDs []uint64 `json:"tx_ids"`
}

// NonceResponse is a signer's next expected nonce.
type NonceResponse struct {
	Signer string `json:"signer"`
	Nonce  uint64 `json:"nonce"`
}

// DigestResponse is the deterministic signing digest for a proposed
// meta-transaction.
type DigestResponse struct {
	Digest string `json:"digest"`
}

// TransitionHistoryResponse lists a record's archived transitions.
type TransitionHistoryResponse struct {
	TxID        uint64      `json:"tx_id"`
	Transitions interface{} `json:"transitions"`
}
