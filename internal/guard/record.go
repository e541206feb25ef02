package guard

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TxParams is the immutable description of a requested operation. It is fixed
// at request time and never mutated afterwards.
type TxParams struct {
	Requester         common.Address `json:"requester"`
	Target            common.Address `json:"target"`
	Value             *big.Int       `json:"value"`
	ExecutionBudget   uint64         `json:"execution_budget"`
	OperationCategory common.Hash    `json:"operation_category"`
	Function          Selector       `json:"function"`
	ExecutionArgs     []byte         `json:"execution_args"`
}

// PaymentInfo tracks settlement of a record after its execution reached a
// terminal status.
type PaymentInfo struct {
	Status    PaymentStatus  `json:"status"`
	Payer     common.Address `json:"payer"`
	Amount    *big.Int       `json:"amount"`
	SettledAt time.Time      `json:"settled_at"`
}

// TxRecord is the persistent record of one requested operation. Records are
// append-only: a txId is assigned once and the record is never deleted, so the
// table doubles as an audit log.
type TxRecord struct {
	TxID           uint64      `json:"tx_id"`
	ReleaseTime    time.Time   `json:"release_time"`
	Status         TxStatus    `json:"status"`
	Params         TxParams    `json:"params"`
	CommitmentHash common.Hash `json:"commitment_hash"`
	Result         []byte      `json:"result"`
	Payment        PaymentInfo `json:"payment"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand records out without exposing
// the engine's internal state to mutation.
func (r *TxRecord) Clone() *TxRecord {
	out := *r
	out.Params.Value = cloneBig(r.Params.Value)
	out.Params.ExecutionArgs = append([]byte(nil), r.Params.ExecutionArgs...)
	out.Result = append([]byte(nil), r.Result...)
	out.Payment.Amount = cloneBig(r.Payment.Amount)
	return &out
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// MetaTxParams carry the authorization envelope of a signed instruction:
// which deployment it is valid for, which handler receives it, what action it
// authorizes, and the replay-protection fields.
type MetaTxParams struct {
	DomainID          uint64         `json:"domain_id"`
	Nonce             uint64         `json:"nonce"`
	HandlerTarget     common.Address `json:"handler_target"`
	HandlerFunction   Selector       `json:"handler_function"`
	Action            ActionKind     `json:"action"`
	Deadline          time.Time      `json:"deadline"`
	MaxExecutionPrice *big.Int       `json:"max_execution_price"`
	Signer            common.Address `json:"signer"`
}

// SignedMetaTransaction is the ephemeral envelope a relayer submits: the
// proposed or existing record, the signed parameters, and the signature over
// their digest. It is never persisted independently of the resulting TxRecord.
type SignedMetaTransaction struct {
	TxRecord       TxRecord     `json:"tx_record"`
	Params         MetaTxParams `json:"params"`
	CommitmentHash common.Hash  `json:"commitment_hash"`
	Signature      []byte       `json:"signature"`
	AuxiliaryData  []byte       `json:"auxiliary_data"`
}
