// Package metatx builds and verifies the structured digests that authorize a
// state transition without a live call from the authorizer. Everything here
// is a pure function over the message contents; the stateful gates (nonce,
// deadline, permissions) live in the engine so that verification and the
// nonce advance share one critical section.
package metatx

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/guardrail-labs/guardrail-api/internal/guard"
)

// Type strings pin the digest layout. Changing either invalidates every
// outstanding signature, which is the point: a signer commits to one exact
// encoding.
const (
	metaTxType   = "GuardrailMetaTransaction(uint64 domainId,address handlerTarget,bytes4 handlerFunction,uint8 action,uint64 nonce,uint64 deadline,uint256 maxExecutionPrice,address signer,bytes32 txParamsHash)"
	txParamsType = "GuardrailTxParams(address requester,address target,uint256 value,uint64 executionBudget,bytes32 operationCategory,bytes4 function,bytes32 argsHash)"
)

var (
	metaTxTypeHash   = crypto.Keccak256Hash([]byte(metaTxType))
	txParamsTypeHash = crypto.Keccak256Hash([]byte(txParamsType))
)

// SignatureLength is the expected [R || S || V] signature size.
const SignatureLength = 65

// TxParamsHash hashes the immutable operation parameters into one 32-byte
// word of the outer digest.
func TxParamsHash(p guard.TxParams) common.Hash {
	return crypto.Keccak256Hash(
		txParamsTypeHash.Bytes(),
		addressWord(p.Requester),
		addressWord(p.Target),
		bigWord(p.Value),
		uint64Word(p.ExecutionBudget),
		p.OperationCategory.Bytes(),
		selectorWord(p.Function),
		crypto.Keccak256(p.ExecutionArgs),
	)
}

// Digest is the deterministic 32-byte message a signer commits to. External
// signing components reproduce it from the same inputs without talking to
// the engine.
func Digest(params guard.MetaTxParams, tx guard.TxParams) common.Hash {
	return crypto.Keccak256Hash(
		metaTxTypeHash.Bytes(),
		uint64Word(params.DomainID),
		addressWord(params.HandlerTarget),
		selectorWord(params.HandlerFunction),
		uint64Word(uint64(params.Action)),
		uint64Word(params.Nonce),
		uint64Word(uint64(params.Deadline.Unix())),
		bigWord(params.MaxExecutionPrice),
		addressWord(params.Signer),
		TxParamsHash(tx).Bytes(),
	)
}

// CommitmentHash binds a record's identity to its parameters. It is stored
// on the record at creation and echoed back by signed instructions that
// reference an existing record.
func CommitmentHash(txID uint64, p guard.TxParams) common.Hash {
	return crypto.Keccak256Hash(
		uint64Word(txID),
		TxParamsHash(p).Bytes(),
	)
}

// Sign produces a 65-byte [R || S || V] signature over the digest.
func Sign(digest common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("signing digest: %w", err)
	}
	return sig, nil
}

// RecoverSigner recovers the signing address from a [R || S || V] signature.
// V may be 0/1 or the legacy 27/28.
func RecoverSigner(digest common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature length %d: %w", len(signature), guard.ErrSignatureInvalid)
	}
	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", guard.ErrSignatureInvalid, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

func addressWord(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func selectorWord(s guard.Selector) []byte {
	return common.RightPadBytes(s[:], 32)
}

func uint64Word(v uint64) []byte {
	return common.LeftPadBytes(new(big.Int).SetUint64(v).Bytes(), 32)
}

func bigWord(v *big.Int) []byte {
	if v == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(v.Bytes(), 32)
}
