package guard

import (
	"encoding/json"
	"fmt"
)

// TxStatus is the lifecycle state of a TxRecord.
type TxStatus int

const (
	StatusPending TxStatus = iota
	StatusExecuting
	StatusCompleted
	StatusFailed
	StatusCancelled
)

var statusNames = map[TxStatus]string{
	StatusPending:   "PENDING",
	StatusExecuting: "EXECUTING",
	StatusCompleted: "COMPLETED",
	StatusFailed:    "FAILED",
	StatusCancelled: "CANCELLED",
}

// Terminal reports whether no further execution transition is possible.
// Payment settlement is a separate axis and remains open after Completed
// and Failed.
func (s TxStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

func (s TxStatus) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("TxStatus(%d)", int(s))
}

// MarshalJSON encodes the status as its wire name.
func (s TxStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the status from its wire name.
func (s *TxStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for k, n := range statusNames {
		if n == name {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown tx status %q", name)
}

// PaymentStatus tracks settlement of a completed or failed record,
// independent of the execution path.
type PaymentStatus int

const (
	PaymentUnset PaymentStatus = iota
	PaymentProcessing
	PaymentSettled
)

var paymentNames = map[PaymentStatus]string{
	PaymentUnset:      "UNSET",
	PaymentProcessing: "PROCESSING",
	PaymentSettled:    "SETTLED",
}

func (p PaymentStatus) String() string {
	if n, ok := paymentNames[p]; ok {
		return n
	}
	return fmt.Sprintf("PaymentStatus(%d)", int(p))
}

// MarshalJSON encodes the payment status as its wire name.
func (p PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes the payment status from its wire name.
func (p *PaymentStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for k, n := range paymentNames {
		if n == name {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown payment status %q", name)
}
