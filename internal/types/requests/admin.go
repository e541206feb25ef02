package requests

import "encoding/json"

// BatchActionPayload is one (kind, payload) pair of a configuration batch
// submitted over HTTP. The payload shape depends on the kind; it is decoded
// by the batch executor.
type BatchActionPayload struct {
	Kind    string          `json:"kind" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// SubmitBatchRequest represents the request body for submitting a
// configuration batch through the direct request path. The batch becomes a
// normal transaction against the batch executor function and is subject to
// the same time lock and approval flow.
type SubmitBatchRequest struct {
	Actions []BatchActionPayload `json:"actions" binding:"required"`
}
