// Package orderlog keeps an append-only audit trail of every state a
// checkout passes through, so a submitted order can be traced back to the
// exact message that was handed off and to its distributed trace.
package orderlog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("orderlog: order not found")

// Status mirrors the checkout states that are worth recording.
type Status string

const (
	StatusValidating Status = "VALIDATING"
	StatusRejected   Status = "REJECTED"
	StatusSubmitting Status = "SUBMITTING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Entry is a single row in the order_logs table.
type Entry struct {
	// OrderID is the uuid assigned to the checkout attempt.
	OrderID string

	Status Status

	// Step is the name of the step that was running when the entry was written.
	Step string

	// Payload is the formatted order message. Written once on SUBMITTING.
	Payload string

	// ErrorMessages is a JSON array of failure details.
	ErrorMessages string

	TraceID string
	SpanID  string

	UpdatedAt time.Time
}
