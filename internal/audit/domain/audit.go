// Package domain contains compliance audit record entities and contracts.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wishcraft/gatekeeper/internal/errors"
)

// Status is the recorded outcome of a privacy operation.
type Status string

// Audit record statuses.
const (
	// StatusCompleted marks an operation that finished, including no-op
	// replays of an already-redacted subject.
	StatusCompleted Status = "completed"
	// StatusFailed marks an operation whose data changes were rolled back.
	StatusFailed Status = "failed"
)

// Audit record error definitions.
var (
	// ErrSignatureInvalid indicates an audit record failed signature verification.
	ErrSignatureInvalid = errors.New("audit record signature is invalid")
)

// Record is the durable proof that a privacy webhook was processed. Records
// outlive the data they describe; redaction deletes customer rows but never
// audit rows.
type Record struct {
	ID         uuid.UUID      `json:"id"`
	RequestID  string         `json:"request_id"`
	Topic      string         `json:"topic"`
	ShopDomain string         `json:"shop_domain"`
	SubjectID  string         `json:"subject_id"`
	Status     Status         `json:"status"`
	Detail     map[string]any `json:"detail,omitempty"`
	Signature  []byte         `json:"-"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewRecord creates an audit record with a generated ID and timestamp.
func NewRecord(requestID, topic, shopDomain, subjectID string, status Status, detail map[string]any) *Record {
	return &Record{
		ID:         uuid.Must(uuid.NewV7()),
		RequestID:  requestID,
		Topic:      topic,
		ShopDomain: shopDomain,
		SubjectID:  subjectID,
		Status:     status,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}
}

// Repository defines the interface for audit record persistence.
type Repository interface {
	// Create persists a new audit record.
	Create(ctx context.Context, record *Record) error

	// List retrieves audit records ordered by ID descending with pagination.
	List(ctx context.Context, offset, limit int) ([]*Record, error)

	// DeleteOlderThan removes records created before the given time, for
	// retention enforcement. Returns the number of rows removed.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
