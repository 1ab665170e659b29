package storage

import (
	"context"
	"time"

	"github.com/safedata/safedata/pkg/models"
)

// Session holds one user's working state: the uploaded microdata, the
// optional true-identifiers table, and the anonymized result once a transform
// has run. Sessions are discarded on TTL expiry or explicit delete; there is
// no durable persistence.
type Session struct {
	ID         string        `json:"id"`
	Microdata  *models.Table `json:"microdata"`
	TrueIDs    *models.Table `json:"true_ids,omitempty"`
	Anonymized *models.Table `json:"anonymized,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Summary builds the API-facing view of a session
func (s *Session) Summary() *models.DatasetSummary {
	return &models.DatasetSummary{
		ID:             s.ID,
		Columns:        s.Microdata.Columns,
		NumericColumns: s.Microdata.NumericColumns(),
		RowCount:       s.Microdata.NumRows(),
		HasTrueIDs:     s.TrueIDs != nil,
		HasAnonymized:  s.Anonymized != nil,
		CreatedAt:      s.CreatedAt,
	}
}

// SessionStore defines the interface for session storage backends
type SessionStore interface {
	// Connect establishes the backend connection
	Connect(ctx context.Context) error

	// Put stores or replaces a session
	Put(ctx context.Context, session *Session) error

	// Get retrieves a session by id
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions
	Count(ctx context.Context) (int64, error)

	// Health checks backend health
	Health(ctx context.Context) error

	// Close closes the backend connection
	Close() error
}
