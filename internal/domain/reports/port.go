package reports

import (
	"context"
	"errors"

	"github.com/bryanwahyu/medverify/internal/domain/verification"
)

// ErrNotFound dipakai repo ketika record tidak ada.
var ErrNotFound = errors.New("reports: record not found")

// Repository is the durable store for verification records.
type Repository interface {
	Save(ctx context.Context, rec *Record) error
	Find(ctx context.Context, tenantID string, id verification.ExchangeID) (*Record, error)
	Latest(ctx context.Context, tenantID string, limit int) ([]*Record, error)
}

// Archive keeps completed records in the long-term store. Best effort: an
// archive failure never fails the run.
type Archive interface {
	Archive(ctx context.Context, rec *Record) error
}

// ArtifactStore exports report documents to object storage.
type ArtifactStore interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
}

// Notifier is called once per finished run. Implementations must not block.
type Notifier interface {
	Notify(ctx context.Context, rec *Record)
}
