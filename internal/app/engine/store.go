package engine

import (
	"context"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// DocumentStore is the capability the engine needs from a roster
// backend. The remote store and the in-memory demo store implement the
// same contract, so every pipeline runs the same code path regardless of
// mode — mode decides which implementation is wired in, nothing else.
type DocumentStore interface {
	// List streams the full collection into an id→document mapping.
	List(ctx context.Context) (map[string]models.Document, error)
	// Get returns the canonical document for one ID.
	Get(ctx context.Context, id string) (models.Document, error)
	// Update applies a partial update of only the given fields and
	// assigns the update timestamp (server time when remote, local
	// wall clock when in memory).
	Update(ctx context.Context, id string, fields map[string]any) error
	// Delete removes one document; unknown IDs are not an error.
	Delete(ctx context.Context, id string) error
	// Probe is a bounded connectivity check.
	Probe(ctx context.Context) error
}

// AttendanceStore is the same contract for the attendance collection.
type AttendanceStore interface {
	List(ctx context.Context) (map[string]models.Attendance, error)
	// Set merges a record, creating it if absent.
	Set(ctx context.Context, id string, rec models.Attendance) error
	Delete(ctx context.Context, id string) error
	Probe(ctx context.Context) error
}
