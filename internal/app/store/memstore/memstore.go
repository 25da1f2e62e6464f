// Package memstore provides in-memory implementations of the engine's
// store contracts. Demo mode runs entirely on these: the pipelines stay
// identical to connected mode while writes never leave the process.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// Roster is an in-memory roster collection.
type Roster struct {
	mu   sync.Mutex
	docs map[string]models.Document
}

// NewRoster creates a roster store seeded with docs (may be nil).
func NewRoster(docs map[string]models.Document) *Roster {
	m := &Roster{docs: make(map[string]models.Document, len(docs))}
	for id, d := range docs {
		m.docs[id] = d.Clone()
	}
	return m
}

// List returns a copy of the full collection.
func (m *Roster) List(ctx context.Context) (map[string]models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Document, len(m.docs))
	for id, d := range m.docs {
		out[id] = d.Clone()
	}
	return out, nil
}

// Get returns one document by ID.
func (m *Roster) Get(ctx context.Context, id string) (models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return d.Clone(), nil
}

// Update merges the given fields into the document and stamps a local
// wall-clock update time (there is no server to assign one in demo
// mode).
func (m *Roster) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	for k, v := range fields {
		if k == models.FieldUpdatedAt {
			continue
		}
		d[k] = v
	}
	d[models.FieldUpdatedAt] = time.Now().UTC()
	return nil
}

// Delete removes one document. Unknown IDs are not an error.
func (m *Roster) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

// Probe always succeeds: there is nothing remote to reach.
func (m *Roster) Probe(ctx context.Context) error { return nil }

// Attendance is an in-memory attendance collection.
type Attendance struct {
	mu   sync.Mutex
	recs map[string]models.Attendance
}

// NewAttendance creates an attendance store seeded with recs (may be
// nil).
func NewAttendance(recs map[string]models.Attendance) *Attendance {
	m := &Attendance{recs: make(map[string]models.Attendance, len(recs))}
	for id, r := range recs {
		m.recs[id] = r
	}
	return m
}

// List returns a copy of all records.
func (m *Attendance) List(ctx context.Context) (map[string]models.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Attendance, len(m.recs))
	for id, r := range m.recs {
		out[id] = r
	}
	return out, nil
}

// Set merges a record, stamping a local update time.
func (m *Attendance) Set(ctx context.Context, id string, rec models.Attendance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	m.recs[id] = rec
	return nil
}

// Delete removes one record. Unknown IDs are not an error.
func (m *Attendance) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

// Probe always succeeds.
func (m *Attendance) Probe(ctx context.Context) error { return nil }
