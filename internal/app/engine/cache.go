package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/store/memstore"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

// LoadResult describes the outcome of a cache load. Warning is set when
// a connected load failed and the engine degraded to demo data instead
// of surfacing the error.
type LoadResult struct {
	Mode       models.Mode
	Documents  int
	Attendance int
	Warning    string
}

// Load replaces the cache with a fresh listing from the stores. When
// the dirty set is non-empty and force is false it refuses with
// ErrDirtyEdits so the caller can confirm discarding unsaved edits;
// force reloads unconditionally and drops pending edits and dirty
// flags.
//
// In connected mode a listing failure on either collection does not
// propagate: the engine swaps its stores for generated demo data, flips
// to demo mode, and reports the substitution in LoadResult.Warning.
// Demo-mode loads cannot fail.
func (e *Engine) Load(ctx context.Context, force bool) (LoadResult, error) {
	e.mu.Lock()
	if !force && (e.dirty.Count() > 0 || len(e.attDirty) > 0) {
		e.mu.Unlock()
		return LoadResult{}, ErrDirtyEdits
	}
	roster := e.roster
	att := e.attendance
	mode := e.mode
	e.mu.Unlock()

	var warning string
	var rec map[string]models.Attendance
	docs, err := roster.List(ctx)
	if err == nil {
		rec, err = att.List(ctx)
	}
	if err != nil {
		if mode == models.Demo {
			// Demo stores are in-memory and cannot error; treat this
			// as a programming fault rather than degrading again.
			return LoadResult{}, fmt.Errorf("demo list: %w", err)
		}
		// A half-loaded roster is worse than an honest demo: one
		// stream failing degrades the whole load.
		e.log.Warn("load failed, switching to demo data", zap.Error(err))
		warning = fmt.Sprintf("could not reach the document store (%v); showing generated demo data", err)
		docs, rec, roster, att, mode = e.degradeToDemo(ctx)
	}

	e.mu.Lock()
	e.mode = mode
	e.roster = roster
	e.attendance = att
	e.cache = docs
	e.att = rec
	e.pending = make(map[string]map[string]any)
	e.attDirty = make(map[string]struct{})
	e.dirty.reset()
	e.recomputeLocked()
	res := LoadResult{
		Mode:       e.mode,
		Documents:  len(e.cache),
		Attendance: len(e.att),
		Warning:    warning,
	}
	e.mu.Unlock()
	return res, nil
}

// degradeToDemo builds seeded in-memory stores and returns their
// freshly listed contents. Listing a memstore cannot fail.
func (e *Engine) degradeToDemo(ctx context.Context) (map[string]models.Document, map[string]models.Attendance, DocumentStore, AttendanceStore, models.Mode) {
	roster := memstore.NewRoster(memstore.DemoRoster())
	att := memstore.NewAttendance(memstore.DemoAttendance())
	docs, _ := roster.List(ctx)
	rec, _ := att.List(ctx)
	return docs, rec, roster, att, models.Demo
}

// Get returns a deep copy of one cached document.
func (e *Engine) Get(id string) (models.Document, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, ok := e.cache[id]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// IDs returns every cached document ID in sorted order, ignoring the
// view filter.
func (e *Engine) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.cache))
	for id := range e.cache {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of cached documents.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

// UpsertLocal replaces one cache entry with a canonical document, as
// re-read after a save. The view is recomputed immediately so a saved
// edit that no longer matches the filter drops out.
func (e *Engine) UpsertLocal(id string, doc models.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[id] = doc.Clone()
	e.recomputeLocked()
}

// removeLocal drops a document and everything keyed on it.
func (e *Engine) removeLocal(id string) {
	delete(e.cache, id)
	delete(e.att, id)
	delete(e.pending, id)
	delete(e.attDirty, id)
	e.dirty.Clear(id)
}
