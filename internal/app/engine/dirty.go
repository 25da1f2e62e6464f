package engine

import (
	"sort"
	"sync"
)

// DirtyTracker is the set of document IDs with uncommitted local edits.
// It tracks IDs only — never view positions — so the view layer derives
// row highlighting purely from membership, immune to reordering.
type DirtyTracker struct {
	mu       sync.Mutex
	ids      map[string]struct{}
	onChange func(id string, dirty bool)
}

// NewDirtyTracker returns an empty tracker.
func NewDirtyTracker() *DirtyTracker {
	return &DirtyTracker{ids: make(map[string]struct{})}
}

// OnChange registers a hook called whenever an ID enters or leaves the
// set. The hook runs on the mutating goroutine and must not call back
// into the tracker.
func (t *DirtyTracker) OnChange(fn func(id string, dirty bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Mark adds an ID. Marking an already-dirty ID is a no-op.
func (t *DirtyTracker) Mark(id string) {
	t.mu.Lock()
	_, present := t.ids[id]
	if !present {
		t.ids[id] = struct{}{}
	}
	fn := t.onChange
	t.mu.Unlock()
	if !present && fn != nil {
		fn(id, true)
	}
}

// Clear removes an ID after a confirmed successful save (or delete).
func (t *DirtyTracker) Clear(id string) {
	t.mu.Lock()
	_, present := t.ids[id]
	delete(t.ids, id)
	fn := t.onChange
	t.mu.Unlock()
	if present && fn != nil {
		fn(id, false)
	}
}

// IsDirty reports membership.
func (t *DirtyTracker) IsDirty(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.ids[id]
	return ok
}

// Count returns the number of dirty IDs.
func (t *DirtyTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}

// IDs returns a sorted snapshot of the set.
func (t *DirtyTracker) IDs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.ids))
	for id := range t.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// reset empties the set without firing hooks; used by full reloads where
// the operator has already confirmed the discard.
func (t *DirtyTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = make(map[string]struct{})
}
