package engine

import (
	"fmt"
	"sort"
	"strings"
)

// DocumentID is the sentinel field name that targets the document ID
// instead of a stored field in search and filter criteria.
const DocumentID = "_id"

// Criteria is one view predicate: a field name (or DocumentID) and the
// text to match against. An empty Text matches everything.
type Criteria struct {
	Field string
	Text  string
}

func (c Criteria) active() bool { return strings.TrimSpace(c.Text) != "" }

// SetSearch stages a substring criterion and arms the debounce timer.
// Rapid successive calls collapse into a single recomputation once the
// text has been quiet for the debounce interval, and only the most
// recent text ever runs.
func (e *Engine) SetSearch(field, text string) {
	e.mu.Lock()
	e.search = Criteria{Field: field, Text: text}
	e.mu.Unlock()
	e.searchDeb.Trigger(e.recompute)
}

// SetFilter stages an exact-match criterion, debounced like SetSearch.
// Search and filter combine with AND.
func (e *Engine) SetFilter(field, text string) {
	e.mu.Lock()
	e.filter = Criteria{Field: field, Text: text}
	e.mu.Unlock()
	e.filterDeb.Trigger(e.recompute)
}

// Refilter recomputes the view immediately, bypassing the debounce.
// Cache mutations (loads, saves, deletes) use this so the view never
// lags a confirmed data change.
func (e *Engine) Refilter() {
	e.searchDeb.Cancel()
	e.filterDeb.Cancel()
	e.recompute()
}

// OnView registers a hook called with the new visible ID list after
// every recomputation. The hook runs on whichever goroutine recomputed,
// which for debounced changes is the timer goroutine.
func (e *Engine) OnView(fn func(ids []string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onView = fn
}

// VisibleIDs returns the current view: every cached ID passing both
// criteria, in sorted order.
func (e *Engine) VisibleIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.visible))
	copy(out, e.visible)
	return out
}

func (e *Engine) recompute() {
	e.mu.Lock()
	e.recomputeLocked()
	fn := e.onView
	ids := make([]string, len(e.visible))
	copy(ids, e.visible)
	e.mu.Unlock()
	if fn != nil {
		fn(ids)
	}
}

// recomputeLocked rebuilds e.visible under e.mu. Matching is
// case-insensitive; search is substring, filter is exact, and the two
// AND together.
func (e *Engine) recomputeLocked() {
	vis := make([]string, 0, len(e.cache))
	for id, doc := range e.cache {
		if !matches(id, doc, e.search, strings.Contains) {
			continue
		}
		if !matches(id, doc, e.filter, func(have, want string) bool { return have == want }) {
			continue
		}
		vis = append(vis, id)
	}
	sort.Strings(vis)
	e.visible = vis
}

func matches(id string, doc map[string]any, c Criteria, cmp func(have, want string) bool) bool {
	if !c.active() {
		return true
	}
	want := strings.ToLower(strings.TrimSpace(c.Text))
	var have string
	if c.Field == DocumentID {
		have = id
	} else {
		v, ok := doc[c.Field]
		if !ok {
			return false
		}
		have = strings.TrimSpace(toString(v))
	}
	return cmp(strings.ToLower(have), want)
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
