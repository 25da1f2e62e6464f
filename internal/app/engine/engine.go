// Package engine implements the document cache and reconciliation
// pipelines: an in-memory mirror of the remote roster and attendance
// collections, per-document dirty tracking, debounced view filtering,
// and the save/delete pipelines with partial-failure accounting.
//
// The engine runs the same state machines in connected and demo mode;
// the mode only decides which DocumentStore/AttendanceStore
// implementations are wired in.
package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/debounce"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

// DefaultDebounce is the quiet interval before a search or filter text
// change triggers recomputation.
const DefaultDebounce = 350 * time.Millisecond

// Config assembles an Engine.
type Config struct {
	Log        *zap.Logger
	Mode       models.Mode
	Roster     DocumentStore
	Attendance AttendanceStore
	Columns    models.Columns
	// Debounce overrides DefaultDebounce; tests shorten it.
	Debounce time.Duration
}

// Engine owns the document cache and everything derived from it. All
// methods are safe for concurrent use, though the intended shape is a
// single driving goroutine plus the debounce timer goroutine.
type Engine struct {
	log *zap.Logger

	mu         sync.Mutex
	mode       models.Mode
	roster     DocumentStore
	attendance AttendanceStore

	cache map[string]models.Document
	att   map[string]models.Attendance
	// pending holds accepted-but-unsaved field edits per document;
	// every key in pending has a matching entry in the dirty set.
	pending map[string]map[string]any
	// attDirty tracks documents whose attendance changed locally; kept
	// apart from the field dirty set so a field save never flushes
	// attendance and vice versa.
	attDirty map[string]struct{}

	columns  models.Columns
	editable map[string]bool

	search  Criteria
	filter  Criteria
	visible []string
	onView  func([]string)

	searchDeb *debounce.Debouncer
	filterDeb *debounce.Debouncer

	dirty *DirtyTracker
}

// New assembles an engine. The stores must match the mode: remote
// stores for connected, memstore for demo.
func New(cfg Config) *Engine {
	d := cfg.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	cols := cfg.Columns
	if len(cols) == 0 {
		cols = models.DefaultColumns()
	}
	return &Engine{
		log:        cfg.Log,
		mode:       cfg.Mode,
		roster:     cfg.Roster,
		attendance: cfg.Attendance,
		cache:      make(map[string]models.Document),
		att:        make(map[string]models.Attendance),
		pending:    make(map[string]map[string]any),
		attDirty:   make(map[string]struct{}),
		columns:    cols,
		editable:   cols.EditableFields(),
		searchDeb:  debounce.New(d),
		filterDeb:  debounce.New(d),
		dirty:      NewDirtyTracker(),
	}
}

// Mode returns the current mode. It can flip from connected to demo
// exactly once, when a connected load degrades.
func (e *Engine) Mode() models.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Dirty exposes the dirty tracker for membership queries and row
// feedback hooks.
func (e *Engine) Dirty() *DirtyTracker { return e.dirty }

// Columns returns the current column schema.
func (e *Engine) Columns() models.Columns {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(models.Columns, len(e.columns))
	copy(out, e.columns)
	return out
}

// SetColumns swaps the column schema at runtime and re-derives the
// field→editable mapping. Pending edits for fields that are no longer
// editable are dropped; documents left with no pending edits stay dirty
// until saved or reloaded, matching the rule that only a successful
// save or a confirmed reload clears the flag.
func (e *Engine) SetColumns(cols models.Columns) error {
	if err := cols.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.columns = make(models.Columns, len(cols))
	copy(e.columns, cols)
	e.editable = cols.EditableFields()
	for id, fields := range e.pending {
		for f := range fields {
			if !e.editable[f] {
				delete(fields, f)
			}
		}
		if len(fields) == 0 {
			delete(e.pending, id)
		}
	}
	return nil
}
