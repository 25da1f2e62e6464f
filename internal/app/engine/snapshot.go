package engine

import (
	"github.com/eliomatters/matterhub/internal/domain/models"
)

// Snapshot is a point-in-time deep copy of the cache, safe to hand to
// exporters or renderers while the engine keeps mutating.
type Snapshot struct {
	Mode       models.Mode
	Documents  map[string]models.Document
	Attendance map[string]models.Attendance
	Dirty      []string
	Visible    []string
}

// Snapshot copies the current state. Pending edits are not folded in:
// the snapshot reflects what the store last confirmed, which is what an
// export should carry.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	docs := make(map[string]models.Document, len(e.cache))
	for id, d := range e.cache {
		docs[id] = d.Clone()
	}
	att := make(map[string]models.Attendance, len(e.att))
	for id, r := range e.att {
		att[id] = r
	}
	vis := make([]string, len(e.visible))
	copy(vis, e.visible)
	return Snapshot{
		Mode:       e.mode,
		Documents:  docs,
		Attendance: att,
		Dirty:      e.dirty.IDs(),
		Visible:    vis,
	}
}
