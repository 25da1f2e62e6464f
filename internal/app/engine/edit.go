package engine

// Edit accepts a single-field edit for a cached document. The value is
// staged in the pending set and the document is marked dirty; nothing
// is written to the store until Save. Edits to unknown documents or
// non-editable fields are rejected.
//
// Validation happens at save time, not here: an operator can type an
// invalid value, see the row flagged dirty, and fix it before saving.
func (e *Engine) Edit(id, field string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.cache[id]; !ok {
		return ErrUnknownDocument
	}
	if !e.editable[field] {
		return &ValidationError{ID: id, Field: field, Reason: "field is not editable"}
	}
	fields := e.pending[id]
	if fields == nil {
		fields = make(map[string]any)
		e.pending[id] = fields
	}
	fields[field] = value
	e.dirty.Mark(id)
	return nil
}

// Pending returns a copy of the staged edits for one document, nil when
// there are none.
func (e *Engine) Pending(id string) map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	fields, ok := e.pending[id]
	if !ok {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Revert drops the staged edits for one document and clears its dirty
// flag. The cache entry is untouched since edits never mutated it.
func (e *Engine) Revert(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.pending, id)
	e.dirty.Clear(id)
}
