package models

import (
	"fmt"
	"time"
)

// FieldUpdatedAt is the server-assigned last-update timestamp present on
// every persisted document.
const FieldUpdatedAt = "updatedAt"

// Document is one roster record as it lives in the remote collection: a
// flat field→value mapping addressed by an opaque, collection-assigned
// string ID (the ID itself is not part of the mapping). The field set is
// driven by the operator's column schema, so the representation stays
// dynamic instead of a fixed struct.
type Document map[string]any

// String returns the document's value for field rendered as a string.
// Missing fields and nil values render as "".
func (d Document) String(field string) string {
	v, ok := d[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if t, ok := v.(time.Time); ok {
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}

// UpdatedAt returns the server-assigned update timestamp if the document
// carries one.
func (d Document) UpdatedAt() (time.Time, bool) {
	t, ok := d[FieldUpdatedAt].(time.Time)
	return t, ok
}

// Clone returns a shallow copy of the field mapping. Values are scalars,
// so a shallow copy is enough to isolate callers from cache mutation.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
