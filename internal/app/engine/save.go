package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/inputval"
)

// Summary is the accounting for a bulk operation over N documents: it
// always adds up, Saved+Failed equals the number attempted, and Errors
// carries one entry per failure.
type Summary struct {
	Saved  int
	Failed int
	Errors []error
}

// Save commits the staged edits for one document.
//
// The pipeline: validate every staged value, drop fields whose value
// equals the cached one, write the remainder as a partial update,
// re-read the canonical document, replace the cache entry, and clear
// the dirty flag. Validation failure or a write error leaves the
// pending edits, dirty flag, and cache exactly as they were. When every
// staged value matches the cache the save is a no-op that still clears
// the dirty flag.
func (e *Engine) Save(ctx context.Context, id string) error {
	e.mu.Lock()
	doc, ok := e.cache[id]
	if !ok {
		e.mu.Unlock()
		return ErrUnknownDocument
	}
	staged := e.pending[id]
	changed := make(map[string]any, len(staged))
	for field, value := range staged {
		if err := validateField(id, field, value); err != nil {
			e.mu.Unlock()
			return err
		}
		if cur, ok := doc[field]; ok && equalValues(cur, value) {
			continue
		}
		changed[field] = value
	}
	roster := e.roster
	e.mu.Unlock()

	if len(changed) == 0 {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		e.dirty.Clear(id)
		return nil
	}

	if err := roster.Update(ctx, id, changed); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}

	canonical, err := roster.Get(ctx, id)
	if err != nil {
		// The write landed; a failed re-read must not resurrect stale
		// local values, so merge what we sent and accept a missing
		// server timestamp until the next load.
		e.log.Warn("post-save read failed, merging written fields locally",
			zap.String("id", id), zap.Error(err))
		e.mu.Lock()
		if cur, ok := e.cache[id]; ok {
			canonical = cur.Clone()
			for k, v := range changed {
				canonical[k] = v
			}
		}
		e.mu.Unlock()
	}

	e.mu.Lock()
	if canonical != nil {
		e.cache[id] = canonical.Clone()
	}
	delete(e.pending, id)
	e.recomputeLocked()
	e.mu.Unlock()
	e.dirty.Clear(id)
	e.log.Info("document saved", zap.String("id", id), zap.Int("fields", len(changed)))
	return nil
}

// SaveAll commits every dirty document in sorted ID order. One
// document's failure never aborts the rest; the Summary reports how
// many landed and how many did not, with per-document errors. The
// context is checked between documents so cancellation stops cleanly at
// a document boundary.
func (e *Engine) SaveAll(ctx context.Context) (Summary, error) {
	ids := e.dirty.IDs()
	var s Summary
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if err := e.Save(ctx, id); err != nil {
			s.Failed++
			s.Errors = append(s.Errors, err)
			continue
		}
		s.Saved++
	}
	if s.Failed > 0 {
		e.log.Warn("bulk save finished with failures",
			zap.Int("saved", s.Saved), zap.Int("failed", s.Failed))
	} else {
		e.log.Info("bulk save finished", zap.Int("saved", s.Saved))
	}
	return s, nil
}

// validateField applies per-field rules to a staged value. Any field
// whose name mentions email must hold a well-formed address or be
// empty.
func validateField(id, field string, value any) error {
	if strings.Contains(strings.ToLower(field), "email") {
		s, _ := value.(string)
		if strings.TrimSpace(s) != "" && !inputval.IsValidEmail(s) {
			return &ValidationError{ID: id, Field: field, Reason: "invalid email address"}
		}
	}
	return nil
}

// equalValues compares a cached value against a staged one. Staged
// values come in as strings from the edit surface, so string-shape
// comparison is the meaningful one.
func equalValues(cur, staged any) bool {
	if cur == nil {
		s, ok := staged.(string)
		return ok && s == ""
	}
	return fmt.Sprint(cur) == fmt.Sprint(staged)
}
