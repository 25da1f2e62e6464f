package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DeleteSummary reports a delete batch. Reloaded is true when at least
// one delete landed and the cache was force-refreshed afterwards.
type DeleteSummary struct {
	Deleted  int
	Failed   int
	Errors   []error
	Reloaded bool
}

// Delete removes the given documents and their attendance records. The
// caller confirms with the operator before invoking this; the engine
// never prompts.
//
// Each document is its own unit of work: one failure is recorded and
// the batch continues. After the batch, if anything was deleted, the
// cache is force-reloaded so the view reflects the store rather than a
// local guess. Pending edits and dirty flags for deleted IDs are
// dropped. The context is checked between documents; cancellation
// returns the partial summary with the context error, and the refresh
// is skipped since the context is gone.
func (e *Engine) Delete(ctx context.Context, ids []string) (DeleteSummary, error) {
	e.mu.Lock()
	roster := e.roster
	att := e.attendance
	e.mu.Unlock()

	var s DeleteSummary
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if err := roster.Delete(ctx, id); err != nil {
			s.Failed++
			s.Errors = append(s.Errors, fmt.Errorf("delete %s: %w", id, err))
			continue
		}
		// Orphaned attendance is harmless but pointless; a failure
		// here does not fail the document delete.
		if err := att.Delete(ctx, id); err != nil {
			e.log.Warn("attendance cleanup failed", zap.String("id", id), zap.Error(err))
		}
		e.mu.Lock()
		e.removeLocal(id)
		e.mu.Unlock()
		s.Deleted++
	}

	if s.Deleted > 0 {
		if _, err := e.Load(ctx, true); err != nil {
			s.Errors = append(s.Errors, fmt.Errorf("refresh after delete: %w", err))
		} else {
			s.Reloaded = true
		}
	}
	e.log.Info("delete batch finished",
		zap.Int("deleted", s.Deleted), zap.Int("failed", s.Failed))
	return s, nil
}
