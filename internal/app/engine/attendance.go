package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/system/timeouts"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

// AttendanceFor returns the cached attendance record for a document. A
// document with no record yet gets a zero record, not an error.
func (e *Engine) AttendanceFor(id string) (models.Attendance, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.cache[id]; !ok {
		return models.Attendance{}, false
	}
	return e.att[id], true
}

// SetAttendanceDay toggles one day's presence in the local cache and
// marks the document dirty. Like field edits, nothing is written until
// SaveAllAttendance.
func (e *Engine) SetAttendanceDay(id, day string, present bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.cache[id]; !ok {
		return ErrUnknownDocument
	}
	rec := e.att[id]
	if err := rec.SetDay(day, present); err != nil {
		return err
	}
	e.att[id] = rec
	e.attDirty[id] = struct{}{}
	return nil
}

// SaveAllAttendance writes every locally changed attendance record,
// stamping each with the operator who recorded it. Accounting matches
// SaveAll: per-record failures are collected, successes clear the local
// changed flag, and the batch never aborts early except on context
// cancellation.
func (e *Engine) SaveAllAttendance(ctx context.Context, recordedBy string) (Summary, error) {
	e.mu.Lock()
	ids := make([]string, 0, len(e.attDirty))
	for id := range e.attDirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	att := e.attendance
	e.mu.Unlock()

	var s Summary
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		e.mu.Lock()
		rec := e.att[id]
		e.mu.Unlock()
		rec.RecordedBy = recordedBy
		if err := att.Set(ctx, id, rec); err != nil {
			s.Failed++
			s.Errors = append(s.Errors, fmt.Errorf("attendance %s: %w", id, err))
			continue
		}
		e.mu.Lock()
		cur := e.att[id]
		cur.RecordedBy = recordedBy
		e.att[id] = cur
		delete(e.attDirty, id)
		e.mu.Unlock()
		s.Saved++
	}
	e.log.Info("attendance batch finished",
		zap.Int("saved", s.Saved), zap.Int("failed", s.Failed))
	return s, nil
}

// ConnectivityCheck verifies the stores end to end: a bounded probe of
// each collection, then a throwaway write and delete against the
// attendance collection to prove write access. The probe record uses a
// random ID so concurrent checks never collide.
func (e *Engine) ConnectivityCheck(ctx context.Context) error {
	e.mu.Lock()
	roster := e.roster
	att := e.attendance
	e.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	if err := roster.Probe(ctx); err != nil {
		return fmt.Errorf("roster probe: %w", err)
	}
	if err := att.Probe(ctx); err != nil {
		return fmt.Errorf("attendance probe: %w", err)
	}

	probeID := "probe-" + uuid.NewString()
	if err := att.Set(ctx, probeID, models.Attendance{RecordedBy: "connectivity-check"}); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}
	if err := att.Delete(ctx, probeID); err != nil {
		e.log.Warn("probe record left behind", zap.String("id", probeID), zap.Error(err))
	}
	e.log.Debug("connectivity check passed")
	return nil
}
