package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/engine"
	"github.com/eliomatters/matterhub/internal/app/store/memstore"
	"github.com/eliomatters/matterhub/internal/domain/models"
	"github.com/eliomatters/matterhub/internal/testutil"
)

// failingAttendance rejects writes for scripted IDs and, when failList
// is set, the listing itself.
type failingAttendance struct {
	*memstore.Attendance
	failSet  map[string]bool
	failList bool
}

func (f *failingAttendance) Set(ctx context.Context, id string, rec models.Attendance) error {
	if f.failSet[id] {
		return errors.New("write rejected")
	}
	return f.Attendance.Set(ctx, id, rec)
}

func (f *failingAttendance) List(ctx context.Context) (map[string]models.Attendance, error) {
	if f.failList {
		return nil, errors.New("store unreachable")
	}
	return f.Attendance.List(ctx)
}

func newAttendanceEngine(t *testing.T, failSet map[string]bool) *engine.Engine {
	t.Helper()
	docs := testutil.SampleDocuments(3)
	att := &failingAttendance{
		Attendance: memstore.NewAttendance(testutil.SampleAttendance(docs)),
		failSet:    failSet,
	}
	eng := engine.New(engine.Config{
		Log:        zap.NewNop(),
		Mode:       models.Demo,
		Roster:     memstore.NewRoster(docs),
		Attendance: att,
		Debounce:   20 * time.Millisecond,
	})
	if _, err := eng.Load(context.Background(), true); err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestSetAttendanceDay(t *testing.T) {
	eng := newAttendanceEngine(t, nil)

	if err := eng.SetAttendanceDay("doc-001", "day2", true); err != nil {
		t.Fatalf("SetAttendanceDay() error = %v", err)
	}
	rec, ok := eng.AttendanceFor("doc-001")
	if !ok {
		t.Fatal("AttendanceFor() reported unknown document")
	}
	if !rec.Day2 {
		t.Error("day2 not set")
	}
	if !rec.Day1 {
		t.Error("fixture day1 lost by the toggle")
	}

	if err := eng.SetAttendanceDay("doc-001", "day9", true); err == nil {
		t.Error("unknown day accepted")
	}
	if err := eng.SetAttendanceDay("missing", "day1", true); !errors.Is(err, engine.ErrUnknownDocument) {
		t.Errorf("unknown document error = %v", err)
	}
}

func TestSaveAllAttendance(t *testing.T) {
	eng := newAttendanceEngine(t, nil)
	ctx := context.Background()

	eng.SetAttendanceDay("doc-001", "day2", true)
	eng.SetAttendanceDay("doc-003", "day3", true)

	s, err := eng.SaveAllAttendance(ctx, "operator-7")
	if err != nil {
		t.Fatalf("SaveAllAttendance() error = %v", err)
	}
	if s.Saved != 2 || s.Failed != 0 {
		t.Errorf("summary = %d/%d, want 2/0", s.Saved, s.Failed)
	}
	rec, _ := eng.AttendanceFor("doc-001")
	if rec.RecordedBy != "operator-7" {
		t.Errorf("RecordedBy = %q, want the saving operator", rec.RecordedBy)
	}

	// Nothing left to save: a second pass is a clean no-op.
	s, err = eng.SaveAllAttendance(ctx, "operator-7")
	if err != nil || s.Saved != 0 {
		t.Errorf("second pass = %+v, %v; want empty summary", s, err)
	}
}

func TestSaveAllAttendancePartialFailure(t *testing.T) {
	eng := newAttendanceEngine(t, map[string]bool{"doc-002": true})
	ctx := context.Background()

	eng.SetAttendanceDay("doc-001", "day2", true)
	eng.SetAttendanceDay("doc-002", "day2", true)
	eng.SetAttendanceDay("doc-003", "day2", true)

	s, err := eng.SaveAllAttendance(ctx, "op")
	if err != nil {
		t.Fatalf("SaveAllAttendance() error = %v", err)
	}
	if s.Saved != 2 || s.Failed != 1 {
		t.Errorf("summary = %d/%d, want 2/1", s.Saved, s.Failed)
	}

	// Only the failure stays queued for the next pass.
	s, err = eng.SaveAllAttendance(ctx, "op")
	if err != nil {
		t.Fatal(err)
	}
	if s.Saved+s.Failed != 1 {
		t.Errorf("retry attempted %d records, want only the earlier failure", s.Saved+s.Failed)
	}
}

func TestConnectivityCheck(t *testing.T) {
	eng := newAttendanceEngine(t, nil)
	if err := eng.ConnectivityCheck(context.Background()); err != nil {
		t.Errorf("ConnectivityCheck() error = %v", err)
	}
}
