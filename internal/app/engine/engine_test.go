package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/engine"
	"github.com/eliomatters/matterhub/internal/app/store/memstore"
	"github.com/eliomatters/matterhub/internal/domain/models"
	"github.com/eliomatters/matterhub/internal/testutil"
)

// countingRoster wraps a DocumentStore and counts remote calls, with
// optional scripted failures.
type countingRoster struct {
	inner engine.DocumentStore

	lists   atomic.Int32
	updates atomic.Int32
	deletes atomic.Int32

	failList   bool
	failUpdate map[string]bool
	failDelete map[string]bool
}

func (c *countingRoster) List(ctx context.Context) (map[string]models.Document, error) {
	c.lists.Add(1)
	if c.failList {
		return nil, errors.New("store unreachable")
	}
	return c.inner.List(ctx)
}

func (c *countingRoster) Get(ctx context.Context, id string) (models.Document, error) {
	return c.inner.Get(ctx, id)
}

func (c *countingRoster) Update(ctx context.Context, id string, fields map[string]any) error {
	c.updates.Add(1)
	if c.failUpdate[id] {
		return errors.New("write rejected")
	}
	return c.inner.Update(ctx, id, fields)
}

func (c *countingRoster) Delete(ctx context.Context, id string) error {
	c.deletes.Add(1)
	if c.failDelete[id] {
		return errors.New("delete rejected")
	}
	return c.inner.Delete(ctx, id)
}

func (c *countingRoster) Probe(ctx context.Context) error {
	if c.failList {
		return errors.New("store unreachable")
	}
	return nil
}

func newTestEngine(t *testing.T, n int) (*engine.Engine, *countingRoster) {
	t.Helper()
	docs := testutil.SampleDocuments(n)
	roster := &countingRoster{
		inner:      memstore.NewRoster(docs),
		failUpdate: map[string]bool{},
		failDelete: map[string]bool{},
	}
	eng := engine.New(engine.Config{
		Log:        zap.NewNop(),
		Mode:       models.Connected,
		Roster:     roster,
		Attendance: memstore.NewAttendance(testutil.SampleAttendance(docs)),
		Debounce:   20 * time.Millisecond,
	})
	if _, err := eng.Load(context.Background(), true); err != nil {
		t.Fatalf("initial Load() error = %v", err)
	}
	return eng, roster
}

func TestLoad(t *testing.T) {
	eng, _ := newTestEngine(t, 5)

	if got := eng.Count(); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
	if got := eng.Mode(); got != models.Connected {
		t.Errorf("Mode() = %v, want connected", got)
	}
	if got := len(eng.VisibleIDs()); got != 5 {
		t.Errorf("VisibleIDs() length = %d, want all documents visible", got)
	}
}

func TestLoadRefusesWithDirtyEdits(t *testing.T) {
	eng, _ := newTestEngine(t, 3)
	ctx := context.Background()

	if err := eng.Edit("doc-001", "name", "Changed"); err != nil {
		t.Fatal(err)
	}
	_, err := eng.Load(ctx, false)
	if !errors.Is(err, engine.ErrDirtyEdits) {
		t.Fatalf("Load() error = %v, want ErrDirtyEdits", err)
	}
	if !eng.Dirty().IsDirty("doc-001") {
		t.Error("refused load must leave the dirty set intact")
	}
	if eng.Pending("doc-001") == nil {
		t.Error("refused load must leave pending edits intact")
	}

	if _, err := eng.Load(ctx, true); err != nil {
		t.Fatalf("forced Load() error = %v", err)
	}
	if eng.Dirty().Count() != 0 {
		t.Error("forced load must clear the dirty set")
	}
	if eng.Pending("doc-001") != nil {
		t.Error("forced load must drop pending edits")
	}
}

func TestLoadDegradesToDemo(t *testing.T) {
	eng, roster := newTestEngine(t, 4)
	roster.failList = true

	res, err := eng.Load(context.Background(), true)
	if err != nil {
		t.Fatalf("Load() error = %v, want silent degradation", err)
	}
	if res.Mode != models.Demo {
		t.Errorf("result mode = %v, want demo", res.Mode)
	}
	if res.Warning == "" {
		t.Error("degraded load must carry a warning")
	}
	if res.Documents != memstore.DemoSampleCount {
		t.Errorf("documents = %d, want %d generated samples", res.Documents, memstore.DemoSampleCount)
	}
	if eng.Mode() != models.Demo {
		t.Error("engine must flip to demo mode")
	}

	// Once degraded, pipelines must never touch the remote store again.
	before := roster.updates.Load()
	id := eng.IDs()[0]
	if err := eng.Edit(id, "name", "Demo Edit"); err != nil {
		t.Fatal(err)
	}
	if err := eng.Save(context.Background(), id); err != nil {
		t.Fatalf("demo Save() error = %v", err)
	}
	if got := roster.updates.Load(); got != before {
		t.Errorf("remote updates = %d after demo save, want %d", got, before)
	}
}

func TestLoadAttendanceFailureDegradesToDemo(t *testing.T) {
	docs := testutil.SampleDocuments(3)
	roster := &countingRoster{inner: memstore.NewRoster(docs)}
	att := &failingAttendance{
		Attendance: memstore.NewAttendance(testutil.SampleAttendance(docs)),
		failList:   true,
	}
	eng := engine.New(engine.Config{
		Log:        zap.NewNop(),
		Mode:       models.Connected,
		Roster:     roster,
		Attendance: att,
		Debounce:   20 * time.Millisecond,
	})

	res, err := eng.Load(context.Background(), true)
	if err != nil {
		t.Fatalf("Load() error = %v, want silent degradation", err)
	}
	if res.Mode != models.Demo {
		t.Errorf("result mode = %v, want demo", res.Mode)
	}
	if res.Warning == "" {
		t.Error("degraded load must carry a warning")
	}
	if res.Documents != memstore.DemoSampleCount {
		t.Errorf("documents = %d, want %d generated samples", res.Documents, memstore.DemoSampleCount)
	}
	if res.Attendance == 0 {
		t.Error("generated attendance must replace the unreachable collection")
	}
	if eng.Mode() != models.Demo {
		t.Error("engine must flip to demo mode")
	}

	// The whole working set is demo now, including the roster that
	// listed fine.
	before := roster.lists.Load()
	if _, err := eng.Load(context.Background(), true); err != nil {
		t.Fatalf("demo reload error = %v", err)
	}
	if got := roster.lists.Load(); got != before {
		t.Errorf("remote lists = %d after degradation, want %d", got, before)
	}
}

func TestEdit(t *testing.T) {
	eng, _ := newTestEngine(t, 2)

	if err := eng.Edit("missing", "name", "x"); !errors.Is(err, engine.ErrUnknownDocument) {
		t.Errorf("Edit(unknown) error = %v, want ErrUnknownDocument", err)
	}

	var verr *engine.ValidationError
	if err := eng.Edit("doc-001", "updatedAt", "x"); !errors.As(err, &verr) {
		t.Errorf("Edit(read-only field) error = %v, want ValidationError", err)
	}

	if err := eng.Edit("doc-001", "name", "New Name"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	if !eng.Dirty().IsDirty("doc-001") {
		t.Error("edit must mark the document dirty")
	}
	if doc, _ := eng.Get("doc-001"); doc["name"] == "New Name" {
		t.Error("edit must not mutate the cache before save")
	}
	if got := eng.Pending("doc-001")["name"]; got != "New Name" {
		t.Errorf("Pending() name = %v", got)
	}
}

func TestRevert(t *testing.T) {
	eng, _ := newTestEngine(t, 2)

	if err := eng.Edit("doc-001", "name", "Scratch"); err != nil {
		t.Fatal(err)
	}
	eng.Revert("doc-001")
	if eng.Dirty().IsDirty("doc-001") {
		t.Error("revert must clear the dirty flag")
	}
	if eng.Pending("doc-001") != nil {
		t.Error("revert must drop pending edits")
	}
}

func TestSaveCommitsAndClears(t *testing.T) {
	eng, roster := newTestEngine(t, 2)
	ctx := context.Background()

	if err := eng.Edit("doc-001", "name", "Saved Name"); err != nil {
		t.Fatal(err)
	}
	if err := eng.Save(ctx, "doc-001"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if eng.Dirty().IsDirty("doc-001") {
		t.Error("successful save must clear the dirty flag")
	}
	doc, _ := eng.Get("doc-001")
	if doc["name"] != "Saved Name" {
		t.Errorf("cache name = %v after save", doc["name"])
	}
	if _, ok := doc[models.FieldUpdatedAt]; !ok {
		t.Error("saved document must carry the store-assigned update time")
	}
	if got := roster.updates.Load(); got != 1 {
		t.Errorf("remote updates = %d, want 1", got)
	}
}

func TestSaveValidationFailureLeavesStateUntouched(t *testing.T) {
	eng, roster := newTestEngine(t, 2)
	ctx := context.Background()

	if err := eng.Edit("doc-001", "email", "not-an-email"); err != nil {
		t.Fatal(err)
	}
	err := eng.Save(ctx, "doc-001")
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Save() error = %v, want ValidationError", err)
	}
	if verr.Field != "email" {
		t.Errorf("ValidationError field = %q", verr.Field)
	}
	if !eng.Dirty().IsDirty("doc-001") {
		t.Error("failed validation must leave the document dirty")
	}
	if doc, _ := eng.Get("doc-001"); doc["email"] == "not-an-email" {
		t.Error("failed validation must not touch the cache")
	}
	if got := roster.updates.Load(); got != 0 {
		t.Errorf("remote updates = %d, validation failures must not write", got)
	}
}

func TestSaveEmptyEmailIsAllowed(t *testing.T) {
	eng, _ := newTestEngine(t, 1)
	ctx := context.Background()

	if err := eng.Edit("doc-001", "email", ""); err != nil {
		t.Fatal(err)
	}
	if err := eng.Save(ctx, "doc-001"); err != nil {
		t.Errorf("Save() with cleared email = %v, want success", err)
	}
}

func TestSaveNoopClearsDirtyWithoutWriting(t *testing.T) {
	eng, roster := newTestEngine(t, 2)
	ctx := context.Background()

	doc, _ := eng.Get("doc-001")
	if err := eng.Edit("doc-001", "name", doc["name"]); err != nil {
		t.Fatal(err)
	}
	if err := eng.Save(ctx, "doc-001"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if eng.Dirty().IsDirty("doc-001") {
		t.Error("no-op save must still clear the dirty flag")
	}
	if got := roster.updates.Load(); got != 0 {
		t.Errorf("remote updates = %d, unchanged values must not write", got)
	}
}

func TestSaveAllPartialFailure(t *testing.T) {
	eng, roster := newTestEngine(t, 5)
	ctx := context.Background()
	roster.failUpdate["doc-002"] = true
	roster.failUpdate["doc-004"] = true

	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("doc-%03d", i)
		if err := eng.Edit(id, "name", "Bulk "+id); err != nil {
			t.Fatal(err)
		}
	}

	s, err := eng.SaveAll(ctx)
	if err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	if s.Saved != 3 || s.Failed != 2 {
		t.Errorf("summary = %d saved / %d failed, want 3/2", s.Saved, s.Failed)
	}
	if len(s.Errors) != 2 {
		t.Errorf("errors = %d, want one per failure", len(s.Errors))
	}
	if !eng.Dirty().IsDirty("doc-002") || !eng.Dirty().IsDirty("doc-004") {
		t.Error("failed documents must stay dirty")
	}
	if eng.Dirty().Count() != 2 {
		t.Errorf("dirty count = %d, want only the failures", eng.Dirty().Count())
	}
}

func TestSaveAllValidationFailureCountsAsFailed(t *testing.T) {
	eng, _ := newTestEngine(t, 3)
	ctx := context.Background()

	eng.Edit("doc-001", "name", "Fine")
	eng.Edit("doc-002", "email", "broken@@address")
	eng.Edit("doc-003", "name", "Also Fine")

	s, err := eng.SaveAll(ctx)
	if err != nil {
		t.Fatalf("SaveAll() error = %v", err)
	}
	if s.Saved != 2 || s.Failed != 1 {
		t.Errorf("summary = %d/%d, want 2 saved 1 failed", s.Saved, s.Failed)
	}
}

func TestDelete(t *testing.T) {
	eng, roster := newTestEngine(t, 4)
	ctx := context.Background()

	eng.Edit("doc-002", "name", "doomed edit")

	s, err := eng.Delete(ctx, []string{"doc-002", "doc-003"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Deleted != 2 || s.Failed != 0 {
		t.Errorf("summary = %d/%d, want 2/0", s.Deleted, s.Failed)
	}
	if !s.Reloaded {
		t.Error("a successful delete batch must refresh the cache")
	}
	if eng.Count() != 2 {
		t.Errorf("Count() = %d after delete, want 2", eng.Count())
	}
	if _, ok := eng.Get("doc-002"); ok {
		t.Error("deleted document still cached")
	}
	if eng.Dirty().Count() != 0 {
		t.Error("deleting a dirty document must drop its dirty flag")
	}
	if got := roster.deletes.Load(); got != 2 {
		t.Errorf("remote deletes = %d, want 2", got)
	}
}

func TestDeletePartialFailure(t *testing.T) {
	eng, roster := newTestEngine(t, 3)
	roster.failDelete["doc-002"] = true

	s, err := eng.Delete(context.Background(), []string{"doc-001", "doc-002"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Deleted != 1 || s.Failed != 1 {
		t.Errorf("summary = %d/%d, want 1/1", s.Deleted, s.Failed)
	}
	if _, ok := eng.Get("doc-002"); !ok {
		t.Error("failed delete must leave the document cached")
	}
	if len(s.Errors) != 1 {
		t.Errorf("errors = %d, want 1", len(s.Errors))
	}
}

func TestDeleteCancelledContext(t *testing.T) {
	eng, roster := newTestEngine(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := eng.Delete(ctx, []string{"doc-001", "doc-002"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Delete() error = %v, want context.Canceled", err)
	}
	if s.Deleted != 0 || s.Failed != 0 || s.Reloaded {
		t.Errorf("summary = %+v, want nothing processed", s)
	}
	if got := roster.deletes.Load(); got != 0 {
		t.Errorf("remote deletes = %d after cancellation, want 0", got)
	}
	if eng.Count() != 3 {
		t.Errorf("Count() = %d, cancelled batch must leave the cache alone", eng.Count())
	}
}

func TestDeleteNothingSkipsReload(t *testing.T) {
	eng, roster := newTestEngine(t, 2)
	roster.failDelete["doc-001"] = true
	listsBefore := roster.lists.Load()

	s, err := eng.Delete(context.Background(), []string{"doc-001"})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if s.Reloaded {
		t.Error("an all-failed batch must not reload")
	}
	if got := roster.lists.Load(); got != listsBefore {
		t.Errorf("lists = %d, want no refresh without deletions", got)
	}
}
