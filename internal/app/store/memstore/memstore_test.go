package memstore

import (
	"context"
	"testing"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

func TestRosterUpdateStampsTime(t *testing.T) {
	ctx := context.Background()
	m := NewRoster(map[string]models.Document{
		"d1": {"name": "Before"},
	})

	if err := m.Update(ctx, "d1", map[string]any{"name": "After"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	doc, err := m.Get(ctx, "d1")
	if err != nil {
		t.Fatal(err)
	}
	if doc["name"] != "After" {
		t.Errorf("name = %v", doc["name"])
	}
	if ts, ok := doc.UpdatedAt(); !ok || ts.IsZero() {
		t.Error("update must stamp updatedAt")
	}
}

func TestRosterUpdateIgnoresCallerTimestamp(t *testing.T) {
	ctx := context.Background()
	m := NewRoster(map[string]models.Document{"d1": {}})

	if err := m.Update(ctx, "d1", map[string]any{models.FieldUpdatedAt: "forged"}); err != nil {
		t.Fatal(err)
	}
	doc, _ := m.Get(ctx, "d1")
	if doc[models.FieldUpdatedAt] == "forged" {
		t.Error("caller-supplied updatedAt accepted")
	}
}

func TestRosterUpdateUnknownID(t *testing.T) {
	m := NewRoster(nil)
	if err := m.Update(context.Background(), "nope", map[string]any{"a": 1}); err == nil {
		t.Error("Update(unknown) = nil error")
	}
}

func TestRosterListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewRoster(map[string]models.Document{"d1": {"name": "Original"}})

	listed, _ := m.List(ctx)
	listed["d1"]["name"] = "Mutated"

	doc, _ := m.Get(ctx, "d1")
	if doc["name"] != "Original" {
		t.Error("List() leaked interior state")
	}
}

func TestRosterDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewRoster(map[string]models.Document{"d1": {}})

	if err := m.Delete(ctx, "d1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, "d1"); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if docs, _ := m.List(ctx); len(docs) != 0 {
		t.Errorf("documents remaining = %d", len(docs))
	}
}

func TestAttendanceSetAndList(t *testing.T) {
	ctx := context.Background()
	m := NewAttendance(nil)

	if err := m.Set(ctx, "d1", models.Attendance{Day1: true, RecordedBy: "op"}); err != nil {
		t.Fatal(err)
	}
	recs, _ := m.List(ctx)
	rec, ok := recs["d1"]
	if !ok {
		t.Fatal("record not stored")
	}
	if !rec.Day1 || rec.RecordedBy != "op" {
		t.Errorf("record = %+v", rec)
	}
	if rec.UpdatedAt.IsZero() {
		t.Error("Set() must stamp UpdatedAt")
	}
}

func TestDemoData(t *testing.T) {
	docs := DemoRoster()
	if len(docs) != DemoSampleCount {
		t.Fatalf("DemoRoster() = %d documents, want %d", len(docs), DemoSampleCount)
	}
	for id, doc := range docs {
		if doc["name"] == "" || doc["email"] == "" {
			t.Errorf("demo document %s missing required fields: %+v", id, doc)
		}
	}

	att := DemoAttendance()
	if len(att) != DemoSampleCount {
		t.Fatalf("DemoAttendance() = %d records, want %d", len(att), DemoSampleCount)
	}
	for id := range att {
		if _, ok := docs[id]; !ok {
			t.Errorf("attendance %s has no matching roster document", id)
		}
	}
}
