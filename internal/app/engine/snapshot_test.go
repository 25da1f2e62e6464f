package engine_test

import (
	"testing"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

func TestSnapshotIsDeepCopy(t *testing.T) {
	eng, _ := newTestEngine(t, 3)

	snap := eng.Snapshot()
	if len(snap.Documents) != 3 {
		t.Fatalf("snapshot documents = %d", len(snap.Documents))
	}
	if snap.Mode != models.Connected {
		t.Errorf("snapshot mode = %v", snap.Mode)
	}

	// Mutating the snapshot must not leak into the cache.
	snap.Documents["doc-001"]["name"] = "Tampered"
	if doc, _ := eng.Get("doc-001"); doc["name"] == "Tampered" {
		t.Error("snapshot shares memory with the cache")
	}
}

func TestSnapshotCarriesDirtyAndVisible(t *testing.T) {
	eng, _ := newTestEngine(t, 3)

	eng.Edit("doc-002", "name", "pending")
	eng.Refilter()

	snap := eng.Snapshot()
	if len(snap.Dirty) != 1 || snap.Dirty[0] != "doc-002" {
		t.Errorf("snapshot dirty = %v", snap.Dirty)
	}
	if len(snap.Visible) != 3 {
		t.Errorf("snapshot visible = %v", snap.Visible)
	}

	// Pending edits are local until saved; the snapshot shows store
	// state.
	if snap.Documents["doc-002"]["name"] == "pending" {
		t.Error("snapshot must not contain unsaved edits")
	}
}

func TestSetColumnsDropsPendingForReadonlyFields(t *testing.T) {
	eng, _ := newTestEngine(t, 2)

	if err := eng.Edit("doc-001", "name", "Kept"); err != nil {
		t.Fatal(err)
	}
	if err := eng.Edit("doc-001", "email", "dropped@example.org"); err != nil {
		t.Fatal(err)
	}

	name := "name"
	email := "email"
	if err := eng.SetColumns(models.Columns{
		{Display: "ID", Field: nil, Editable: false},
		{Display: "Name", Field: &name, Editable: true},
		{Display: "Email", Field: &email, Editable: false},
	}); err != nil {
		t.Fatalf("SetColumns() error = %v", err)
	}

	pending := eng.Pending("doc-001")
	if _, ok := pending["email"]; ok {
		t.Error("edit for a now-readonly field survived the schema change")
	}
	if pending["name"] != "Kept" {
		t.Error("edit for a still-editable field lost")
	}

	if err := eng.Edit("doc-001", "email", "x@y.z"); err == nil {
		t.Error("editing a readonly field accepted after schema change")
	}
}

func TestSetColumnsRejectsInvalidSchema(t *testing.T) {
	eng, _ := newTestEngine(t, 1)
	if err := eng.SetColumns(models.Columns{}); err == nil {
		t.Error("SetColumns(empty) = nil error")
	}
}
