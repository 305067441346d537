package storage

import (
	"path/filepath"
	"testing"

	"github.com/studyfrog/core/internal/model"
)

func newTestTable(t *testing.T, tag model.Tag) *Table {
	t.Helper()
	tbl, err := NewTable(t.TempDir(), tag)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return tbl
}

func TestAddAssignsIDAndKey(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()

	rec, err := tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"}))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.Metadata.ID != 0 {
		t.Errorf("expected first id to be 0, got %d", rec.Metadata.ID)
	}
	if rec.Metadata.Key != "FLASHCARD_0" {
		t.Errorf("expected key FLASHCARD_0, got %s", rec.Metadata.Key)
	}

	rec2, err := tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q2", "back": "A2"}))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec2.Metadata.ID != 1 {
		t.Errorf("expected second id to be 1, got %d", rec2.Metadata.ID)
	}
}

func TestAddThenGetRoundTrips(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()

	added, err := tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"}))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, ok := tbl.Get(added.Metadata.ID)
	if !ok {
		t.Fatal("expected Get to find the added record")
	}
	if got.GetString("front") != "Q" || got.GetString("back") != "A" {
		t.Errorf("round-tripped fields mismatch: %+v", got.Data)
	}
}

func TestUpdateRefreshesTimestamp(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()

	rec, err := tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"}))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rec.Set("back", "Updated")
	updated, err := tbl.Update(rec)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.GetString("back") != "Updated" {
		t.Errorf("expected updated back field, got %s", updated.GetString("back"))
	}
	if !updated.Metadata.UpdatedAt.After(updated.Metadata.CreatedAt) && !updated.Metadata.UpdatedAt.Equal(updated.Metadata.CreatedAt) {
		t.Error("expected updated_at >= created_at")
	}
}

func TestUpdateMissingKeyFails(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()
	rec := f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"})
	rec.Metadata.ID = 42
	rec.Metadata.Key = "FLASHCARD_42"

	if _, err := tbl.Update(rec); err == nil {
		t.Fatal("expected Update on missing key to fail")
	}
}

func TestAddIfNotExistIdempotent(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()

	rec := f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"})
	first, inserted1, err := tbl.AddIfNotExist(rec)
	if err != nil {
		t.Fatalf("AddIfNotExist() error = %v", err)
	}
	if !inserted1 {
		t.Fatal("expected first call to insert")
	}

	rec2 := f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"})
	second, inserted2, err := tbl.AddIfNotExist(rec2)
	if err != nil {
		t.Fatalf("AddIfNotExist() error = %v", err)
	}
	if inserted2 {
		t.Error("expected second call to reuse the existing row")
	}
	if second.Metadata.ID != first.Metadata.ID {
		t.Errorf("expected same id, got %d vs %d", first.Metadata.ID, second.Metadata.ID)
	}
	if tbl.Len() != 1 {
		t.Errorf("expected table length 1, got %d", tbl.Len())
	}
}

func TestDeleteMissingIsNoop(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	count, err := tbl.Delete(999)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 removed, got %d", count)
	}
}

func TestDeleteAllResetsNextID(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()
	tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"}))
	tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q2", "back": "A2"}))

	count, err := tbl.DeleteAll()
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 removed, got %d", count)
	}

	rec, err := tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q3", "back": "A3"}))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if rec.Metadata.ID != 0 {
		t.Errorf("expected next_id reset to 0, got %d", rec.Metadata.ID)
	}
}

func TestFilterScalarEquality(t *testing.T) {
	tbl := newTestTable(t, model.TagFlashcard)
	f := model.NewFactory()
	tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q1", "back": "A1", "difficulty": "DIFFICULTY_0"}))
	tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q2", "back": "A2", "difficulty": "DIFFICULTY_1"}))

	matches := tbl.Filter(map[string]any{"difficulty": "DIFFICULTY_0"})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].GetString("front") != "Q1" {
		t.Errorf("expected Q1, got %s", matches[0].GetString("front"))
	}
}

func TestReopenTableRoundTripsFromDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	f := model.NewFactory()

	tbl, err := NewTable(dir, model.TagFlashcard)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	if _, err := tbl.Add(f.Make(model.TagFlashcard, map[string]any{"front": "Q", "back": "A"})); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reopened, err := NewTable(dir, model.TagFlashcard)
	if err != nil {
		t.Fatalf("re-NewTable() error = %v", err)
	}
	if reopened.Len() != 1 {
		t.Fatalf("expected 1 row after reopen, got %d", reopened.Len())
	}
	rec, ok := reopened.Get(0)
	if !ok || rec.GetString("front") != "Q" {
		t.Errorf("expected round-tripped record, got %+v", rec)
	}
}
