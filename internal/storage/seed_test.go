package storage

import (
	"testing"

	"github.com/studyfrog/core/internal/model"
)

func TestBootstrapSeedsDifficulties(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Bootstrap(SeedOverrides{}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	easy := store.Table(model.TagDifficulty).Filter(map[string]any{"name": "easy"})
	if len(easy) != 1 {
		t.Fatalf("expected exactly one easy difficulty, got %d", len(easy))
	}
	if easy[0].GetString("display_name") != "Easy" {
		t.Errorf("expected display_name Easy, got %s", easy[0].GetString("display_name"))
	}
	if v, _ := easy[0].Get("value"); v != 0.33 {
		t.Errorf("expected value 0.33, got %v", v)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Bootstrap(SeedOverrides{}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := store.Bootstrap(SeedOverrides{}); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}

	if n := store.Table(model.TagDifficulty).Len(); n != 3 {
		t.Errorf("expected 3 difficulties after double bootstrap, got %d", n)
	}
	if n := store.Table(model.TagPriority).Len(); n != 5 {
		t.Errorf("expected 5 priorities after double bootstrap, got %d", n)
	}
	if n := store.Table(model.TagUser).Len(); n != 1 {
		t.Errorf("expected 1 default user after double bootstrap, got %d", n)
	}
}

func TestBootstrapStampsConfiguredDefaults(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Bootstrap(SeedOverrides{DefaultDifficulty: "hard", DefaultPriority: "highest"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	hard := store.Table(model.TagDifficulty).Filter(map[string]any{"name": "hard"})[0]
	if v, _ := hard.Get("is_default"); v != true {
		t.Errorf("expected hard difficulty to be marked default, got %v", v)
	}
	easy := store.Table(model.TagDifficulty).Filter(map[string]any{"name": "easy"})[0]
	if v, _ := easy.Get("is_default"); v != false {
		t.Errorf("expected easy difficulty not to be marked default, got %v", v)
	}

	highest := store.Table(model.TagPriority).Filter(map[string]any{"name": "highest"})[0]
	if v, _ := highest.Get("is_default"); v != true {
		t.Errorf("expected highest priority to be marked default, got %v", v)
	}
}

func TestBootstrapFallsBackToMediumForUnknownOverride(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Bootstrap(SeedOverrides{DefaultDifficulty: "nonexistent"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	medium := store.Table(model.TagDifficulty).Filter(map[string]any{"name": "medium"})[0]
	if v, _ := medium.Get("is_default"); v != true {
		t.Errorf("expected medium difficulty to remain default when override is unknown, got %v", v)
	}
}
