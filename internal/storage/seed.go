package storage

import (
	"fmt"

	"github.com/studyfrog/core/internal/model"
)

// seedDifficulty names the seed difficulties' exact constants, drawn from
// the source.
type seedDifficulty struct {
	name, display string
	value         float64
}

var seedDifficulties = []seedDifficulty{
	{"easy", "Easy", 0.33},
	{"medium", "Medium", 0.66},
	{"hard", "Hard", 1.0},
}

type seedPriority struct {
	name, display string
	value         float64
}

var seedPriorities = []seedPriority{
	{"lowest", "Lowest", 1.0},
	{"low", "Low", 2.0},
	{"medium", "Medium", 3.0},
	{"high", "High", 4.0},
	{"highest", "Highest", 5.0},
}

// SeedOverrides names which seeded difficulty/priority row Bootstrap marks
// as the `is_default` one, read from config.yaml per SPEC_FULL.md §10.3.
// An empty or unrecognized name falls back to "medium", matching the
// default config value.
type SeedOverrides struct {
	DefaultDifficulty string
	DefaultPriority   string
}

// Bootstrap inserts the seed difficulties, priorities, and a default user
// if the corresponding table lacks them, matched by name, and (re)stamps
// which one of each is flagged `is_default` per overrides. Safe to call
// on every startup.
func (s *Store) Bootstrap(overrides SeedOverrides) error {
	f := model.NewFactory()

	defaultDifficulty := overrides.DefaultDifficulty
	if !isSeedDifficultyName(defaultDifficulty) {
		defaultDifficulty = "medium"
	}
	defaultPriority := overrides.DefaultPriority
	if !isSeedPriorityName(defaultPriority) {
		defaultPriority = "medium"
	}

	diffTable := s.Table(model.TagDifficulty)
	for _, d := range seedDifficulties {
		if hasName(diffTable, d.name) {
			continue
		}
		rec := f.Make(model.TagDifficulty, map[string]any{
			"name":         d.name,
			"display_name": d.display,
			"value":        d.value,
		})
		if _, err := diffTable.Add(rec); err != nil {
			return fmt.Errorf("storage: seeding difficulty %s: %w", d.name, err)
		}
	}
	if err := stampDefault(diffTable, defaultDifficulty); err != nil {
		return fmt.Errorf("storage: marking default difficulty: %w", err)
	}

	prioTable := s.Table(model.TagPriority)
	for _, p := range seedPriorities {
		if hasName(prioTable, p.name) {
			continue
		}
		rec := f.Make(model.TagPriority, map[string]any{
			"name":         p.name,
			"display_name": p.display,
			"value":        p.value,
		})
		if _, err := prioTable.Add(rec); err != nil {
			return fmt.Errorf("storage: seeding priority %s: %w", p.name, err)
		}
	}
	if err := stampDefault(prioTable, defaultPriority); err != nil {
		return fmt.Errorf("storage: marking default priority: %w", err)
	}

	userTable := s.Table(model.TagUser)
	if userTable.Len() == 0 {
		rec := f.Make(model.TagUser, map[string]any{"name": "default"})
		if _, err := userTable.Add(rec); err != nil {
			return fmt.Errorf("storage: seeding default user: %w", err)
		}
	}

	return nil
}

func hasName(t *Table, name string) bool {
	matches := t.Filter(map[string]any{"name": name})
	return len(matches) > 0
}

func isSeedDifficultyName(name string) bool {
	for _, d := range seedDifficulties {
		if d.name == name {
			return true
		}
	}
	return false
}

func isSeedPriorityName(name string) bool {
	for _, p := range seedPriorities {
		if p.name == name {
			return true
		}
	}
	return false
}

// stampDefault sets `is_default` true on the row named want and false on
// every sibling row in t, falling back to leaving the table untouched if
// want doesn't match any seeded row.
func stampDefault(t *Table, want string) error {
	if !hasName(t, want) {
		return nil
	}
	for _, rec := range t.GetAll() {
		isDefault := rec.GetString("name") == want
		if current, _ := rec.Get("is_default"); current == isDefault {
			continue
		}
		rec.Set("is_default", isDefault)
		if _, err := t.Update(rec); err != nil {
			return err
		}
	}
	return nil
}
