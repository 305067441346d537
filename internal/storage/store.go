package storage

import (
	"fmt"

	"github.com/studyfrog/core/internal/key"
	"github.com/studyfrog/core/internal/model"
)

// Store owns one Table per entity tag and is the sole object that touches
// the backing files. External callers reach it through the dispatcher
// events RegisterHandlers wires up (see handlers.go); the rehearsal engine
// and cmd/studyfrogctl call Store and Table methods directly.
type Store struct {
	dataDir string
	tables  map[model.Tag]*Table
}

// Open loads (or creates) every table under dataDir.
func Open(dataDir string) (*Store, error) {
	s := &Store{dataDir: dataDir, tables: make(map[model.Tag]*Table)}
	for _, tag := range model.AllTags() {
		t, err := NewTable(dataDir, tag)
		if err != nil {
			return nil, fmt.Errorf("storage: opening table %s: %w", tag, err)
		}
		s.tables[tag] = t
	}
	return s, nil
}

// Table returns the table for tag. Every tag in model.AllTags() is always
// present; an unknown tag is a programmer error.
func (s *Store) Table(tag model.Tag) *Table {
	t, ok := s.tables[tag]
	if !ok {
		panic(fmt.Sprintf("storage: unknown entity tag %q", tag))
	}
	return t
}

// Resolve loads the record referenced by a canonical key, tolerating
// dangling references by reporting ok=false instead of erroring.
func (s *Store) Resolve(k string) (model.Record, bool) {
	tag, id, ok := key.Parse(k)
	if !ok {
		return model.Record{}, false
	}
	t, ok := s.tables[model.Tag(tag)]
	if !ok {
		return model.Record{}, false
	}
	return t.Get(id)
}
