// Package storage implements the per-type entity tables: in-memory state
// backed by one structured-text file per table, durable before every
// mutating call returns, and a predicate-filter query surface.
package storage

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/studyfrog/core/internal/key"
	"github.com/studyfrog/core/internal/model"
	"gopkg.in/yaml.v3"
)

// Sentinel errors for the storage-layer slice of the core's error taxonomy.
var (
	ErrNotFound  = errors.New("storage: entity not found")
	ErrStorageIO = errors.New("storage: backing file fault")
)

// fileOf a table on disk for the given data directory.
func fileOf(dataDir string, tag model.Tag) string {
	plural := key.Pluralize(strings.ToLower(string(tag)))
	return filepath.Join(dataDir, plural+".yaml")
}

// tableFile is the on-disk shape of a single table.
type tableFile struct {
	NextID  int            `yaml:"next_id"`
	Entries []model.Record `yaml:"entries"`
}

// Table is a single entity type's table: a map from id to record plus a
// monotonically increasing next_id counter, persisted as one file.
type Table struct {
	mu     sync.RWMutex
	tag    model.Tag
	path   string
	byID   map[int]model.Record
	nextID int
}

// NewTable loads (or creates) the on-disk table for tag under dataDir.
func NewTable(dataDir string, tag model.Tag) (*Table, error) {
	t := &Table{
		tag:  tag,
		path: fileOf(dataDir, tag),
		byID: make(map[int]model.Record),
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", ErrStorageIO, t.path, err)
	}

	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrStorageIO, t.path, err)
	}

	for _, rec := range tf.Entries {
		if rec.Metadata.Type == "" || rec.Metadata.Key == "" {
			// Corrupt record: missing metadata or type. Filtered out at
			// load with a warning, per the storage contract.
			log.Printf("[STORAGE] %s: skipping record with missing metadata", t.path)
			continue
		}
		if string(rec.Metadata.Type) != string(t.tag) {
			log.Printf("[STORAGE] %s: skipping %s record of type %s", t.path, rec.Metadata.Key, rec.Metadata.Type)
			continue
		}
		t.byID[rec.Metadata.ID] = rec
	}
	t.nextID = tf.NextID
	return nil
}

// save writes the whole table back to disk. Callers hold t.mu already.
func (t *Table) save() error {
	ids := make([]int, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	entries := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, t.byID[id])
	}

	tf := tableFile{NextID: t.nextID, Entries: entries}
	data, err := yaml.Marshal(tf)
	if err != nil {
		return fmt.Errorf("%w: marshaling %s: %v", ErrStorageIO, t.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("%w: creating data dir: %v", ErrStorageIO, err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStorageIO, t.path, err)
	}
	return nil
}

// Add assigns a fresh id and key, stamps created/updated timestamps if
// absent, and persists synchronously before returning.
func (t *Table) Add(rec model.Record) (model.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++

	rec.Metadata.ID = id
	rec.Metadata.Key = key.Make(string(t.tag), id)
	if rec.Metadata.CreatedAt.IsZero() {
		rec.Metadata.CreatedAt = key.Now()
	}
	if rec.Metadata.UpdatedAt.IsZero() {
		rec.Metadata.UpdatedAt = rec.Metadata.CreatedAt
	}

	t.byID[id] = rec
	if err := t.save(); err != nil {
		delete(t.byID, id)
		t.nextID--
		return model.Record{}, err
	}
	return rec.Clone(), nil
}

// sameEntity reports whether two records' non-metadata top-level fields
// are all equal — the match rule for AddIfNotExist.
func sameEntity(a, b model.Record) bool {
	if len(a.Data) != len(b.Data) {
		return false
	}
	for k, v := range a.Data {
		ov, ok := b.Data[k]
		if !ok {
			return false
		}
		if !deepEqual(v, ov) {
			return false
		}
	}
	return true
}

func deepEqual(a, b any) bool {
	as, aIsSlice := a.([]string)
	bs, bIsSlice := b.([]string)
	if aIsSlice || bIsSlice {
		if !aIsSlice || !bIsSlice || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	return a == b
}

// AddIfNotExist inserts rec unless a record with identical non-metadata
// fields already exists in the table, in which case the existing record
// is returned untouched.
func (t *Table) AddIfNotExist(rec model.Record) (model.Record, bool, error) {
	t.mu.RLock()
	for _, existing := range t.byID {
		if sameEntity(existing, rec) {
			t.mu.RUnlock()
			return existing.Clone(), false, nil
		}
	}
	t.mu.RUnlock()

	added, err := t.Add(rec)
	return added, true, err
}

// Get returns a clone of the record for id, or ok=false if absent. Never
// errors. The clone keeps a caller's in-place edits from reaching the
// table's live map before a real Update.
func (t *Table) Get(id int) (model.Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.byID[id]
	if !ok {
		return model.Record{}, false
	}
	return rec.Clone(), true
}

// GetAll returns a clone of every record in the table, ordered by id
// ascending.
func (t *Table) GetAll() []model.Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]int, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id].Clone())
	}
	return out
}

// Filter returns every record matching every key/value pair in predicate,
// using shallow equality for scalars and "metadata.<sub>" keys for metadata
// sub-keys. Only metadata.type, metadata.uuid, metadata.key and metadata.id
// are matchable; any other metadata sub-key never matches. Case-sensitive
// string equality throughout.
func (t *Table) Filter(predicate map[string]any) []model.Record {
	all := t.GetAll()
	out := make([]model.Record, 0, len(all))
	for _, rec := range all {
		if matches(rec, predicate) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(rec model.Record, predicate map[string]any) bool {
	for field, want := range predicate {
		if strings.HasPrefix(field, "metadata.") {
			sub := strings.TrimPrefix(field, "metadata.")
			got := metadataField(rec.Metadata, sub)
			if !deepEqual(got, want) {
				return false
			}
			continue
		}
		got, ok := rec.Get(field)
		if !ok || !deepEqual(got, want) {
			return false
		}
	}
	return true
}

func metadataField(m model.Metadata, field string) any {
	switch field {
	case "type":
		return m.Type
	case "uuid":
		return m.UUID
	case "key":
		return m.Key
	case "id":
		return m.ID
	default:
		return nil
	}
}

// Update replaces the record matching rec.Metadata.Key, refreshing
// updated_at/updated_on. Fails if the key is absent from the table.
func (t *Table) Update(rec model.Record) (model.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := rec.Metadata.ID
	existing, ok := t.byID[id]
	if !ok || existing.Metadata.Key != rec.Metadata.Key {
		return model.Record{}, fmt.Errorf("%w: key %s", ErrNotFound, rec.Metadata.Key)
	}

	rec.Metadata.CreatedAt = existing.Metadata.CreatedAt
	rec.Metadata.CreatedOn = existing.Metadata.CreatedOn
	rec.Metadata.UpdatedAt = key.Now()
	rec.Metadata.UpdatedOn = key.Today()

	t.byID[id] = rec
	if err := t.save(); err != nil {
		t.byID[id] = existing
		return model.Record{}, err
	}
	return rec.Clone(), nil
}

// Delete removes id, returning 1 if it was present, 0 otherwise.
func (t *Table) Delete(id int) (int, error) {
	return t.DeleteMany([]int{id})
}

// DeleteMany removes every id present in the table, ignoring the rest,
// and returns the count actually removed.
func (t *Table) DeleteMany(ids []int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := make(map[int]model.Record)
	count := 0
	for _, id := range ids {
		if rec, ok := t.byID[id]; ok {
			removed[id] = rec
			delete(t.byID, id)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	if err := t.save(); err != nil {
		for id, rec := range removed {
			t.byID[id] = rec
		}
		return 0, err
	}
	return count, nil
}

// DeleteAll empties the table and resets next_id to zero.
func (t *Table) DeleteAll() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := len(t.byID)
	prev := t.byID
	prevNext := t.nextID

	t.byID = make(map[int]model.Record)
	t.nextID = 0

	if err := t.save(); err != nil {
		t.byID = prev
		t.nextID = prevNext
		return 0, err
	}
	return count, nil
}

// Len returns the number of rows currently in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
