package model

import (
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// FieldsManifest is the ordered list of top-level keys a record carried at
// creation time, per the data model's metadata.fields contract.
type FieldsManifest struct {
	Fields []string `yaml:"fields" json:"fields"`
	Total  int      `yaml:"total" json:"total"`
}

// Metadata is the uniform sub-record every persisted entity carries.
type Metadata struct {
	CreatedAt time.Time      `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time      `yaml:"updated_at" json:"updated_at"`
	CreatedOn time.Time      `yaml:"created_on" json:"created_on"`
	UpdatedOn time.Time      `yaml:"updated_on" json:"updated_on"`
	Type      string         `yaml:"type" json:"type"`
	UUID      string         `yaml:"uuid" json:"uuid"`
	Fields    FieldsManifest `yaml:"fields_manifest" json:"fields_manifest"`
	Key       string         `yaml:"key" json:"key"`
	ID        int            `yaml:"id" json:"id"`
}

// Record is a tagged-union entity: a uniform Metadata plus whatever
// per-tag fields that tag carries. Data never contains "metadata" — that
// key is reserved and always serialized separately, matching the source's
// flat on-disk shape.
type Record struct {
	Metadata Metadata
	Data     map[string]any
}

// Tag returns the entity's discriminator.
func (r Record) Tag() Tag {
	return Tag(r.Metadata.Type)
}

// Clone copies a record's Data map one level deep (Metadata is a value
// type already): top-level fields can be set on the copy independently,
// but slice and map values are shared with the original.
func (r Record) Clone() Record {
	data := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	return Record{Metadata: r.Metadata, Data: data}
}

// Get returns a top-level field, including synthetic access to "metadata".
func (r Record) Get(field string) (any, bool) {
	if field == "metadata" {
		return r.Metadata, true
	}
	v, ok := r.Data[field]
	return v, ok
}

// GetString returns a string field, or "" if absent/not a string.
func (r Record) GetString(field string) string {
	v, ok := r.Get(field)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetStringList returns a []string field, tolerating both []string and
// []any (the shape YAML round-trips produce) — absent fields yield nil.
func (r Record) GetStringList(field string) []string {
	v, ok := r.Get(field)
	if !ok || v == nil {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Set assigns a top-level data field. Setting "metadata" is a no-op; the
// caller must mutate r.Metadata directly.
func (r Record) Set(field string, value any) {
	if field == "metadata" {
		return
	}
	r.Data[field] = value
}

// MarshalYAML renders the record as a single flat mapping, metadata
// included as a nested key, matching the on-disk layout §6 fixes.
func (r Record) MarshalYAML() (any, error) {
	out := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		out[k] = v
	}
	out["metadata"] = r.Metadata
	return out, nil
}

// UnmarshalYAML reconstructs a record from its flat on-disk mapping.
func (r *Record) UnmarshalYAML(value *yaml.Node) error {
	raw := map[string]any{}
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("record: decode flat map: %w", err)
	}

	metaRaw, ok := raw["metadata"]
	if !ok {
		return fmt.Errorf("record: missing metadata")
	}
	delete(raw, "metadata")

	metaBytes, err := yaml.Marshal(metaRaw)
	if err != nil {
		return fmt.Errorf("record: remarshal metadata: %w", err)
	}
	var meta Metadata
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return fmt.Errorf("record: decode metadata: %w", err)
	}

	r.Metadata = meta
	r.Data = raw
	return nil
}

// manifest builds the ordered fields list for a freshly-created record:
// "metadata" first, then the data keys in sorted order (Go maps have no
// stable iteration order, and the source's exact insertion order is not
// observable from outside the Python process).
func manifest(data map[string]any) FieldsManifest {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := append([]string{"metadata"}, keys...)
	return FieldsManifest{Fields: fields, Total: len(fields)}
}
