package model

import (
	"fmt"

	"github.com/studyfrog/core/internal/key"
)

// Factory assembles canonical records. It never touches storage or the
// dispatcher — callers decide whether and how to persist what it returns.
type Factory struct{}

// NewFactory returns a ready-to-use Model Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Make builds a fresh record for tag from caller-supplied fields.
//
// Per the factory contract it:
//  1. discards any caller-supplied id/metadata/key,
//  2. normalizes the tag's required list fields to an empty list when
//     absent,
//  3. stamps fresh metadata (timestamps, uuid, type, fields manifest),
//  4. returns the composite record for the caller to persist or not.
//
// An unknown tag is a programmer error and panics; when Make runs inside a
// dispatched handler, the dispatcher recovers the panic into that
// handler's error record (see internal/dispatch).
func (f *Factory) Make(tag Tag, fields map[string]any) Record {
	if !IsKnown(tag) {
		panic(fmt.Sprintf("model: unknown entity tag %q", tag))
	}

	data := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == "id" || k == "metadata" || k == "key" {
			continue
		}
		data[k] = v
	}

	for _, lf := range ListFieldsFor(tag) {
		if _, ok := data[lf]; !ok {
			data[lf] = []string{}
		}
	}

	now := key.Now()
	today := key.Today()

	return Record{
		Metadata: Metadata{
			CreatedAt: now,
			UpdatedAt: now,
			CreatedOn: today,
			UpdatedOn: today,
			Type:      string(tag),
			UUID:      key.UUID4(),
			Fields:    manifest(data),
		},
		Data: data,
	}
}
