package recovery

import (
	"testing"
	"time"

	"github.com/studyfrog/core/internal/model"
)

func TestWriteUnpersistedThenPending(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	run := model.Record{
		Metadata: model.Metadata{ID: 3, Key: "REHEARSAL_RUN_3", Type: "REHEARSAL_RUN", CreatedAt: time.Now()},
		Data:     map[string]any{"stacks": []string{"STACK_0"}},
	}

	if err := store.WriteUnpersisted(run); err != nil {
		t.Fatalf("WriteUnpersisted() error = %v", err)
	}

	pending, err := store.Pending()
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if len(pending) != 1 || pending[0] != "REHEARSAL_RUN_3" {
		t.Errorf("expected [REHEARSAL_RUN_3], got %v", pending)
	}
}
