package storage

import (
	"testing"

	"github.com/studyfrog/core/internal/dispatch"
	"github.com/studyfrog/core/internal/model"
)

func TestDispatchedCreateStackThenFlashcard(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	d := dispatch.New()
	RegisterHandlers(d, store)
	f := model.NewFactory()

	stackResp := d.Dispatch(EventAdd(model.TagStack), dispatch.Global, map[string]any{
		"record": f.Make(model.TagStack, map[string]any{"name": "Biology"}),
	})
	stackRec := soleResult(t, stackResp).(model.Record)

	cardResp := d.Dispatch(EventAdd(model.TagFlashcard), dispatch.Global, map[string]any{
		"record": f.Make(model.TagFlashcard, map[string]any{
			"front": "Mitochondrion?",
			"back":  "Powerhouse",
		}),
	})
	cardRec := soleResult(t, cardResp).(model.Record)

	stackRec.Set("items", []string{cardRec.Metadata.Key})
	d.Dispatch(EventUpdate(model.TagStack), dispatch.Global, map[string]any{"record": stackRec})

	getResp := d.Dispatch(EventGet(model.TagStack), dispatch.Global, map[string]any{"id": stackRec.Metadata.ID})
	got := soleResult(t, getResp).(model.Record)

	items := got.GetStringList("items")
	if len(items) != 1 || items[0] != cardRec.Metadata.Key {
		t.Errorf("expected stack items to contain %s, got %v", cardRec.Metadata.Key, items)
	}
}

func soleResult(t *testing.T, resp dispatch.Response) any {
	t.Helper()
	for _, recs := range resp {
		if len(recs) != 1 {
			t.Fatalf("expected exactly one firing, got %d", len(recs))
		}
		if recs[0].Error != nil {
			t.Fatalf("handler returned error: %v", recs[0].Error)
		}
		return recs[0].Result
	}
	t.Fatal("expected exactly one handler bucket, got none")
	return nil
}
