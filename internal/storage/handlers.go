package storage

import (
	"github.com/studyfrog/core/internal/dispatch"
	"github.com/studyfrog/core/internal/model"
)

// RegisterHandlers wires every table's CRUD surface onto the dispatcher
// under the GLOBAL namespace, one handler per (verb, type) event. This is
// the dispatcher-routed front door external callers (a UI, a CLI) use to
// reach storage; the rehearsal engine talks to the store directly since
// its own calls are internal orchestration, not cross-component traffic.
func RegisterHandlers(d *dispatch.Dispatcher, s *Store) {
	for _, tag := range model.AllTags() {
		t := s.Table(tag)

		d.Subscribe(EventAdd(tag), func(payload map[string]any) (any, error) {
			rec, _ := payload["record"].(model.Record)
			return t.Add(rec)
		}, dispatch.Global, true, 0)

		d.Subscribe(EventAddIfNotExist(tag), func(payload map[string]any) (any, error) {
			rec, _ := payload["record"].(model.Record)
			added, _, err := t.AddIfNotExist(rec)
			return added, err
		}, dispatch.Global, true, 0)

		d.Subscribe(EventGet(tag), func(payload map[string]any) (any, error) {
			id, _ := payload["id"].(int)
			rec, ok := t.Get(id)
			if !ok {
				return nil, nil
			}
			return rec, nil
		}, dispatch.Global, true, 0)

		d.Subscribe(EventGetAll(tag), func(payload map[string]any) (any, error) {
			return t.GetAll(), nil
		}, dispatch.Global, true, 0)

		d.Subscribe(EventFilter(tag), func(payload map[string]any) (any, error) {
			predicate, _ := payload["predicate"].(map[string]any)
			return t.Filter(predicate), nil
		}, dispatch.Global, true, 0)

		d.Subscribe(EventUpdate(tag), func(payload map[string]any) (any, error) {
			rec, _ := payload["record"].(model.Record)
			return t.Update(rec)
		}, dispatch.Global, true, 0)

		d.Subscribe(EventDelete(tag), func(payload map[string]any) (any, error) {
			id, _ := payload["id"].(int)
			return t.Delete(id)
		}, dispatch.Global, true, 0)

		d.Subscribe(EventDeleteMany(tag), func(payload map[string]any) (any, error) {
			ids, _ := payload["ids"].([]int)
			return t.DeleteMany(ids)
		}, dispatch.Global, true, 0)

		d.Subscribe(EventDeleteAll(tag), func(payload map[string]any) (any, error) {
			return t.DeleteAll()
		}, dispatch.Global, true, 0)
	}
}
