// Package rehearsal implements the rehearsal run orchestrator: setup
// (stack expansion, filtering, ordering, time-limit configuration),
// execution (item cursor, difficulty re-grading), and termination
// (duration accounting, result persistence).
//
// The engine holds direct references to storage and the dispatcher. Its
// own lifecycle — start/next/previous/grade/edit/cancel/finish — is
// exposed as plain methods (which a same-process caller such as
// cmd/studyfrogctl calls directly) and, through RegisterHandlers, as
// dispatcher events for a UI that only holds the dispatcher; the multi-step storage
// reads a single setup or grade needs are plain internal calls, not
// cross-component traffic the dispatcher needs to broker.
package rehearsal

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/studyfrog/core/internal/dispatch"
	"github.com/studyfrog/core/internal/key"
	"github.com/studyfrog/core/internal/model"
	"github.com/studyfrog/core/internal/storage"
)

// Sentinel errors for the engine's slice of the error taxonomy.
var (
	ErrNoActiveRun      = errors.New("rehearsal: no active run")
	ErrRunAlreadyActive = errors.New("rehearsal: a run is already active")
	ErrValidation       = errors.New("rehearsal: validation failed")
)

// RecoveryWriter is the §4.5.5 side channel for completed-but-unpersisted
// runs. internal/recovery implements it; the engine only needs the one
// method, so it takes an interface instead of importing that package
// directly.
type RecoveryWriter interface {
	WriteUnpersisted(run model.Record) error
}

// itemState is the in-memory REHEARSAL_RUN_ITEM accumulator for one item
// of the active run, from first load until its end is stamped.
type itemState struct {
	key     string
	start   time.Time
	end     time.Time
	actions []string
}

// activeRun is the engine's process-wide singleton run state.
type activeRun struct {
	runID  int
	items  []string
	index  int
	states map[string]*itemState
	order  []string // first-load order, for batched termination persistence
}

// Engine coordinates the one active rehearsal run. It is not safe to
// share a *Engine across goroutines without the caller serializing calls
// through the dispatcher — see the single-threaded cooperative model.
type Engine struct {
	mu         sync.Mutex
	store      *storage.Store
	dispatcher *dispatch.Dispatcher
	recovery   RecoveryWriter
	active     *activeRun
}

// New returns an idle engine bound to store and d.
func New(store *storage.Store, d *dispatch.Dispatcher) *Engine {
	return &Engine{store: store, dispatcher: d}
}

// SetRecoveryWriter installs the §4.5.5 side channel. Optional: with none
// installed, an unpersistable termination is only logged.
func (e *Engine) SetRecoveryWriter(w RecoveryWriter) {
	e.recovery = w
}

// RegisterHandlers subscribes every cursor-driving event to this engine,
// under the GLOBAL namespace, at default priority.
func (e *Engine) RegisterHandlers() {
	d := e.dispatcher

	d.Subscribe(EventStart, func(payload map[string]any) (any, error) {
		form, _ := payload["form"].(SetupForm)
		return e.Start(form)
	}, dispatch.Global, true, 0)

	d.Subscribe(EventNext, func(map[string]any) (any, error) {
		return nil, e.Next()
	}, dispatch.Global, true, 0)

	d.Subscribe(EventPrevious, func(map[string]any) (any, error) {
		return nil, e.Previous()
	}, dispatch.Global, true, 0)

	d.Subscribe(EventGradeEasy, func(map[string]any) (any, error) {
		return nil, e.Grade("easy")
	}, dispatch.Global, true, 0)

	d.Subscribe(EventGradeMedium, func(map[string]any) (any, error) {
		return nil, e.Grade("medium")
	}, dispatch.Global, true, 0)

	d.Subscribe(EventGradeHard, func(map[string]any) (any, error) {
		return nil, e.Grade("hard")
	}, dispatch.Global, true, 0)

	d.Subscribe(EventEdit, func(map[string]any) (any, error) {
		return nil, e.Edit()
	}, dispatch.Global, true, 0)

	d.Subscribe(EventCancel, func(map[string]any) (any, error) {
		return nil, e.Cancel()
	}, dispatch.Global, true, 0)

	d.Subscribe(EventFinish, func(map[string]any) (any, error) {
		return nil, e.Finish()
	}, dispatch.Global, true, 0)
}

// Start runs the setup phase (§4.5.1) and, unless the run has no items at
// all, loads the first one. A run already in progress is rejected rather
// than silently overwritten — the source's own overwrite-on-restart
// behavior is treated as a bug (see design notes open questions).
func (e *Engine) Start(form SetupForm) (model.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return model.Record{}, ErrRunAlreadyActive
	}

	if err := form.Validate(); err != nil {
		e.dispatcher.Dispatch(EventValidationError, dispatch.Global, map[string]any{"error": err.Error()})
		return model.Record{}, err
	}

	f := model.NewFactory()
	runRec := f.Make(model.TagRehearsalRun, map[string]any{
		"stacks":        form.Stacks,
		"configuration": form.asMap(),
		"start":         key.Now(),
	})

	added, err := e.store.Table(model.TagRehearsalRun).Add(runRec)
	if err != nil {
		return model.Record{}, fmt.Errorf("rehearsal: persisting run at setup: %w", err)
	}

	items := e.expandItems(form.Stacks)
	items = e.filterByField(items, "difficulty", form.Difficulty)
	items = e.filterByField(items, "priority", form.Priority)
	if form.ItemOrderRandomizationEnabled {
		key.Shuffle(items)
	}

	added.Set("items", items)
	updated, err := e.store.Table(model.TagRehearsalRun).Update(added)
	if err != nil {
		return model.Record{}, fmt.Errorf("rehearsal: persisting expanded items: %w", err)
	}

	e.active = &activeRun{
		runID:  updated.Metadata.ID,
		items:  items,
		index:  0,
		states: make(map[string]*itemState),
	}

	if len(items) == 0 {
		e.terminateLocked()
		return updated, nil
	}

	e.loadCurrentLocked()
	return updated, nil
}

// expandItems reads each selected stack's direct `items` (never nested
// `children`, per §9) and concatenates them in selection order.
func (e *Engine) expandItems(stackKeys []string) []string {
	var out []string
	for _, sk := range stackKeys {
		rec, ok := e.store.Resolve(sk)
		if !ok {
			log.Printf("[REHEARSAL] setup: stack %s not found, skipping", sk)
			continue
		}
		out = append(out, rec.GetStringList("items")...)
	}
	return out
}

// filterByField drops any item key whose referenced record's field
// doesn't equal want, or that fails to resolve at all. An empty want
// means "no filter on this dimension".
func (e *Engine) filterByField(items []string, field, want string) []string {
	if want == "" {
		return items
	}
	out := make([]string, 0, len(items))
	for _, k := range items {
		rec, ok := e.store.Resolve(k)
		if !ok {
			log.Printf("[REHEARSAL] setup: item %s not found, dropping", k)
			continue
		}
		if rec.GetString(field) != want {
			continue
		}
		out = append(out, k)
	}
	return out
}

// loadCurrentLocked resolves the item at the current cursor (fully, with
// its answers if it's a question), opens its per-item record if this is
// its first visit, and emits a load-item event. Caller holds e.mu.
func (e *Engine) loadCurrentLocked() {
	run := e.active
	itemKey := run.items[run.index]

	if _, seen := run.states[itemKey]; !seen {
		run.states[itemKey] = &itemState{key: itemKey, start: key.Now()}
		run.order = append(run.order, itemKey)
	}

	resolved, ok := e.store.Resolve(itemKey)
	if !ok {
		log.Printf("[REHEARSAL] load: item %s not found", itemKey)
	} else if resolved.Tag() == model.TagQuestion {
		answers := e.store.Table(model.TagAnswer).Filter(map[string]any{
			"is_assigned_to_question": resolved.Metadata.Key,
		})
		resolved.Set("answers", answers)
	}

	e.dispatcher.Dispatch(EventLoadItem, dispatch.Global, map[string]any{
		"item":  resolved,
		"index": run.index,
	})
}

// stampEndLocked closes out the in-memory record for the item currently
// under the cursor, if one exists. Caller holds e.mu.
func (e *Engine) stampEndLocked() {
	run := e.active
	if run == nil || len(run.items) == 0 {
		return
	}
	itemKey := run.items[run.index]
	if st, ok := run.states[itemKey]; ok {
		st.end = key.Now()
	}
}

// terminateLocked finalizes the active run (§4.5.3) and clears it. Caller
// holds e.mu.
func (e *Engine) terminateLocked() {
	run := e.active
	if run == nil {
		return
	}
	e.stampEndLocked()

	table := e.store.Table(model.TagRehearsalRun)
	rec, ok := table.Get(run.runID)
	if !ok {
		log.Printf("[REHEARSAL] termination: run %d vanished from storage", run.runID)
		e.active = nil
		return
	}

	endTime := key.Now()
	startTime, _ := rec.Get("start")
	start, _ := startTime.(time.Time)
	seconds := int(endTime.Sub(start).Seconds())

	rec.Set("end", endTime)
	rec.Set("duration", map[string]any{"minutes": seconds / 60, "seconds": seconds})

	var updated model.Record
	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		updated, err = table.Update(rec)
		if err == nil {
			break
		}
		log.Printf("[REHEARSAL] termination: persist attempt %d for run %d failed: %v", attempt, run.runID, err)
	}

	if err != nil {
		if e.recovery != nil {
			if rerr := e.recovery.WriteUnpersisted(rec); rerr != nil {
				log.Printf("[REHEARSAL] termination: recovery side-channel also failed for run %d: %v", run.runID, rerr)
			}
		}
		log.Printf("[REHEARSAL] run %d completed but unpersisted", run.runID)
		updated = rec
	}

	e.persistItemRecordsLocked(run)
	e.dispatcher.Dispatch(EventGetResultView, dispatch.Global, map[string]any{"run": updated})
	e.active = nil
}

// persistItemRecordsLocked batch-writes every touched item's
// REHEARSAL_RUN_ITEM record at termination (§4.5.4). Caller holds e.mu.
func (e *Engine) persistItemRecordsLocked(run *activeRun) {
	f := model.NewFactory()
	table := e.store.Table(model.TagRehearsalRunItem)

	for _, itemKey := range run.order {
		st := run.states[itemKey]
		if st == nil {
			continue
		}
		end := st.end
		if end.IsZero() {
			end = key.Now()
		}
		seconds := int(end.Sub(st.start).Seconds())

		rec := f.Make(model.TagRehearsalRunItem, map[string]any{
			"item":     itemKey,
			"actions":  st.actions,
			"start":    st.start,
			"end":      end,
			"duration": map[string]any{"minutes": seconds / 60, "seconds": seconds},
			"run":      key.Make(string(model.TagRehearsalRun), run.runID),
		})
		if _, err := table.Add(rec); err != nil {
			log.Printf("[REHEARSAL] termination: failed to persist item record for %s: %v", itemKey, err)
		}
	}
}
