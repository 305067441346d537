package rehearsal

import (
	"log"

	"github.com/studyfrog/core/internal/dispatch"
	"github.com/studyfrog/core/internal/model"
)

// Next advances the cursor (§4.5.2). At the last item it emits
// index-max-reached and leaves the cursor unchanged — reaching the end
// does not by itself terminate the run; only an explicit Cancel or
// Finish does.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := e.active
	if run == nil {
		return ErrNoActiveRun
	}
	if run.index >= len(run.items)-1 {
		e.dispatcher.Dispatch(EventIndexMaxReached, dispatch.Global, map[string]any{"index": run.index})
		return nil
	}

	e.stampEndLocked()
	run.index++
	e.dispatcher.Dispatch(EventIndexIncremented, dispatch.Global, map[string]any{"index": run.index})
	e.loadCurrentLocked()
	return nil
}

// Previous retreats the cursor. At index 0 it emits index-min-reached and
// leaves the cursor unchanged.
func (e *Engine) Previous() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := e.active
	if run == nil {
		return ErrNoActiveRun
	}
	if run.index == 0 {
		e.dispatcher.Dispatch(EventIndexMinReached, dispatch.Global, map[string]any{"index": run.index})
		return nil
	}

	e.stampEndLocked()
	run.index--
	e.dispatcher.Dispatch(EventIndexDecremented, dispatch.Global, map[string]any{"index": run.index})
	e.loadCurrentLocked()
	return nil
}

// Grade resolves level (easy|medium|hard) against the DIFFICULTY table and
// rewrites the current item's difficulty reference. Re-grading the same
// item before advancing is allowed; the last grade wins. An unknown level
// name is ignored with a warning, per the cursor edge policy.
func (e *Engine) Grade(level string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := e.active
	if run == nil {
		return ErrNoActiveRun
	}

	matches := e.store.Table(model.TagDifficulty).Filter(map[string]any{"name": level})
	if len(matches) == 0 {
		log.Printf("[REHEARSAL] grade: unknown difficulty name %q, ignoring", level)
		return nil
	}
	difficultyKey := matches[0].Metadata.Key

	itemKey := run.items[run.index]
	rec, ok := e.store.Resolve(itemKey)
	if !ok {
		log.Printf("[REHEARSAL] grade: item %s not found, ignoring", itemKey)
		return nil
	}

	rec.Set("difficulty", difficultyKey)
	if _, err := e.store.Table(rec.Tag()).Update(rec); err != nil {
		// Storage fault during grading: logged, not surfaced. The
		// in-memory action is still recorded so the summary reflects
		// user intent even though the table update was lost.
		log.Printf("[REHEARSAL] grade: storage fault updating %s: %v", itemKey, err)
	}

	if st := run.states[itemKey]; st != nil {
		st.actions = append(st.actions, "grade-"+level)
	}

	e.dispatcher.Dispatch(gradeEventNames[level], dispatch.Global, map[string]any{
		"item":       itemKey,
		"difficulty": difficultyKey,
	})
	return nil
}

// Edit emits the edit-item notification for the UI to open an editor on
// the current item; the cursor does not move.
func (e *Engine) Edit() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	run := e.active
	if run == nil {
		return ErrNoActiveRun
	}
	e.dispatcher.Dispatch(EventClickedEditButton, dispatch.Global, map[string]any{
		"item": run.items[run.index],
	})
	return nil
}

// Cancel proceeds straight to termination: no further items are visited
// or graded, but every item already touched this run still gets its
// batched REHEARSAL_RUN_ITEM record written, the same as Finish (see
// design notes).
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return ErrNoActiveRun
	}
	e.terminateLocked()
	return nil
}

// Finish explicitly ends the run from any cursor position.
func (e *Engine) Finish() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return ErrNoActiveRun
	}
	e.terminateLocked()
	return nil
}
