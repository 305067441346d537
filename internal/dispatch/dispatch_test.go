package dispatch

import "testing"

func TestDispatchNoHandlers(t *testing.T) {
	d := New()
	resp := d.Dispatch("nothing-here", Global, nil)
	if len(resp) != 0 {
		t.Errorf("expected empty response, got %v", resp)
	}
	if resp.HasErrors() {
		t.Error("expected has_errors=false")
	}
}

func handlerA(payload map[string]any) (any, error) { return "a", nil }
func handlerB(payload map[string]any) (any, error) { return "b", nil }

func TestPriorityOrdering(t *testing.T) {
	d := New()
	var log []string

	high := func(payload map[string]any) (any, error) {
		log = append(log, "A")
		return nil, nil
	}
	low := func(payload map[string]any) (any, error) {
		log = append(log, "B")
		return nil, nil
	}

	d.Subscribe("tick", high, Global, true, 100)
	d.Subscribe("tick", low, Global, true, 50)

	d.Dispatch("tick", Global, nil)

	if len(log) != 2 || log[0] != "A" || log[1] != "B" {
		t.Errorf("expected [A B], got %v", log)
	}
}

func TestOneShotExpiresAfterFirstFiring(t *testing.T) {
	d := New()
	calls := 0
	h := func(payload map[string]any) (any, error) {
		calls++
		return nil, nil
	}

	d.Subscribe("once", h, Global, false, 0)
	d.Dispatch("once", Global, nil)
	d.Dispatch("once", Global, nil)

	if calls != 1 {
		t.Errorf("expected handler to fire exactly once, got %d", calls)
	}
}

func TestUnsubscribeIsIdempotentAndEmptiesDispatch(t *testing.T) {
	d := New()
	calls := 0
	h := func(payload map[string]any) (any, error) {
		calls++
		return nil, nil
	}

	id := d.Subscribe("event", h, Global, true, 0)
	d.Unsubscribe(id)
	d.Unsubscribe(id) // idempotent

	resp := d.Dispatch("event", Global, nil)
	if calls != 0 {
		t.Errorf("expected 0 calls after unsubscribe, got %d", calls)
	}
	if len(resp) != 0 {
		t.Errorf("expected empty response, got %v", resp)
	}
}

func TestNamespaceFallbackToGlobal(t *testing.T) {
	d := New()
	var fired []string

	namespaced := func(payload map[string]any) (any, error) {
		fired = append(fired, "ns")
		return nil, nil
	}
	global := func(payload map[string]any) (any, error) {
		fired = append(fired, "global")
		return nil, nil
	}

	d.Subscribe("evt", namespaced, "agent-1", true, 0)
	d.Subscribe("evt", global, Global, true, 0)

	d.Dispatch("evt", "agent-1", nil)

	if len(fired) != 2 || fired[0] != "ns" || fired[1] != "global" {
		t.Errorf("expected namespaced handler before global fallback, got %v", fired)
	}
}

func TestHandlerErrorDoesNotAbortSiblings(t *testing.T) {
	d := New()
	secondCalled := false

	failing := func(payload map[string]any) (any, error) {
		return nil, errBoom
	}
	ok := func(payload map[string]any) (any, error) {
		secondCalled = true
		return "fine", nil
	}

	d.Subscribe("evt", failing, Global, true, 100)
	d.Subscribe("evt", ok, Global, true, 50)

	resp := d.Dispatch("evt", Global, nil)
	if !secondCalled {
		t.Error("expected second handler to still run")
	}
	if !resp.HasErrors() {
		t.Error("expected has_errors=true")
	}
}

func TestHandlerPanicIsCaptured(t *testing.T) {
	d := New()
	panicking := func(payload map[string]any) (any, error) {
		panic("boom")
	}
	d.Subscribe("evt", panicking, Global, true, 0)

	resp := d.Dispatch("evt", Global, nil)
	if !resp.HasErrors() {
		t.Error("expected panicking handler to surface as an error")
	}
}

func TestMultipleHandlersSameFuncNameShareBucket(t *testing.T) {
	d := New()
	d.Subscribe("evt", handlerA, Global, true, 0)
	d.Subscribe("evt", handlerA, Global, true, 0)

	resp := d.Dispatch("evt", Global, nil)
	if len(resp) != 1 {
		t.Fatalf("expected a single bucket for the shared func name, got %d", len(resp))
	}
	for _, recs := range resp {
		if len(recs) != 2 {
			t.Errorf("expected 2 firings in the shared bucket, got %d", len(recs))
		}
	}
}

var errBoom = fmtErrorf("boom")

func fmtErrorf(msg string) error {
	return &simpleError{msg}
}

type simpleError struct{ msg string }

func (e *simpleError) Error() string { return e.msg }
