// Package dispatch implements the event dispatcher — the call path
// external callers (a UI, a CLI, the bridges) use to reach the core; the
// rehearsal engine calls storage directly. Dispatch is synchronous,
// priority-ordered, and fans a single event out to every matching handler,
// collecting every handler's result into a response bucketed by the
// handler's own stable function name.
package dispatch

import (
	"fmt"
	"log"
	"reflect"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Global is the reserved namespace that always participates as a fallback.
const Global = "GLOBAL"

// Handler is a dispatcher-bound function. It receives the dispatched
// payload and returns a result (or an error, which is captured into the
// response rather than propagated).
type Handler func(payload map[string]any) (any, error)

// Record is one handler firing's outcome.
type Record struct {
	Result any
	Error  error
}

// Response buckets every firing by the handler's stable function name.
type Response map[string][]Record

// HasErrors reports whether any bucket holds a firing with a non-nil
// error.
func (r Response) HasErrors() bool {
	for _, recs := range r {
		for _, rec := range recs {
			if rec.Error != nil {
				return true
			}
		}
	}
	return false
}

type binding struct {
	id         string
	event      string
	namespace  string
	handler    Handler
	funcName   string
	priority   int
	persistent bool
	seq        int // insertion order, for stable priority ties
}

// registryKey identifies a (event, namespace) bucket in the registry.
type registryKey struct {
	event     string
	namespace string
}

// Dispatcher is the event bus: a registry of (event, namespace) ->
// priority-ordered handler lists, plus the dispatch loop that invokes
// them synchronously on the calling goroutine.
type Dispatcher struct {
	mu       sync.RWMutex
	registry map[registryKey][]*binding
	bindings map[string]*binding // id -> binding, for O(1) unsubscribe
	seq      int
}

// New creates an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{
		registry: make(map[registryKey][]*binding),
		bindings: make(map[string]*binding),
	}
}

// Subscribe binds handler to (event, namespace). priority is an integer;
// higher runs first. persistent=false means the binding is removed after
// its first firing (one-shot). Returns the binding's id for Unsubscribe.
func (d *Dispatcher) Subscribe(event string, handler Handler, namespace string, persistent bool, priority int) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	b := &binding{
		id:         uuid.New().String(),
		event:      event,
		namespace:  namespace,
		handler:    handler,
		funcName:   funcName(handler),
		priority:   priority,
		persistent: persistent,
		seq:        d.seq,
	}

	key := registryKey{event: event, namespace: namespace}
	d.registry[key] = append(d.registry[key], b)
	sortBindings(d.registry[key])
	d.bindings[b.id] = b

	return b.id
}

// Unsubscribe removes a binding. Idempotent: unsubscribing an id that is
// already gone is a no-op.
func (d *Dispatcher) Unsubscribe(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(id)
}

func (d *Dispatcher) removeLocked(id string) {
	b, ok := d.bindings[id]
	if !ok {
		return
	}
	delete(d.bindings, id)

	key := registryKey{event: b.event, namespace: b.namespace}
	list := d.registry[key]
	for i, entry := range list {
		if entry.id == id {
			d.registry[key] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(d.registry[key]) == 0 {
		delete(d.registry, key)
	}
}

func sortBindings(list []*binding) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].priority > list[j].priority
	})
}

// Dispatch fires event for namespace, invoking every matching handler in
// priority-then-insertion order, synchronously, on the calling goroutine.
// If namespace is not Global, the Global bindings for the same event fire
// afterward as a fallback. A handler that panics or errors is captured
// into its bucket; dispatch continues to the remaining handlers.
func (d *Dispatcher) Dispatch(event, namespace string, payload map[string]any) Response {
	d.mu.RLock()
	handlers := d.collectLocked(event, namespace)
	d.mu.RUnlock()

	resp := make(Response)
	var fired []string

	for _, b := range handlers {
		result, err := invoke(b.handler, payload)
		resp[b.funcName] = append(resp[b.funcName], Record{Result: result, Error: err})
		if err != nil {
			log.Printf("[DISPATCH] handler %s for event=%s namespace=%s returned error: %v", b.funcName, event, namespace, err)
		}
		if !b.persistent {
			fired = append(fired, b.id)
		}
	}

	if len(fired) > 0 {
		d.mu.Lock()
		for _, id := range fired {
			d.removeLocked(id)
		}
		d.mu.Unlock()
	}

	return resp
}

// collectLocked gathers the handler list for (event, namespace), appending
// the Global fallback bindings when namespace != Global. Caller holds
// d.mu (read or write).
func (d *Dispatcher) collectLocked(event, namespace string) []*binding {
	primary := d.registry[registryKey{event: event, namespace: namespace}]
	out := append([]*binding(nil), primary...)

	if namespace != Global {
		fallback := d.registry[registryKey{event: event, namespace: Global}]
		out = append(out, fallback...)
	}
	return out
}

// BulkDispatch fires each event in order against its paired namespace and
// payload, with no cross-event atomicity — a later event's handlers see
// whatever state earlier handlers left behind.
func (d *Dispatcher) BulkDispatch(events, namespaces []string, payloads []map[string]any) []Response {
	out := make([]Response, len(events))
	for i, event := range events {
		ns := Global
		if i < len(namespaces) {
			ns = namespaces[i]
		}
		var payload map[string]any
		if i < len(payloads) {
			payload = payloads[i]
		}
		out[i] = d.Dispatch(event, ns, payload)
	}
	return out
}

// invoke calls handler, recovering a panic into an error so one
// misbehaving handler never aborts its siblings or the dispatch loop.
func invoke(h Handler, payload map[string]any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: handler panicked: %v", r)
			result = nil
		}
	}()
	return h(payload)
}

// funcName derives a handler's stable identifier from its runtime
// function pointer, used to key the response buckets.
func funcName(h Handler) string {
	ptr := reflect.ValueOf(h).Pointer()
	if fn := runtime.FuncForPC(ptr); fn != nil {
		return fn.Name()
	}
	return "unknown"
}
