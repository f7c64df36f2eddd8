package tracing

import (
	"fmt"
	"sync"
)

// OpPrinter can print operator calls with a format.
type OpPrinter interface {
	Print(op OpStart)
}

type defaultOpPrinter struct {
}

func (p *defaultOpPrinter) Print(op OpStart) {
	fmt.Printf("%s#%s@%s\n", op.Name, op.ID, op.Scope)
}

type runningOp struct {
	op       OpStart
	parentID string
}

// BackTraceTracer remembers the operator calls that have not returned yet.
// Calls made from inside another call's implementation are nested under it.
type BackTraceTracer struct {
	printer OpPrinter
	running map[string]runningOp
	stack   []string
	lock    sync.Mutex
}

// NewBackTraceTracer creates a new BackTraceTracer
func NewBackTraceTracer(printer OpPrinter) *BackTraceTracer {
	t := &BackTraceTracer{
		printer: printer,
		running: make(map[string]runningOp),
	}

	if t.printer == nil {
		t.printer = &defaultOpPrinter{}
	}

	return t
}

func (t *BackTraceTracer) StartOp(op OpStart) {
	t.lock.Lock()
	defer t.lock.Unlock()

	parentID := ""
	if len(t.stack) > 0 {
		parentID = t.stack[len(t.stack)-1]
	}

	t.running[op.ID] = runningOp{op: op, parentID: parentID}
	t.stack = append(t.stack, op.ID)
}

func (t *BackTraceTracer) EndOp(op OpEnd) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.running, op.ID)

	for i := len(t.stack) - 1; i >= 0; i-- {
		if t.stack[i] == op.ID {
			t.stack = append(t.stack[:i], t.stack[i+1:]...)
			break
		}
	}
}

// ForwardOp does nothing
func (t *BackTraceTracer) ForwardOp(_ OpForward) {
	// Do nothing
}

// NumRunning returns the number of calls that have not returned.
func (t *BackTraceTracer) NumRunning() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.running)
}

// DumpBackTrace prints the call and every call it is nested in, innermost
// first.
func (t *BackTraceTracer) DumpBackTrace(id string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	for id != "" {
		r, ok := t.running[id]
		if !ok {
			return
		}

		t.printer.Print(r.op)
		id = r.parentID
	}
}

// DumpAll prints the back trace of the innermost running call.
func (t *BackTraceTracer) DumpAll() {
	t.lock.Lock()
	if len(t.stack) == 0 {
		t.lock.Unlock()
		return
	}

	top := t.stack[len(t.stack)-1]
	t.lock.Unlock()

	t.DumpBackTrace(top)
}
