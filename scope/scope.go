// Package scope tracks which modules are currently being invoked, so that
// operator calls can be named after the module hierarchy they run in.
package scope

import (
	"strings"
	"sync"

	"github.com/sarchlab/optrace/framework"
)

// Separator joins the module type names of a scope.
const Separator = "/"

// A Tracker keeps the stack of module invocations in progress.
type Tracker struct {
	lock    sync.Mutex
	stack   []string
	ignored map[string]bool
}

// NewTracker creates a Tracker with an empty stack.
func NewTracker() *Tracker {
	return &Tracker{
		ignored: make(map[string]bool),
	}
}

// IgnoreScope makes invocations of a module type leave the scope unchanged.
// Containers such as DataParallel use it so that they do not show up in
// operator names.
func (t *Tracker) IgnoreScope(typeName string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.ignored[typeName] = true
}

// IsIgnored reports whether a module type is scope-ignored.
func (t *Tracker) IsIgnored(typeName string) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.ignored[typeName]
}

// IgnoredScopes returns the scope-ignored module types.
func (t *Tracker) IgnoredScopes() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, 0, len(t.ignored))
	for name := range t.ignored {
		names = append(names, name)
	}

	return names
}

// CurrentScope returns the module types being invoked, outermost first.
func (t *Tracker) CurrentScope() string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return strings.Join(t.stack, Separator)
}

// Depth returns the number of scopes on the stack.
func (t *Tracker) Depth() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.stack)
}

// Push enters a scope.
func (t *Tracker) Push(name string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.stack = append(t.stack, name)
}

// Pop leaves the innermost scope.
func (t *Tracker) Pop() {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.stack) == 0 {
		panic("scope stack is empty")
	}

	t.stack = t.stack[:len(t.stack)-1]
}

// Reset drops every scope. Ignored module types are kept.
func (t *Tracker) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.stack = nil
}

// WrapModuleCall returns a replacement for the module invocation entry point
// that enters the module's scope for the duration of the call.
func (t *Tracker) WrapModuleCall(original framework.Callable) *ModuleCall {
	return &ModuleCall{tracker: t, original: original}
}

// ModuleCall is the wrapped module invocation entry point.
type ModuleCall struct {
	tracker  *Tracker
	original framework.Callable
}

// Call invokes the original entry point inside the module's scope.
func (c *ModuleCall) Call(args framework.Args) (any, error) {
	m, ok := args.Arg(0).(framework.Module)
	if !ok || c.tracker.IsIgnored(m.TypeName()) {
		return c.original.Call(args)
	}

	c.tracker.Push(m.TypeName())
	defer c.tracker.Pop()

	return c.original.Call(args)
}

// Unwrap returns the original entry point.
func (c *ModuleCall) Unwrap() framework.Callable {
	return c.original
}
