package framework

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNoSuchOperator is returned when calling a name a namespace does not
	// have.
	ErrNoSuchOperator = errors.New("no such operator")

	// ErrSealedNamespace is returned when modifying a sealed namespace.
	ErrSealedNamespace = errors.New("namespace is sealed")
)

// A Namespace is a dispatch table from operator names to implementations.
type Namespace struct {
	lock sync.RWMutex

	name   string
	attrs  map[string]Callable
	sealed bool
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{
		name:  name,
		attrs: make(map[string]Callable),
	}
}

// Name returns the name of the namespace.
func (ns *Namespace) Name() string {
	return ns.name
}

// HasAttr reports whether the namespace defines a name.
func (ns *Namespace) HasAttr(name string) bool {
	ns.lock.RLock()
	defer ns.lock.RUnlock()

	_, ok := ns.attrs[name]

	return ok
}

// GetAttr returns the current implementation of a name.
func (ns *Namespace) GetAttr(name string) (Callable, bool) {
	ns.lock.RLock()
	defer ns.lock.RUnlock()

	c, ok := ns.attrs[name]

	return c, ok
}

// SetAttr replaces the implementation of a name.
func (ns *Namespace) SetAttr(name string, c Callable) error {
	if c == nil {
		return fmt.Errorf("%s.%s: nil callable", ns.name, name)
	}

	ns.lock.Lock()
	defer ns.lock.Unlock()

	if ns.sealed {
		return fmt.Errorf("%s.%s: %w", ns.name, name, ErrSealedNamespace)
	}

	ns.attrs[name] = c

	return nil
}

// MustSetAttr is SetAttr that panics on error. It is meant for building
// namespaces.
func (ns *Namespace) MustSetAttr(name string, c Callable) {
	err := ns.SetAttr(name, c)
	if err != nil {
		panic(err)
	}
}

// Define registers a plain function under a name.
func (ns *Namespace) Define(
	name string,
	fn func(args Args) (any, error),
) *Func {
	f := NewFunc(ns.name+"."+name, fn)
	ns.MustSetAttr(name, f)

	return f
}

// Seal makes the namespace read-only.
func (ns *Namespace) Seal() {
	ns.lock.Lock()
	defer ns.lock.Unlock()

	ns.sealed = true
}

// Unseal makes the namespace writable again.
func (ns *Namespace) Unseal() {
	ns.lock.Lock()
	defer ns.lock.Unlock()

	ns.sealed = false
}

// Names returns the defined names in sorted order.
func (ns *Namespace) Names() []string {
	ns.lock.RLock()
	defer ns.lock.RUnlock()

	names := make([]string, 0, len(ns.attrs))
	for name := range ns.attrs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// WrappedNames returns the names whose implementation currently replaces
// another one.
func (ns *Namespace) WrappedNames() []string {
	names := ns.Names()

	wrapped := make([]string, 0)
	for _, name := range names {
		c, _ := ns.GetAttr(name)
		if IsWrapped(c) {
			wrapped = append(wrapped, name)
		}
	}

	return wrapped
}

// Call invokes the current implementation of a name.
func (ns *Namespace) Call(name string, args Args) (any, error) {
	c, ok := ns.GetAttr(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", ns.name, name, ErrNoSuchOperator)
	}

	return c.Call(args)
}

// Invoke calls a name with positional arguments only.
func (ns *Namespace) Invoke(name string, positional ...any) (any, error) {
	return ns.Call(name, Call(positional...))
}
