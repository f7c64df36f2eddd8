// Package framework models the operator surface of a tensor framework as a
// set of dispatch tables. Model code calls operators through a Namespace, so
// replacing a table entry changes what every caller reaches.
package framework

import "sort"

// Args are the arguments of an operator call.
type Args struct {
	Positional []any
	Keyword    map[string]any
}

// Call creates positional-only arguments.
func Call(positional ...any) Args {
	return Args{Positional: positional}
}

// WithKeyword returns a copy of the args with a keyword argument set.
func (a Args) WithKeyword(name string, value any) Args {
	kw := make(map[string]any, len(a.Keyword)+1)
	for k, v := range a.Keyword {
		kw[k] = v
	}

	kw[name] = value
	a.Keyword = kw

	return a
}

// Flatten returns every argument in one ordered sequence: positional
// arguments first, then keyword arguments sorted by name. Lists and tuples
// are flattened recursively.
func (a Args) Flatten() []any {
	flat := make([]any, 0, len(a.Positional)+len(a.Keyword))
	flat = flattenInto(flat, a.Positional)

	names := make([]string, 0, len(a.Keyword))
	for name := range a.Keyword {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		flat = flattenInto(flat, []any{a.Keyword[name]})
	}

	return flat
}

func flattenInto(flat []any, items []any) []any {
	for _, item := range items {
		switch v := item.(type) {
		case []any:
			flat = flattenInto(flat, v)
		case Tuple:
			flat = flattenInto(flat, v)
		default:
			flat = append(flat, item)
		}
	}

	return flat
}

// Arg returns the positional argument at index i, or nil.
func (a Args) Arg(i int) any {
	if i < 0 || i >= len(a.Positional) {
		return nil
	}

	return a.Positional[i]
}

// Tail drops the first n positional arguments.
func (a Args) Tail(n int) Args {
	if n > len(a.Positional) {
		n = len(a.Positional)
	}

	a.Positional = a.Positional[n:]

	return a
}

// A Tuple is an immutable-by-convention sequence result. Operators that return
// several values return either a Tuple or a []any.
type Tuple []any

// A Callable is an operator implementation stored in a namespace.
type Callable interface {
	Call(args Args) (any, error)
}

// Func adapts a plain function to a Callable. Use *Func so that namespace
// entries compare by identity.
type Func struct {
	Name string
	Fn   func(args Args) (any, error)
}

// NewFunc creates a named callable.
func NewFunc(name string, fn func(args Args) (any, error)) *Func {
	return &Func{Name: name, Fn: fn}
}

// Call invokes the function.
func (f *Func) Call(args Args) (any, error) {
	return f.Fn(args)
}

func (f *Func) String() string {
	return f.Name
}

// A Wrapped callable forwards to another callable it replaced.
type Wrapped interface {
	Callable
	Unwrap() Callable
}

// IsWrapped reports whether a callable is a replacement for another one.
func IsWrapped(c Callable) bool {
	_, ok := c.(Wrapped)
	return ok
}
