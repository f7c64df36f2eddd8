package framework

import (
	"errors"
	"fmt"
)

// Names of the well-known entries the framework defines outside the operator
// namespaces.
const (
	ModuleCallName = "__call__"
	ReprName       = "__repr__"
	ScriptName     = "script"
)

// ErrNotScriptable is returned by the default script compiler when it finds
// replaced operators in the framework.
var ErrNotScriptable = errors.New("operator is not scriptable")

// A Module is a layer or container that can be invoked.
type Module interface {
	// TypeName returns the name of the module's type, such as "Linear".
	TypeName() string

	// Forward computes the module's output.
	Forward(fw *Framework, args Args) (any, error)
}

// Framework holds the namespaces that make up the operator surface.
type Framework struct {
	// Functional holds layer functions such as conv2d or relu.
	Functional *Namespace

	// Top holds top-level tensor functions such as add or cat.
	Top *Namespace

	// Tensor holds tensor methods. The receiver is the first positional
	// argument.
	Tensor *Namespace

	// Module holds the generic module invocation entry point.
	Module *Namespace

	// JIT holds the script compiler.
	JIT *Namespace
}

// New creates a framework whose operator namespaces are empty. The module
// namespace defines __call__, the tensor namespace defines __repr__, and the
// JIT namespace defines script.
func New() *Framework {
	fw := &Framework{
		Functional: NewNamespace("functional"),
		Top:        NewNamespace("torch"),
		Tensor:     NewNamespace("Tensor"),
		Module:     NewNamespace("Module"),
		JIT:        NewNamespace("jit"),
	}

	fw.Module.Define(ModuleCallName, fw.callModule)
	fw.Tensor.Define(ReprName, repr)
	fw.JIT.Define(ScriptName, fw.script)

	return fw
}

// Namespaces returns all namespaces.
func (fw *Framework) Namespaces() []*Namespace {
	return []*Namespace{fw.Functional, fw.Top, fw.Tensor, fw.Module, fw.JIT}
}

// NamespaceByName finds a namespace by its name.
func (fw *Framework) NamespaceByName(name string) (*Namespace, bool) {
	for _, ns := range fw.Namespaces() {
		if ns.Name() == name {
			return ns, true
		}
	}

	return nil, false
}

// CallModule invokes a module through the module namespace.
func (fw *Framework) CallModule(m Module, positional ...any) (any, error) {
	args := Args{Positional: append([]any{m}, positional...)}
	return fw.Module.Call(ModuleCallName, args)
}

// Method calls a tensor method.
func (fw *Framework) Method(name string, self any, positional ...any) (any, error) {
	args := Args{Positional: append([]any{self}, positional...)}
	return fw.Tensor.Call(name, args)
}

// Repr returns the representation of a value through the tensor namespace.
func (fw *Framework) Repr(v any) (string, error) {
	out, err := fw.Tensor.Call(ReprName, Call(v))
	if err != nil {
		return "", err
	}

	s, ok := out.(string)
	if !ok {
		return fmt.Sprint(out), nil
	}

	return s, nil
}

// Script compiles a callable through the JIT namespace.
func (fw *Framework) Script(c Callable) (Callable, error) {
	out, err := fw.JIT.Call(ScriptName, Call(c))
	if err != nil {
		return nil, err
	}

	compiled, ok := out.(Callable)
	if !ok {
		return nil, fmt.Errorf("script returned %T, not a callable", out)
	}

	return compiled, nil
}

func (fw *Framework) callModule(args Args) (any, error) {
	m, ok := args.Arg(0).(Module)
	if !ok {
		return nil, fmt.Errorf("%s expects a module, got %T",
			ModuleCallName, args.Arg(0))
	}

	return m.Forward(fw, args.Tail(1))
}

func repr(args Args) (any, error) {
	return fmt.Sprint(args.Arg(0)), nil
}

// A ScriptFunction is the result of compiling a callable.
type ScriptFunction struct {
	fn Callable
}

// Call runs the compiled callable.
func (s *ScriptFunction) Call(args Args) (any, error) {
	return s.fn.Call(args)
}

// script refuses to compile while any operator namespace holds replaced
// entries, since compiled code cannot run them.
func (fw *Framework) script(args Args) (any, error) {
	fn, ok := args.Arg(0).(Callable)
	if !ok {
		return nil, fmt.Errorf("%s expects a callable, got %T",
			ScriptName, args.Arg(0))
	}

	for _, ns := range []*Namespace{fw.Functional, fw.Top, fw.Tensor, fw.Module} {
		wrapped := ns.WrappedNames()
		if len(wrapped) > 0 {
			return nil, fmt.Errorf("%s.%s: %w",
				ns.Name(), wrapped[0], ErrNotScriptable)
		}
	}

	return &ScriptFunction{fn: fn}, nil
}
