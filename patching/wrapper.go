package patching

import (
	"github.com/sarchlab/optrace/framework"
)

// PatchedOperatorInfo describes how an operator is to be patched.
type PatchedOperatorInfo struct {
	Name string

	// CustomTrace, if set, is called instead of the standard trace step.
	CustomTrace TraceFunction
}

// A CallTracer carries out the interception of operator calls.
type CallTracer interface {
	// TraceCall performs the standard trace step. It runs the operator once
	// and attaches fresh provenance to the tensors it returns.
	TraceCall(call OperatorCall) (any, error)

	// ForwardCall hands the call to a custom trace function.
	ForwardCall(call OperatorCall, fn TraceFunction) (any, error)
}

// A Wrapper replaces an operator in a namespace.
type Wrapper struct {
	original framework.Callable
	info     PatchedOperatorInfo
	tracer   CallTracer
}

// WrapOperator creates the replacement of an operator. A nil tracer runs the
// operator without tracing.
func WrapOperator(
	original framework.Callable,
	info PatchedOperatorInfo,
	tracer CallTracer,
) *Wrapper {
	if tracer == nil {
		tracer = untracedCallTracer{}
	}

	return &Wrapper{
		original: original,
		info:     info,
		tracer:   tracer,
	}
}

// Call intercepts a call of the operator.
func (w *Wrapper) Call(args framework.Args) (any, error) {
	call := OperatorCall{
		Name:     w.info.Name,
		Operator: w.original,
		Args:     args,
	}

	if w.info.CustomTrace != nil {
		return w.tracer.ForwardCall(call, w.info.CustomTrace)
	}

	return w.tracer.TraceCall(call)
}

// Unwrap returns the operator that the wrapper replaces.
func (w *Wrapper) Unwrap() framework.Callable {
	return w.original
}

// Info returns how the operator is patched.
func (w *Wrapper) Info() PatchedOperatorInfo {
	return w.info
}

type untracedCallTracer struct{}

func (untracedCallTracer) TraceCall(call OperatorCall) (any, error) {
	return call.Run()
}

func (untracedCallTracer) ForwardCall(
	call OperatorCall,
	fn TraceFunction,
) (any, error) {
	return fn.Trace(call)
}
