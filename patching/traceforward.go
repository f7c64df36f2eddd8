package patching

import (
	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/tensor"
)

// OperatorCall is an intercepted call of an operator.
type OperatorCall struct {
	// Name is the name the operator is patched under.
	Name string

	// Operator is the unpatched operator.
	Operator framework.Callable

	Args framework.Args
}

// Run executes the original operator.
func (c OperatorCall) Run() (any, error) {
	return c.Operator.Call(c.Args)
}

// A TraceFunction replaces the standard trace step of a patched operator.
type TraceFunction interface {
	Trace(call OperatorCall) (any, error)
}

// TraceFunctionFunc adapts a function to a TraceFunction.
type TraceFunctionFunc func(call OperatorCall) (any, error)

// Trace calls f.
func (f TraceFunctionFunc) Trace(call OperatorCall) (any, error) {
	return f(call)
}

// ForwardTraceOnly keeps an operator out of the graph. The operator runs, and
// the provenance of its traced inputs is passed on to its tensor outputs with
// the shape updated, so the graph does not become disjoint.
//
// A single traced input is broadcast to every tensor output. Otherwise the
// traced inputs are paired with the tensor outputs in order, which requires
// the counts to match. The operator runs exactly once, before any of this, and
// its side effects remain even if forwarding fails.
type ForwardTraceOnly struct{}

// Trace runs the operator and forwards provenance.
func (ForwardTraceOnly) Trace(call OperatorCall) (any, error) {
	out, err := call.Run()
	if err != nil {
		return out, err
	}

	flat := call.Args.Flatten()
	traced := tracedIndices(flat)

	result := NormalizeResult(out)
	if result.Kind == ResultSequence {
		return forwardSequence(call.Name, flat, traced, result)
	}

	switch {
	case len(traced) > 1:
		return nil, &ForwardingArityError{
			Operator: call.Name,
			Inputs:   len(traced),
			Outputs:  1,
		}
	case len(traced) == 1 && tensor.IsTensor(out):
		return forwardMeta(flat[traced[0]], out), nil
	default:
		return out, nil
	}
}

func forwardSequence(
	name string,
	flat []any,
	traced []int,
	result Result,
) (any, error) {
	outputs := result.TensorIndices()

	switch {
	case len(traced) == 1:
		for _, o := range outputs {
			result.Items[o] = forwardMeta(flat[traced[0]], result.Items[o])
		}
	case len(traced) != len(outputs):
		return nil, &ForwardingArityError{
			Operator: name,
			Inputs:   len(traced),
			Outputs:  len(outputs),
		}
	default:
		for i, o := range outputs {
			result.Items[o] = forwardMeta(flat[traced[i]], result.Items[o])
		}
	}

	return result.Value(), nil
}

func tracedIndices(flat []any) []int {
	indices := make([]int, 0)
	for i, v := range flat {
		if tensor.IsTraced(v) {
			indices = append(indices, i)
		}
	}

	return indices
}

// forwardMeta wraps the output with a copy of the input's meta.
func forwardMeta(input, output any) *tensor.TracedTensor {
	src, _ := tensor.MetaOf(input)
	out := output.(tensor.Tensor)

	meta := src.Clone()
	if meta == nil {
		meta = &tensor.TensorMeta{}
	}

	meta.Shape = append([]int(nil), out.Shape()...)

	return tensor.Wrap(out, meta)
}
