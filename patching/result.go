package patching

import (
	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/tensor"
)

// ResultKind tells single results from sequences.
type ResultKind int

// The kinds of results an operator can return.
const (
	ResultScalar ResultKind = iota
	ResultSequence
)

// Result is an operator result in normalized form.
type Result struct {
	Kind ResultKind

	// Items holds the single value of a scalar result or the elements of a
	// sequence.
	Items []any

	// Tuple is set if the sequence came as a framework.Tuple rather than a
	// list.
	Tuple bool
}

// NormalizeResult turns a raw operator result into a Result. The items of a
// sequence are copied, so they can be replaced without touching the value
// the operator returned.
func NormalizeResult(v any) Result {
	switch v := v.(type) {
	case framework.Tuple:
		return Result{
			Kind:  ResultSequence,
			Items: append([]any(nil), v...),
			Tuple: true,
		}
	case []any:
		return Result{
			Kind:  ResultSequence,
			Items: append([]any(nil), v...),
		}
	default:
		return Result{Kind: ResultScalar, Items: []any{v}}
	}
}

// Value turns the result back into the form the operator returned.
func (r Result) Value() any {
	switch {
	case r.Kind == ResultScalar:
		return r.Items[0]
	case r.Tuple:
		return framework.Tuple(r.Items)
	default:
		return r.Items
	}
}

// TensorIndices returns the positions of the tensor-like items.
func (r Result) TensorIndices() []int {
	indices := make([]int, 0, len(r.Items))
	for i, item := range r.Items {
		if tensor.IsTensor(item) {
			indices = append(indices, i)
		}
	}

	return indices
}

// TracedCount returns the number of items that carry provenance.
func (r Result) TracedCount() int {
	n := 0
	for _, item := range r.Items {
		if tensor.IsTraced(item) {
			n++
		}
	}

	return n
}
