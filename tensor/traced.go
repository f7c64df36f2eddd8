package tensor

import "fmt"

// TensorMeta is the provenance attached to a traced tensor.
type TensorMeta struct {
	// CreatorID is the ID of the operator call that produced the tensor.
	CreatorID string

	// Index is the position of the tensor among its creator's outputs.
	Index int

	// Shape is the shape of the tensor the meta belongs to.
	Shape []int
}

// Clone returns a deep copy of the meta.
func (m *TensorMeta) Clone() *TensorMeta {
	if m == nil {
		return nil
	}

	c := *m
	c.Shape = append([]int(nil), m.Shape...)

	return &c
}

func (m *TensorMeta) String() string {
	return fmt.Sprintf("%s:%d%v", m.CreatorID, m.Index, m.Shape)
}

// A TracedTensor is a tensor that carries provenance.
type TracedTensor struct {
	Tensor
	Meta *TensorMeta
}

// Wrap attaches meta to a tensor. Wrapping an already traced tensor replaces
// its meta instead of nesting.
func Wrap(t Tensor, meta *TensorMeta) *TracedTensor {
	if traced, ok := t.(*TracedTensor); ok {
		t = traced.Tensor
	}

	return &TracedTensor{Tensor: t, Meta: meta}
}

// Unwrap strips the provenance from a value, if any.
func Unwrap(v any) any {
	if traced, ok := v.(*TracedTensor); ok {
		return traced.Tensor
	}

	return v
}

// MetaOf returns the provenance of a value.
func MetaOf(v any) (*TensorMeta, bool) {
	traced, ok := v.(*TracedTensor)
	if !ok || traced == nil {
		return nil, false
	}

	return traced.Meta, true
}

// IsTraced reports whether a value carries provenance.
func IsTraced(v any) bool {
	_, ok := MetaOf(v)
	return ok
}

// IsTensor reports whether a value is tensor-like and can therefore carry
// provenance.
func IsTensor(v any) bool {
	t, ok := v.(Tensor)
	return ok && t != nil
}

// AsDense returns the dense tensor behind a value.
func AsDense(v any) (*Dense, bool) {
	d, ok := Unwrap(v).(*Dense)
	return d, ok
}

func (t *TracedTensor) String() string {
	return fmt.Sprintf("traced(%v, meta=%v)", t.Tensor, t.Meta)
}
