// Package tensor provides the tensor values that flow through the framework
// and the traced-tensor capability that attaches provenance to them.
package tensor

import (
	"fmt"
	"strings"
)

// A Tensor is any value that has a shape.
type Tensor interface {
	Shape() []int
}

// Dense is a row-major float64 tensor.
type Dense struct {
	shape []int
	data  []float64
}

// NewDense creates a dense tensor. It panics if the number of elements does
// not match the shape.
func NewDense(shape []int, data []float64) *Dense {
	n := NumElements(shape)
	if data == nil {
		data = make([]float64, n)
	}

	if len(data) != n {
		panic(fmt.Sprintf(
			"shape %v requires %d elements, got %d", shape, n, len(data)))
	}

	return &Dense{
		shape: append([]int(nil), shape...),
		data:  data,
	}
}

// Zeros creates a zero-filled dense tensor.
func Zeros(shape ...int) *Dense {
	return NewDense(shape, nil)
}

// Shape returns the shape of the tensor.
func (t *Dense) Shape() []int {
	return t.shape
}

// Data returns the underlying storage.
func (t *Dense) Data() []float64 {
	return t.data
}

// Len returns the number of elements.
func (t *Dense) Len() int {
	return len(t.data)
}

func (t *Dense) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "tensor(shape=%v, data=[", t.shape)

	for i, v := range t.data {
		if i > 0 {
			b.WriteString(", ")
		}

		if i == 8 {
			b.WriteString("...")
			break
		}

		fmt.Fprintf(&b, "%g", v)
	}

	b.WriteString("])")

	return b.String()
}

// NumElements returns the number of elements a tensor of the given shape
// holds.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}

	return n
}

// SameShape reports whether two shapes are equal.
func SameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
