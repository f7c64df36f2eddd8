// Package nn provides modules built on the operators of a framework. Modules
// only reach operators through the framework's namespaces, so they are traced
// whenever the framework is patched.
package nn

import (
	"fmt"
	"math"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/tensor"
)

// Linear applies x * w^T + b.
type Linear struct {
	Weight *tensor.Dense
	Bias   *tensor.Dense
}

// NewLinear creates a Linear layer with deterministic weights.
func NewLinear(in, out int) *Linear {
	w := tensor.Zeros(out, in)
	for i := range w.Data() {
		w.Data()[i] = math.Sin(float64(i+1)) / math.Sqrt(float64(in))
	}

	return &Linear{
		Weight: w,
		Bias:   tensor.Zeros(out),
	}
}

// TypeName returns "Linear".
func (l *Linear) TypeName() string {
	return "Linear"
}

// Forward applies the layer.
func (l *Linear) Forward(
	fw *framework.Framework,
	args framework.Args,
) (any, error) {
	if l.Bias == nil {
		return fw.Functional.Invoke("linear", args.Arg(0), l.Weight)
	}

	return fw.Functional.Invoke("linear", args.Arg(0), l.Weight, l.Bias)
}

// ReLU applies relu.
type ReLU struct{}

func (ReLU) TypeName() string {
	return "ReLU"
}

func (ReLU) Forward(fw *framework.Framework, args framework.Args) (any, error) {
	return fw.Functional.Invoke("relu", args.Arg(0))
}

// Softmax normalizes over the last dimension.
type Softmax struct{}

func (Softmax) TypeName() string {
	return "Softmax"
}

func (Softmax) Forward(fw *framework.Framework, args framework.Args) (any, error) {
	return fw.Functional.Invoke("softmax", args.Arg(0))
}

// Sequential runs modules one after the other.
type Sequential struct {
	Layers []framework.Module
}

// NewSequential creates a Sequential module.
func NewSequential(layers ...framework.Module) *Sequential {
	return &Sequential{Layers: layers}
}

func (s *Sequential) TypeName() string {
	return "Sequential"
}

func (s *Sequential) Forward(
	fw *framework.Framework,
	args framework.Args,
) (any, error) {
	x := args.Arg(0)

	for i, l := range s.Layers {
		out, err := fw.CallModule(l, x)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, l.TypeName(), err)
		}

		x = out
	}

	return x, nil
}

// Residual adds the input of a module to its output.
type Residual struct {
	Body framework.Module
}

func (r *Residual) TypeName() string {
	return "Residual"
}

func (r *Residual) Forward(
	fw *framework.Framework,
	args framework.Args,
) (any, error) {
	x := args.Arg(0)

	y, err := fw.CallModule(r.Body, x)
	if err != nil {
		return nil, err
	}

	return fw.Top.Invoke("add", x, y)
}

// DataParallel stands for a container that replicates a module. It runs the
// module once.
type DataParallel struct {
	Module framework.Module
}

func (d *DataParallel) TypeName() string {
	return "DataParallel"
}

func (d *DataParallel) Forward(
	fw *framework.Framework,
	args framework.Args,
) (any, error) {
	return fw.CallModule(d.Module, args.Positional...)
}

// NewMLP creates a stack of Linear layers with ReLU in between and a residual
// block in the middle, followed by Softmax.
func NewMLP(in, hidden, out int) *Sequential {
	return NewSequential(
		NewLinear(in, hidden),
		ReLU{},
		&Residual{Body: NewSequential(NewLinear(hidden, hidden), ReLU{})},
		NewLinear(hidden, out),
		Softmax{},
	)
}
