// Package ops defines a small set of reference operators on dense tensors and
// installs them into a framework.
package ops

import (
	"fmt"
	"math"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/tensor"
)

// Install defines the reference operators in the framework's namespaces.
func Install(fw *framework.Framework) {
	fw.Functional.Define("relu", relu)
	fw.Functional.Define("linear", linear)
	fw.Functional.Define("softmax", softmax)
	fw.Functional.Define("dropout", identity)

	fw.Top.Define("add", add)
	fw.Top.Define("mul", mul)
	fw.Top.Define("matmul", matmul)
	fw.Top.Define("cat", cat)
	fw.Top.Define("split", split)
	fw.Top.Define("chunk", chunk)
	fw.Top.Define("reshape", reshape)
	fw.Top.Define("transpose", transpose)

	fw.Tensor.Define("add", add)
	fw.Tensor.Define("view", reshape)
	fw.Tensor.Define("reshape", reshape)
	fw.Tensor.Define("contiguous", identity)
	fw.Tensor.Define("t", transpose)
	fw.Tensor.Define("size", size)
}

func denseArg(args framework.Args, i int, op string) (*tensor.Dense, error) {
	d, ok := tensor.AsDense(args.Arg(i))
	if !ok {
		return nil, fmt.Errorf("%s: argument %d is %T, not a tensor",
			op, i, args.Arg(i))
	}

	return d, nil
}

func intArg(args framework.Args, i int, name string, def int) int {
	v := args.Arg(i)
	if kw, ok := args.Keyword[name]; ok {
		v = kw
	}

	n, ok := v.(int)
	if !ok {
		return def
	}

	return n
}

func identity(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "identity")
	if err != nil {
		return nil, err
	}

	return x, nil
}

func relu(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "relu")
	if err != nil {
		return nil, err
	}

	out := tensor.Zeros(x.Shape()...)
	for i, v := range x.Data() {
		out.Data()[i] = math.Max(v, 0)
	}

	return out, nil
}

func elementwise(
	args framework.Args,
	op string,
	f func(a, b float64) float64,
) (any, error) {
	a, err := denseArg(args, 0, op)
	if err != nil {
		return nil, err
	}

	b, err := denseArg(args, 1, op)
	if err != nil {
		return nil, err
	}

	if !tensor.SameShape(a.Shape(), b.Shape()) {
		return nil, fmt.Errorf("%s: shape mismatch %v vs %v",
			op, a.Shape(), b.Shape())
	}

	out := tensor.Zeros(a.Shape()...)
	for i := range a.Data() {
		out.Data()[i] = f(a.Data()[i], b.Data()[i])
	}

	return out, nil
}

func add(args framework.Args) (any, error) {
	return elementwise(args, "add", func(a, b float64) float64 { return a + b })
}

func mul(args framework.Args) (any, error) {
	return elementwise(args, "mul", func(a, b float64) float64 { return a * b })
}

func matmulDense(a, b *tensor.Dense) (*tensor.Dense, error) {
	if len(a.Shape()) != 2 || len(b.Shape()) != 2 || a.Shape()[1] != b.Shape()[0] {
		return nil, fmt.Errorf("matmul: incompatible shapes %v and %v",
			a.Shape(), b.Shape())
	}

	m, k, n := a.Shape()[0], a.Shape()[1], b.Shape()[1]
	out := tensor.Zeros(m, n)

	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for p := 0; p < k; p++ {
				sum += a.Data()[i*k+p] * b.Data()[p*n+j]
			}

			out.Data()[i*n+j] = sum
		}
	}

	return out, nil
}

func matmul(args framework.Args) (any, error) {
	a, err := denseArg(args, 0, "matmul")
	if err != nil {
		return nil, err
	}

	b, err := denseArg(args, 1, "matmul")
	if err != nil {
		return nil, err
	}

	return matmulDense(a, b)
}

func transposeDense(x *tensor.Dense) (*tensor.Dense, error) {
	if len(x.Shape()) != 2 {
		return nil, fmt.Errorf("transpose: expected 2 dims, got %v", x.Shape())
	}

	rows, cols := x.Shape()[0], x.Shape()[1]
	out := tensor.Zeros(cols, rows)

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Data()[j*rows+i] = x.Data()[i*cols+j]
		}
	}

	return out, nil
}

func transpose(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "transpose")
	if err != nil {
		return nil, err
	}

	return transposeDense(x)
}

// linear computes x * w^T + b, with x [batch, in], w [out, in], b [out].
func linear(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "linear")
	if err != nil {
		return nil, err
	}

	w, err := denseArg(args, 1, "linear")
	if err != nil {
		return nil, err
	}

	wt, err := transposeDense(w)
	if err != nil {
		return nil, err
	}

	out, err := matmulDense(x, wt)
	if err != nil {
		return nil, err
	}

	if args.Arg(2) == nil {
		return out, nil
	}

	b, err := denseArg(args, 2, "linear")
	if err != nil {
		return nil, err
	}

	cols := out.Shape()[1]
	if b.Len() != cols {
		return nil, fmt.Errorf("linear: bias has %d elements, want %d",
			b.Len(), cols)
	}

	for i := range out.Data() {
		out.Data()[i] += b.Data()[i%cols]
	}

	return out, nil
}

// softmax normalises over the last dimension.
func softmax(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "softmax")
	if err != nil {
		return nil, err
	}

	shape := x.Shape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("softmax: scalar input")
	}

	width := shape[len(shape)-1]
	out := tensor.Zeros(shape...)

	for start := 0; start < x.Len(); start += width {
		row := x.Data()[start : start+width]

		maxV := math.Inf(-1)
		for _, v := range row {
			maxV = math.Max(maxV, v)
		}

		sum := 0.0
		for i, v := range row {
			e := math.Exp(v - maxV)
			out.Data()[start+i] = e
			sum += e
		}

		for i := range row {
			out.Data()[start+i] /= sum
		}
	}

	return out, nil
}

func rowWidth(shape []int) int {
	return tensor.NumElements(shape[1:])
}

// cat concatenates a list of tensors along the first dimension.
func cat(args framework.Args) (any, error) {
	items, ok := args.Arg(0).([]any)
	if !ok || len(items) == 0 {
		return nil, fmt.Errorf("cat: expects a non-empty list of tensors")
	}

	parts := make([]*tensor.Dense, 0, len(items))
	rows := 0

	for i, item := range items {
		d, ok := tensor.AsDense(item)
		if !ok {
			return nil, fmt.Errorf("cat: element %d is %T", i, item)
		}

		if len(d.Shape()) == 0 ||
			(len(parts) > 0 &&
				!tensor.SameShape(d.Shape()[1:], parts[0].Shape()[1:])) {
			return nil, fmt.Errorf("cat: element %d has shape %v", i, d.Shape())
		}

		parts = append(parts, d)
		rows += d.Shape()[0]
	}

	shape := append([]int{rows}, parts[0].Shape()[1:]...)
	data := make([]float64, 0, tensor.NumElements(shape))

	for _, p := range parts {
		data = append(data, p.Data()...)
	}

	return tensor.NewDense(shape, data), nil
}

func sliceRows(x *tensor.Dense, from, to int) *tensor.Dense {
	w := rowWidth(x.Shape())
	shape := append([]int{to - from}, x.Shape()[1:]...)
	data := append([]float64(nil), x.Data()[from*w:to*w]...)

	return tensor.NewDense(shape, data)
}

// split cuts a tensor into pieces of split_size rows.
func split(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "split")
	if err != nil {
		return nil, err
	}

	size := intArg(args, 1, "split_size", 1)
	if size <= 0 || len(x.Shape()) == 0 {
		return nil, fmt.Errorf("split: invalid split size %d", size)
	}

	out := framework.Tuple{}
	for from := 0; from < x.Shape()[0]; from += size {
		to := min(from+size, x.Shape()[0])
		out = append(out, sliceRows(x, from, to))
	}

	return out, nil
}

// chunk cuts a tensor into n pieces along the first dimension.
func chunk(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "chunk")
	if err != nil {
		return nil, err
	}

	n := intArg(args, 1, "chunks", 1)
	if n <= 0 || len(x.Shape()) == 0 {
		return nil, fmt.Errorf("chunk: invalid chunk count %d", n)
	}

	rows := x.Shape()[0]
	size := (rows + n - 1) / n

	out := framework.Tuple{}
	for from := 0; from < rows; from += size {
		to := min(from+size, rows)
		out = append(out, sliceRows(x, from, to))
	}

	return out, nil
}

func reshape(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "reshape")
	if err != nil {
		return nil, err
	}

	shape, ok := args.Arg(1).([]int)
	if !ok {
		return nil, fmt.Errorf("reshape: expects a []int shape, got %T",
			args.Arg(1))
	}

	if tensor.NumElements(shape) != x.Len() {
		return nil, fmt.Errorf("reshape: cannot view %v as %v", x.Shape(), shape)
	}

	return tensor.NewDense(shape, x.Data()), nil
}

func size(args framework.Args) (any, error) {
	x, err := denseArg(args, 0, "size")
	if err != nil {
		return nil, err
	}

	return append([]int(nil), x.Shape()...), nil
}
