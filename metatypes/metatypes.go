// Package metatypes lists the operators that a session patches.
package metatypes

import (
	"github.com/sarchlab/optrace/patching"
)

func spec(names ...string) *patching.PatchSpec {
	return &patching.PatchSpec{FunctionNames: names}
}

func forwardOnly(names ...string) *patching.PatchSpec {
	return &patching.PatchSpec{
		FunctionNames: names,
		CustomTrace:   patching.ForwardTraceOnly{},
	}
}

// Default returns the operators of the reference framework, in patch order.
// Some of them, such as gelu and conv2d, are not defined by the reference
// operators and are skipped with a warning when patched.
func Default() patching.MetatypeList {
	return patching.MetatypeList{
		{Name: "linear", FunctionalPatchSpec: spec("linear")},
		{Name: "conv2d", FunctionalPatchSpec: spec("conv2d")},
		{Name: "relu", FunctionalPatchSpec: spec("relu")},
		{Name: "gelu", FunctionalPatchSpec: spec("gelu")},
		{Name: "softmax", FunctionalPatchSpec: spec("softmax")},
		{Name: "dropout", FunctionalPatchSpec: spec("dropout")},
		{
			Name:            "add",
			ModulePatchSpec: spec("add"),
			TensorPatchSpec: spec("add", "__add__", "__iadd__"),
		},
		{Name: "mul", ModulePatchSpec: spec("mul")},
		{Name: "matmul", ModulePatchSpec: spec("matmul", "bmm")},
		{Name: "cat", ModulePatchSpec: spec("cat", "stack")},
		{
			Name:            "split",
			ModulePatchSpec: spec("split", "chunk"),
		},
		{
			Name:            "reshape",
			ModulePatchSpec: spec("reshape"),
			TensorPatchSpec: spec("view", "reshape"),
		},
		{
			Name:            "transpose",
			ModulePatchSpec: spec("transpose"),
			TensorPatchSpec: spec("t"),
		},
		{
			Name:            "noop",
			TensorPatchSpec: forwardOnly("contiguous", "size"),
		},
	}
}
