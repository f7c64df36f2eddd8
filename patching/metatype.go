package patching

// PatchSpec lists the functions of one namespace that implement an operator.
type PatchSpec struct {
	FunctionNames []string

	// CustomTrace is used for all the functions of the spec.
	CustomTrace TraceFunction
}

// OperatorMetatype describes a logical operator and where it lives in the
// framework. A nil spec means the operator has no function in that
// namespace.
type OperatorMetatype struct {
	Name string

	FunctionalPatchSpec *PatchSpec
	ModulePatchSpec     *PatchSpec
	TensorPatchSpec     *PatchSpec
}

// A MetatypeRegistry supplies the operators to patch, in patch order.
type MetatypeRegistry interface {
	Metatypes() []OperatorMetatype
}

// MetatypeList is a MetatypeRegistry backed by a slice.
type MetatypeList []OperatorMetatype

// Metatypes returns the list.
func (l MetatypeList) Metatypes() []OperatorMetatype {
	return l
}
