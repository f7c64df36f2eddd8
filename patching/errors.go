package patching

import (
	"errors"
	"fmt"
)

// ErrForwardingArity is matched by every ForwardingArityError.
var ErrForwardingArity = errors.New("input and output tensor count mismatch")

// ForwardingArityError is returned when provenance cannot be forwarded
// through an operator because the traced inputs and the tensor outputs do not
// pair up.
type ForwardingArityError struct {
	Operator string
	Inputs   int
	Outputs  int
}

func (e *ForwardingArityError) Error() string {
	return fmt.Sprintf(
		"unable to forward trace through operator %s (%d traced inputs, "+
			"%d tensor outputs): %s",
		e.Operator, e.Inputs, e.Outputs, ErrForwardingArity)
}

// Is makes errors.Is(err, ErrForwardingArity) hold.
func (e *ForwardingArityError) Is(target error) bool {
	return target == ErrForwardingArity
}

// MissingOperatorWarning describes an operator that could not be patched
// because the framework does not define it.
type MissingOperatorWarning struct {
	Namespace string
	Name      string
}

func (w MissingOperatorWarning) String() string {
	return fmt.Sprintf(
		"not patching %s.%s since it is missing in this framework version",
		w.Namespace, w.Name)
}
