package tracing

import "github.com/sarchlab/optrace/instrumentation/hooking"

// A list of hook poses for the hooks to apply to
var (
	HookPosOpStart   = &hooking.HookPos{Name: "OpStart"}
	HookPosOpEnd     = &hooking.HookPos{Name: "OpEnd"}
	HookPosOpForward = &hooking.HookPos{Name: "OpForward"}
)

// InputRef describes a traced argument of an operator call.
type InputRef struct {
	// Position is the index of the argument in the flattened argument list.
	Position int

	// CreatorID is the ID of the call that produced the argument.
	CreatorID string

	// Index is the output index of the argument within its creator's outputs.
	Index int

	Shape []int
}

// OutputRef describes a tensor output of an operator call.
type OutputRef struct {
	Index int
	Shape []int
}

// OpStart is fired before an intercepted operator executes.
type OpStart struct {
	ID     string
	Name   string
	Scope  string
	Inputs []InputRef
}

// OpEnd is fired after an intercepted operator returns. Err is set if the
// operator failed.
type OpEnd struct {
	ID      string
	Name    string
	Outputs []OutputRef
	Err     error
}

// OpForward is fired when provenance is forwarded through an operator that
// does not become a node.
type OpForward struct {
	Name      string
	Scope     string
	Forwarded int
}
