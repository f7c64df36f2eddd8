package patching

import (
	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/idgen"
	"github.com/sarchlab/optrace/instrumentation/hooking"
	"github.com/sarchlab/optrace/instrumentation/tracing"
	"github.com/sarchlab/optrace/tensor"
)

// A ScopeReader tells the module scope that operator calls run in.
type ScopeReader interface {
	CurrentScope() string
}

type noScope struct{}

func (noScope) CurrentScope() string {
	return ""
}

// HookCallTracer reports operator calls through the hooks of a domain.
type HookCallTracer struct {
	domain hooking.Hookable
	ids    idgen.Generator
	scopes ScopeReader
}

// NewHookCallTracer creates a HookCallTracer. The scope reader may be nil.
func NewHookCallTracer(
	domain hooking.Hookable,
	ids idgen.Generator,
	scopes ScopeReader,
) *HookCallTracer {
	if scopes == nil {
		scopes = noScope{}
	}

	return &HookCallTracer{
		domain: domain,
		ids:    ids,
		scopes: scopes,
	}
}

// TraceCall fires an OpStart event, runs the operator, attaches provenance to
// the tensor outputs, and fires an OpEnd event.
func (t *HookCallTracer) TraceCall(call OperatorCall) (any, error) {
	id := t.ids.Generate()

	t.invoke(tracing.HookPosOpStart, tracing.OpStart{
		ID:     id,
		Name:   call.Name,
		Scope:  t.scopes.CurrentScope(),
		Inputs: inputRefs(call.Args),
	})

	out, err := call.Run()
	if err != nil {
		t.invoke(tracing.HookPosOpEnd, tracing.OpEnd{
			ID:   id,
			Name: call.Name,
			Err:  err,
		})

		return out, err
	}

	out, outputs := attachProvenance(id, out)

	t.invoke(tracing.HookPosOpEnd, tracing.OpEnd{
		ID:      id,
		Name:    call.Name,
		Outputs: outputs,
	})

	return out, nil
}

// ForwardCall runs the trace function and fires an OpForward event if it
// succeeds.
func (t *HookCallTracer) ForwardCall(
	call OperatorCall,
	fn TraceFunction,
) (any, error) {
	out, err := fn.Trace(call)
	if err != nil {
		return out, err
	}

	t.invoke(tracing.HookPosOpForward, tracing.OpForward{
		Name:      call.Name,
		Scope:     t.scopes.CurrentScope(),
		Forwarded: NormalizeResult(out).TracedCount(),
	})

	return out, nil
}

func (t *HookCallTracer) invoke(pos *hooking.HookPos, item any) {
	if t.domain.NumHooks() == 0 {
		return
	}

	t.domain.InvokeHook(hooking.HookCtx{
		Domain: t.domain,
		Pos:    pos,
		Item:   item,
	})
}

func inputRefs(args framework.Args) []tracing.InputRef {
	var refs []tracing.InputRef

	for i, v := range args.Flatten() {
		meta, ok := tensor.MetaOf(v)
		if !ok || meta == nil {
			continue
		}

		refs = append(refs, tracing.InputRef{
			Position:  i,
			CreatorID: meta.CreatorID,
			Index:     meta.Index,
			Shape:     append([]int(nil), meta.Shape...),
		})
	}

	return refs
}

func attachProvenance(id string, out any) (any, []tracing.OutputRef) {
	result := NormalizeResult(out)
	outputs := make([]tracing.OutputRef, 0, len(result.Items))

	for i, item := range result.Items {
		if !tensor.IsTensor(item) {
			continue
		}

		t := item.(tensor.Tensor)
		shape := append([]int(nil), t.Shape()...)

		result.Items[i] = tensor.Wrap(t, &tensor.TensorMeta{
			CreatorID: id,
			Index:     i,
			Shape:     shape,
		})
		outputs = append(outputs, tracing.OutputRef{Index: i, Shape: shape})
	}

	return result.Value(), outputs
}
