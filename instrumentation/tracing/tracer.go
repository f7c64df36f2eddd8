package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/optrace/instrumentation/hooking"
)

// A Tracer can collect operator call traces.
type Tracer interface {
	StartOp(op OpStart)
	EndOp(op OpEnd)
	ForwardOp(op OpForward)
}

// CollectTrace lets the tracer collect the traces raised by a domain.
func CollectTrace(domain hooking.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf(
				"domain already has tracer %s", reflect.TypeOf(tracer)))
		}
	}

	h := traceHook{t: tracer}
	domain.AcceptHook(&h)
}

// A traceHook is a hook that forwards operator events to a tracer.
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered.
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosOpStart:
		h.t.StartOp(ctx.Item.(OpStart))
	case HookPosOpEnd:
		h.t.EndOp(ctx.Item.(OpEnd))
	case HookPosOpForward:
		h.t.ForwardOp(ctx.Item.(OpForward))
	}
}
