// Package tracing defines the events fired when an intercepted operator runs
// and the tracers that consume them.
//
// # Hook Positions
//
//   - HookPosOpStart: an operator call is about to execute. Item is OpStart.
//   - HookPosOpEnd: the call returned. Item is OpEnd.
//   - HookPosOpForward: a trace-forward-only operator passed provenance from
//     its inputs to its outputs without creating a node. Item is OpForward.
//
// # Tracers
//
// A Tracer receives the events of a hookable domain once attached with
// CollectTrace:
//
//	g := tracing.NewGraphTracer()
//	tracing.CollectTrace(session, g)
//
// GraphTracer keeps the call order and the producer/consumer edges in memory,
// BackTraceTracer remembers which calls are still running, and DBTracer
// stores calls and edges through a datarecording.DataRecorder.
package tracing
