// Package patching intercepts the operators of a framework.
//
// A Session replaces the entries of the framework's namespaces with wrappers.
// Each wrapper reports the call through hooks, runs the original operator, and
// attaches provenance to the tensors it returns. Operators that should not
// become graph nodes are wrapped with a TraceFunction such as
// ForwardTraceOnly, which only passes the provenance of the inputs on to the
// outputs.
//
// Patching is reversible. Every replaced entry is recorded in a Registry, and
// UnpatchAll puts the recorded originals back. The JIT entry point is wrapped
// so that compilation always sees the original operators.
package patching
