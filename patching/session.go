package patching

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/instrumentation/hooking"
	"github.com/sarchlab/optrace/scope"
)

// A Session owns the patches applied to one framework.
//
// The hooks of the session fire for every traced operator call. Register
// tracers with tracing.CollectTrace before calling PatchAll.
//
// A Session is not safe for concurrent use. PatchAll, UnpatchAll, Close, and
// the compilation entry point the session installs must not run at the same
// time, and calls of the patched operators must not overlap with them. The
// state accessors and the registry may be read from other goroutines.
type Session struct {
	*hooking.HookableBase

	fw             *framework.Framework
	metatypes      MetatypeRegistry
	registry       *Registry
	tracer         CallTracer
	scopes         *scope.Tracker
	ignoredModules []string
	logger         *zap.Logger

	jitAlreadyWrapped       atomic.Bool
	operatorsAlreadyWrapped atomic.Bool
	origJITScript           framework.Callable
}

// Framework returns the framework the session patches.
func (s *Session) Framework() *framework.Framework {
	return s.fw
}

// Registry returns the record of the applied patches.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Scopes returns the tracker of module scopes.
func (s *Session) Scopes() *scope.Tracker {
	return s.scopes
}

// IsPatched reports whether the operators are currently patched.
func (s *Session) IsPatched() bool {
	return s.operatorsAlreadyWrapped.Load()
}

// JITWrapped reports whether the compilation entry point has been wrapped.
func (s *Session) JITWrapped() bool {
	return s.jitAlreadyWrapped.Load()
}

// PatchAll patches every operator of the metatype registry, the tensor
// representation method, and the module invocation entry point. The
// compilation entry point is wrapped on the first call. Calling PatchAll on a
// patched session does nothing.
//
// If an error stops the patching halfway, the session still counts as
// patched. Call UnpatchAll to undo what was applied.
func (s *Session) PatchAll() error {
	if !s.jitAlreadyWrapped.Load() {
		err := s.patchJITScript()
		if err != nil {
			return err
		}

		s.jitAlreadyWrapped.Store(true)
	}

	if s.operatorsAlreadyWrapped.Load() {
		return nil
	}

	s.operatorsAlreadyWrapped.Store(true)

	for _, mt := range s.metatypes.Metatypes() {
		err := s.patchMetatype(mt)
		if err != nil {
			return err
		}
	}

	err := s.registry.PatchNamespaceOpName(s.fw.Tensor, PatchedOperatorInfo{
		Name:        framework.ReprName,
		CustomTrace: ForwardTraceOnly{},
	})
	if err != nil {
		return err
	}

	err = s.patchModuleCall()
	if err != nil {
		return err
	}

	for _, name := range s.ignoredModules {
		s.scopes.IgnoreScope(name)
	}

	s.logger.Debug("operators patched",
		zap.Int("num_patched", s.registry.Len()),
		zap.Int("num_missing", len(s.registry.Missing())))

	return nil
}

func (s *Session) patchMetatype(mt OperatorMetatype) error {
	targets := []struct {
		ns   *framework.Namespace
		spec *PatchSpec
	}{
		{s.fw.Functional, mt.FunctionalPatchSpec},
		{s.fw.Top, mt.ModulePatchSpec},
		{s.fw.Tensor, mt.TensorPatchSpec},
	}

	for _, t := range targets {
		if t.spec == nil {
			continue
		}

		err := s.registry.PatchNamespaceByPatchSpec(t.ns, t.spec)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Session) patchModuleCall() error {
	original, ok := s.fw.Module.GetAttr(framework.ModuleCallName)
	if !ok {
		s.logger.Warn("module invocation entry point is missing",
			zap.String("namespace", s.fw.Module.Name()))
		return nil
	}

	err := s.fw.Module.SetAttr(framework.ModuleCallName,
		s.scopes.WrapModuleCall(original))
	if err != nil {
		return err
	}

	s.registry.Record(framework.ModuleCallName, s.fw.Module, original)

	return nil
}

// UnpatchAll restores the original operators. Calling UnpatchAll on an
// unpatched session does nothing.
//
// If an operator cannot be restored, the session stays patched and keeps the
// records of the operators still wrapped. PatchAll does nothing until a later
// UnpatchAll restores them.
func (s *Session) UnpatchAll() error {
	if !s.operatorsAlreadyWrapped.Load() {
		return nil
	}

	err := s.registry.UnpatchAll()
	if err != nil {
		return err
	}

	s.operatorsAlreadyWrapped.Store(false)

	s.logger.Debug("operators unpatched")

	return nil
}

// Close restores the original operators and the original compilation entry
// point. The session can be patched again afterwards.
func (s *Session) Close() error {
	err := s.UnpatchAll()
	if err != nil {
		return err
	}

	if !s.jitAlreadyWrapped.Load() || s.origJITScript == nil {
		s.jitAlreadyWrapped.Store(false)
		return nil
	}

	err = s.fw.JIT.SetAttr(framework.ScriptName, s.origJITScript)
	if err != nil {
		return err
	}

	s.jitAlreadyWrapped.Store(false)
	s.origJITScript = nil

	return nil
}

// RegisterOperator wraps a user-defined operator so that its calls are traced
// like those of the framework's operators.
func (s *Session) RegisterOperator(
	name string,
	op framework.Callable,
) *Wrapper {
	return WrapOperator(op, PatchedOperatorInfo{Name: name}, s.tracer)
}
