package patching

import (
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/idgen"
	"github.com/sarchlab/optrace/instrumentation/hooking"
	"github.com/sarchlab/optrace/scope"
)

// DefaultScopeIgnoredModules are the container module types that do not show
// up in scopes.
var DefaultScopeIgnoredModules = []string{
	"DataParallel",
	"DistributedDataParallel",
}

// Builder can be used to build a Session.
type Builder struct {
	fw             *framework.Framework
	metatypes      MetatypeRegistry
	logger         *zap.Logger
	scopes         *scope.Tracker
	ignoredModules []string
	ids            idgen.Generator
	tracer         CallTracer
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		ignoredModules: DefaultScopeIgnoredModules,
	}
}

// WithFramework sets the framework to patch.
func (b Builder) WithFramework(fw *framework.Framework) Builder {
	b.fw = fw
	return b
}

// WithMetatypes sets the operators to patch.
func (b Builder) WithMetatypes(metatypes MetatypeRegistry) Builder {
	b.metatypes = metatypes
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger *zap.Logger) Builder {
	b.logger = logger
	return b
}

// WithScopeTracker sets the tracker that the module invocation entry point
// reports to.
func (b Builder) WithScopeTracker(t *scope.Tracker) Builder {
	b.scopes = t
	return b
}

// WithScopeIgnoredModules sets the container module types that do not show
// up in scopes.
func (b Builder) WithScopeIgnoredModules(typeNames ...string) Builder {
	b.ignoredModules = typeNames
	return b
}

// WithIDGenerator sets the generator of operator call IDs.
func (b Builder) WithIDGenerator(ids idgen.Generator) Builder {
	b.ids = ids
	return b
}

// WithCallTracer replaces the standard trace step. Hooks of the session do
// not fire unless the tracer fires them.
func (b Builder) WithCallTracer(tracer CallTracer) Builder {
	b.tracer = tracer
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.fw == nil {
		panic("framework is not set")
	}
}

// Build builds the session. Nothing is patched until PatchAll is called.
func (b Builder) Build() *Session {
	b.parametersMustBeValid()

	s := &Session{
		HookableBase:   hooking.NewHookableBase(),
		fw:             b.fw,
		metatypes:      b.metatypes,
		scopes:         b.scopes,
		ignoredModules: b.ignoredModules,
		logger:         b.logger,
	}

	if s.metatypes == nil {
		s.metatypes = MetatypeList(nil)
	}

	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	if s.scopes == nil {
		s.scopes = scope.NewTracker()
	}

	ids := b.ids
	if ids == nil {
		ids = idgen.New()
	}

	s.tracer = b.tracer
	if s.tracer == nil {
		s.tracer = NewHookCallTracer(s, ids, s.scopes)
	}

	s.registry = NewRegistry(s.tracer, s.logger)

	return s
}
