package patching

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sarchlab/optrace/framework"
)

// OriginalOpInfo records the operator a namespace entry held before it was
// patched.
type OriginalOpInfo struct {
	Name      string
	Namespace *framework.Namespace
	Op        framework.Callable
}

// Registry patches namespace entries and remembers the originals so that the
// patches can be undone. The records can be read while patches are applied.
type Registry struct {
	tracer CallTracer
	logger *zap.Logger

	mu      sync.RWMutex
	records []OriginalOpInfo
	missing []MissingOperatorWarning
}

// NewRegistry creates an empty registry. Wrappers it installs trace through
// the given tracer.
func NewRegistry(tracer CallTracer, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		tracer: tracer,
		logger: logger,
	}
}

// PatchNamespaceOpName replaces one entry of a namespace with a wrapper. If
// the namespace does not define the name, a warning is logged and nothing
// changes.
func (r *Registry) PatchNamespaceOpName(
	ns *framework.Namespace,
	info PatchedOperatorInfo,
) error {
	original, ok := ns.GetAttr(info.Name)
	if !ok {
		w := MissingOperatorWarning{Namespace: ns.Name(), Name: info.Name}
		r.rememberMissing(w)
		r.logger.Warn(w.String(),
			zap.String("namespace", ns.Name()),
			zap.String("operator", info.Name))

		return nil
	}

	err := ns.SetAttr(info.Name, WrapOperator(original, info, r.tracer))
	if err != nil {
		return err
	}

	r.Record(info.Name, ns, original)

	return nil
}

// PatchNamespaceByPatchSpec patches every function of a spec.
func (r *Registry) PatchNamespaceByPatchSpec(
	ns *framework.Namespace,
	spec *PatchSpec,
) error {
	for _, name := range spec.FunctionNames {
		err := r.PatchNamespaceOpName(ns, PatchedOperatorInfo{
			Name:        name,
			CustomTrace: spec.CustomTrace,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Record remembers an original operator for entries replaced by other means.
func (r *Registry) Record(
	name string,
	ns *framework.Namespace,
	op framework.Callable,
) {
	r.mu.Lock()
	r.records = append(r.records, OriginalOpInfo{
		Name:      name,
		Namespace: ns,
		Op:        op,
	})
	r.mu.Unlock()

	r.logger.Debug("patched operator",
		zap.String("namespace", ns.Name()),
		zap.String("operator", name))
}

// UnpatchAll puts every recorded original back, in the order the patches were
// applied, and forgets the records. If a name was patched twice, the name ends
// up holding the operator that the second patch replaced. Records that cannot
// be restored are kept and the first error is returned.
func (r *Registry) UnpatchAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		firstErr error
		failed   []OriginalOpInfo
	)

	for _, rec := range r.records {
		err := rec.Namespace.SetAttr(rec.Name, rec.Op)
		if err != nil {
			failed = append(failed, rec)

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	r.records = failed

	return firstErr
}

func (r *Registry) rememberMissing(w MissingOperatorWarning) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.missing {
		if m == w {
			return
		}
	}

	r.missing = append(r.missing, w)
}

// Records returns the recorded originals in patch order.
func (r *Registry) Records() []OriginalOpInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]OriginalOpInfo(nil), r.records...)
}

// Len returns the number of recorded originals.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.records)
}

// Missing returns the operators that were skipped since the framework does
// not define them.
func (r *Registry) Missing() []MissingOperatorWarning {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]MissingOperatorWarning(nil), r.missing...)
}
