package patching

import (
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/framework"
)

// JITShim replaces the compilation entry point. Compiled code cannot run
// patched operators, so the shim unpatches the session for the duration of
// the compilation.
//
// The shim is not reentrant. A compilation that compiles again from inside
// the original entry point repatches the session too early.
type JITShim struct {
	session  *Session
	original framework.Callable
}

func (s *Session) patchJITScript() error {
	original, ok := s.fw.JIT.GetAttr(framework.ScriptName)
	if !ok {
		s.logger.Warn("not wrapping the compilation entry point, "+
			"missing in this framework version",
			zap.String("namespace", s.fw.JIT.Name()),
			zap.String("operator", framework.ScriptName))
		return nil
	}

	err := s.fw.JIT.SetAttr(framework.ScriptName,
		&JITShim{session: s, original: original})
	if err != nil {
		return err
	}

	s.origJITScript = original

	return nil
}

// Call runs the original entry point with the operators unpatched. If the
// session was patched, it is patched again afterwards, even if the
// compilation fails. A session that was not patched when Call started is
// left unpatched; Call never patches it on its own.
//
// If the operators cannot be unpatched, the compilation does not run and the
// error is returned. The session then stays patched as UnpatchAll describes.
func (j *JITShim) Call(args framework.Args) (out any, err error) {
	wasPatched := j.session.IsPatched()

	err = j.session.UnpatchAll()
	if err != nil {
		return nil, err
	}

	if wasPatched {
		defer func() {
			perr := j.session.PatchAll()
			if err == nil && perr != nil {
				out, err = nil, perr
			}
		}()
	}

	return j.original.Call(args)
}

// Unwrap returns the original entry point.
func (j *JITShim) Unwrap() framework.Callable {
	return j.original
}
