package tracing

import (
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/instrumentation/hooking"
)

// LogOps logs every operator event raised by the domain at debug level.
// Failed calls are logged at warn level.
func LogOps(domain hooking.Hookable, logger *zap.Logger) {
	domain.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
		switch item := ctx.Item.(type) {
		case OpStart:
			logger.Debug("op start",
				zap.String("id", item.ID),
				zap.String("op", item.Name),
				zap.String("scope", item.Scope),
				zap.Int("num_inputs", len(item.Inputs)))
		case OpEnd:
			if item.Err != nil {
				logger.Warn("op failed",
					zap.String("id", item.ID),
					zap.String("op", item.Name),
					zap.Error(item.Err))

				return
			}

			logger.Debug("op end",
				zap.String("id", item.ID),
				zap.String("op", item.Name),
				zap.Int("num_outputs", len(item.Outputs)))
		case OpForward:
			logger.Debug("op forward",
				zap.String("op", item.Name),
				zap.String("scope", item.Scope),
				zap.Int("forwarded", item.Forwarded))
		}
	}))
}
