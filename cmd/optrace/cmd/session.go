package cmd

import (
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/framework/ops"
	"github.com/sarchlab/optrace/idgen"
	"github.com/sarchlab/optrace/patching"
)

// newReferenceSession creates the reference framework and a session that
// patches it.
func newReferenceSession(
	logger *zap.Logger,
	ids idgen.Generator,
) (*framework.Framework, *patching.Session, error) {
	list, err := loadMetatypes()
	if err != nil {
		return nil, nil, err
	}

	fw := framework.New()
	ops.Install(fw)

	s := patching.MakeBuilder().
		WithFramework(fw).
		WithMetatypes(list).
		WithLogger(logger).
		WithIDGenerator(ids).
		Build()

	return fw, s, nil
}
