package nn_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/framework/ops"
	"github.com/sarchlab/optrace/instrumentation/tracing"
	"github.com/sarchlab/optrace/metatypes"
	"github.com/sarchlab/optrace/nn"
	"github.com/sarchlab/optrace/patching"
	"github.com/sarchlab/optrace/tensor"
)

var _ = Describe("MLP", func() {
	var (
		fw  *framework.Framework
		mlp *nn.Sequential
		x   *tensor.Dense
	)

	BeforeEach(func() {
		fw = framework.New()
		ops.Install(fw)
		mlp = nn.NewMLP(3, 4, 2)
		x = tensor.NewDense([]int{2, 3}, []float64{1, 2, 3, 4, 5, 6})
	})

	It("should produce probabilities", func() {
		out, err := fw.CallModule(mlp, x)

		Expect(err).NotTo(HaveOccurred())
		d, ok := tensor.AsDense(out)
		Expect(ok).To(BeTrue())
		Expect(d.Shape()).To(Equal([]int{2, 2}))
		Expect(d.Data()[0] + d.Data()[1]).To(BeNumerically("~", 1.0, 1e-9))
	})

	It("should compute the same output when traced", func() {
		plain, err := fw.CallModule(mlp, x)
		Expect(err).NotTo(HaveOccurred())

		s := patching.MakeBuilder().
			WithFramework(fw).
			WithMetatypes(metatypes.Default()).
			Build()
		graph := tracing.NewGraphTracer()
		tracing.CollectTrace(s, graph)
		Expect(s.PatchAll()).To(Succeed())
		defer s.Close()

		traced, err := fw.CallModule(&nn.DataParallel{Module: mlp}, x)

		Expect(err).NotTo(HaveOccurred())
		Expect(tensor.IsTraced(traced)).To(BeTrue())
		d, _ := tensor.AsDense(traced)
		Expect(d.Data()).To(Equal(plain.(*tensor.Dense).Data()))

		Expect(graph.NodeNames()).To(Equal([]string{
			"linear", "relu", "linear", "relu", "add", "linear", "softmax",
		}))

		nodes := graph.Nodes()
		Expect(nodes[0].Scope).To(Equal("Sequential/Linear"))
		Expect(nodes[2].Scope).To(Equal("Sequential/Residual/Sequential/Linear"))
		Expect(nodes[4].Scope).To(Equal("Sequential/Residual"))
	})

	It("should name the failing layer", func() {
		_, err := fw.CallModule(mlp, tensor.Zeros(2, 5))

		Expect(err).To(MatchError(ContainSubstring("layer 0 (Linear)")))
	})
})
