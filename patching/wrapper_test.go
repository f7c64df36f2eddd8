package patching

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/idgen"
	"github.com/sarchlab/optrace/instrumentation/hooking"
	"github.com/sarchlab/optrace/instrumentation/tracing"
	"github.com/sarchlab/optrace/tensor"
)

var _ = Describe("Wrapper", func() {
	var (
		mockCtrl *gomock.Controller
		tracer   *MockCallTracer
		original *framework.Func
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		tracer = NewMockCallTracer(mockCtrl)
		original = framework.NewFunc("relu", func(args framework.Args) (any, error) {
			return args.Arg(0), nil
		})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should run the standard trace step", func() {
		w := WrapOperator(original, PatchedOperatorInfo{Name: "relu"}, tracer)
		args := framework.Call(1)

		tracer.EXPECT().
			TraceCall(gomock.Any()).
			DoAndReturn(func(call OperatorCall) (any, error) {
				Expect(call.Name).To(Equal("relu"))
				Expect(call.Operator).To(BeIdenticalTo(original))
				Expect(call.Args).To(Equal(args))

				return 2, nil
			})

		out, err := w.Call(args)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(2))
	})

	It("should delegate to the custom trace function", func() {
		fn := NewMockTraceFunction(mockCtrl)
		info := PatchedOperatorInfo{Name: "view", CustomTrace: fn}
		w := WrapOperator(original, info, tracer)

		tracer.EXPECT().
			ForwardCall(gomock.Any(), fn).
			Return(3, nil)

		out, err := w.Call(framework.Call(1))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(3))
		Expect(w.Info().CustomTrace).To(BeIdenticalTo(fn))
	})

	It("should unwrap to the original", func() {
		w := WrapOperator(original, PatchedOperatorInfo{Name: "relu"}, tracer)

		Expect(w.Unwrap()).To(BeIdenticalTo(original))
		Expect(framework.IsWrapped(w)).To(BeTrue())
	})

	It("should run the operator without a tracer", func() {
		w := WrapOperator(original, PatchedOperatorInfo{Name: "relu"}, nil)

		out, err := w.Call(framework.Call(5))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(5))
	})

	It("should run the custom trace function without a tracer", func() {
		fn := NewMockTraceFunction(mockCtrl)
		info := PatchedOperatorInfo{Name: "view", CustomTrace: fn}
		w := WrapOperator(original, info, nil)

		fn.EXPECT().Trace(gomock.Any()).Return(7, nil)

		out, err := w.Call(framework.Call(5))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(7))
	})
})

var _ = Describe("HookCallTracer", func() {
	var (
		domain *hooking.HookableBase
		graph  *tracing.GraphTracer
		tracer *HookCallTracer
		split  framework.Callable
	)

	BeforeEach(func() {
		domain = hooking.NewHookableBase()
		graph = tracing.NewGraphTracer()
		tracing.CollectTrace(domain, graph)
		tracer = NewHookCallTracer(domain, idgen.NewWithPrefix("op"), nil)

		split = framework.NewFunc("split", func(args framework.Args) (any, error) {
			return framework.Tuple{tensor.Zeros(1), "meta", tensor.Zeros(2)}, nil
		})
	})

	It("should attach fresh provenance to tensor outputs", func() {
		out, err := tracer.TraceCall(OperatorCall{
			Name:     "split",
			Operator: split,
			Args:     framework.Call(tensor.Zeros(3)),
		})

		Expect(err).NotTo(HaveOccurred())
		items := out.(framework.Tuple)
		Expect(metaOf(items[0])).To(Equal(&tensor.TensorMeta{
			CreatorID: "op1", Index: 0, Shape: []int{1}}))
		Expect(items[1]).To(Equal("meta"))
		Expect(metaOf(items[2])).To(Equal(&tensor.TensorMeta{
			CreatorID: "op1", Index: 2, Shape: []int{2}}))

		node, ok := graph.Node("op1")
		Expect(ok).To(BeTrue())
		Expect(node.Done).To(BeTrue())
		Expect(node.NumOutputs).To(Equal(2))
	})

	It("should link calls through the provenance of their inputs", func() {
		out, _ := tracer.TraceCall(OperatorCall{
			Name:     "split",
			Operator: split,
			Args:     framework.Call(tensor.Zeros(3)),
		})
		items := out.(framework.Tuple)

		_, err := tracer.TraceCall(OperatorCall{
			Name:     "split",
			Operator: split,
			Args:     framework.Call(items[2], items[0]),
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(graph.Edges()).To(ConsistOf(
			tracing.Edge{
				From: "op1", OutputIndex: 2, To: "op2",
				InputPosition: 0, Shape: []int{2},
			},
			tracing.Edge{
				From: "op1", OutputIndex: 0, To: "op2",
				InputPosition: 1, Shape: []int{1},
			},
		))
	})

	It("should report failures", func() {
		failing := framework.NewFunc("add", func(framework.Args) (any, error) {
			return nil, errors.New("shape mismatch")
		})

		_, err := tracer.TraceCall(OperatorCall{
			Name:     "add",
			Operator: failing,
		})

		Expect(err).To(MatchError("shape mismatch"))
		node, _ := graph.Node("op1")
		Expect(node.Err).To(Equal("shape mismatch"))
	})

	It("should report forwards without creating nodes", func() {
		view := framework.NewFunc("view", func(args framework.Args) (any, error) {
			return tensor.Zeros(4), nil
		})

		out, err := tracer.ForwardCall(OperatorCall{
			Name:     "view",
			Operator: view,
			Args:     framework.Call(traced("x", 0, 2, 2)),
		}, ForwardTraceOnly{})

		Expect(err).NotTo(HaveOccurred())
		Expect(metaOf(out).CreatorID).To(Equal("x"))
		Expect(graph.Nodes()).To(BeEmpty())
		Expect(graph.Forwards()).To(Equal([]tracing.OpForward{
			{Name: "view", Forwarded: 1},
		}))
	})
})
