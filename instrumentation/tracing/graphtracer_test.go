package tracing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/optrace/instrumentation/hooking"
)

var _ = Describe("GraphTracer", func() {
	var (
		t *GraphTracer
	)

	BeforeEach(func() {
		t = NewGraphTracer()
	})

	It("should record nodes in call order", func() {
		t.StartOp(OpStart{ID: "1", Name: "linear"})
		t.EndOp(OpEnd{ID: "1", Name: "linear", Outputs: []OutputRef{{Index: 0}}})
		t.StartOp(OpStart{ID: "2", Name: "relu"})

		Expect(t.NodeNames()).To(Equal([]string{"linear", "relu"}))

		n, ok := t.Node("1")
		Expect(ok).To(BeTrue())
		Expect(n.Done).To(BeTrue())
		Expect(n.NumOutputs).To(Equal(1))

		n, _ = t.Node("2")
		Expect(n.Done).To(BeFalse())
		Expect(n.Order).To(Equal(1))
	})

	It("should connect inputs to their creators", func() {
		t.StartOp(OpStart{ID: "1", Name: "split"})
		t.StartOp(OpStart{
			ID:   "2",
			Name: "add",
			Inputs: []InputRef{
				{Position: 0, CreatorID: "1", Index: 1},
				{Position: 1, CreatorID: "1", Index: 0},
			},
		})

		Expect(t.Edges()).To(ConsistOf(
			Edge{From: "1", OutputIndex: 1, To: "2", InputPosition: 0},
			Edge{From: "1", OutputIndex: 0, To: "2", InputPosition: 1},
		))
	})

	It("should remember failures", func() {
		t.StartOp(OpStart{ID: "1", Name: "add"})
		t.EndOp(OpEnd{ID: "1", Err: errors.New("shape mismatch")})

		n, _ := t.Node("1")
		Expect(n.Err).To(Equal("shape mismatch"))
	})

	It("should not create nodes for forwards", func() {
		t.ForwardOp(OpForward{Name: "__repr__", Forwarded: 1})

		Expect(t.Nodes()).To(BeEmpty())
		Expect(t.Forwards()).To(HaveLen(1))
	})

	It("should reset", func() {
		t.StartOp(OpStart{ID: "1", Name: "add"})
		t.Reset()

		Expect(t.Nodes()).To(BeEmpty())
		_, ok := t.Node("1")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("CollectTrace", func() {
	It("should route events to the tracer", func() {
		domain := hooking.NewHookableBase()
		t := NewGraphTracer()

		CollectTrace(domain, t)
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    HookPosOpStart,
			Item:   OpStart{ID: "1", Name: "relu"},
		})
		domain.InvokeHook(hooking.HookCtx{
			Domain: domain,
			Pos:    HookPosOpForward,
			Item:   OpForward{Name: "view"},
		})

		Expect(t.NodeNames()).To(Equal([]string{"relu"}))
		Expect(t.Forwards()).To(HaveLen(1))
	})

	It("should refuse the same tracer twice", func() {
		domain := hooking.NewHookableBase()
		t := NewGraphTracer()

		CollectTrace(domain, t)

		Expect(func() { CollectTrace(domain, t) }).To(Panic())
	})
})
