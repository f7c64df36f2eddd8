package patching

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/tensor"
)

func traced(creator string, index int, shape ...int) *tensor.TracedTensor {
	return tensor.Wrap(tensor.Zeros(shape...), &tensor.TensorMeta{
		CreatorID: creator,
		Index:     index,
		Shape:     shape,
	})
}

func metaOf(v any) *tensor.TensorMeta {
	meta, ok := tensor.MetaOf(v)
	Expect(ok).To(BeTrue(), "value %v is not traced", v)

	return meta
}

var _ = Describe("ForwardTraceOnly", func() {
	var (
		calls int
	)

	BeforeEach(func() {
		calls = 0
	})

	returning := func(out any) framework.Callable {
		return framework.NewFunc("op", func(framework.Args) (any, error) {
			calls++
			return out, nil
		})
	}

	forward := func(op framework.Callable, args framework.Args) (any, error) {
		return ForwardTraceOnly{}.Trace(OperatorCall{
			Name:     "op",
			Operator: op,
			Args:     args,
		})
	}

	It("should broadcast a single traced input to every output", func() {
		op := returning(framework.Tuple{
			tensor.Zeros(1), tensor.Zeros(2), tensor.Zeros(3)})

		out, err := forward(op, framework.Call(traced("7", 2, 6), 1))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeAssignableToTypeOf(framework.Tuple{}))

		items := out.(framework.Tuple)
		Expect(items).To(HaveLen(3))
		for i, item := range items {
			meta := metaOf(item)
			Expect(meta.CreatorID).To(Equal("7"))
			Expect(meta.Index).To(Equal(2))
			Expect(meta.Shape).To(Equal([]int{i + 1}))
		}
		Expect(calls).To(Equal(1))
	})

	It("should copy the meta for every output", func() {
		op := returning([]any{tensor.Zeros(1), tensor.Zeros(1)})
		input := traced("7", 0, 2)

		out, err := forward(op, framework.Call(input))

		Expect(err).NotTo(HaveOccurred())
		items := out.([]any)
		Expect(metaOf(items[0])).NotTo(BeIdenticalTo(metaOf(items[1])))
		Expect(metaOf(items[0])).NotTo(BeIdenticalTo(input.Meta))
		Expect(input.Meta.Shape).To(Equal([]int{2}))
	})

	It("should forward pairwise in order", func() {
		op := returning([]any{tensor.Zeros(4), tensor.Zeros(5)})

		out, err := forward(op,
			framework.Call(traced("a", 0, 1)).
				WithKeyword("other", traced("b", 1, 1)))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeAssignableToTypeOf([]any{}))

		items := out.([]any)
		Expect(metaOf(items[0]).CreatorID).To(Equal("a"))
		Expect(metaOf(items[0]).Shape).To(Equal([]int{4}))
		Expect(metaOf(items[1]).CreatorID).To(Equal("b"))
		Expect(metaOf(items[1]).Index).To(Equal(1))
	})

	It("should find traced inputs inside lists", func() {
		op := returning([]any{tensor.Zeros(1), tensor.Zeros(1)})

		out, err := forward(op,
			framework.Call([]any{traced("a", 0, 1), traced("b", 0, 1)}))

		Expect(err).NotTo(HaveOccurred())
		items := out.([]any)
		Expect(metaOf(items[1]).CreatorID).To(Equal("b"))
	})

	It("should leave non-tensor items alone", func() {
		op := returning(framework.Tuple{tensor.Zeros(2), 3})

		out, err := forward(op, framework.Call(traced("a", 0, 1)))

		Expect(err).NotTo(HaveOccurred())
		items := out.(framework.Tuple)
		Expect(tensor.IsTraced(items[0])).To(BeTrue())
		Expect(items[1]).To(Equal(3))
	})

	It("should fail when the counts do not match", func() {
		op := returning([]any{
			tensor.Zeros(1), tensor.Zeros(1), tensor.Zeros(1)})

		_, err := forward(op,
			framework.Call(traced("a", 0, 1), traced("b", 0, 1)))

		Expect(errors.Is(err, ErrForwardingArity)).To(BeTrue())

		var arityErr *ForwardingArityError
		Expect(errors.As(err, &arityErr)).To(BeTrue())
		Expect(arityErr.Operator).To(Equal("op"))
		Expect(arityErr.Inputs).To(Equal(2))
		Expect(arityErr.Outputs).To(Equal(3))
		Expect(calls).To(Equal(1))
	})

	It("should fail on untraced inputs with tensor outputs", func() {
		op := returning([]any{tensor.Zeros(1)})

		_, err := forward(op, framework.Call(tensor.Zeros(1)))

		Expect(err).To(MatchError(ErrForwardingArity))
	})

	It("should wrap a single result", func() {
		op := returning(tensor.Zeros(2, 3))

		out, err := forward(op, framework.Call(traced("a", 1, 6)))

		Expect(err).NotTo(HaveOccurred())
		meta := metaOf(out)
		Expect(meta.CreatorID).To(Equal("a"))
		Expect(meta.Index).To(Equal(1))
		Expect(meta.Shape).To(Equal([]int{2, 3}))
	})

	It("should return a single result unchanged without traced inputs", func() {
		result := tensor.Zeros(2)
		op := returning(result)

		out, err := forward(op, framework.Call(tensor.Zeros(2)))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(BeIdenticalTo(result))
	})

	It("should refuse a single result with several traced inputs", func() {
		op := returning(tensor.Zeros(2))

		_, err := forward(op,
			framework.Call(traced("a", 0, 2), traced("b", 0, 2)))

		Expect(err).To(MatchError(ErrForwardingArity))
		Expect(calls).To(Equal(1))
	})

	It("should return non-tensor results unchanged", func() {
		op := returning("tensor(...)")

		out, err := forward(op, framework.Call(traced("a", 0, 2)))

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("tensor(...)"))
	})

	It("should pass operator errors through", func() {
		op := framework.NewFunc("op", func(framework.Args) (any, error) {
			return nil, errors.New("boom")
		})

		_, err := forward(op, framework.Call(traced("a", 0, 2)))

		Expect(err).To(MatchError("boom"))
	})
})

var _ = Describe("Result", func() {
	It("should keep tuples as tuples", func() {
		r := NormalizeResult(framework.Tuple{1, 2})

		Expect(r.Kind).To(Equal(ResultSequence))
		Expect(r.Value()).To(Equal(framework.Tuple{1, 2}))
	})

	It("should keep lists as lists", func() {
		r := NormalizeResult([]any{1})

		Expect(r.Tuple).To(BeFalse())
		Expect(r.Value()).To(Equal([]any{1}))
	})

	It("should not alias the original sequence", func() {
		original := []any{1, 2}
		r := NormalizeResult(original)
		r.Items[0] = 3

		Expect(original[0]).To(Equal(1))
	})

	It("should treat everything else as a scalar", func() {
		r := NormalizeResult(tensor.Zeros(1))

		Expect(r.Kind).To(Equal(ResultScalar))
		Expect(r.TensorIndices()).To(Equal([]int{0}))
	})
})
