package tracing

import (
	"bytes"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JSONTracer", func() {
	var (
		buf *bytes.Buffer
		t   *JSONTracer
	)

	BeforeEach(func() {
		buf = new(bytes.Buffer)
		t = NewJSONTracer(buf)
	})

	decode := func() []map[string]any {
		var entries []map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &entries)).To(Succeed())

		return entries
	}

	It("should write an empty array", func() {
		Expect(t.Close()).To(Succeed())
		Expect(decode()).To(BeEmpty())
	})

	It("should write calls in the order they end", func() {
		t.StartOp(OpStart{ID: "1", Name: "linear", Scope: "Net"})
		t.StartOp(OpStart{
			ID:     "2",
			Name:   "relu",
			Inputs: []InputRef{{Position: 0, CreatorID: "0", Index: 1}},
		})
		t.EndOp(OpEnd{ID: "2", Outputs: []OutputRef{{Index: 0}}})
		t.EndOp(OpEnd{ID: "1", Err: errors.New("boom")})
		t.ForwardOp(OpForward{Name: "view", Forwarded: 1})
		Expect(t.Close()).To(Succeed())

		entries := decode()
		Expect(entries).To(HaveLen(3))
		Expect(entries[0]["name"]).To(Equal("relu"))
		Expect(entries[0]["outputs"]).To(BeNumerically("==", 1))
		Expect(entries[0]["inputs"]).To(HaveLen(1))
		Expect(entries[1]["scope"]).To(Equal("Net"))
		Expect(entries[1]["error"]).To(Equal("boom"))
		Expect(entries[2]["kind"]).To(Equal("forward"))
	})

	It("should drop unfinished calls and ignore events after close", func() {
		t.StartOp(OpStart{ID: "1", Name: "linear"})
		Expect(t.Close()).To(Succeed())

		t.EndOp(OpEnd{ID: "1"})
		t.ForwardOp(OpForward{Name: "view"})
		Expect(t.Close()).To(Succeed())

		Expect(decode()).To(BeEmpty())
	})
})
