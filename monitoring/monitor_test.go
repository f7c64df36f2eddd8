package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/framework/ops"
	"github.com/sarchlab/optrace/instrumentation/tracing"
	"github.com/sarchlab/optrace/patching"
	"github.com/sarchlab/optrace/tensor"
)

var _ = Describe("Monitor", func() {
	var (
		fw      *framework.Framework
		session *patching.Session
		graph   *tracing.GraphTracer
		m       *Monitor
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		m.Router().ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		fw = framework.New()
		ops.Install(fw)

		session = patching.MakeBuilder().
			WithFramework(fw).
			WithMetatypes(patching.MetatypeList{
				{
					Name:                "relu",
					FunctionalPatchSpec: &patching.PatchSpec{
						FunctionNames: []string{"relu", "gelu"},
					},
				},
			}).
			Build()

		graph = tracing.NewGraphTracer()
		tracing.CollectTrace(session, graph)

		m = NewMonitor()
		m.RegisterSession(session)
		m.RegisterGraph(graph)

		Expect(session.PatchAll()).To(Succeed())
	})

	AfterEach(func() {
		Expect(session.Close()).To(Succeed())
	})

	It("should report the session", func() {
		rec := get("/api/session")

		Expect(rec.Code).To(Equal(http.StatusOK))

		var rsp sessionRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Patched).To(BeTrue())
		Expect(rsp.JITWrapped).To(BeTrue())
		Expect(rsp.NumRecords).To(Equal(3))
		Expect(rsp.NumMissing).To(Equal(1))
	})

	It("should list the patched operators in order", func() {
		rec := get("/api/registry")

		var rsp []recordRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(3))
		Expect(rsp[0].Namespace).To(Equal("functional"))
		Expect(rsp[0].Name).To(Equal("relu"))
		Expect(rsp[0].Original).To(Equal("functional.relu"))
		Expect(rsp[2].Name).To(Equal(framework.ModuleCallName))
	})

	It("should list the missing operators", func() {
		rec := get("/api/missing")

		var rsp []string
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(Equal([]string{"functional.gelu"}))
	})

	It("should serialize a namespace", func() {
		rec := get("/api/namespace/functional")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("relu"))
	})

	It("should return 404 for unknown namespaces", func() {
		rec := get("/api/namespace/nope")

		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should serve the graph", func() {
		_, err := fw.Functional.Invoke("relu", tensor.Zeros(2))
		Expect(err).NotTo(HaveOccurred())

		rec := get("/api/graph")

		var rsp graphRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Nodes).To(HaveLen(1))
		Expect(rsp.Nodes[0].Name).To(Equal("relu"))
	})

	It("should count operator calls", func() {
		_, err := fw.Functional.Invoke("relu", tensor.Zeros(2))
		Expect(err).NotTo(HaveOccurred())
		_, err = fw.Functional.Invoke("relu", "not a tensor")
		Expect(err).To(HaveOccurred())
		_, err = fw.Repr(tensor.Zeros(1))
		Expect(err).NotTo(HaveOccurred())

		metrics := m.Metrics()
		Expect(testutil.ToFloat64(metrics.calls.WithLabelValues("relu"))).
			To(Equal(2.0))
		Expect(testutil.ToFloat64(metrics.failures.WithLabelValues("relu"))).
			To(Equal(1.0))
		Expect(testutil.ToFloat64(
			metrics.forwards.WithLabelValues(framework.ReprName))).
			To(Equal(1.0))
		Expect(testutil.ToFloat64(metrics.running)).To(Equal(0.0))

		rec := get("/metrics")
		Expect(rec.Body.String()).To(ContainSubstring("optrace_op_calls_total"))
	})

	It("should list progress bars", func() {
		bar := m.CreateProgressBar("forward", 10)
		bar.IncrementInProgress(2)
		bar.MoveInProgressToFinished(1)
		done := m.CreateProgressBar("done", 1)
		m.CompleteProgressBar(done)

		rec := get("/api/progress")

		var rsp []progressView
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp).To(HaveLen(1))
		Expect(rsp[0].Name).To(Equal("forward"))
		Expect(rsp[0].Finished).To(Equal(uint64(1)))
		Expect(rsp[0].InProgress).To(Equal(uint64(1)))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("optrace monitor"))
	})

	It("should refuse to open a browser before starting", func() {
		Expect(m.OpenInBrowser()).NotTo(Succeed())
	})
})
