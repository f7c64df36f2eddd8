// Package monitoring serves the state of a patching session over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"

	"github.com/sarchlab/optrace/framework"
	"github.com/sarchlab/optrace/idgen"
	"github.com/sarchlab/optrace/instrumentation/tracing"
	"github.com/sarchlab/optrace/monitoring/web"
	"github.com/sarchlab/optrace/patching"
)

// Monitor turns a patching session into a server that reports which
// operators are patched and what has been traced.
type Monitor struct {
	session    *patching.Session
	graph      *tracing.GraphTracer
	portNumber int
	logger     *zap.Logger

	metrics  *OpMetrics
	registry *prometheus.Registry
	ids      idgen.Generator

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server *http.Server
	url    string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	m := &Monitor{
		logger:   zap.NewNop(),
		metrics:  NewOpMetrics(),
		registry: prometheus.NewRegistry(),
		ids:      idgen.NewWithPrefix("bar-"),
	}

	err := m.metrics.Register(m.registry)
	if err != nil {
		panic(err)
	}

	return m
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("port number is not allowed, using a random port",
			zap.Int("port", portNumber))
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(logger *zap.Logger) *Monitor {
	m.logger = logger
	return m
}

// RegisterSession registers the session to monitor. The monitor counts the
// operator calls of the session.
func (m *Monitor) RegisterSession(s *patching.Session) {
	m.session = s
	tracing.CollectTrace(s, m.metrics)
}

// RegisterGraph registers the graph to serve.
func (m *Monitor) RegisterGraph(g *tracing.GraphTracer) {
	m.graph = g
}

// Metrics returns the operator call metrics.
func (m *Monitor) Metrics() *OpMetrics {
	return m.metrics
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/session", m.reportSession)
	r.HandleFunc("/api/registry", m.listRecords)
	r.HandleFunc("/api/missing", m.listMissing)
	r.HandleFunc("/api/namespace/{name}", m.listNamespace)
	r.HandleFunc("/api/graph", m.reportGraph)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring operators with %s\n", m.url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitoring server stopped", zap.Error(err))
		}
	}()

	return m.url, nil
}

// OpenInBrowser opens the page of a started server.
func (m *Monitor) OpenInBrowser() error {
	if m.url == "" {
		return errors.New("monitoring server is not started")
	}

	return browser.OpenURL(m.url)
}

// Shutdown stops the server.
func (m *Monitor) Shutdown(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.logger.Error("cannot write response", zap.Error(err))
	}
}

func (m *Monitor) fail(w http.ResponseWriter, status int, err error) {
	m.logger.Debug("monitoring request failed",
		zap.Int("status", status), zap.Error(err))
	http.Error(w, err.Error(), status)
}

func (m *Monitor) sessionOr404(w http.ResponseWriter) *patching.Session {
	if m.session == nil {
		m.fail(w, http.StatusNotFound, errors.New("no session registered"))
	}

	return m.session
}

type sessionRsp struct {
	Patched       bool     `json:"patched"`
	JITWrapped    bool     `json:"jit_wrapped"`
	NumRecords    int      `json:"num_records"`
	NumMissing    int      `json:"num_missing"`
	IgnoredScopes []string `json:"ignored_scopes"`
}

func (m *Monitor) reportSession(w http.ResponseWriter, _ *http.Request) {
	s := m.sessionOr404(w)
	if s == nil {
		return
	}

	m.writeJSON(w, sessionRsp{
		Patched:       s.IsPatched(),
		JITWrapped:    s.JITWrapped(),
		NumRecords:    s.Registry().Len(),
		NumMissing:    len(s.Registry().Missing()),
		IgnoredScopes: s.Scopes().IgnoredScopes(),
	})
}

type recordRsp struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Original  string `json:"original"`
}

func (m *Monitor) listRecords(w http.ResponseWriter, _ *http.Request) {
	s := m.sessionOr404(w)
	if s == nil {
		return
	}

	rsp := make([]recordRsp, 0, s.Registry().Len())
	for _, rec := range s.Registry().Records() {
		rsp = append(rsp, recordRsp{
			Namespace: rec.Namespace.Name(),
			Name:      rec.Name,
			Original:  fmt.Sprint(rec.Op),
		})
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) listMissing(w http.ResponseWriter, _ *http.Request) {
	s := m.sessionOr404(w)
	if s == nil {
		return
	}

	rsp := make([]string, 0)
	for _, missing := range s.Registry().Missing() {
		rsp = append(rsp, missing.Namespace+"."+missing.Name)
	}

	m.writeJSON(w, rsp)
}

// namespaceView is the serialized form of a namespace.
type namespaceView struct {
	Name    string
	Entries []entryView
}

type entryView struct {
	Name    string
	Wrapped bool
	Impl    string
}

func viewNamespace(ns *framework.Namespace) *namespaceView {
	v := &namespaceView{Name: ns.Name()}

	for _, name := range ns.Names() {
		c, _ := ns.GetAttr(name)
		v.Entries = append(v.Entries, entryView{
			Name:    name,
			Wrapped: framework.IsWrapped(c),
			Impl:    fmt.Sprintf("%T", c),
		})
	}

	return v
}

// listNamespace serializes a namespace. The field query parameter selects a
// part of it, such as "Entries.0".
func (m *Monitor) listNamespace(w http.ResponseWriter, r *http.Request) {
	s := m.sessionOr404(w)
	if s == nil {
		return
	}

	name := mux.Vars(r)["name"]

	ns, ok := s.Framework().NamespaceByName(name)
	if !ok {
		m.fail(w, http.StatusNotFound,
			fmt.Errorf("namespace %s not found", name))
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(viewNamespace(ns))
	serializer.SetMaxDepth(3)

	field := r.URL.Query().Get("field")
	if field != "" {
		err := serializer.SetEntryPoint(strings.Split(field, "."))
		if err != nil {
			m.fail(w, http.StatusBadRequest, err)
			return
		}
	}

	buf := bytes.NewBuffer(nil)

	err := serializer.Serialize(buf)
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(buf.Bytes())
	if err != nil {
		m.logger.Error("cannot write response", zap.Error(err))
	}
}

type graphRsp struct {
	Nodes    []tracing.Node      `json:"nodes"`
	Edges    []tracing.Edge      `json:"edges"`
	Forwards []tracing.OpForward `json:"forwards"`
}

func (m *Monitor) reportGraph(w http.ResponseWriter, _ *http.Request) {
	if m.graph == nil {
		m.fail(w, http.StatusNotFound, errors.New("no graph registered"))
		return
	}

	m.writeJSON(w, graphRsp{
		Nodes:    m.graph.Nodes(),
		Edges:    m.graph.Edges(),
		Forwards: m.graph.Forwards(),
	})
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	views := make([]progressView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		views = append(views, b.view())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, views)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

// collectProfile samples the CPU for a number of seconds given by the
// seconds query parameter, one by default.
func (m *Monitor) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second

	if s := r.URL.Query().Get("seconds"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			m.fail(w, http.StatusBadRequest,
				fmt.Errorf("invalid seconds %q", s))
			return
		}

		duration = time.Duration(n) * time.Second
	}

	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		m.fail(w, http.StatusConflict, err)
		return
	}

	time.Sleep(duration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		m.fail(w, http.StatusInternalServerError, err)
		return
	}

	m.writeJSON(w, prof)
}
