package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/optrace/datarecording"
)

// Names of the tables a DBTracer writes.
const (
	OpTableName      = "optrace_ops"
	EdgeTableName    = "optrace_edges"
	ForwardTableName = "optrace_forwards"
)

// OpRecord is a row of the operator call table. Seq orders calls and
// forwards together.
type OpRecord struct {
	ID         string
	Name       string
	Scope      string
	Seq        int
	NumInputs  int
	NumOutputs int
	Failed     bool
}

// EdgeRecord connects output OutputIndex of the call Producer to the
// argument at InputPosition of the call Consumer.
type EdgeRecord struct {
	Producer      string
	OutputIndex   int
	Consumer      string
	InputPosition int
}

// ForwardRecord is a row of the forward table.
type ForwardRecord struct {
	Name      string
	Scope     string
	Seq       int
	Forwarded int
}

// DBTracer is a tracer that stores operator calls and their edges into a
// database through a DataRecorder.
type DBTracer struct {
	mu      sync.Mutex
	backend datarecording.DataRecorder

	pending map[string]OpRecord
	seq     int
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	dataRecorder.CreateTable(OpTableName, OpRecord{})
	dataRecorder.CreateTable(EdgeTableName, EdgeRecord{})
	dataRecorder.CreateTable(ForwardTableName, ForwardRecord{})

	t := &DBTracer{
		backend: dataRecorder,
		pending: make(map[string]OpRecord),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// StartOp records the edges of a call. The call itself is written once it
// ends.
func (t *DBTracer) StartOp(op OpStart) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending[op.ID] = OpRecord{
		ID:        op.ID,
		Name:      op.Name,
		Scope:     op.Scope,
		Seq:       t.seq,
		NumInputs: len(op.Inputs),
	}
	t.seq++

	for _, in := range op.Inputs {
		t.backend.InsertData(EdgeTableName, EdgeRecord{
			Producer:      in.CreatorID,
			OutputIndex:   in.Index,
			Consumer:      op.ID,
			InputPosition: in.Position,
		})
	}
}

// EndOp writes the call.
func (t *DBTracer) EndOp(op OpEnd) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.pending[op.ID]
	if !ok {
		return
	}

	entry.NumOutputs = len(op.Outputs)
	entry.Failed = op.Err != nil

	t.backend.InsertData(OpTableName, entry)
	delete(t.pending, op.ID)
}

// ForwardOp writes a forwarding event.
func (t *DBTracer) ForwardOp(op OpForward) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backend.InsertData(ForwardTableName, ForwardRecord{
		Name:      op.Name,
		Scope:     op.Scope,
		Seq:       t.seq,
		Forwarded: op.Forwarded,
	})
	t.seq++
}

// Terminate drops unfinished calls and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = make(map[string]OpRecord)
	t.backend.Flush()
}
