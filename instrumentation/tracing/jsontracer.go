package tracing

import (
	"encoding/json"
	"io"
	"sync"
)

type jsonInput struct {
	Position  int    `json:"position"`
	CreatorID string `json:"creator"`
	Index     int    `json:"index"`
}

type jsonEntry struct {
	Kind      string      `json:"kind"`
	ID        string      `json:"id,omitempty"`
	Name      string      `json:"name"`
	Scope     string      `json:"scope,omitempty"`
	Inputs    []jsonInput `json:"inputs,omitempty"`
	Outputs   int         `json:"outputs,omitempty"`
	Forwarded int         `json:"forwarded,omitempty"`
	Err       string      `json:"error,omitempty"`
}

// JSONTracer writes finished operator calls and forwards as a JSON array.
// Calls appear in the order they end.
type JSONTracer struct {
	w        io.Writer
	lock     sync.Mutex
	first    bool
	closed   bool
	inflight map[string]OpStart
}

// NewJSONTracer creates a new JSONTracer that writes into w. The array is
// opened immediately and closed by Close.
func NewJSONTracer(w io.Writer) *JSONTracer {
	_, err := w.Write([]byte("[\n"))
	if err != nil {
		panic(err)
	}

	return &JSONTracer{
		w:        w,
		first:    true,
		inflight: make(map[string]OpStart),
	}
}

// StartOp remembers the call until it ends.
func (t *JSONTracer) StartOp(op OpStart) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflight[op.ID] = op
}

// EndOp writes the call.
func (t *JSONTracer) EndOp(op OpEnd) {
	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.inflight[op.ID]
	if !ok {
		return
	}

	delete(t.inflight, op.ID)

	entry := jsonEntry{
		Kind:    "op",
		ID:      start.ID,
		Name:    start.Name,
		Scope:   start.Scope,
		Outputs: len(op.Outputs),
	}

	for _, in := range start.Inputs {
		entry.Inputs = append(entry.Inputs, jsonInput{
			Position:  in.Position,
			CreatorID: in.CreatorID,
			Index:     in.Index,
		})
	}

	if op.Err != nil {
		entry.Err = op.Err.Error()
	}

	t.write(entry)
}

// ForwardOp writes the forward.
func (t *JSONTracer) ForwardOp(op OpForward) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.write(jsonEntry{
		Kind:      "forward",
		Name:      op.Name,
		Scope:     op.Scope,
		Forwarded: op.Forwarded,
	})
}

func (t *JSONTracer) write(entry jsonEntry) {
	if t.closed {
		return
	}

	if t.first {
		t.first = false
	} else {
		_, err := t.w.Write([]byte(",\n"))
		if err != nil {
			panic(err)
		}
	}

	b, err := json.Marshal(entry)
	if err != nil {
		panic(err)
	}

	_, err = t.w.Write(b)
	if err != nil {
		panic(err)
	}
}

// Close terminates the array. Calls that have not ended are dropped. Events
// after Close are ignored.
func (t *JSONTracer) Close() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	t.inflight = make(map[string]OpStart)

	_, err := t.w.Write([]byte("\n]\n"))

	return err
}
