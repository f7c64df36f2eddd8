package tracing

import "sync"

// Node is an operator call recorded by a GraphTracer.
type Node struct {
	ID         string
	Name       string
	Scope      string
	Order      int
	NumOutputs int
	Done       bool
	Err        string
}

// Edge connects the output of one call to the input of another.
type Edge struct {
	From          string
	OutputIndex   int
	To            string
	InputPosition int
	Shape         []int
}

// GraphTracer records operator calls in call order together with the edges
// implied by the provenance of their inputs.
type GraphTracer struct {
	lock sync.Mutex

	nodes     []Node
	nodeIndex map[string]int
	edges     []Edge
	forwards  []OpForward
}

// NewGraphTracer creates a new GraphTracer.
func NewGraphTracer() *GraphTracer {
	return &GraphTracer{
		nodeIndex: make(map[string]int),
	}
}

// StartOp records a node and its incoming edges.
func (t *GraphTracer) StartOp(op OpStart) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.nodeIndex[op.ID] = len(t.nodes)
	t.nodes = append(t.nodes, Node{
		ID:    op.ID,
		Name:  op.Name,
		Scope: op.Scope,
		Order: len(t.nodes),
	})

	for _, in := range op.Inputs {
		t.edges = append(t.edges, Edge{
			From:          in.CreatorID,
			OutputIndex:   in.Index,
			To:            op.ID,
			InputPosition: in.Position,
			Shape:         in.Shape,
		})
	}
}

// EndOp marks the node as complete.
func (t *GraphTracer) EndOp(op OpEnd) {
	t.lock.Lock()
	defer t.lock.Unlock()

	i, ok := t.nodeIndex[op.ID]
	if !ok {
		return
	}

	t.nodes[i].Done = true
	t.nodes[i].NumOutputs = len(op.Outputs)

	if op.Err != nil {
		t.nodes[i].Err = op.Err.Error()
	}
}

// ForwardOp remembers a forwarding event. It does not create a node.
func (t *GraphTracer) ForwardOp(op OpForward) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.forwards = append(t.forwards, op)
}

// Nodes returns the recorded nodes in call order.
func (t *GraphTracer) Nodes() []Node {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]Node(nil), t.nodes...)
}

// Node returns the node with the given ID.
func (t *GraphTracer) Node(id string) (Node, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()

	i, ok := t.nodeIndex[id]
	if !ok {
		return Node{}, false
	}

	return t.nodes[i], true
}

// Edges returns the recorded edges.
func (t *GraphTracer) Edges() []Edge {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]Edge(nil), t.edges...)
}

// Forwards returns the recorded forwarding events.
func (t *GraphTracer) Forwards() []OpForward {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]OpForward(nil), t.forwards...)
}

// NodeNames returns the operator names in call order.
func (t *GraphTracer) NodeNames() []string {
	nodes := t.Nodes()

	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}

	return names
}

// Reset drops everything recorded so far.
func (t *GraphTracer) Reset() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.nodes = nil
	t.edges = nil
	t.forwards = nil
	t.nodeIndex = make(map[string]int)
}
