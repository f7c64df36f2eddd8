package tracing

import (
	"context"
	"strings"

	"github.com/sarchlab/optrace/datarecording"
)

// OpQuery selects operator calls. Empty fields are ignored.
type OpQuery struct {
	// Use ID to select a single call.
	ID string

	// Use Name to select all the calls of an operator.
	Name string

	// Use ScopePrefix to select the calls made inside a module scope and its
	// children.
	ScopePrefix string

	// Use FailedOnly to select the calls that returned an error.
	FailedOnly bool

	// Limit caps the number of calls returned.
	Limit int
}

// TraceReader reads a trace stored by a DBTracer.
type TraceReader struct {
	reader datarecording.DataReader
}

// NewTraceReader maps the trace tables on the reader.
func NewTraceReader(reader datarecording.DataReader) *TraceReader {
	reader.MapTable(OpTableName, OpRecord{})
	reader.MapTable(EdgeTableName, EdgeRecord{})
	reader.MapTable(ForwardTableName, ForwardRecord{})

	return &TraceReader{reader: reader}
}

// ListOps returns the matching calls in the order they started, and the
// number of matching calls regardless of the limit.
func (r *TraceReader) ListOps(
	ctx context.Context,
	query OpQuery,
) ([]OpRecord, int, error) {
	var (
		conds []string
		args  []any
	)

	if query.ID != "" {
		conds = append(conds, "ID = ?")
		args = append(args, query.ID)
	}

	if query.Name != "" {
		conds = append(conds, "Name = ?")
		args = append(args, query.Name)
	}

	if query.ScopePrefix != "" {
		conds = append(conds, "Scope LIKE ? ESCAPE '\\'")
		args = append(args, escapeLike(query.ScopePrefix)+"%")
	}

	if query.FailedOnly {
		conds = append(conds, "Failed")
	}

	rows, total, err := r.reader.Query(ctx, OpTableName,
		datarecording.QueryParams{
			Where:   strings.Join(conds, " AND "),
			Args:    args,
			OrderBy: "Seq",
			Limit:   query.Limit,
		})
	if err != nil {
		return nil, 0, err
	}

	ops := make([]OpRecord, 0, len(rows))
	for _, row := range rows {
		ops = append(ops, *row.(*OpRecord))
	}

	return ops, total, nil
}

// ListEdges returns the edges that feed the given call, or all the edges if
// consumer is empty, ordered by consumer and argument position.
func (r *TraceReader) ListEdges(
	ctx context.Context,
	consumer string,
) ([]EdgeRecord, error) {
	params := datarecording.QueryParams{OrderBy: "Consumer, InputPosition"}
	if consumer != "" {
		params.Where = "Consumer = ?"
		params.Args = []any{consumer}
	}

	rows, _, err := r.reader.Query(ctx, EdgeTableName, params)
	if err != nil {
		return nil, err
	}

	edges := make([]EdgeRecord, 0, len(rows))
	for _, row := range rows {
		edges = append(edges, *row.(*EdgeRecord))
	}

	return edges, nil
}

// ListForwards returns the forwards in the order they happened.
func (r *TraceReader) ListForwards(ctx context.Context) ([]ForwardRecord, error) {
	rows, _, err := r.reader.Query(ctx, ForwardTableName,
		datarecording.QueryParams{OrderBy: "Seq"})
	if err != nil {
		return nil, err
	}

	forwards := make([]ForwardRecord, 0, len(rows))
	for _, row := range rows {
		forwards = append(forwards, *row.(*ForwardRecord))
	}

	return forwards, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
