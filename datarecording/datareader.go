package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/structs"
)

// QueryParams narrows down the rows a Query returns.
type QueryParams struct {
	// Where is a condition without the WHERE keyword, e.g. "Scope LIKE ?".
	Where string
	Args  []any

	// OrderBy lists the sort columns without the ORDER BY keywords.
	OrderBy string

	// Limit caps the number of rows. Zero means all rows.
	Limit  int
	Offset int
}

// DataReader reads the tables a DataRecorder wrote back into structs.
type DataReader interface {
	// MapTable binds a table to the struct type of the sample entry. Query
	// returns pointers to that type. The struct fields are the columns, as
	// in DataRecorder.CreateTable.
	MapTable(tableName string, sampleEntry any)

	// MappedTables returns the names of the mapped tables, sorted.
	MappedTables() []string

	// StoredTables returns the names of the tables in the database, sorted.
	StoredTables(ctx context.Context) ([]string, error)

	// Query returns the matching rows of a mapped table and the number of
	// rows matching the condition regardless of Limit.
	Query(ctx context.Context, tableName string, params QueryParams) (
		rows []any,
		total int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	*sql.DB

	types map[string]reflect.Type
}

// NewReader opens a database written by a DataRecorder. The path can be the
// file name or the name given to New, without the ".sqlite3" suffix.
func NewReader(path string) (DataReader, error) {
	filename, err := resolveDBFile(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", "file:"+filename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

func resolveDBFile(path string) (string, error) {
	for _, candidate := range []string{path, path + ".sqlite3"} {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no trace database at %s or %s.sqlite3", path, path)
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		DB:    db,
		types: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	t := reflect.TypeOf(sampleEntry)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("table %s: %s is not a struct", tableName, t))
	}

	r.types[tableName] = t
}

func (r *sqliteReader) MappedTables() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) StoredTables(ctx context.Context) ([]string, error) {
	rows, err := r.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	structType, ok := r.types[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	columns := structs.Names(reflect.New(structType).Interface())

	total, err := r.count(ctx, tableName, params)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.QueryContext(ctx,
		selectStatement(tableName, columns, params), params.Args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query %s: %w", tableName, err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		entry := reflect.New(structType)

		targets := make([]any, len(columns))
		for i, c := range columns {
			targets[i] = entry.Elem().FieldByName(c).Addr().Interface()
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", tableName, err)
		}

		out = append(out, entry.Interface())
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *sqliteReader) count(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	q := "SELECT COUNT(*) FROM " + tableName
	if params.Where != "" {
		q += " WHERE " + params.Where
	}

	n := 0
	err := r.QueryRowContext(ctx, q, params.Args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", tableName, err)
	}

	return n, nil
}

func selectStatement(
	tableName string,
	columns []string,
	params QueryParams,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "SELECT %s FROM %s",
		strings.Join(columns, ", "), tableName)

	if params.Where != "" {
		b.WriteString(" WHERE " + params.Where)
	}

	if params.OrderBy != "" {
		b.WriteString(" ORDER BY " + params.OrderBy)
	}

	if params.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", params.Limit, params.Offset)
	}

	return b.String()
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
