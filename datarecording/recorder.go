// Package datarecording persists machine traces into SQLite so that runs
// can be inspected and replayed after the process exits.
package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	// SQLite driver for database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// A Recorder stores trace rows. Rows are buffered and flushed in batches;
// a process exit flushes whatever is pending.
type Recorder interface {
	// CreateTable creates a table whose columns are the fields of the
	// sample entry. Only flat structs of scalar fields are accepted.
	CreateTable(tableName string, sampleEntry any)

	// Insert buffers one row for a table created before.
	Insert(tableName string, entry any)

	// ListTables returns the names of all created tables.
	ListTables() []string

	// Flush writes all buffered rows to the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

type table struct {
	structType reflect.Type
	pending    []any
}

// sqliteRecorder writes rows into a SQLite database file.
type sqliteRecorder struct {
	db        *sql.DB
	path      string
	batchSize int
	tables    map[string]*table
	buffered  int
}

// NewRecorder creates a Recorder backed by path + ".sqlite3". An empty
// path picks a unique name. The file must not exist yet.
func NewRecorder(path string) Recorder {
	if path == "" {
		path = "minicpu_trace_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		panic(fmt.Errorf("trace file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r := &sqliteRecorder{
		db:        db,
		path:      filename,
		batchSize: 4096,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	return r
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	if err := checkStructFields(sampleEntry); err != nil {
		panic(err)
	}

	columns := strings.Join(structs.Names(sampleEntry), ",\n\t")
	r.mustExecute("CREATE TABLE " + tableName + " (\n\t" + columns + "\n);")

	r.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

func (r *sqliteRecorder) Insert(tableName string, entry any) {
	t, ok := r.tables[tableName]
	if !ok {
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("entry type %T does not match table %s",
			entry, tableName))
	}

	t.pending = append(t.pending, entry)

	r.buffered++
	if r.buffered >= r.batchSize {
		r.Flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	return names
}

func (r *sqliteRecorder) Flush() {
	if r.buffered == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for tableName, t := range r.tables {
		if len(t.pending) == 0 {
			continue
		}

		stmt := r.prepareInsert(tableName, t.pending[0])

		for _, entry := range t.pending {
			values := fieldValues(entry)
			if _, err := stmt.Exec(values...); err != nil {
				panic(err)
			}
		}

		stmt.Close()
		t.pending = nil
	}

	r.buffered = 0
}

func (r *sqliteRecorder) Close() error {
	r.Flush()
	return r.db.Close()
}

func (r *sqliteRecorder) prepareInsert(tableName string, sample any) *sql.Stmt {
	placeholders := structs.Names(sample)
	for i := range placeholders {
		placeholders[i] = "?"
	}

	stmt, err := r.db.Prepare("INSERT INTO " + tableName +
		" VALUES (" + strings.Join(placeholders, ", ") + ")")
	if err != nil {
		panic(err)
	}

	return stmt
}

func (r *sqliteRecorder) mustExecute(query string) {
	if _, err := r.db.Exec(query); err != nil {
		panic(fmt.Errorf("failed to execute %q: %w", query, err))
	}
}

func fieldValues(entry any) []any {
	v := reflect.ValueOf(entry)

	values := make([]any, 0, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		values = append(values, v.Field(i).Interface())
	}

	return values
}

func checkStructFields(entry any) error {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("trace entries must be structs, got %T", entry)
	}

	for i := 0; i < t.NumField(); i++ {
		if !isAllowedKind(t.Field(i).Type.Kind()) {
			return fmt.Errorf("field %s of %T cannot be recorded",
				t.Field(i).Name, entry)
		}
	}

	return nil
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}
