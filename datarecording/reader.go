package datarecording

import (
	"database/sql"
	"fmt"
	"reflect"
)

// A Reader reads trace rows back from a SQLite database written by a
// Recorder.
type Reader struct {
	db      *sql.DB
	typeMap map[string]reflect.Type
}

// NewReader opens the trace database at path (including the ".sqlite3"
// suffix).
func NewReader(path string) *Reader {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		panic(err)
	}

	return &Reader{
		db:      db,
		typeMap: make(map[string]reflect.Type),
	}
}

// MapTable declares the struct type that rows of a table scan into. A
// table must be mapped before it can be queried.
func (r *Reader) MapTable(tableName string, sampleEntry any) {
	r.typeMap[tableName] = reflect.TypeOf(sampleEntry)
}

// TableNames lists the tables present in the database.
func (r *Reader) TableNames() ([]string, error) {
	rows, err := r.db.Query(
		"SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
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

// ReadAll returns every row of a mapped table in insertion order.
func (r *Reader) ReadAll(tableName string) ([]any, error) {
	structType, ok := r.typeMap[tableName]
	if !ok {
		return nil, fmt.Errorf("no mapping for table %s", tableName)
	}

	rows, err := r.db.Query("SELECT * FROM " + tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows, structType)
}

// Count returns the number of rows in a table.
func (r *Reader) Count(tableName string) (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM " + tableName).Scan(&n)

	return n, err
}

// Close closes the database.
func (r *Reader) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows, structType reflect.Type) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fieldIndex := make(map[string]int, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		fieldIndex[structType.Field(i).Name] = i
	}

	var results []any
	for rows.Next() {
		ptr := reflect.New(structType)
		val := ptr.Elem()

		targets := make([]any, len(columns))
		for i, column := range columns {
			if idx, ok := fieldIndex[column]; ok {
				targets[i] = val.Field(idx).Addr().Interface()
			} else {
				var discard any
				targets[i] = &discard
			}
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, ptr.Elem().Interface())
	}

	return results, rows.Err()
}
