// Package datarecording stores simulation results as database tables, one
// row per Go struct.
package datarecording

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// DataRecorder is a backend that can record and store data
type DataRecorder interface {
	// CreateTable creates a table whose columns are the fields of the sample
	// entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables, sorted.
	ListTables() []string

	// Flush writes all the buffered entries into the database.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

// Open creates a recorder for the target. A target starting with
// clickhouse:// is a ClickHouse server; anything else names a SQLite file,
// without the .sqlite3 suffix.
func Open(target string) (DataRecorder, error) {
	if strings.HasPrefix(target, "clickhouse://") {
		return NewClickHouse(target)
	}

	return New(target), nil
}

type table struct {
	name       string
	structType reflect.Type
	columns    []string
	entries    []any
}

var errInvalidEntry = errors.New("entry is invalid")

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func newTable(name string, sampleEntry any) *table {
	t := reflect.TypeOf(sampleEntry)
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Errorf("%w: %T is not a struct", errInvalidEntry, sampleEntry))
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || !isAllowedKind(field.Type.Kind()) {
			panic(fmt.Errorf("%w: field %s of %s", errInvalidEntry,
				field.Name, t.Name()))
		}
	}

	return &table{
		name:       name,
		structType: t,
		columns:    structs.Names(sampleEntry),
	}
}

func (t *table) add(entry any) {
	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("table %s stores %s, got %T",
			t.name, t.structType, entry))
	}

	t.entries = append(t.entries, entry)
}

func (t *table) rows() [][]any {
	rows := make([][]any, 0, len(t.entries))
	for _, entry := range t.entries {
		rows = append(rows, structs.Values(entry))
	}

	return rows
}
