package lluv

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateColumn is returned when a column name appears more than once in a schema.
var ErrDuplicateColumn = errors.New("duplicate column name")

// ErrEmptySchema is returned for a schema without columns.
var ErrEmptySchema = errors.New("schema has no columns")

// SchemaError is returned when a column name is not present in a schema.
type SchemaError struct {
	Name   string // Requested column name
	Schema string // Schema the name was looked up in
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column %q not found in schema %q", e.Name, e.Schema)
}

// Schema is an ordered set of column names. A column's position is its index
// in the schema.
type Schema struct {
	names []string
	index map[string]int
}

// ParseSchema parses a space-separated list of column names, e.g. the value of
// the '%TableColumnTypes:' header line.
func ParseSchema(s string) (*Schema, error) {
	return NewSchema(strings.Fields(s)...)
}

// MustParseSchema is like ParseSchema but panics on error. It is intended for
// fixed schemas declared as package variables.
func MustParseSchema(s string) *Schema {
	schema, err := ParseSchema(s)
	if err != nil {
		panic(err)
	}
	return schema
}

// NewSchema creates a schema from the column names in order.
func NewSchema(names ...string) (*Schema, error) {
	if len(names) == 0 {
		return nil, ErrEmptySchema
	}

	s := &Schema{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	for i, name := range names {
		if _, ok := s.index[name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		s.names[i] = name
		s.index[name] = i
	}
	return s, nil
}

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, error) {
	i, ok := s.index[name]
	if !ok {
		return -1, &SchemaError{Name: name, Schema: s.String()}
	}
	return i, nil
}

// Indexes resolves several column names at once. The first unknown name
// fails the whole lookup.
func (s *Schema) Indexes(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j, err := s.Index(name)
		if err != nil {
			return nil, err
		}
		idx[i] = j
	}
	return idx, nil
}

// Has reports whether the schema contains the named column.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns a copy of the column names in order.
func (s *Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Equal reports whether both schemas declare the same columns in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if other == nil || len(s.names) != len(other.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != other.names[i] {
			return false
		}
	}
	return true
}

// String returns the schema as a space-separated list of names.
func (s *Schema) String() string {
	return strings.Join(s.names, " ")
}
