package schema

import (
	"fmt"
)

// Column represents a table column in the application schema
type Column struct {
	Name     string  `json:"name"`
	DataType string  `json:"data_type"`
	Nullable bool    `json:"nullable"`
	Default  *string `json:"default,omitempty"`
	Extra    string  `json:"extra,omitempty"`
}

// ForeignKey represents a foreign key relation to another registered table
type ForeignKey struct {
	Name             string `json:"name"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	OnDelete         string `json:"on_delete,omitempty"`
}

// Index represents a secondary index on a table
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// Table represents one table of the application schema: its columns, primary
// key, foreign keys, and indexes. The registry, not live data, is the source
// of truth for structure statements.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
}

// Validate validates the Table structure
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s must have at least one column", t.Name)
	}

	columns := make(map[string]bool, len(t.Columns))
	for _, column := range t.Columns {
		if column.Name == "" {
			return fmt.Errorf("table %s has a column with an empty name", t.Name)
		}
		if column.DataType == "" {
			return fmt.Errorf("column %s.%s has no data type", t.Name, column.Name)
		}
		if columns[column.Name] {
			return fmt.Errorf("table %s declares column %s twice", t.Name, column.Name)
		}
		columns[column.Name] = true
	}

	for _, pk := range t.PrimaryKey {
		if !columns[pk] {
			return fmt.Errorf("table %s primary key references unknown column %s", t.Name, pk)
		}
	}

	for _, fk := range t.ForeignKeys {
		if !columns[fk.Column] {
			return fmt.Errorf("foreign key %s references unknown column %s.%s", fk.Name, t.Name, fk.Column)
		}
		if fk.ReferencedTable == "" || fk.ReferencedColumn == "" {
			return fmt.Errorf("foreign key %s on table %s has no referenced table/column", fk.Name, t.Name)
		}
	}

	for _, index := range t.Indexes {
		for _, col := range index.Columns {
			if !columns[col] {
				return fmt.Errorf("index %s references unknown column %s.%s", index.Name, t.Name, col)
			}
		}
	}

	return nil
}

// HasColumn reports whether the table declares the named column
func (t *Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the declared column names in definition order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, column := range t.Columns {
		names[i] = column.Name
	}
	return names
}

// Registry is the fixed, ordered set of tables the backup subsystem snapshots.
// The slice order is the dependency order: a table referenced by a foreign key
// always precedes the tables that reference it (self-references allowed).
// Holding the order in a slice rather than a map makes the ordering invariant
// part of the type.
type Registry struct {
	tables []*Table
	byName map[string]*Table
}

// NewRegistry creates a registry from tables listed in dependency order,
// rejecting duplicates and forward foreign key references
func NewRegistry(tables []*Table) (*Registry, error) {
	r := &Registry{
		tables: make([]*Table, 0, len(tables)),
		byName: make(map[string]*Table, len(tables)),
	}

	for _, table := range tables {
		if err := table.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.byName[table.Name]; exists {
			return nil, fmt.Errorf("table %s registered twice", table.Name)
		}

		for _, fk := range table.ForeignKeys {
			if fk.ReferencedTable == table.Name {
				continue // self-reference
			}
			if _, seen := r.byName[fk.ReferencedTable]; !seen {
				return nil, fmt.Errorf("table %s references %s before it is registered",
					table.Name, fk.ReferencedTable)
			}
		}

		r.tables = append(r.tables, table)
		r.byName[table.Name] = table
	}

	return r, nil
}

// Tables returns all registered tables in dependency order
func (r *Registry) Tables() []*Table {
	return r.tables
}

// TableNames returns all registered table names in dependency order
func (r *Registry) TableNames() []string {
	names := make([]string, len(r.tables))
	for i, table := range r.tables {
		names[i] = table.Name
	}
	return names
}

// ReverseNames returns table names in reverse dependency order, the order in
// which rows can be deleted without violating foreign keys
func (r *Registry) ReverseNames() []string {
	names := make([]string, len(r.tables))
	for i, table := range r.tables {
		names[len(r.tables)-1-i] = table.Name
	}
	return names
}

// Lookup returns the named table definition
func (r *Registry) Lookup(name string) (*Table, bool) {
	table, ok := r.byName[name]
	return table, ok
}

// Contains reports whether the named table is registered
func (r *Registry) Contains(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of registered tables
func (r *Registry) Len() int {
	return len(r.tables)
}

// Position returns the dependency-order index of the named table
func (r *Registry) Position(name string) (int, bool) {
	for i, table := range r.tables {
		if table.Name == name {
			return i, true
		}
	}
	return 0, false
}
