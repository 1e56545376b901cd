package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RegistryIsWellFormed(t *testing.T) {
	registry := Default()

	assert.Greater(t, registry.Len(), 20, "the application schema has more than twenty tables")

	// Every foreign key must point at an earlier table (or the table itself).
	for i, table := range registry.Tables() {
		for _, fk := range table.ForeignKeys {
			position, known := registry.Position(fk.ReferencedTable)
			require.True(t, known, "%s references unregistered table %s", table.Name, fk.ReferencedTable)
			assert.LessOrEqual(t, position, i,
				"%s must not appear before its referenced table %s", table.Name, fk.ReferencedTable)
		}
	}
}

func TestDefault_ContainsCoreTables(t *testing.T) {
	registry := Default()

	for _, table := range []string{"users", "categories", "decks", "cards", "reviews", "sessions"} {
		assert.True(t, registry.Contains(table), "registry should contain %s", table)
	}
}

func TestRegistry_ReverseNames(t *testing.T) {
	registry := Default()

	names := registry.TableNames()
	reversed := registry.ReverseNames()

	require.Equal(t, len(names), len(reversed))
	for i, name := range names {
		assert.Equal(t, name, reversed[len(reversed)-1-i])
	}
}

func TestNewRegistry_RejectsForwardReference(t *testing.T) {
	_, err := NewRegistry([]*Table{
		{
			Name: "cards",
			Columns: []Column{
				{Name: "id", DataType: "VARCHAR(36)"},
				{Name: "deck_id", DataType: "VARCHAR(36)"},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "fk_cards_deck_id", Column: "deck_id", ReferencedTable: "decks", ReferencedColumn: "id"},
			},
		},
		{
			Name:       "decks",
			Columns:    []Column{{Name: "id", DataType: "VARCHAR(36)"}},
			PrimaryKey: []string{"id"},
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "before it is registered")
}

func TestNewRegistry_AllowsSelfReference(t *testing.T) {
	registry, err := NewRegistry([]*Table{
		{
			Name: "categories",
			Columns: []Column{
				{Name: "id", DataType: "VARCHAR(36)"},
				{Name: "parent_id", DataType: "VARCHAR(36)", Nullable: true},
			},
			PrimaryKey: []string{"id"},
			ForeignKeys: []ForeignKey{
				{Name: "fk_categories_parent_id", Column: "parent_id", ReferencedTable: "categories", ReferencedColumn: "id"},
			},
		},
	})

	require.NoError(t, err)
	assert.True(t, registry.Contains("categories"))
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	table := &Table{
		Name:       "users",
		Columns:    []Column{{Name: "id", DataType: "VARCHAR(36)"}},
		PrimaryKey: []string{"id"},
	}

	_, err := NewRegistry([]*Table{table, table})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		table   Table
		wantErr string
	}{
		{
			name:    "empty name",
			table:   Table{Columns: []Column{{Name: "id", DataType: "INT"}}},
			wantErr: "name cannot be empty",
		},
		{
			name:    "no columns",
			table:   Table{Name: "users"},
			wantErr: "at least one column",
		},
		{
			name: "primary key references unknown column",
			table: Table{
				Name:       "users",
				Columns:    []Column{{Name: "id", DataType: "INT"}},
				PrimaryKey: []string{"uuid"},
			},
			wantErr: "unknown column",
		},
		{
			name: "duplicate column",
			table: Table{
				Name:    "users",
				Columns: []Column{{Name: "id", DataType: "INT"}, {Name: "id", DataType: "INT"}},
			},
			wantErr: "twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
