package datasource

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapvault/internal/archive"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/schema"
)

func sourceRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	registry, err := schema.NewRegistry([]*schema.Table{
		{
			Name: "cards",
			Columns: []schema.Column{
				{Name: "id", DataType: "VARCHAR(36)"},
				{Name: "position", DataType: "INT"},
				{Name: "ease_factor", DataType: "DOUBLE"},
				{Name: "hint", DataType: "TEXT", Nullable: true},
				{Name: "due_at", DataType: "DATETIME", Nullable: true},
			},
			PrimaryKey: []string{"id"},
		},
	})
	require.NoError(t, err)
	return registry
}

func newMockSource(t *testing.T) (*MySQLSource, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMySQLSource(db, sourceRegistry(t)), mock
}

const cardsQuery = "SELECT `id`, `position`, `ease_factor`, `hint`, `due_at` FROM `cards`"

func cardsColumns() []*sqlmock.Column {
	return []*sqlmock.Column{
		sqlmock.NewColumn("id").OfType("VARCHAR", ""),
		sqlmock.NewColumn("position").OfType("INT", int64(0)),
		sqlmock.NewColumn("ease_factor").OfType("DOUBLE", float64(0)),
		sqlmock.NewColumn("hint").OfType("TEXT", "").Nullable(true),
		sqlmock.NewColumn("due_at").OfType("DATETIME", time.Time{}).Nullable(true),
	}
}

func TestMySQLSource_ListAll_CoercesColumnTypes(t *testing.T) {
	source, mock := newMockSource(t)

	due := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRowsWithColumnDefinition(cardsColumns()...).
		AddRow("k1", []byte("3"), []byte("2.5"), nil, due).
		AddRow("k2", []byte("4"), []byte("2.6"), "mnemonic", []byte("2026-09-01 10:00:00"))
	mock.ExpectQuery(cardsQuery).WillReturnRows(rows)

	records, err := source.ListAll(context.Background(), "cards")
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, archive.String("k1"), first["id"])
	assert.Equal(t, archive.KindNumber, first["position"].Kind())
	assert.Equal(t, archive.KindNumber, first["ease_factor"].Kind())
	assert.True(t, first["hint"].IsNull())
	assert.Equal(t, archive.KindTime, first["due_at"].Kind())

	second := records[1]
	assert.Equal(t, archive.String("mnemonic"), second["hint"])
	assert.Equal(t, archive.Time(due), second["due_at"],
		"text-protocol DATETIME bytes should parse into the same instant")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLSource_ListAll_EmptyTable(t *testing.T) {
	source, mock := newMockSource(t)

	mock.ExpectQuery(cardsQuery).
		WillReturnRows(sqlmock.NewRowsWithColumnDefinition(cardsColumns()...))

	records, err := source.ListAll(context.Background(), "cards")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestMySQLSource_ListAll_UnknownTable(t *testing.T) {
	source, _ := newMockSource(t)

	_, err := source.ListAll(context.Background(), "not_registered")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataRetrieval))
	assert.Contains(t, err.Error(), "not in the registry")
}

func TestMySQLSource_ListAll_ClassifiesMySQLErrors(t *testing.T) {
	tests := []struct {
		name       string
		number     uint16
		wantInText string
	}{
		{name: "missing table", number: 1146, wantInText: "does not exist"},
		{name: "access denied", number: 1045, wantInText: "access denied"},
		{name: "unknown column", number: 1054, wantInText: "unknown column"},
		{name: "lost connection", number: 2006, wantInText: "lost database connection"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, mock := newMockSource(t)
			mock.ExpectQuery(cardsQuery).
				WillReturnError(&mysql.MySQLError{Number: tt.number, Message: "server said no"})

			_, err := source.ListAll(context.Background(), "cards")
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataRetrieval))
			assert.Contains(t, err.Error(), tt.wantInText)
		})
	}
}

func TestMySQLSource_ListAll_ContextCanceled(t *testing.T) {
	source, mock := newMockSource(t)
	mock.ExpectQuery(cardsQuery).WillReturnError(context.Canceled)

	_, err := source.ListAll(context.Background(), "cards")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataRetrieval))
	assert.Contains(t, err.Error(), "canceled")
}

func TestConfig_DSN(t *testing.T) {
	config := Config{
		Host:     "db.internal",
		Port:     3307,
		Username: "backup",
		Password: "s3cret",
		Database: "cardbase",
	}

	dsn := config.DSN()
	assert.Contains(t, dsn, "backup:s3cret@tcp(db.internal:3307)/cardbase")
	assert.Contains(t, dsn, "parseTime=true")
}
