package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapvault/internal/archive"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/sanitize"
	"snapvault/internal/schema"
)

// fakeSource serves canned records per table and can fail selected tables.
// Delays let tests force completion order different from registry order.
type fakeSource struct {
	mu      sync.Mutex
	records map[string][]archive.Record
	fail    map[string]error
	delays  map[string]time.Duration
	calls   []string
}

func (f *fakeSource) ListAll(ctx context.Context, table string) ([]archive.Record, error) {
	if delay := f.delays[table]; delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, table)
	f.mu.Unlock()

	if err := f.fail[table]; err != nil {
		return nil, err
	}
	return f.records[table], nil
}

func collectorRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	registry, err := schema.NewRegistry([]*schema.Table{
		{
			Name:       "users",
			Columns:    []schema.Column{{Name: "id", DataType: "VARCHAR(36)"}, {Name: "password_hash", DataType: "VARCHAR(255)", Nullable: true}},
			PrimaryKey: []string{"id"},
		},
		{
			Name:       "decks",
			Columns:    []schema.Column{{Name: "id", DataType: "VARCHAR(36)"}, {Name: "user_id", DataType: "VARCHAR(36)"}},
			PrimaryKey: []string{"id"},
			ForeignKeys: []schema.ForeignKey{
				{Name: "fk_decks_user_id", Column: "user_id", ReferencedTable: "users", ReferencedColumn: "id"},
			},
		},
		{
			Name:       "cards",
			Columns:    []schema.Column{{Name: "id", DataType: "VARCHAR(36)"}, {Name: "deck_id", DataType: "VARCHAR(36)"}},
			PrimaryKey: []string{"id"},
			ForeignKeys: []schema.ForeignKey{
				{Name: "fk_cards_deck_id", Column: "deck_id", ReferencedTable: "decks", ReferencedColumn: "id"},
			},
		},
	})
	require.NoError(t, err)
	return registry
}

func TestCollector_Collect_AssemblesInRegistryOrder(t *testing.T) {
	source := &fakeSource{
		records: map[string][]archive.Record{
			"users": {{"id": archive.String("u1")}},
			"decks": {{"id": archive.String("d1"), "user_id": archive.String("u1")}},
			"cards": {{"id": archive.String("k1"), "deck_id": archive.String("d1")}},
		},
		// users finishes last, cards first; assembly order must not care.
		delays: map[string]time.Duration{
			"users": 30 * time.Millisecond,
			"decks": 15 * time.Millisecond,
		},
	}

	collector := NewCollector(collectorRegistry(t), source, nil, nil)
	data, err := collector.Collect(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "decks", "cards"}, data.Tables())
	assert.Equal(t, 3, data.TotalRecords())
}

func TestCollector_Collect_EmptyTablesIncluded(t *testing.T) {
	source := &fakeSource{records: map[string][]archive.Record{}}

	collector := NewCollector(collectorRegistry(t), source, nil, nil)
	data, err := collector.Collect(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "decks", "cards"}, data.Tables())
	assert.Equal(t, 0, data.TotalRecords())
}

func TestCollector_Collect_SingleFailureAborts(t *testing.T) {
	source := &fakeSource{
		records: map[string][]archive.Record{
			"users": {{"id": archive.String("u1")}},
		},
		fail: map[string]error{
			"decks": apperrors.NewDataRetrievalError("failed to read table decks", nil),
		},
	}

	collector := NewCollector(collectorRegistry(t), source, nil, nil)
	data, err := collector.Collect(context.Background(), false)

	assert.Nil(t, data, "a partial snapshot must never be returned")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDataRetrieval))
	assert.Contains(t, err.Error(), "decks")
}

func TestCollector_Collect_FirstFailureInRegistryOrderWins(t *testing.T) {
	source := &fakeSource{
		fail: map[string]error{
			"users": apperrors.NewDataRetrievalError("failed to read table users", nil),
			"cards": apperrors.NewDataRetrievalError("failed to read table cards", nil),
		},
	}

	collector := NewCollector(collectorRegistry(t), source, nil, nil)
	_, err := collector.Collect(context.Background(), false)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "users",
		"the reported failure should be the first in registry order")
}

func TestCollector_Collect_SanitizeFlag(t *testing.T) {
	source := &fakeSource{
		records: map[string][]archive.Record{
			"users": {{"id": archive.String("u1"), "password_hash": archive.String("$2a$10$hash")}},
		},
	}
	collector := NewCollector(collectorRegistry(t), source, sanitize.NewSanitizer(nil), nil)

	t.Run("enabled", func(t *testing.T) {
		data, err := collector.Collect(context.Background(), true)
		require.NoError(t, err)

		records, _ := data.Records("users")
		require.Len(t, records, 1)
		assert.Equal(t, archive.String(sanitize.RedactionMarker), records[0]["password_hash"])
	})

	t.Run("disabled", func(t *testing.T) {
		data, err := collector.Collect(context.Background(), false)
		require.NoError(t, err)

		records, _ := data.Records("users")
		require.Len(t, records, 1)
		assert.Equal(t, archive.String("$2a$10$hash"), records[0]["password_hash"])
	})
}

func TestCollector_Collect_ReadsEveryTableOnce(t *testing.T) {
	source := &fakeSource{records: map[string][]archive.Record{}}

	collector := NewCollector(collectorRegistry(t), source, nil, nil)
	_, err := collector.Collect(context.Background(), false)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"users", "decks", "cards"}, source.calls)
}
