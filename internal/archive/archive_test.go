package archive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	data := NewTableData()
	require.NoError(t, data.Append("users", []Record{{"id": String("u1")}}))

	a := New("nightly", "before migration", "admin", data)

	assert.True(t, IsValidID(a.Metadata.ID))
	assert.Equal(t, "nightly", a.Metadata.Name)
	assert.Equal(t, "before migration", a.Metadata.Description)
	assert.Equal(t, "admin", a.Metadata.CreatedBy)
	assert.Equal(t, FormatVersion, a.Metadata.FormatVersion)
	assert.False(t, a.Metadata.CreatedAt.IsZero())
	assert.Equal(t, 1, a.TableCount())
	assert.Equal(t, 1, a.TotalRecords())
}

func TestArchive_JSONRoundTrip(t *testing.T) {
	data := NewTableData()
	require.NoError(t, data.Append("users", []Record{{"id": String("u1"), "active": Bool(true)}}))
	require.NoError(t, data.Append("decks", []Record{}))

	original := New("nightly", "", "admin", data)

	encoded, err := original.ToJSON()
	require.NoError(t, err)

	// Metadata precedes the data block in the document.
	metadataAt := bytes.Index(encoded, []byte(`"metadata"`))
	dataAt := bytes.Index(encoded, []byte(`"data"`))
	require.GreaterOrEqual(t, metadataAt, 0)
	require.GreaterOrEqual(t, dataAt, 0)
	assert.Less(t, metadataAt, dataAt)

	restored, err := FromJSON(encoded)
	require.NoError(t, err)

	assert.Equal(t, original.Metadata.ID, restored.Metadata.ID)
	assert.Equal(t, original.Metadata.FormatVersion, restored.Metadata.FormatVersion)
	assert.Equal(t, original.Data.Tables(), restored.Data.Tables())
	assert.Equal(t, original.TotalRecords(), restored.TotalRecords())
}

func TestFromJSON_Malformed(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestArchive_CountsOnEmpty(t *testing.T) {
	a := &Archive{Metadata: &Metadata{ID: "bk-1"}}
	assert.Zero(t, a.TableCount())
	assert.Zero(t, a.TotalRecords())
}
