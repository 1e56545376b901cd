package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapvault/internal/archive"
)

func TestSanitizer_Apply_RedactsSensitiveFields(t *testing.T) {
	sanitizer := NewSanitizer(nil)

	records := []archive.Record{
		{
			"id":            archive.String("u1"),
			"email":         archive.String("alice@example.com"),
			"password_hash": archive.String("$2a$10$secret"),
			"reset_token":   archive.String("tok-123"),
		},
	}

	sanitized := sanitizer.Apply("users", records)
	require.Len(t, sanitized, 1)

	// No redacted field keeps its original value.
	assert.Equal(t, archive.String(RedactionMarker), sanitized[0]["password_hash"])
	assert.Equal(t, archive.String(RedactionMarker), sanitized[0]["reset_token"])
	assert.NotEqual(t, records[0]["password_hash"], sanitized[0]["password_hash"])

	// Non-sensitive fields pass through.
	assert.Equal(t, archive.String("u1"), sanitized[0]["id"])
	assert.Equal(t, archive.String("alice@example.com"), sanitized[0]["email"])
}

func TestSanitizer_Apply_DoesNotMutateInput(t *testing.T) {
	sanitizer := NewSanitizer(nil)

	records := []archive.Record{
		{"session_token": archive.String("sess-abc"), "user_id": archive.String("u1")},
	}

	sanitizer.Apply("sessions", records)

	assert.Equal(t, archive.String("sess-abc"), records[0]["session_token"],
		"input records must not be mutated")
}

func TestSanitizer_Apply_NullValuesStayNull(t *testing.T) {
	sanitizer := NewSanitizer(nil)

	records := []archive.Record{
		{"access_token": archive.Null(), "provider": archive.String("github")},
	}

	sanitized := sanitizer.Apply("accounts", records)
	assert.True(t, sanitized[0]["access_token"].IsNull(),
		"a NULL credential should stay NULL, not become a marker")
}

// Unknown tables pass through unchanged. This permissive default means a
// table added to the application schema is backed up un-redacted until it is
// added to the allow-list; that tradeoff is deliberate.
func TestSanitizer_Apply_UnknownTablePassesThrough(t *testing.T) {
	sanitizer := NewSanitizer(nil)

	records := []archive.Record{
		{"id": archive.String("x1"), "secret_looking_field": archive.String("raw")},
	}

	sanitized := sanitizer.Apply("brand_new_table", records)
	assert.Equal(t, records, sanitized)
}

func TestSanitizer_IsSensitive(t *testing.T) {
	sanitizer := NewSanitizer(nil)

	for _, table := range []string{"users", "accounts", "sessions", "verification_tokens", "api_keys"} {
		assert.True(t, sanitizer.IsSensitive(table), "%s should be on the allow-list", table)
	}
	assert.False(t, sanitizer.IsSensitive("decks"))
}

func TestSanitizer_CustomAllowList(t *testing.T) {
	sanitizer := NewSanitizer(map[string][]string{
		"webhooks": {"signing_secret"},
	})

	records := []archive.Record{{"signing_secret": archive.String("whsec")}}
	sanitized := sanitizer.Apply("webhooks", records)
	assert.Equal(t, archive.String(RedactionMarker), sanitized[0]["signing_secret"])

	// The default list no longer applies.
	assert.False(t, sanitizer.IsSensitive("users"))
}
