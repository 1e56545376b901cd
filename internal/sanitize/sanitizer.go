package sanitize

import (
	"snapvault/internal/archive"
)

// RedactionMarker replaces sensitive values in sanitized snapshots
const RedactionMarker = "[REDACTED]"

// Sanitizer strips credential-bearing fields from snapshots of a fixed
// allow-list of tables before they are persisted. All other tables pass
// through unchanged: an unknown table is treated as "not sensitive" rather
// than an error, a deliberate permissive default so adding a table to the
// application schema never breaks backups.
type Sanitizer struct {
	sensitiveFields map[string][]string
}

// DefaultSensitiveFields returns the allow-list of tables known to hold
// credentials or session tokens, and the fields to redact in each
func DefaultSensitiveFields() map[string][]string {
	return map[string][]string{
		"users":               {"password_hash", "reset_token"},
		"accounts":            {"access_token", "refresh_token", "id_token"},
		"sessions":            {"session_token"},
		"verification_tokens": {"token"},
		"api_keys":            {"secret_hash"},
	}
}

// NewSanitizer creates a sanitizer with the given allow-list; nil selects
// the default list
func NewSanitizer(sensitiveFields map[string][]string) *Sanitizer {
	if sensitiveFields == nil {
		sensitiveFields = DefaultSensitiveFields()
	}
	return &Sanitizer{sensitiveFields: sensitiveFields}
}

// IsSensitive reports whether the named table is on the allow-list
func (s *Sanitizer) IsSensitive(tableName string) bool {
	_, ok := s.sensitiveFields[tableName]
	return ok
}

// Apply returns a sanitized copy of the records for the named table. The
// input slice and its records are never mutated; non-null values of the
// designated fields are replaced with the redaction marker.
func (s *Sanitizer) Apply(tableName string, records []archive.Record) []archive.Record {
	fields, sensitive := s.sensitiveFields[tableName]
	if !sensitive || len(records) == 0 {
		return records
	}

	redact := make(map[string]bool, len(fields))
	for _, field := range fields {
		redact[field] = true
	}

	sanitized := make([]archive.Record, len(records))
	for i, record := range records {
		clean := make(archive.Record, len(record))
		for column, value := range record {
			if redact[column] && !value.IsNull() {
				clean[column] = archive.String(RedactionMarker)
				continue
			}
			clean[column] = value
		}
		sanitized[i] = clean
	}

	return sanitized
}
