package archive

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatVersion is the archive format marker written into every new archive.
// Readers reject archives whose marker they do not recognize.
const FormatVersion = "1"

// AppVersion is set at build time
var AppVersion = "dev"

// idPattern is the filesystem-safe identifier pattern archive IDs must match
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// IsValidID reports whether id matches the filesystem-safe identifier pattern
func IsValidID(id string) bool {
	return id != "" && idPattern.MatchString(id)
}

// GenerateID generates a unique archive ID: a timestamp prefix for natural
// sorting plus a short UUID suffix for uniqueness
func GenerateID() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("bk-%s-%s", timestamp, short)
}

// Metadata describes one archive. Created once at archive creation time and
// immutable thereafter.
type Metadata struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	FormatVersion string    `json:"format_version"`
	AppVersion    string    `json:"app_version,omitempty"`
}

// Archive is a self-contained snapshot of all tables plus metadata, as
// produced by a single backup operation
type Archive struct {
	Metadata *Metadata  `json:"metadata"`
	Data     *TableData `json:"data"`
}

// New creates an archive with freshly generated metadata
func New(name, description, createdBy string, data *TableData) *Archive {
	return &Archive{
		Metadata: &Metadata{
			ID:            GenerateID(),
			Name:          name,
			Description:   description,
			CreatedBy:     createdBy,
			CreatedAt:     time.Now().UTC(),
			FormatVersion: FormatVersion,
			AppVersion:    AppVersion,
		},
		Data: data,
	}
}

// ToJSON serializes the archive. The metadata block precedes the data block
// and table order inside the data block is preserved.
func (a *Archive) ToJSON() ([]byte, error) {
	return json.MarshalIndent(a, "", "  ")
}

// FromJSON deserializes an archive
func FromJSON(data []byte) (*Archive, error) {
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archive: %w", err)
	}
	return &a, nil
}

// TableCount returns the number of tables in the data block
func (a *Archive) TableCount() int {
	if a.Data == nil {
		return 0
	}
	return a.Data.Len()
}

// TotalRecords returns the record count summed over all tables
func (a *Archive) TotalRecords() int {
	if a.Data == nil {
		return 0
	}
	return a.Data.TotalRecords()
}
