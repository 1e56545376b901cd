package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TableData is the data block of an archive: table name to ordered records.
// Insertion order is preserved and is significant - it is the dependency
// order established at collection time, trusted later by the SQL dumper.
// Storing the order in the type, rather than relying on map iteration,
// makes the ordering invariant enforceable.
type TableData struct {
	names   []string
	records map[string][]Record
}

// NewTableData creates an empty data block
func NewTableData() *TableData {
	return &TableData{
		names:   make([]string, 0),
		records: make(map[string][]Record),
	}
}

// Append adds a table snapshot, rejecting duplicate table names
func (td *TableData) Append(name string, records []Record) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if _, exists := td.records[name]; exists {
		return fmt.Errorf("table %s appended twice", name)
	}
	if records == nil {
		records = []Record{}
	}

	td.names = append(td.names, name)
	td.records[name] = records
	return nil
}

// Tables returns the table names in insertion order
func (td *TableData) Tables() []string {
	names := make([]string, len(td.names))
	copy(names, td.names)
	return names
}

// Records returns the snapshot of the named table
func (td *TableData) Records(name string) ([]Record, bool) {
	records, ok := td.records[name]
	return records, ok
}

// Contains reports whether the named table is present (possibly empty)
func (td *TableData) Contains(name string) bool {
	_, ok := td.records[name]
	return ok
}

// Len returns the number of tables in the data block
func (td *TableData) Len() int {
	return len(td.names)
}

// TotalRecords returns the record count summed over all tables
func (td *TableData) TotalRecords() int {
	total := 0
	for _, records := range td.records {
		total += len(records)
	}
	return total
}

// MarshalJSON serializes the data block as a JSON object whose key order is
// the insertion order
func (td *TableData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, name := range td.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		records, err := json.Marshal(td.records[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal table %s: %w", name, err)
		}
		buf.Write(records)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses the data block, preserving the document's key order
func (td *TableData) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to read data block: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("data block must be a JSON object")
	}

	td.names = make([]string, 0)
	td.records = make(map[string][]Record)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to read table name: %w", err)
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("table name must be a string")
		}

		var records []Record
		if err := dec.Decode(&records); err != nil {
			return fmt.Errorf("failed to decode records for table %s: %w", name, err)
		}

		if err := td.Append(name, records); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to read end of data block: %w", err)
	}

	return nil
}
