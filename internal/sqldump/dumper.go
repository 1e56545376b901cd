package sqldump

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"snapvault/internal/archive"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/schema"
)

// ExportType selects which sections of the SQL script are generated
type ExportType string

const (
	// ExportComplete emits structure and data
	ExportComplete ExportType = "complete"
	// ExportStructure emits table definitions only
	ExportStructure ExportType = "structure"
	// ExportData emits row data only
	ExportData ExportType = "data"
)

// Valid reports whether the export type is one of the supported values
func (t ExportType) Valid() bool {
	switch t {
	case ExportComplete, ExportStructure, ExportData:
		return true
	}
	return false
}

// DefaultBatchSize is the number of rows per multi-row INSERT statement
const DefaultBatchSize = 1000

// Options controls SQL script generation
type Options struct {
	// Type selects the script sections
	Type ExportType
	// IncludeDropStatements emits DELETE FROM statements in reverse
	// dependency order before the insert section. Forced on for data-only
	// exports, which target an already-populated schema.
	IncludeDropStatements bool
	// IncludeConstraints emits foreign keys and indexes after all table
	// definitions. Forced off for structure-only exports.
	IncludeConstraints bool
	// BatchSize is the number of rows per INSERT. Zero or negative selects
	// DefaultBatchSize.
	BatchSize int
}

// DefaultOptions returns the standard options for an export type
func DefaultOptions(exportType ExportType) Options {
	return Options{
		Type:                  exportType,
		IncludeDropStatements: exportType != ExportStructure,
		IncludeConstraints:    exportType == ExportComplete,
		BatchSize:             DefaultBatchSize,
	}
}

// normalize applies the forced flags and defaults
func (o Options) normalize() Options {
	switch o.Type {
	case ExportData:
		o.IncludeDropStatements = true
	case ExportStructure:
		o.IncludeConstraints = false
		o.IncludeDropStatements = false
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// Dumper converts a validated archive into an SQL script. Table emission
// order is the archive's own data order, which the validator has already
// confirmed to be the registry's dependency order. The dumper trusts it and
// never re-sorts.
type Dumper struct {
	registry *schema.Registry
}

// NewDumper creates a dumper over the table registry
func NewDumper(registry *schema.Registry) *Dumper {
	return &Dumper{registry: registry}
}

// Generate renders the archive as an SQL script. The whole script is built
// in memory; archive size is bounded by the store's size ceiling well before
// it reaches this point.
func (d *Dumper) Generate(a *archive.Archive, options Options) ([]byte, error) {
	if a == nil || a.Metadata == nil || a.Data == nil {
		return nil, apperrors.NewInvalidArchiveError("archive is missing metadata or data", nil)
	}
	if !options.Type.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported export type: %s", options.Type), nil)
	}
	options = options.normalize()

	tables := a.Data.Tables()

	var sb strings.Builder
	d.writeHeader(&sb, a, options)

	if options.Type != ExportData {
		for _, table := range tables {
			if err := d.writeCreateTable(&sb, table); err != nil {
				return nil, err
			}
		}
		if options.IncludeConstraints {
			d.writeConstraints(&sb, tables)
		}
	}

	if options.Type != ExportStructure {
		if options.IncludeDropStatements {
			writeDeleteSection(&sb, tables)
		}
		for _, table := range tables {
			records, _ := a.Data.Records(table)
			if err := d.writeInserts(&sb, table, records, options.BatchSize); err != nil {
				return nil, err
			}
		}
	}

	sb.WriteString("\nSET FOREIGN_KEY_CHECKS = 1;\n")
	return []byte(sb.String()), nil
}

func (d *Dumper) writeHeader(sb *strings.Builder, a *archive.Archive, options Options) {
	sb.WriteString("-- Cardbase backup export\n")
	fmt.Fprintf(sb, "-- Backup: %s (%s)\n", a.Metadata.ID, a.Metadata.Name)
	fmt.Fprintf(sb, "-- Created: %s\n", a.Metadata.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(sb, "-- Export type: %s\n", options.Type)
	fmt.Fprintf(sb, "-- Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	sb.WriteString("\nSET FOREIGN_KEY_CHECKS = 0;\n")
}

// writeCreateTable emits one CREATE TABLE statement from the registry
// definition. Structure always comes from the registry, never from the data.
func (d *Dumper) writeCreateTable(sb *strings.Builder, table string) error {
	definition, known := d.registry.Lookup(table)
	if !known {
		return apperrors.NewInvalidArchiveError(
			fmt.Sprintf("table %s is not in the registry", table), nil)
	}

	fmt.Fprintf(sb, "\n-- Structure for table `%s`\n", table)
	fmt.Fprintf(sb, "DROP TABLE IF EXISTS `%s`;\n", table)
	fmt.Fprintf(sb, "CREATE TABLE `%s` (\n", table)

	lines := make([]string, 0, len(definition.Columns)+1)
	for _, column := range definition.Columns {
		line := fmt.Sprintf("  `%s` %s", column.Name, column.DataType)
		if !column.Nullable {
			line += " NOT NULL"
		}
		if column.Default != nil {
			line += " DEFAULT " + *column.Default
		}
		if column.Extra != "" {
			line += " " + column.Extra
		}
		lines = append(lines, line)
	}
	if len(definition.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", quoteList(definition.PrimaryKey)))
	}

	sb.WriteString(strings.Join(lines, ",\n"))
	sb.WriteString("\n);\n")
	return nil
}

// writeConstraints emits foreign keys and indexes for every exported table,
// after all table definitions so nothing is referenced before it exists
func (d *Dumper) writeConstraints(sb *strings.Builder, tables []string) {
	wrote := false
	for _, table := range tables {
		definition, known := d.registry.Lookup(table)
		if !known {
			continue
		}
		for _, fk := range definition.ForeignKeys {
			if !wrote {
				sb.WriteString("\n-- Constraints\n")
				wrote = true
			}
			fmt.Fprintf(sb, "ALTER TABLE `%s` ADD CONSTRAINT `%s` FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`)",
				table, fk.Name, fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
			if fk.OnDelete != "" {
				fmt.Fprintf(sb, " ON DELETE %s", fk.OnDelete)
			}
			sb.WriteString(";\n")
		}
		for _, index := range definition.Indexes {
			if !wrote {
				sb.WriteString("\n-- Constraints\n")
				wrote = true
			}
			unique := ""
			if index.Unique {
				unique = "UNIQUE "
			}
			fmt.Fprintf(sb, "CREATE %sINDEX `%s` ON `%s` (%s);\n",
				unique, index.Name, table, quoteList(index.Columns))
		}
	}
}

// writeDeleteSection clears every table in reverse dependency order, children
// before parents
func writeDeleteSection(sb *strings.Builder, tables []string) {
	sb.WriteString("\n-- Clear existing data\n")
	for i := len(tables) - 1; i >= 0; i-- {
		fmt.Fprintf(sb, "DELETE FROM `%s`;\n", tables[i])
	}
}

// writeInserts emits multi-row INSERT statements for one table, batchSize
// rows per statement
func (d *Dumper) writeInserts(sb *strings.Builder, table string, records []archive.Record, batchSize int) error {
	fmt.Fprintf(sb, "\n-- Data for table `%s` (%d records)\n", table, len(records))
	if len(records) == 0 {
		return nil
	}

	columns := d.projection(table, records)

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}

		fmt.Fprintf(sb, "INSERT INTO `%s` (%s) VALUES\n", table, quoteList(columns))
		for i, record := range records[start:end] {
			sb.WriteString("  (")
			for j, column := range columns {
				if j > 0 {
					sb.WriteString(", ")
				}
				literal, err := escapeValue(record[column])
				if err != nil {
					return apperrors.NewDataRetrievalError(
						fmt.Sprintf("unescapable value in %s.%s", table, column), err).
						WithContext("table", table).
						WithContext("column", column)
				}
				sb.WriteString(literal)
			}
			if start+i+1 < end {
				sb.WriteString("),\n")
			} else {
				sb.WriteString(");\n")
			}
		}
	}
	return nil
}

// projection returns the fixed column order for a table's insert statements:
// registry column order restricted to the keys actually present, with any
// unregistered keys appended in sorted order. Records missing a projected key
// are filled with NULL by escapeValue's zero-value behavior.
func (d *Dumper) projection(table string, records []archive.Record) []string {
	present := make(map[string]bool)
	for _, record := range records {
		for column := range record {
			present[column] = true
		}
	}

	columns := make([]string, 0, len(present))
	if definition, known := d.registry.Lookup(table); known {
		for _, column := range definition.ColumnNames() {
			if present[column] {
				columns = append(columns, column)
				delete(present, column)
			}
		}
	}

	extras := make([]string, 0, len(present))
	for column := range present {
		extras = append(extras, column)
	}
	sort.Strings(extras)
	return append(columns, extras...)
}

// escapeValue renders one scalar as an SQL literal. A missing key yields the
// zero Value, which is NULL.
func escapeValue(v archive.Value) (string, error) {
	switch v.Kind() {
	case archive.KindNull:
		return "NULL", nil
	case archive.KindBool:
		if v.BoolVal() {
			return "TRUE", nil
		}
		return "FALSE", nil
	case archive.KindNumber:
		return v.NumberRaw(), nil
	case archive.KindString:
		return quoteString(v.StringVal()), nil
	case archive.KindTime:
		return "'" + v.TimeVal().UTC().Format("2006-01-02 15:04:05") + "'", nil
	default:
		return "", fmt.Errorf("value of kind %s cannot be rendered as SQL", v.Kind())
	}
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

func quoteString(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = "`" + name + "`"
	}
	return strings.Join(quoted, ", ")
}
