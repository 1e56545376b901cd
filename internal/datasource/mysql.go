package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"snapvault/internal/archive"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/schema"
)

// Config holds MySQL connection configuration
type Config struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
}

// DSN builds the driver connection string. parseTime is always enabled so
// temporal columns scan as time.Time rather than raw bytes.
func (c Config) DSN() string {
	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

// Open opens a connection pool against the application database
func Open(config Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", config.DSN())
	if err != nil {
		return nil, apperrors.NewDataRetrievalError("failed to open database connection", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// MySQLSource implements RecordLister against the application's MySQL
// database. Table names are never interpolated from caller input: only
// registry tables can be read, and the column projection comes from the
// registry, so every identifier in the generated query is known text.
type MySQLSource struct {
	db       *sql.DB
	registry *schema.Registry
}

// NewMySQLSource creates a MySQL-backed record lister
func NewMySQLSource(db *sql.DB, registry *schema.Registry) *MySQLSource {
	return &MySQLSource{db: db, registry: registry}
}

// ListAll reads every record of the named registry table
func (s *MySQLSource) ListAll(ctx context.Context, table string) ([]archive.Record, error) {
	definition, known := s.registry.Lookup(table)
	if !known {
		return nil, apperrors.NewDataRetrievalError(
			fmt.Sprintf("table %s is not in the registry", table), nil)
	}

	columns := definition.ColumnNames()
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = "`" + column + "`"
	}

	query := fmt.Sprintf("SELECT %s FROM `%s`", strings.Join(quoted, ", "), table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.ClassifyDataError(table, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, apperrors.ClassifyDataError(table, err)
	}

	records := make([]archive.Record, 0)
	for rows.Next() {
		slots := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range slots {
			pointers[i] = &slots[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, apperrors.ClassifyDataError(table, err)
		}

		record := make(archive.Record, len(columns))
		for i, column := range columns {
			value, err := convertColumn(slots[i], columnTypes[i])
			if err != nil {
				return nil, apperrors.NewDataRetrievalError(
					fmt.Sprintf("unescapable value in %s.%s", table, column), err).
					WithContext("table", table).
					WithContext("column", column)
			}
			record[column] = value
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.ClassifyDataError(table, err)
	}

	return records, nil
}

// convertColumn coerces a scanned driver value into the archive scalar
// union, using the database column type to recover numbers and timestamps
// the text protocol delivers as raw bytes
func convertColumn(raw interface{}, columnType *sql.ColumnType) (archive.Value, error) {
	if raw == nil {
		return archive.Null(), nil
	}

	if bytes, ok := raw.([]byte); ok {
		text := string(bytes)
		switch strings.ToUpper(columnType.DatabaseTypeName()) {
		case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT",
			"DECIMAL", "FLOAT", "DOUBLE", "NUMERIC":
			return archive.NumberFromRaw(text)
		case "DATETIME", "TIMESTAMP":
			if t, err := time.Parse("2006-01-02 15:04:05", text); err == nil {
				return archive.Time(t), nil
			}
			return archive.String(text), nil
		case "DATE":
			if t, err := time.Parse("2006-01-02", text); err == nil {
				return archive.Time(t), nil
			}
			return archive.String(text), nil
		default:
			return archive.String(text), nil
		}
	}

	return archive.FromAny(raw)
}
