package datasource

import (
	"context"

	"snapvault/internal/archive"
)

// RecordLister is the read interface the snapshot collector consumes: one
// "read all records" operation per table. The relational data-access layer
// of the surrounding application satisfies it; tests substitute fakes.
type RecordLister interface {
	ListAll(ctx context.Context, table string) ([]archive.Record, error)
}
