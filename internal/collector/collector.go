package collector

import (
	"context"
	"sync"
	"time"

	"snapvault/internal/archive"
	"snapvault/internal/datasource"
	"snapvault/internal/logging"
	"snapvault/internal/sanitize"
	"snapvault/internal/schema"
)

// Collector reads every registered table through the data-access layer and
// assembles a single in-memory data block. Reads run concurrently, one
// goroutine per table, but assembly is synchronized: results land in the
// registry's fixed dependency order regardless of completion order, and a
// single failing read cancels the remaining in-flight reads. Partial
// snapshots are never returned.
type Collector struct {
	registry  *schema.Registry
	source    datasource.RecordLister
	sanitizer *sanitize.Sanitizer
	logger    *logging.Logger
}

// NewCollector creates a collector over the registry and data source
func NewCollector(registry *schema.Registry, source datasource.RecordLister, sanitizer *sanitize.Sanitizer, logger *logging.Logger) *Collector {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	if sanitizer == nil {
		sanitizer = sanitize.NewSanitizer(nil)
	}

	return &Collector{
		registry:  registry,
		source:    source,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

type tableResult struct {
	records []archive.Record
	err     error
}

// Collect snapshots every registered table. When sanitizeSnapshots is true,
// sensitive tables pass through the sanitizer before assembly.
func (c *Collector) Collect(ctx context.Context, sanitizeSnapshots bool) (*archive.TableData, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tables := c.registry.TableNames()
	results := make([]tableResult, len(tables))

	var wg sync.WaitGroup
	for i, table := range tables {
		wg.Add(1)
		go func(index int, table string) {
			defer wg.Done()

			start := time.Now()
			records, err := c.source.ListAll(ctx, table)
			c.logger.LogTableRead(table, len(records), time.Since(start), err)

			if err != nil {
				results[index] = tableResult{err: err}
				cancel() // fail fast: stop the remaining reads
				return
			}

			if sanitizeSnapshots {
				records = c.sanitizer.Apply(table, records)
			}
			results[index] = tableResult{records: records}
		}(i, table)
	}
	wg.Wait()

	// Surface the first failure in registry order so the reported table is
	// deterministic even when several reads race to fail.
	for _, result := range results {
		if result.err != nil {
			return nil, result.err
		}
	}

	data := archive.NewTableData()
	for i, table := range tables {
		if err := data.Append(table, results[i].records); err != nil {
			return nil, err
		}
	}

	return data, nil
}
