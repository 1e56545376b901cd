package service

import (
	"context"
	"fmt"
	"time"

	"snapvault/internal/archive"
	apperrors "snapvault/internal/errors"
	"snapvault/internal/logging"
	"snapvault/internal/ratelimit"
	"snapvault/internal/sqldump"
	"snapvault/internal/store"
)

const (
	// MaxNameLength bounds the human label of a backup
	MaxNameLength = 100
	// MaxDescriptionLength bounds the optional description
	MaxDescriptionLength = 500
)

// SnapshotCollector assembles a full table snapshot
type SnapshotCollector interface {
	Collect(ctx context.Context, sanitize bool) (*archive.TableData, error)
}

// ArchiveStore persists archives
type ArchiveStore interface {
	Save(ctx context.Context, a *archive.Archive) (int64, error)
	Load(ctx context.Context, id string) (*archive.Archive, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]store.Summary, error)
}

// ArchiveValidator checks archives before they are persisted or exported
type ArchiveValidator interface {
	ValidateStructure(a *archive.Archive) error
	ValidateForSQLExport(a *archive.Archive) error
}

// ScriptGenerator renders an archive as an SQL script
type ScriptGenerator interface {
	Generate(a *archive.Archive, options sqldump.Options) ([]byte, error)
}

// BackupService orchestrates backup creation, listing, deletion and SQL
// export. It is the only entry point the transport layer calls; operator
// authentication has already happened by the time a method here runs.
type BackupService struct {
	collector SnapshotCollector
	validator ArchiveValidator
	store     ArchiveStore
	dumper    ScriptGenerator
	limiter   *ratelimit.Limiter
	logger    *logging.Logger

	// sanitizeSnapshots redacts credential fields during collection.
	// Off by default: backups are assumed to feed same-trust restores.
	sanitizeSnapshots bool
	batchSize         int
}

// Options configures a BackupService
type Options struct {
	SanitizeSnapshots bool
	// BatchSize is the number of rows per INSERT statement in generated SQL.
	// Zero selects the dumper's default.
	BatchSize int
}

// New creates a backup service from its collaborators
func New(collector SnapshotCollector, validator ArchiveValidator, archives ArchiveStore, dumper ScriptGenerator, limiter *ratelimit.Limiter, logger *logging.Logger, options Options) *BackupService {
	if limiter == nil {
		limiter = ratelimit.NewLimiter(nil, nil)
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	return &BackupService{
		collector:         collector,
		validator:         validator,
		store:             archives,
		dumper:            dumper,
		limiter:           limiter,
		logger:            logger,
		sanitizeSnapshots: options.SanitizeSnapshots,
		batchSize:         options.BatchSize,
	}
}

// CreateResult describes a freshly created backup
type CreateResult struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	SizeBytes    int64     `json:"size_bytes"`
	TableCount   int       `json:"table_count"`
	TotalRecords int       `json:"total_records"`
}

// CreateBackup snapshots every registered table and persists the archive.
// The rate limit is checked before any table is read, and recorded only
// after the archive is stored, so a failed attempt does not burn the
// operator's cooldown.
func (s *BackupService) CreateBackup(ctx context.Context, operator, name, description string) (result *CreateResult, err error) {
	done := s.logger.LogOperationStart(string(ratelimit.OpCreateBackup), map[string]interface{}{
		"operator": operator,
	})
	defer func() { done(err) }()

	if name == "" {
		return nil, apperrors.NewValidationError("backup name is required", nil)
	}
	if len(name) > MaxNameLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("backup name exceeds %d characters", MaxNameLength), nil)
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("backup description exceeds %d characters", MaxDescriptionLength), nil)
	}

	if !s.limiter.CanPerform(operator, ratelimit.OpCreateBackup) {
		remaining := s.limiter.RemainingCooldown(operator, ratelimit.OpCreateBackup)
		s.logger.LogRateLimited(operator, string(ratelimit.OpCreateBackup), remaining)
		return nil, apperrors.NewRateLimitedError(
			fmt.Sprintf("backup creation allowed again in %s", remaining.Round(time.Second)), remaining)
	}

	start := time.Now()

	data, err := s.collector.Collect(ctx, s.sanitizeSnapshots)
	if err != nil {
		return nil, err
	}

	a := archive.New(name, description, operator, data)
	if err := s.validator.ValidateStructure(a); err != nil {
		return nil, err
	}

	sizeBytes, err := s.store.Save(ctx, a)
	if err != nil {
		return nil, err
	}

	s.limiter.RecordPerformed(operator, ratelimit.OpCreateBackup)
	s.logger.LogBackupCreated(a.Metadata.ID, operator, sizeBytes, a.TableCount(), a.TotalRecords(), time.Since(start))

	return &CreateResult{
		ID:           a.Metadata.ID,
		Name:         a.Metadata.Name,
		Description:  a.Metadata.Description,
		CreatedAt:    a.Metadata.CreatedAt,
		SizeBytes:    sizeBytes,
		TableCount:   a.TableCount(),
		TotalRecords: a.TotalRecords(),
	}, nil
}

// ListBackups returns a summary of every stored backup, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]store.Summary, error) {
	return s.store.List(ctx)
}

// DeleteBackup removes a stored backup. Deleting a missing ID returns a
// not-found error; repeating the call is safe and yields the same result.
func (s *BackupService) DeleteBackup(ctx context.Context, id string) (err error) {
	done := s.logger.LogOperationStart("delete_backup", map[string]interface{}{
		"backup_id": id,
	})
	defer func() { done(err) }()

	if !archive.IsValidID(id) {
		return apperrors.NewValidationError(
			fmt.Sprintf("invalid backup id: %s", id), nil)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infof("Backup %s deleted", id)
	return nil
}

// Export is a generated SQL script plus the filename the transport layer
// should suggest for it
type Export struct {
	Filename string
	SQL      []byte
}

// ExportSQL loads a stored backup, validates it for export and renders it as
// an SQL script
func (s *BackupService) ExportSQL(ctx context.Context, operator, id string, exportType sqldump.ExportType) (export *Export, err error) {
	done := s.logger.LogOperationStart(string(ratelimit.OpDownload), map[string]interface{}{
		"operator":    operator,
		"backup_id":   id,
		"export_type": string(exportType),
	})
	defer func() { done(err) }()

	if !archive.IsValidID(id) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid backup id: %s", id), nil)
	}
	if !exportType.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported export type: %s", exportType), nil)
	}

	if !s.limiter.CanPerform(operator, ratelimit.OpDownload) {
		remaining := s.limiter.RemainingCooldown(operator, ratelimit.OpDownload)
		s.logger.LogRateLimited(operator, string(ratelimit.OpDownload), remaining)
		return nil, apperrors.NewRateLimitedError(
			fmt.Sprintf("export allowed again in %s", remaining.Round(time.Second)), remaining)
	}

	start := time.Now()

	a, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateForSQLExport(a); err != nil {
		return nil, err
	}

	options := sqldump.DefaultOptions(exportType)
	if s.batchSize > 0 {
		options.BatchSize = s.batchSize
	}
	script, err := s.dumper.Generate(a, options)
	if err != nil {
		return nil, err
	}

	s.limiter.RecordPerformed(operator, ratelimit.OpDownload)
	s.logger.LogSQLExport(id, operator, string(exportType), len(script), time.Since(start))

	filename := id + ".sql"
	if exportType != sqldump.ExportComplete {
		filename = fmt.Sprintf("%s_%s.sql", id, exportType)
	}

	return &Export{Filename: filename, SQL: script}, nil
}
