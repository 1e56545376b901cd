package archive

import (
	"fmt"

	apperrors "snapvault/internal/errors"
	"snapvault/internal/schema"
)

// Validator performs structural and semantic checks on archives before they
// are trusted. All checks are pure; a failure short-circuits the calling
// orchestration step and is reported, never silently corrected.
type Validator struct {
	registry *schema.Registry
}

// NewValidator creates a validator bound to the table registry
func NewValidator(registry *schema.Registry) *Validator {
	return &Validator{registry: registry}
}

// ValidateStructure checks that the archive has well-formed metadata and a
// present (possibly empty) data block
func (v *Validator) ValidateStructure(a *Archive) error {
	if a == nil {
		return apperrors.NewInvalidArchiveError("archive is nil", nil)
	}

	if a.Metadata == nil {
		return apperrors.NewInvalidArchiveError("archive metadata is missing", nil)
	}

	if !IsValidID(a.Metadata.ID) {
		return apperrors.NewInvalidArchiveError(
			fmt.Sprintf("archive id %q is not a valid identifier", a.Metadata.ID), nil)
	}

	if a.Metadata.Name == "" {
		return apperrors.NewInvalidArchiveError("archive name is empty", nil)
	}

	if a.Data == nil {
		return apperrors.NewInvalidArchiveError("archive data block is missing", nil)
	}

	return nil
}

// ValidateForSQLExport performs the stricter checks SQL generation relies on:
// a recognized format marker, no unknown tables, tables in registry
// dependency order, and every table referenced by a foreign key present in
// the data block (even if empty) so emission order can always be resolved.
func (v *Validator) ValidateForSQLExport(a *Archive) error {
	if err := v.ValidateStructure(a); err != nil {
		return err
	}

	if a.Metadata.FormatVersion != FormatVersion {
		return apperrors.NewInvalidArchiveError(
			fmt.Sprintf("unrecognized archive format version %q", a.Metadata.FormatVersion), nil)
	}

	lastPosition := -1
	for _, name := range a.Data.Tables() {
		position, known := v.registry.Position(name)
		if !known {
			return apperrors.NewInvalidArchiveError(
				fmt.Sprintf("archive contains unknown table %s", name), nil)
		}
		if position <= lastPosition {
			return apperrors.NewInvalidArchiveError(
				fmt.Sprintf("table %s is out of dependency order", name), nil)
		}
		lastPosition = position
	}

	for _, table := range v.registry.Tables() {
		for _, foreignKey := range table.ForeignKeys {
			if !a.Data.Contains(foreignKey.ReferencedTable) {
				return apperrors.NewInvalidArchiveError(
					fmt.Sprintf("table %s references %s, which is missing from the archive",
						table.Name, foreignKey.ReferencedTable), nil)
			}
		}
	}

	return nil
}
