package auth

import (
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

const (
	TextCodeNoRowFound      = "repo_no_row_found"
	TextCodeInvalidSearch   = "repo_invalid_search"
	TextCodeDuplicateRecord = "repo_duplicate_record"
	TextCodeRepository      = "repo_failure"
)

var (
	// ErrNoRowFound no record matched the filter or id
	ErrNoRowFound = errors.New("no row found", errors.CategoryNotFound).
			WithTextCode(TextCodeNoRowFound).
			WithCode(errors.CodeNotFound)

	// ErrInvalidSearch the filter can not be evaluated
	ErrInvalidSearch = errors.New("invalid search parameter", errors.CategoryBadInput).
				WithTextCode(TextCodeInvalidSearch).
				WithCode(errors.CodeBadRequest)

	// ErrDuplicateRecord a unique constraint was violated
	ErrDuplicateRecord = errors.New("duplicate record", errors.CategoryConflict).
				WithTextCode(TextCodeDuplicateRecord).
				WithCode(errors.CodeConflict)

	// ErrRepository wraps engine failures
	ErrRepository = errors.New("repository failure", errors.CategoryInternal).
			WithTextCode(TextCodeRepository).
			WithCode(errors.CodeInternal)
)

// NewNoRowFound returns ErrNoRowFound carrying meta
func NewNoRowFound(meta map[string]any) error {
	clone := ErrNoRowFound.Clone()
	if len(meta) > 0 {
		clone = clone.WithMetadata(meta)
	}
	return clone
}

// NewInvalidSearch returns ErrInvalidSearch with the failure cause
func NewInvalidSearch(msg string, src error) error {
	clone := ErrInvalidSearch.Clone()
	if msg != "" {
		clone.Message = msg
	}
	clone.Source = src
	return clone
}

// NewDuplicateRecord returns ErrDuplicateRecord carrying meta
func NewDuplicateRecord(meta map[string]any, src error) error {
	clone := ErrDuplicateRecord.Clone()
	clone.Source = src
	if len(meta) > 0 {
		clone = clone.WithMetadata(meta)
	}
	return clone
}

// IsNoRowFound checks for absent records, including the bun and
// database/sql not found errors
func IsNoRowFound(err error) bool {
	if err == nil {
		return false
	}
	if textCodeOf(err) == TextCodeNoRowFound {
		return true
	}
	return errors.Is(err, sql.ErrNoRows) || repository.IsRecordNotFound(err)
}

// IsInvalidSearch checks for filters that can not be evaluated
func IsInvalidSearch(err error) bool {
	return textCodeOf(err) == TextCodeInvalidSearch
}

// IsDuplicateRecord checks for unique constraint violations
func IsDuplicateRecord(err error) bool {
	return textCodeOf(err) == TextCodeDuplicateRecord
}

// classifyRepoError normalizes engine errors into the repository taxonomy
func classifyRepoError(err error, meta map[string]any) error {
	if err == nil {
		return nil
	}

	switch textCodeOf(err) {
	case TextCodeNoRowFound, TextCodeInvalidSearch, TextCodeDuplicateRecord, TextCodeRepository:
		return err
	}

	switch {
	case IsNoRowFound(err):
		return NewNoRowFound(meta)
	case isUniqueViolation(err):
		return NewDuplicateRecord(meta, err)
	}

	wrapped := errors.Wrap(err, ErrRepository.Category, ErrRepository.Message).
		WithTextCode(TextCodeRepository)
	if len(meta) > 0 {
		wrapped = wrapped.WithMetadata(meta)
	}
	return wrapped
}

func isUniqueViolation(err error) bool {
	for err != nil {
		msg := err.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "SQLSTATE=23505") ||
			strings.Contains(msg, "duplicate key value violates unique constraint") {
			return true
		}

		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
