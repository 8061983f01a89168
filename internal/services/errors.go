package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/difficulty-export/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Configuration errors end the run
	ErrStoreUnavailable    = errors.New("key-value store unavailable")
	ErrExportDirUnwritable = errors.New("export directory not writable")
	ErrRunInProgress       = errors.New("an export run is already in progress")

	// Record-level errors are logged and skipped
	ErrMalformedRecord = errors.New("malformed record")
	ErrMissingIdentity = errors.New("record missing respondent or question id")
	ErrInvalidDataset  = errors.New("invalid dataset id")
	ErrInvalidKey      = errors.New("unrecognised answer key")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// RecordError marks a failure confined to one stored record
type RecordError struct {
	Key     string `json:"key"`
	Dataset string `json:"dataset,omitempty"`
	Err     error  `json:"-"`
}

func (re *RecordError) Error() string {
	return fmt.Sprintf("record %s: %v", re.Key, re.Err)
}

func (re *RecordError) Unwrap() error {
	return re.Err
}

func NewRecordError(key, dataset string, err error) *RecordError {
	return &RecordError{
		Key:     key,
		Dataset: dataset,
		Err:     err,
	}
}

// ===== ERROR HELPERS =====

// IsRecordLevel reports whether err only affects a single record
func IsRecordLevel(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}

// IsConfiguration reports whether err should terminate the run
func IsConfiguration(err error) bool {
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrExportDirUnwritable) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict reports whether err is a concurrent-run rejection
func IsConflict(err error) bool {
	return errors.Is(err, ErrRunInProgress)
}
