// errors.go: structured error handling for lockfree map and incinerator operations
//
// This file provides coded, contextual error values using the go-errors
// library. The core map operations (Insert, Get, Remove) never return an
// error per the data structure's contract; these types cover the parts of
// the surface that genuinely can fail: GetOrInsert loaders, reentrant
// reclamation misuse, and hot-reload configuration.
package lockfree

import (
	goerrors "errors"
	"fmt"

	"github.com/agilira/go-errors"
)

// Error codes for lockfree operations.
const (
	// Loader errors (1xxx)
	ErrCodeInvalidLoader   errors.ErrorCode = "LOCKFREE_INVALID_LOADER"
	ErrCodeLoaderCancelled errors.ErrorCode = "LOCKFREE_LOADER_CANCELLED"

	// Reclamation errors (2xxx)
	ErrCodeReentrantReclaim errors.ErrorCode = "LOCKFREE_REENTRANT_RECLAIM"

	// Configuration errors (3xxx)
	ErrCodeInvalidConfig  errors.ErrorCode = "LOCKFREE_INVALID_CONFIG"
	ErrCodeInvalidMaxSize errors.ErrorCode = "LOCKFREE_INVALID_MAX_SIZE"

	// Internal errors (5xxx)
	ErrCodeInternalError  errors.ErrorCode = "LOCKFREE_INTERNAL_ERROR"
	ErrCodePanicRecovered errors.ErrorCode = "LOCKFREE_PANIC_RECOVERED"
)

const (
	msgInvalidLoader     = "loader function cannot be nil"
	msgLoaderCancelled   = "loader function was cancelled"
	msgReentrantReclaim  = "dropper invoked incinerator.Add transitively"
	msgInvalidConfigPath = "invalid configuration"
	msgInvalidMaxSize    = "invalid value: must be greater than 0"
	msgInternalError     = "internal lockfree error"
	msgPanicRecovered    = "panic recovered in loader"
)

// NewErrInvalidLoader creates an error for a nil GetOrInsert loader.
func NewErrInvalidLoader(key string) error {
	return errors.NewWithField(ErrCodeInvalidLoader, msgInvalidLoader, "key", key)
}

// NewErrLoaderCancelled creates an error when a GetOrInsert loader is cancelled.
func NewErrLoaderCancelled(key string) error {
	return errors.NewWithField(ErrCodeLoaderCancelled, msgLoaderCancelled, "key", key)
}

// NewErrReentrantReclaim creates an error when a dropper calls Add transitively.
func NewErrReentrantReclaim(shard int) error {
	return errors.NewWithContext(ErrCodeReentrantReclaim, msgReentrantReclaim, map[string]interface{}{
		"shard": shard,
	})
}

// NewErrInvalidConfig creates an error for an invalid configuration value;
// reason says what is wrong (e.g. a missing HotConfig path or a negative
// TryForceInterval).
func NewErrInvalidConfig(reason string) error {
	return errors.NewWithField(ErrCodeInvalidConfig, msgInvalidConfigPath, "reason", reason)
}

// NewErrInvalidMaxSize creates an error for an invalid bound (e.g. queue warn length).
func NewErrInvalidMaxSize(field string, value int) error {
	return errors.NewWithContext(ErrCodeInvalidMaxSize, msgInvalidMaxSize, map[string]interface{}{
		"field":         field,
		"provided_size": value,
	})
}

// NewErrPanicRecovered creates an error when a GetOrInsert loader panics.
func NewErrPanicRecovered(operation string, panicValue interface{}) error {
	return errors.NewWithContext(ErrCodePanicRecovered, msgPanicRecovered, map[string]interface{}{
		"operation":   operation,
		"panic_value": fmt.Sprintf("%v", panicValue),
	}).WithSeverity("critical")
}

// NewErrInternal creates a generic internal error, optionally wrapping a cause.
func NewErrInternal(operation string, cause error) error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInternalError, msgInternalError).
			WithContext("operation", operation).
			WithSeverity("warning")
	}
	return errors.NewWithField(ErrCodeInternalError, msgInternalError, "operation", operation).
		WithSeverity("warning")
}

// IsLoaderError reports whether err originated from a GetOrInsert loader.
func IsLoaderError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidLoader || code == ErrCodeLoaderCancelled || code == ErrCodePanicRecovered
	}
	return false
}

// IsReentrantReclaim reports whether err signals a dropper calling Add transitively.
func IsReentrantReclaim(err error) bool {
	return errors.HasCode(err, ErrCodeReentrantReclaim)
}

// IsConfigError reports whether err originated from configuration validation.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		code := coder.ErrorCode()
		return code == ErrCodeInvalidConfig || code == ErrCodeInvalidMaxSize
	}
	return false
}

// GetErrorCode extracts the error code from err, if any.
func GetErrorCode(err error) errors.ErrorCode {
	if err == nil {
		return ""
	}
	var coder errors.ErrorCoder
	if goerrors.As(err, &coder) {
		return coder.ErrorCode()
	}
	return ""
}

// GetErrorContext extracts the structured context attached to err, if any.
func GetErrorContext(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var lfErr *errors.Error
	if goerrors.As(err, &lfErr) {
		return lfErr.Context
	}
	return nil
}
