package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// Error types for the relex system
type ErrorType string

const (
	// Token model errors
	ErrorTypeContract    ErrorType = "contract"
	ErrorTypeConsistency ErrorType = "consistency"
	ErrorTypeLanguage    ErrorType = "language"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFileIO       ErrorType = "file_io"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// ErrNeedsRebuild is returned by an updater whose previous edit failed.
// The token list is in an indeterminate state until it is rebuilt.
var ErrNeedsRebuild = errors.New("token list needs a rebuild after a failed edit")

// ContractError reports a caller or lexer breaking the token model contract:
// offsets or lengths out of range, impossible backups, oversized tokens.
type ContractError struct {
	Type       ErrorType
	Operation  string
	Offset     int
	Underlying error
	Timestamp  time.Time
}

// NewContractError creates a new contract error
func NewContractError(op string, err error) *ContractError {
	return &ContractError{
		Type:       ErrorTypeContract,
		Operation:  op,
		Offset:     -1,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithOffset records the buffer offset the violation refers to
func (e *ContractError) WithOffset(offset int) *ContractError {
	e.Offset = offset
	return e
}

// Error implements the error interface
func (e *ContractError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s violation in %s at offset %d: %v", e.Type, e.Operation, e.Offset, e.Underlying)
	}
	return fmt.Sprintf("%s violation in %s: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *ContractError) Unwrap() error {
	return e.Underlying
}

// ConsistencyError reports a divergence between the incrementally maintained
// token list and a batch lex of the same text. It carries everything needed to
// reproduce the failure.
type ConsistencyError struct {
	Type            ErrorType
	Index           int
	Field           string
	Expected        string
	Actual          string
	Operation       string
	Text            string // escaped buffer text
	IncrementalDump string
	BatchDump       string
	Timestamp       time.Time
}

// NewConsistencyError creates a new consistency error for the token at index
func NewConsistencyError(index int, field, expected, actual string) *ConsistencyError {
	return &ConsistencyError{
		Type:      ErrorTypeConsistency,
		Index:     index,
		Field:     field,
		Expected:  expected,
		Actual:    actual,
		Timestamp: time.Now(),
	}
}

// WithDumps attaches the escaped text and both token dumps
func (e *ConsistencyError) WithDumps(text, incremental, batch string) *ConsistencyError {
	e.Text = text
	e.IncrementalDump = incremental
	e.BatchDump = batch
	return e
}

// WithOperation records the edit that exposed the mismatch
func (e *ConsistencyError) WithOperation(op string) *ConsistencyError {
	e.Operation = op
	return e
}

// Error implements the error interface
func (e *ConsistencyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "token %d: %s mismatch: batch=%s incremental=%s", e.Index, e.Field, e.Expected, e.Actual)
	if e.Operation != "" {
		fmt.Fprintf(&sb, " after %s", e.Operation)
	}
	if e.Text != "" {
		fmt.Fprintf(&sb, "\ntext: %s", e.Text)
	}
	if e.IncrementalDump != "" {
		sb.WriteString("\nincremental:\n")
		sb.WriteString(e.IncrementalDump)
	}
	if e.BatchDump != "" {
		sb.WriteString("\nbatch:\n")
		sb.WriteString(e.BatchDump)
	}
	return sb.String()
}

// LanguageError represents a lookup of an unregistered language
type LanguageError struct {
	Type        ErrorType
	Name        string
	Suggestions []string
	Timestamp   time.Time
}

// NewLanguageError creates a new language lookup error
func NewLanguageError(name string, suggestions []string) *LanguageError {
	return &LanguageError{
		Type:        ErrorTypeLanguage,
		Name:        name,
		Suggestions: suggestions,
		Timestamp:   time.Now(),
	}
}

// Error implements the error interface
func (e *LanguageError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("unknown language %q (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("unknown language %q", e.Name)
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileIO
	switch {
	case errors.Is(err, fs.ErrPermission):
		errorType = ErrorTypePermission
	case errors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}
