package htm

import (
	"errors"
	"fmt"
)

// TemporalErrorType represents the category of temporal memory error
type TemporalErrorType string

const (
	// TemporalErrorConfiguration - Invalid temporal memory configuration
	TemporalErrorConfiguration TemporalErrorType = "configuration_error"
	// TemporalErrorInvalidColumn - Column index out of range
	TemporalErrorInvalidColumn TemporalErrorType = "invalid_column"
	// TemporalErrorInvalidCell - Cell index out of range
	TemporalErrorInvalidCell TemporalErrorType = "invalid_cell"
	// TemporalErrorCapacityExceeded - Segment or synapse capacity cap reached
	TemporalErrorCapacityExceeded TemporalErrorType = "capacity_exceeded"
	// TemporalErrorProcessing - Error during a compute step
	TemporalErrorProcessing TemporalErrorType = "processing_error"
	// TemporalErrorPersistence - Error while writing or reading a snapshot
	TemporalErrorPersistence TemporalErrorType = "persistence_error"
)

// IsValid checks if the temporal error type is valid
func (t TemporalErrorType) IsValid() bool {
	switch t {
	case TemporalErrorConfiguration, TemporalErrorInvalidColumn, TemporalErrorInvalidCell,
		TemporalErrorCapacityExceeded, TemporalErrorProcessing, TemporalErrorPersistence:
		return true
	default:
		return false
	}
}

// String returns the string representation of the error type
func (t TemporalErrorType) String() string {
	return string(t)
}

// TemporalError represents errors that can occur during temporal memory operations
type TemporalError struct {
	ErrorType   TemporalErrorType `json:"error_type"`
	Message     string            `json:"message"`
	ConfigField string            `json:"config_field,omitempty"`
	Index       int               `json:"index,omitempty"`
}

// Error implements the error interface
func (e *TemporalError) Error() string {
	if e.ConfigField != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.ErrorType, e.Message, e.ConfigField)
	}
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Message)
}

// NewTemporalError creates a new temporal memory error
func NewTemporalError(errorType TemporalErrorType, message string) *TemporalError {
	return &TemporalError{
		ErrorType: errorType,
		Message:   message,
	}
}

// NewTemporalErrorWithField creates a new temporal memory error tied to a config field
func NewTemporalErrorWithField(errorType TemporalErrorType, message, configField string) *TemporalError {
	return &TemporalError{
		ErrorType:   errorType,
		Message:     message,
		ConfigField: configField,
	}
}

// NewInvalidColumnError creates an error for a column index out of range
func NewInvalidColumnError(column, numColumns int) *TemporalError {
	return &TemporalError{
		ErrorType: TemporalErrorInvalidColumn,
		Message:   fmt.Sprintf("column %d out of range [0, %d)", column, numColumns),
		Index:     column,
	}
}

// NewInvalidCellError creates an error for a cell index out of range
func NewInvalidCellError(cell, numCells int) *TemporalError {
	return &TemporalError{
		ErrorType: TemporalErrorInvalidCell,
		Message:   fmt.Sprintf("cell %d out of range [0, %d)", cell, numCells),
		Index:     cell,
	}
}

// NewCapacityExceededError creates an error for a segment or synapse cap overflow
func NewCapacityExceededError(message string) *TemporalError {
	return &TemporalError{
		ErrorType: TemporalErrorCapacityExceeded,
		Message:   message,
	}
}

// ErrorTypeOf extracts the TemporalErrorType from an error chain.
// Returns an empty type when err is not a TemporalError.
func ErrorTypeOf(err error) TemporalErrorType {
	var terr *TemporalError
	if errors.As(err, &terr) {
		return terr.ErrorType
	}
	return ""
}

// IsCapacityExceeded reports whether err is a capacity cap overflow
func IsCapacityExceeded(err error) bool {
	return ErrorTypeOf(err) == TemporalErrorCapacityExceeded
}
