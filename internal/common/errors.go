// Package common holds the typed error kinds shared across the
// rehearsal packages.
//
// Four kinds cover every failure the library surfaces deliberately:
//   - ConfigurationError: invalid hyperparameters or capacity policies
//   - DataConsistencyError: mismatched parallel structures, unindexable data
//   - StateError: pairing violations (EMA apply/restore, BN freeze/unfreeze)
//   - UnsupportedMethodError: unknown algorithm name at the config boundary
//
// None of these are retried: a corrupted training or memory state is
// unsafe to continue from, so each is returned to the caller immediately.
// Match them with errors.As:
//
//	var cfgErr *common.ConfigurationError
//	if errors.As(err, &cfgErr) { ... }
package common

import "fmt"

// ConfigurationError reports an invalid configuration value, such as an
// empty milestone list or both memory policies set at once.
type ConfigurationError struct {
	Field  string // Offending configuration field
	Reason string // Why the value is invalid
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError builds a ConfigurationError for the given field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DataConsistencyError reports mismatched lengths across parallel data
// structures or a container type that cannot be indexed.
type DataConsistencyError struct {
	Detail string
}

func (e *DataConsistencyError) Error() string {
	return "data consistency error: " + e.Detail
}

// NewDataConsistencyError builds a DataConsistencyError.
func NewDataConsistencyError(format string, args ...any) *DataConsistencyError {
	return &DataConsistencyError{Detail: fmt.Sprintf(format, args...)}
}

// StateError reports a pairing violation on a stateful utility, such as
// calling EMA Apply twice without an intervening Restore.
type StateError struct {
	Op     string // Operation that was attempted
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state error: %s: %s", e.Op, e.Reason)
}

// NewStateError builds a StateError for the given operation.
func NewStateError(op, format string, args ...any) *StateError {
	return &StateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedMethodError reports a request for an algorithm this build
// does not provide.
type UnsupportedMethodError struct {
	Name string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported method: %q", e.Name)
}
