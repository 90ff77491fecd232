package headlines

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when clustering parameters are rejected before a run starts.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch is returned when vectors in one batch do not share a dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCollaborator is returned when an external provider fails under the fail-fast policy.
	ErrCollaborator = errors.New("collaborator failure")

	// ErrNotSymmetric is returned when a precomputed similarity matrix is not square and symmetric.
	ErrNotSymmetric = errors.New("similarity matrix is not symmetric")
)

// ConfigError describes a single rejected parameter.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }
