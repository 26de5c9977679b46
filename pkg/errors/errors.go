package errors

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Configuration and connection problems surface
// before any computation; data and fit problems abort the run.

var (
	// ErrConnection indicates the relational source is unreachable
	ErrConnection = errors.New("data source unreachable")

	// ErrSchemaViolation indicates a required base column is missing from the input
	ErrSchemaViolation = errors.New("schema violation")

	// ErrEmptyPartition indicates a partition contains no rows
	ErrEmptyPartition = errors.New("empty partition")

	// ErrEmptyTrainingSet indicates no labeled rows remain to train on
	ErrEmptyTrainingSet = errors.New("empty training set")

	// ErrDegenerateWeights indicates all model families scored zero OOF F1,
	// leaving the ensemble weighting undefined
	ErrDegenerateWeights = errors.New("degenerate ensemble weights: all OOF F1 scores are zero")

	// ErrFoldFit indicates a model failed to fit inside a CV fold
	ErrFoldFit = errors.New("fold model fit failed")

	// ErrArtifactMissing indicates a transform referenced a statistic the
	// training pass never recorded
	ErrArtifactMissing = errors.New("feature artifact missing")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// SchemaError reports which column is missing from which table.
type SchemaError struct {
	Table  string
	Column string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation: table %q is missing column %q", e.Table, e.Column)
}

// Unwrap makes SchemaError match ErrSchemaViolation via errors.Is
func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

// NewSchemaError creates a schema violation error for a table/column pair
func NewSchemaError(table, column string) *SchemaError {
	return &SchemaError{Table: table, Column: column}
}

// FoldFitError identifies the fold and model family that failed to fit.
type FoldFitError struct {
	Fold   int
	Family string
	Err    error
}

// Error implements the error interface
func (e *FoldFitError) Error() string {
	return fmt.Sprintf("fold %d: model %s: fit failed: %v", e.Fold, e.Family, e.Err)
}

// Unwrap makes FoldFitError match ErrFoldFit via errors.Is
func (e *FoldFitError) Unwrap() error {
	return ErrFoldFit
}

// NewFoldFitError creates a fold fit error
func NewFoldFitError(fold int, family string, err error) *FoldFitError {
	return &FoldFitError{Fold: fold, Family: family, Err: err}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
