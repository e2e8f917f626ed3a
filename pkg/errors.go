package chamber

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGridSpec         = errors.New("invalid field grid specification")
	ErrFieldOutOfRange         = errors.New("field outside transport table range")
	ErrResourceUnavailable     = errors.New("resource unavailable")
	ErrDriftDivergence         = errors.New("drift line did not terminate")
	ErrTableMismatch           = errors.New("transport table does not match configuration")
	ErrMissingTransferFunction = errors.New("no transfer function loaded")
	ErrAlreadyConvolved        = errors.New("signal already convolved")
	ErrInvalidTransferFunction = errors.New("invalid transfer function")
	ErrInvalidGas              = errors.New("invalid gas composition")
	ErrInvalidConfig           = errors.New("invalid configuration")
	ErrTableNotFound           = errors.New("transport table not registered")
)

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

func (e *ErrOpenFile) Is(target error) bool {
	return target == ErrResourceUnavailable
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}

// FieldOutOfRangeError is returned by table lookups outside [Min, Max].
type FieldOutOfRangeError struct {
	Field float64
	Min   float64
	Max   float64
}

func (e *FieldOutOfRangeError) Error() string {
	return fmt.Sprintf("field %g V/cm outside table range [%g, %g]", e.Field, e.Min, e.Max)
}

func (e *FieldOutOfRangeError) Is(target error) bool {
	return target == ErrFieldOutOfRange
}

// TableMismatchError names the first metadata entry that differs between a
// persisted table and the requested configuration.
type TableMismatchError struct {
	Path     string
	Property string
	Want     string
	Got      string
}

func (e *TableMismatchError) Error() string {
	return fmt.Sprintf("table %q: %s mismatch, want %s, got %s", e.Path, e.Property, e.Want, e.Got)
}

func (e *TableMismatchError) Is(target error) bool {
	return target == ErrTableMismatch
}

// DriftError reports a drift line that ended without collection or loss.
type DriftError struct {
	Electron int
	Step     int
	Time     float64
	Reason   string
	Wrapped  error
}

func (e *DriftError) Error() string {
	msg := fmt.Sprintf("electron %d diverged after %d steps at t=%g ns: %s", e.Electron, e.Step, e.Time, e.Reason)
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *DriftError) Unwrap() error {
	return e.Wrapped
}

func (e *DriftError) Is(target error) bool {
	return target == ErrDriftDivergence
}

func invalidConfig(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}
