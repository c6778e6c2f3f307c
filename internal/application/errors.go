package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrFileNotFound     = errors.New("data file not found")
	ErrParse            = errors.New("invalid data file")
	ErrPermission       = errors.New("permission denied")
	ErrUnknownDatabase  = errors.New("unknown database")
	ErrUnknownEquipment = errors.New("unknown equipment")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FileError ties a file operation failure to its path. Kind is one of the
// sentinels above, Err the underlying cause; errors.Is matches both.
type FileError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *FileError) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	case e.Kind == nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
}

func (e *FileError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UnknownDatabaseError names the code that was not found in the registry
type UnknownDatabaseError struct {
	Code  string
	Known []string
}

func (e *UnknownDatabaseError) Error() string {
	return fmt.Sprintf("unknown database %q (known: %v)", e.Code, e.Known)
}

func (e *UnknownDatabaseError) Is(target error) bool {
	return target == ErrUnknownDatabase
}

// UnknownEquipmentError names the catalog key that was not found
type UnknownEquipmentError struct {
	Key   string
	Known []string
}

func (e *UnknownEquipmentError) Error() string {
	return fmt.Sprintf("unknown equipment %q (known: %v)", e.Key, e.Known)
}

func (e *UnknownEquipmentError) Is(target error) bool {
	return target == ErrUnknownEquipment
}

// Feature switches that were turned off in configuration
var (
	ErrServiceDisabled = errors.New("analysis service integration is disabled")
	ErrJournalDisabled = errors.New("operation journal is disabled")
)
