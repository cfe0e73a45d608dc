package services

import "fmt"

// ValidationError marks input the caller must fix. It wraps the domain
// error, so errors.Is still matches core sentinels.
type ValidationError struct {
	Entity string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Entity, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(entity string, err error) error {
	return &ValidationError{Entity: entity, Err: err}
}
