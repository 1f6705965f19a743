// Package apperr defines the errors returned by the planner core. Callers match them with
// errors.Is against the sentinels or errors.As against the typed errors.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval     = errors.New("invalid interval")
	ErrOverlap             = errors.New("time allocation overlap")
	ErrNotFound            = errors.New("not found")
	ErrPreferenceInvariant = errors.New("day start must be before day end")
	ErrReplayFailed        = errors.New("template replay failed")
	ErrUnknownCategory     = errors.New("unknown category")
)

// InvalidIntervalError is returned when end_time <= start_time.
type InvalidIntervalError struct {
	Start string
	End   string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("end time %s must be after start time %s", e.End, e.Start)
}

func (e *InvalidIntervalError) Is(target error) bool { return target == ErrInvalidInterval }

// OverlapError names the existing allocation the new interval collides with.
type OverlapError struct {
	ConflictID    string
	ConflictStart string
	ConflictEnd   string
}

func (e *OverlapError) Error() string {
	if e.ConflictID == "" {
		return ErrOverlap.Error()
	}
	return fmt.Sprintf("overlaps allocation %s (%s–%s)", e.ConflictID, e.ConflictStart, e.ConflictEnd)
}

func (e *OverlapError) Is(target error) bool { return target == ErrOverlap }

// NotFoundError is returned for a missing allocation or template.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// PreferenceInvariantError is returned when a day window would not satisfy start < end.
type PreferenceInvariantError struct {
	Start string
	End   string
}

func (e *PreferenceInvariantError) Error() string {
	return fmt.Sprintf("day start %s must be before day end %s", e.Start, e.End)
}

func (e *PreferenceInvariantError) Is(target error) bool { return target == ErrPreferenceInvariant }

// ReplayFailedError wraps the failure of a template replay. Block is the index of the
// template block being inserted, or -1 when the failure happened outside block insertion.
type ReplayFailedError struct {
	TemplateID string
	Date       string
	Block      int
	Err        error
}

func (e *ReplayFailedError) Error() string {
	if e.Block >= 0 {
		return fmt.Sprintf("replay template %s onto %s: block %d: %v", e.TemplateID, e.Date, e.Block+1, e.Err)
	}
	return fmt.Sprintf("replay template %s onto %s: %v", e.TemplateID, e.Date, e.Err)
}

func (e *ReplayFailedError) Unwrap() error { return e.Err }

func (e *ReplayFailedError) Is(target error) bool { return target == ErrReplayFailed }

// UnknownCategoryError is returned for a category outside the catalog.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q", e.Category)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }
