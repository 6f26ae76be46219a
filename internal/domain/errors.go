package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an instance's backing files are absent.
var ErrNotFound = errors.New("instance not found")

// FormatError reports malformed or dimensionally inconsistent input.
type FormatError struct {
	Source string
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error: %s: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("format error: %s: %s", e.Source, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// FleetExhaustedError aborts a VSP solve: the task fits no open route and
// every vehicle is already in use.
type FleetExhaustedError struct {
	TaskID   int
	Vehicles int
}

func (e *FleetExhaustedError) Error() string {
	return fmt.Sprintf("fleet exhausted: task %d fits no route and all %d vehicles are in use", e.TaskID, e.Vehicles)
}

// DepotUnreachableError aborts a VSP solve: a new route was needed for the
// task but the depot cannot reach it or be reached from it.
type DepotUnreachableError struct {
	TaskID int
}

func (e *DepotUnreachableError) Error() string {
	return fmt.Sprintf("depot unreachable: task %d has no feasible depot leg", e.TaskID)
}
