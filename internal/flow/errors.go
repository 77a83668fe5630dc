package flow

import (
	"fmt"
	"net/http"
	"strings"
)

// Violation is one failed document check.
type Violation struct {
	Code     string `json:"code"`
	Field    string `json:"field,omitempty"`
	StepID   string `json:"stepId,omitempty"`
	OptionID string `json:"optionId,omitempty"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	var where []string
	if v.StepID != "" {
		where = append(where, "step "+v.StepID)
	}
	if v.OptionID != "" {
		where = append(where, "option "+v.OptionID)
	}
	if v.Field != "" {
		where = append(where, v.Field)
	}
	if len(where) == 0 {
		return fmt.Sprintf("[%s] %s", v.Code, v.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", v.Code, strings.Join(where, " / "), v.Message)
}

// ValidationError carries every violation found; the document is unchanged.
type ValidationError struct {
	FlowID     string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("flow %s has %d violation(s): %s", e.FlowID, len(e.Violations), strings.Join(parts, "; "))
}

func (e *ValidationError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// PreconditionError means the operation does not apply in the current state.
type PreconditionError struct {
	FlowID string
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot %s flow %s: %s", e.Op, e.FlowID, e.Reason)
}

func (e *PreconditionError) HTTPStatus() int { return http.StatusPreconditionFailed }

// ConflictError means the stored version differs from the caller's expectation.
type ConflictError struct {
	FlowID   string
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("flow %s version conflict: expected %d, stored %d", e.FlowID, e.Expected, e.Actual)
}

func (e *ConflictError) HTTPStatus() int { return http.StatusConflict }

// NotFoundError reports a missing flow or step.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Resource, e.ID)
}

func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// StorageError wraps a persistence fault. Nothing was committed.
type StorageError struct {
	Op         string
	Constraint string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("storage %s failed (constraint %s): %v", e.Op, e.Constraint, e.Err)
	}
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) HTTPStatus() int { return http.StatusInternalServerError }
