package flow

import (
	"time"
)

// ApplyStepPatch replaces or inserts the step keyed stepID. The step's checks
// run against the resulting step map; on success version goes up by one and
// updatedAt moves to now. Publish state is left alone. On failure d is
// returned untouched together with a *ValidationError.
func ApplyStepPatch(d Document, stepID string, body Step, now time.Time) (Document, error) {
	if body.ID == "" {
		body.ID = stepID
	}

	next := d.Clone()
	if next.Structure.Steps == nil {
		next.Structure.Steps = map[string]Step{}
	}
	next.Structure.Steps[stepID] = body.Clone()

	var violations []Violation
	if stepID == "" {
		violations = append(violations, Violation{Code: "required", Field: "stepId", Message: "step id is required"})
	}
	violations = append(violations, StepViolations(stepID, next.Structure.Steps[stepID], next.Structure.Steps)...)
	if len(violations) > 0 {
		return d, &ValidationError{FlowID: d.ID, Violations: violations}
	}

	next.Version = d.Version + 1
	next.UpdatedAt = now
	return next, nil
}

// Publish marks a fully valid document as live. Version is unchanged.
func Publish(d Document, now time.Time) (Document, error) {
	if d.Published {
		return d, &PreconditionError{FlowID: d.ID, Op: "publish", Reason: "flow is already published; use republish to refresh publishedAt"}
	}
	if violations := Validate(d); len(violations) > 0 {
		return d, &ValidationError{FlowID: d.ID, Violations: violations}
	}

	next := d.Clone()
	next.Published = true
	next.PublishedAt = &now
	next.UpdatedAt = now
	return next, nil
}

// Unpublish takes the document off the bot. Always allowed, even for invalid
// documents, so they can be edited.
func Unpublish(d Document, now time.Time) (Document, error) {
	next := d.Clone()
	next.Published = false
	next.PublishedAt = nil
	next.UpdatedAt = now
	return next, nil
}

// Republish refreshes publishedAt so caches keyed on it are dropped.
func Republish(d Document, now time.Time) (Document, error) {
	if !d.Published {
		return d, &PreconditionError{FlowID: d.ID, Op: "republish", Reason: "flow is not published"}
	}

	next := d.Clone()
	next.PublishedAt = &now
	next.UpdatedAt = now
	return next, nil
}
