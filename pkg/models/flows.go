package models

import "time"

// FlowSummary is one row of the flow listing
type FlowSummary struct {
	ID          string     `json:"id"`
	EmpresaID   string     `json:"empresaId,omitempty"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Channels    []string   `json:"channels"`
	Priority    int        `json:"priority"`
	Active      bool       `json:"active"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt"`
	Version     int        `json:"version"`
	StepCount   int        `json:"stepCount"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ValidationReport is the result of checking a stored flow
type ValidationReport struct {
	FlowID      string      `json:"flowId"`
	Version     int         `json:"version"`
	Valid       bool        `json:"valid"`
	Violations  interface{} `json:"violations"`
	Unreachable []string    `json:"unreachable"`
}

// VersionedRequest carries the version the caller last read. Zero skips the check.
type VersionedRequest struct {
	ExpectedVersion int `json:"expectedVersion"`
}

// RestoreRequest puts a publish snapshot back as the working structure
type RestoreRequest struct {
	ExpectedVersion int `json:"expectedVersion"`
	SnapshotVersion int `json:"snapshotVersion" binding:"required"`
}

// DuplicateRequest names the copy. Empty keeps the source name plus " (Cópia)".
type DuplicateRequest struct {
	Name string `json:"name"`
}

// RenderRequest asks for a step's message as a given contact would see it
type RenderRequest struct {
	Phone    string                 `json:"phone"`
	Bindings map[string]interface{} `json:"bindings"`
}

// RenderResponse is the rendered text of one step
type RenderResponse struct {
	StepID       string `json:"stepId"`
	Text         string `json:"text"`
	KnownContact bool   `json:"knownContact"`
}

// SnapshotInfo is one entry of a flow's publish history
type SnapshotInfo struct {
	Version   int       `json:"version"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
	StepCount int       `json:"stepCount"`
}
