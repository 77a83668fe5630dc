package models

import "time"

// ArchiveObject describes a flow snapshot saved before a rewrite
type ArchiveObject struct {
	Key     string    `json:"key"`
	FlowID  string    `json:"flow_id"`
	Version int       `json:"version"`
	Size    int64     `json:"size"`
	SavedAt time.Time `json:"saved_at"`
}
