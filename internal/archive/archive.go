package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"time"

	"triage-flows/internal/flow"
	pub "triage-flows/pkg/models"
)

// Driver is where archived snapshots end up
type Driver interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Archiver saves flow documents before scripts rewrite them.
type Archiver struct {
	driver Driver
	Now    func() time.Time
}

func New(driver Driver) *Archiver {
	return &Archiver{driver: driver, Now: time.Now}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Key builds flows/<id>/v<version>-<timestamp>-<reason>.json
func Key(d flow.Document, reason string, at time.Time) string {
	return key(d.ID, d.Version, reason, at)
}

func key(id string, version int, reason string, at time.Time) string {
	reason = unsafeKeyChars.ReplaceAllString(reason, "-")
	if reason == "" {
		reason = "snapshot"
	}
	return fmt.Sprintf("flows/%s/v%d-%s-%s.json", id, version, at.UTC().Format("20060102T150405Z"), reason)
}

// SaveFlow writes d as indented JSON and returns where it went.
func (a *Archiver) SaveFlow(ctx context.Context, d flow.Document, reason string) (pub.ArchiveObject, error) {
	now := a.Now()
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return pub.ArchiveObject{}, fmt.Errorf("encode flow %s: %w", d.ID, err)
	}

	key := Key(d, reason, now)
	size, err := a.driver.Save(ctx, key, bytes.NewReader(data), "application/json")
	if err != nil {
		return pub.ArchiveObject{}, err
	}
	log.Printf("[Archive] Saved flow %s version %d to %s (%d bytes)", d.ID, d.Version, key, size)
	return pub.ArchiveObject{Key: key, FlowID: d.ID, Version: d.Version, Size: size, SavedAt: now}, nil
}

// SaveRaw writes stored JSON exactly as given, for records that no longer
// decode into a Document.
func (a *Archiver) SaveRaw(ctx context.Context, flowID string, version int, reason string, data []byte) (pub.ArchiveObject, error) {
	now := a.Now()
	k := key(flowID, version, reason, now)
	size, err := a.driver.Save(ctx, k, bytes.NewReader(data), "application/json")
	if err != nil {
		return pub.ArchiveObject{}, err
	}
	log.Printf("[Archive] Saved raw flow %s version %d to %s (%d bytes)", flowID, version, k, size)
	return pub.ArchiveObject{Key: k, FlowID: flowID, Version: version, Size: size, SavedAt: now}, nil
}

// LoadFlow reads back a document saved by SaveFlow.
func (a *Archiver) LoadFlow(ctx context.Context, key string) (flow.Document, error) {
	rc, err := a.driver.Get(ctx, key)
	if err != nil {
		return flow.Document{}, err
	}
	defer rc.Close()

	var d flow.Document
	if err := json.NewDecoder(rc).Decode(&d); err != nil {
		return flow.Document{}, fmt.Errorf("decode archived flow %s: %w", key, err)
	}
	return d, nil
}
