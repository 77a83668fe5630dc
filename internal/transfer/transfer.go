// Package transfer moves flow documents between the store and files.
package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"triage-flows/internal/archive"
	"triage-flows/internal/flow"
	"triage-flows/internal/store"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func Encode(d flow.Document, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(d)
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

func Decode(data []byte, f Format) (flow.Document, error) {
	var d flow.Document
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &d)
	case FormatJSON:
		err = json.Unmarshal(data, &d)
	default:
		return d, fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return d, fmt.Errorf("decode %s flow: %w", f, err)
	}
	return d, nil
}

// ImportOptions controls how Import treats an incoming document.
type ImportOptions struct {
	// Replace overwrites the stored flow with the same id instead of creating
	// a copy under a new id.
	Replace bool
	// Publish publishes the result when the file marks it published.
	Publish bool
}

// Import stores d. The document is validated before anything is written. A
// replaced flow is archived first when an archiver is given.
func Import(ctx context.Context, s *store.FlowStore, arch *archive.Archiver, d flow.Document, opts ImportOptions) (flow.Document, error) {
	wantPublished := d.Published
	d.Published = false
	d.PublishedAt = nil

	candidate := d
	candidate.Version = 1
	if candidate.ID == "" {
		candidate.ID = "pending"
	}
	if vs := flow.Validate(candidate); len(vs) > 0 {
		return d, &flow.ValidationError{FlowID: candidate.ID, Violations: vs}
	}

	var out flow.Document
	var err error
	existing, getErr := lookup(ctx, s, d.ID)
	switch {
	case getErr != nil:
		return d, getErr
	case existing != nil && opts.Replace:
		if arch != nil {
			if _, err := arch.SaveFlow(ctx, *existing, "before-import"); err != nil {
				return d, err
			}
		}
		out, err = s.Replace(ctx, existing.ID, existing.Version, d)
	default:
		if existing != nil {
			log.Printf("[Import] Flow %s exists, importing as a copy", d.ID)
		}
		if existing != nil || d.ID == "" {
			d.ID = uuid.NewString()
		}
		out, err = s.Create(ctx, d)
	}
	if err != nil {
		return d, err
	}

	if opts.Publish && wantPublished {
		if out.Published {
			return s.Republish(ctx, out.ID, out.Version)
		}
		return s.Publish(ctx, out.ID, out.Version)
	}
	return out, nil
}

func lookup(ctx context.Context, s *store.FlowStore, id string) (*flow.Document, error) {
	if id == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("flow id %q is not a uuid: %w", id, err)
	}
	d, err := s.Get(ctx, id)
	var nf *flow.NotFoundError
	if errors.As(err, &nf) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
