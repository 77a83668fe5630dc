package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"triage-flows/internal/flow"
	"triage-flows/internal/models"
	pub "triage-flows/pkg/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier hears about every committed flow mutation.
type Notifier interface {
	FlowChanged(ev pub.FlowEvent)
}

// FlowStore persists flow documents. Every mutation is one transaction that
// reads the row, applies a pure transform and writes it back only if the
// stored version is still the one read.
type FlowStore struct {
	db       *gorm.DB
	notifier Notifier
	Now      func() time.Time
}

func NewFlowStore(db *gorm.DB, notifier Notifier) *FlowStore {
	return &FlowStore{db: db, notifier: notifier, Now: time.Now}
}

// Filter narrows List. Nil pointers and empty strings match everything.
type Filter struct {
	EmpresaID string
	Active    *bool
	Published *bool
	Kind      string
	Channel   string
}

// Snapshot is a structure saved when a flow was published.
type Snapshot struct {
	Version   int            `json:"version"`
	Note      string         `json:"note"`
	CreatedAt time.Time      `json:"createdAt"`
	Structure flow.Structure `json:"structure"`
}

func (s *FlowStore) Get(ctx context.Context, id string) (flow.Document, error) {
	var row models.Flow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return flow.Document{}, notFound(id, err)
	}
	d, err := toDocument(row)
	if err != nil {
		return flow.Document{}, storageErr("load", err)
	}
	return d, nil
}

// List returns flows ordered by priority, then most recently updated.
func (s *FlowStore) List(ctx context.Context, f Filter) ([]flow.Document, error) {
	q := s.db.WithContext(ctx).Model(&models.Flow{})
	if f.EmpresaID != "" {
		q = q.Where("empresa_id = ?", f.EmpresaID)
	}
	if f.Active != nil {
		q = q.Where("ativo = ?", *f.Active)
	}
	if f.Published != nil {
		q = q.Where("publicado = ?", *f.Published)
	}
	if f.Kind != "" {
		q = q.Where("tipo = ?", f.Kind)
	}

	var rows []models.Flow
	if err := q.Order("prioridade DESC").Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, storageErr("list", err)
	}

	out := make([]flow.Document, 0, len(rows))
	for _, row := range rows {
		d, err := toDocument(row)
		if err != nil {
			log.Printf("[FlowStore] Skipping flow %s: %v", row.ID, err)
			continue
		}
		if f.Channel != "" && !hasChannel(d.Channels, f.Channel) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// FindDefault returns the live flow a company's channel starts with: active,
// published and highest priority.
func (s *FlowStore) FindDefault(ctx context.Context, empresaID, channel string) (flow.Document, error) {
	yes := true
	docs, err := s.List(ctx, Filter{EmpresaID: empresaID, Active: &yes, Published: &yes, Channel: channel})
	if err != nil {
		return flow.Document{}, err
	}
	if len(docs) == 0 {
		return flow.Document{}, &flow.NotFoundError{Resource: "default flow for channel", ID: channel}
	}
	return docs[0], nil
}

// FindForMessage returns the live flow whose triggers match an incoming message.
func (s *FlowStore) FindForMessage(ctx context.Context, empresaID, channel, message string) (flow.Document, error) {
	docs, err := s.List(ctx, Filter{EmpresaID: empresaID, Channel: channel})
	if err != nil {
		return flow.Document{}, err
	}
	d, ok := flow.SelectForMessage(docs, channel, message)
	if !ok {
		return flow.Document{}, &flow.NotFoundError{Resource: "flow for message on channel", ID: channel}
	}
	return d, nil
}

// Create inserts a new unpublished document at version 1.
func (s *FlowStore) Create(ctx context.Context, d flow.Document) (flow.Document, error) {
	now := s.Now()
	d = d.Clone()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Version = 1
	d.Published = false
	d.PublishedAt = nil
	d.UpdatedAt = now

	row, err := toRow(d)
	if err != nil {
		return flow.Document{}, storageErr("create", err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return flow.Document{}, storageErr("create", err)
	}
	s.notify(pub.EventFlowCreated, d)
	return d, nil
}

// ApplyStepPatch replaces or inserts one step.
func (s *FlowStore) ApplyStepPatch(ctx context.Context, id string, expectedVersion int, stepID string, body flow.Step) (flow.Document, error) {
	return s.mutate(ctx, id, expectedVersion, mutation{op: "patch step", event: pub.EventStepPatched}, func(_ *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		return flow.ApplyStepPatch(d, stepID, body, now)
	})
}

// Replace swaps the whole document body, keeping id and publish state. An
// empty company id in body keeps the stored one. The result must validate.
func (s *FlowStore) Replace(ctx context.Context, id string, expectedVersion int, body flow.Document) (flow.Document, error) {
	return s.mutate(ctx, id, expectedVersion, mutation{op: "replace", event: pub.EventFlowReplaced, rewrite: true}, func(_ *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		next := body.Clone()
		next.ID = d.ID
		if next.EmpresaID == "" {
			next.EmpresaID = d.EmpresaID
		}
		next.Published = d.Published
		next.PublishedAt = d.PublishedAt
		next.Version = d.Version + 1
		next.UpdatedAt = now
		if vs := flow.Validate(next); len(vs) > 0 {
			return d, &flow.ValidationError{FlowID: d.ID, Violations: vs}
		}
		return next, nil
	})
}

// Publish validates the document, marks it live and records a snapshot.
func (s *FlowStore) Publish(ctx context.Context, id string, expectedVersion int) (flow.Document, error) {
	return s.mutate(ctx, id, expectedVersion, mutation{op: "publish", event: pub.EventFlowPublished}, func(tx *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		next, err := flow.Publish(d, now)
		if err != nil {
			return d, err
		}
		if err := saveSnapshot(tx, next, "Versão publicada", now); err != nil {
			return d, err
		}
		return next, nil
	})
}

func (s *FlowStore) Unpublish(ctx context.Context, id string, expectedVersion int) (flow.Document, error) {
	return s.mutate(ctx, id, expectedVersion, mutation{op: "unpublish", event: pub.EventFlowUnpublished}, func(_ *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		return flow.Unpublish(d, now)
	})
}

func (s *FlowStore) Republish(ctx context.Context, id string, expectedVersion int) (flow.Document, error) {
	return s.mutate(ctx, id, expectedVersion, mutation{op: "republish", event: pub.EventFlowRepublished}, func(_ *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		return flow.Republish(d, now)
	})
}

// SetPriority changes the priority FindDefault ranks by. The structure and the
// version are left untouched.
func (s *FlowStore) SetPriority(ctx context.Context, id string, expectedVersion, priority int) (flow.Document, error) {
	d, err := s.mutate(ctx, id, expectedVersion, mutation{op: "set priority", event: pub.EventPriorityChanged}, func(_ *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		if d.Priority == priority {
			return d, errUnchanged
		}
		next := d.Clone()
		next.Priority = priority
		next.UpdatedAt = now
		return next, nil
	})
	if err == errUnchanged {
		return d, nil
	}
	return d, err
}

// NormalizeOptionLabels rewrites every step still carrying legacy option keys
// into the canonical shape. The stored JSON is repaired before it is decoded,
// so options with numeric ids load too. Returns the rewritten step ids; when
// there are none nothing is written and the version stays put.
func (s *FlowStore) NormalizeOptionLabels(ctx context.Context, id string, expectedVersion int) (flow.Document, []string, error) {
	var fixed []string
	m := mutation{
		op:    "normalize",
		event: pub.EventFlowNormalized,
		repair: func(stored datatypes.JSON) (datatypes.JSON, error) {
			out, keys, err := repairSteps(stored, flow.HasLegacyOptionFields, flow.NormalizeOptionLabelField)
			fixed = keys
			return out, err
		},
	}
	d, err := s.mutate(ctx, id, expectedVersion, m, func(_ *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		if len(fixed) == 0 {
			return d, errUnchanged
		}
		next := d.Clone()
		next.Version = d.Version + 1
		next.UpdatedAt = now
		return next, nil
	})
	if err == errUnchanged {
		return d, nil, nil
	}
	if err != nil {
		return d, nil, err
	}
	return d, fixed, nil
}

// RestoreVersion puts the structure of a publish snapshot back as the working
// structure. The restored document must validate; publish state is kept.
func (s *FlowStore) RestoreVersion(ctx context.Context, id string, expectedVersion, snapshotVersion int) (flow.Document, error) {
	return s.mutate(ctx, id, expectedVersion, mutation{op: "restore", event: pub.EventFlowRestored, rewrite: true}, func(tx *gorm.DB, d flow.Document, now time.Time) (flow.Document, error) {
		var snap models.FlowVersion
		err := tx.Where("fluxo_id = ? AND versao = ?", id, snapshotVersion).Order("id DESC").First(&snap).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return d, &flow.NotFoundError{Resource: "snapshot", ID: fmt.Sprintf("%s@%d", id, snapshotVersion)}
		}
		if err != nil {
			return d, err
		}
		var structure flow.Structure
		if err := json.Unmarshal(snap.Structure, &structure); err != nil {
			return d, fmt.Errorf("decode snapshot %d: %w", snapshotVersion, err)
		}

		next := d.Clone()
		next.Structure = structure
		next.Version = d.Version + 1
		next.UpdatedAt = now
		if vs := flow.Validate(next); len(vs) > 0 {
			return d, &flow.ValidationError{FlowID: d.ID, Violations: vs}
		}
		return next, nil
	})
}

// Duplicate copies a flow into a new inactive, unpublished document at version
// 1 under the same company. The stored structure is copied as is. An empty
// name appends " (Cópia)" to the source name.
func (s *FlowStore) Duplicate(ctx context.Context, id, name string) (flow.Document, error) {
	var row models.Flow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return flow.Document{}, notFound(id, err)
	}
	if name == "" {
		name = row.Name + " (Cópia)"
	}

	cp := row
	cp.ID = uuid.NewString()
	cp.Name = name
	cp.Code = nil
	cp.Active = false
	cp.Published = false
	cp.PublishedAt = nil
	cp.Version = 1
	cp.CreatedAt = time.Time{}
	cp.UpdatedAt = s.Now()

	d, err := toDocument(cp)
	if err != nil {
		return flow.Document{}, storageErr("duplicate", err)
	}
	if err := s.db.WithContext(ctx).Create(&cp).Error; err != nil {
		return flow.Document{}, storageErr("duplicate", err)
	}
	log.Printf("[FlowStore] duplicate flow %s -> %s", id, cp.ID)
	s.notify(pub.EventFlowCreated, d)
	return d, nil
}

// StepsReferencing lists steps of flow id whose step, option or branch
// references point at target.
func (s *FlowStore) StepsReferencing(ctx context.Context, id, target string) ([]string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return flow.ReferencesTo(d.Structure, target), nil
}

// RawSteps returns the stored steps as written, legacy keys included.
func (s *FlowStore) RawSteps(ctx context.Context, id string) (map[string]flow.RawStep, error) {
	var row models.Flow
	if err := s.db.WithContext(ctx).Select("id", "estrutura").First(&row, "id = ?", id).Error; err != nil {
		return nil, notFound(id, err)
	}
	_, steps, err := rawSteps(row.Structure)
	if err != nil {
		return nil, storageErr("load", err)
	}
	return steps, nil
}

// IDs lists every stored flow id, including rows whose structure no longer
// decodes.
func (s *FlowStore) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&models.Flow{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, storageErr("list", err)
	}
	return ids, nil
}

// RawStructure returns the stored structure bytes and the stored version.
func (s *FlowStore) RawStructure(ctx context.Context, id string) ([]byte, int, error) {
	var row models.Flow
	if err := s.db.WithContext(ctx).Select("id", "versao", "estrutura").First(&row, "id = ?", id).Error; err != nil {
		return nil, 0, notFound(id, err)
	}
	return []byte(row.Structure), row.Version, nil
}

// History lists publish snapshots of a flow, newest first.
func (s *FlowStore) History(ctx context.Context, id string) ([]Snapshot, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	var rows []models.FlowVersion
	err := s.db.WithContext(ctx).
		Where("fluxo_id = ?", id).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr("history", err)
	}

	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		snap := Snapshot{Version: r.Version, Note: r.Note, CreatedAt: r.CreatedAt}
		if len(r.Structure) > 0 {
			if err := json.Unmarshal(r.Structure, &snap.Structure); err != nil {
				return nil, storageErr("history", err)
			}
		}
		out = append(out, snap)
	}
	return out, nil
}

type transform func(tx *gorm.DB, d flow.Document, now time.Time) (flow.Document, error)

type mutation struct {
	op    string
	event string
	// rewrite stores the whole structure from the typed document. Otherwise
	// steps the transform left alone are written back exactly as stored.
	rewrite bool
	// repair rewrites the stored structure bytes before they are decoded.
	repair func(stored datatypes.JSON) (datatypes.JSON, error)
}

type unchangedError struct{}

func (unchangedError) Error() string { return "no change" }

var errUnchanged error = unchangedError{}

func (s *FlowStore) mutate(ctx context.Context, id string, expectedVersion int, m mutation, fn transform) (flow.Document, error) {
	op := m.op
	now := s.Now()
	var result flow.Document

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Flow
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return notFound(id, err)
		}
		if m.repair != nil {
			repaired, err := m.repair(row.Structure)
			if err != nil {
				return storageErr(op, err)
			}
			row.Structure = repaired
		}
		cur, err := toDocument(row)
		if err != nil {
			return storageErr(op, err)
		}
		if expectedVersion != 0 && cur.Version != expectedVersion {
			return &flow.ConflictError{FlowID: id, Expected: expectedVersion, Actual: cur.Version}
		}

		next, err := fn(tx, cur, now)
		if err != nil {
			result = cur
			return err
		}

		cols, err := columns(next)
		if err != nil {
			return storageErr(op, err)
		}
		if !m.rewrite {
			merged, err := mergeStructure(row.Structure, cur.Structure, next.Structure)
			if err != nil {
				return storageErr(op, err)
			}
			cols["estrutura"] = merged
		}
		res := tx.Model(&models.Flow{}).Where("id = ? AND versao = ?", id, cur.Version).Updates(cols)
		if res.Error != nil {
			return storageErr(op, res.Error)
		}
		if res.RowsAffected == 0 {
			var actual int
			if err := tx.Model(&models.Flow{}).Select("versao").Where("id = ?", id).Scan(&actual).Error; err != nil {
				return storageErr(op, err)
			}
			return &flow.ConflictError{FlowID: id, Expected: cur.Version, Actual: actual}
		}
		result = next
		return nil
	})
	if err == errUnchanged {
		return result, err
	}
	if err != nil {
		return flow.Document{}, storageErr(op, err)
	}

	log.Printf("[FlowStore] %s flow %s -> version %d published=%v", op, id, result.Version, result.Published)
	s.notify(m.event, result)
	return result, nil
}

func (s *FlowStore) notify(event string, d flow.Document) {
	if s.notifier == nil {
		return
	}
	s.notifier.FlowChanged(pub.FlowEvent{
		Type:        event,
		FlowID:      d.ID,
		Version:     d.Version,
		Published:   d.Published,
		PublishedAt: d.PublishedAt,
	})
}

func saveSnapshot(tx *gorm.DB, d flow.Document, note string, now time.Time) error {
	structure, err := encodeStructure(d.Structure)
	if err != nil {
		return err
	}
	return tx.Create(&models.FlowVersion{
		FlowID:    d.ID,
		Version:   d.Version,
		Structure: structure,
		Note:      note,
		CreatedAt: now,
	}).Error
}

func hasChannel(channels []string, channel string) bool {
	for _, c := range channels {
		if strings.EqualFold(c, channel) {
			return true
		}
	}
	return false
}

func sortedRawKeys(steps map[string]flow.RawStep) []string {
	keys := make([]string, 0, len(steps))
	for k := range steps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
