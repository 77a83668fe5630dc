package store

import (
	"encoding/json"
	"fmt"

	"triage-flows/internal/flow"
	"triage-flows/internal/models"

	"gorm.io/datatypes"
)

func toDocument(row models.Flow) (flow.Document, error) {
	d := flow.Document{
		ID:              row.ID,
		EmpresaID:       derefString(row.EmpresaID),
		Name:            row.Name,
		Description:     row.Description,
		Kind:            flow.Kind(row.Kind),
		Channels:        []string(row.Channels),
		TriggerKeywords: []string(row.TriggerKeywords),
		Priority:        row.Priority,
		Active:          row.Active,
		Published:       row.Published,
		PublishedAt:     row.PublishedAt,
		Version:         row.Version,
		UpdatedAt:       row.UpdatedAt,
	}
	if len(row.Structure) > 0 {
		if err := json.Unmarshal(row.Structure, &d.Structure); err != nil {
			return flow.Document{}, fmt.Errorf("decode structure of flow %s: %w", row.ID, err)
		}
	}
	return d, nil
}

func encodeStructure(s flow.Structure) (datatypes.JSON, error) {
	if s.Steps == nil {
		s.Steps = map[string]flow.Step{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	return datatypes.JSON(data), nil
}

// columns maps every document field to its column so a write replaces the
// whole record at once.
func columns(d flow.Document) (map[string]interface{}, error) {
	structure, err := encodeStructure(d.Structure)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"empresa_id":       nullableString(d.EmpresaID),
		"nome":             d.Name,
		"descricao":        d.Description,
		"tipo":             string(d.Kind),
		"canais":           models.StringArray(d.Channels),
		"palavras_gatilho": models.StringArray(d.TriggerKeywords),
		"prioridade":       d.Priority,
		"ativo":            d.Active,
		"publicado":        d.Published,
		"published_at":     d.PublishedAt,
		"versao":           d.Version,
		"estrutura":        structure,
		"updated_at":       d.UpdatedAt,
	}, nil
}

func toRow(d flow.Document) (models.Flow, error) {
	structure, err := encodeStructure(d.Structure)
	if err != nil {
		return models.Flow{}, err
	}
	return models.Flow{
		ID:              d.ID,
		EmpresaID:       nullableString(d.EmpresaID),
		Name:            d.Name,
		Description:     d.Description,
		Kind:            string(d.Kind),
		Channels:        models.StringArray(d.Channels),
		TriggerKeywords: models.StringArray(d.TriggerKeywords),
		Priority:        d.Priority,
		Active:          d.Active,
		Published:       d.Published,
		PublishedAt:     d.PublishedAt,
		Version:         d.Version,
		Structure:       structure,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// rawSteps decodes the stored steps without going through Step, so legacy
// option keys survive.
func rawSteps(structure datatypes.JSON) (map[string]interface{}, map[string]flow.RawStep, error) {
	top := map[string]interface{}{}
	if len(structure) > 0 {
		if err := json.Unmarshal(structure, &top); err != nil {
			return nil, nil, fmt.Errorf("decode structure: %w", err)
		}
	}
	steps := map[string]flow.RawStep{}
	rawMap, _ := top["steps"].(map[string]interface{})
	for k, v := range rawMap {
		if m, ok := v.(map[string]interface{}); ok {
			steps[k] = flow.RawStep(m)
		}
	}
	return top, steps, nil
}

// repairSteps applies fix to every stored step that needs it and returns the
// re-encoded structure with the sorted keys of the steps it changed. Steps
// left alone keep their stored form.
func repairSteps(structure datatypes.JSON, needs func(flow.RawStep) bool, fix func(flow.RawStep) flow.RawStep) (datatypes.JSON, []string, error) {
	top, steps, err := rawSteps(structure)
	if err != nil {
		return nil, nil, err
	}
	var fixed []string
	for _, key := range sortedRawKeys(steps) {
		if needs(steps[key]) {
			fixed = append(fixed, key)
		}
	}
	if len(fixed) == 0 {
		return structure, nil, nil
	}

	stored := top["steps"].(map[string]interface{})
	for _, key := range fixed {
		stored[key] = map[string]interface{}(fix(steps[key]))
	}
	data, err := json.Marshal(top)
	if err != nil {
		return nil, nil, fmt.Errorf("encode structure: %w", err)
	}
	return datatypes.JSON(data), fixed, nil
}

// mergeStructure encodes next, reusing the stored bytes of every step that
// next leaves unchanged from cur. Keys the typed form does not know about
// survive edits to other steps.
func mergeStructure(stored datatypes.JSON, cur, next flow.Structure) (datatypes.JSON, error) {
	top, raw, err := rawSteps(stored)
	if err != nil {
		return nil, err
	}

	steps := make(map[string]interface{}, len(next.Steps))
	for k, s := range next.Steps {
		if old, ok := cur.Steps[k]; ok && sameStep(old, s) {
			if r, ok := raw[k]; ok {
				steps[k] = map[string]interface{}(r)
				continue
			}
		}
		steps[k] = s
	}
	top["initialStep"] = next.InitialStep
	top["schemaVersion"] = next.SchemaVersion
	top["steps"] = steps

	data, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("encode structure: %w", err)
	}
	return datatypes.JSON(data), nil
}

func sameStep(a, b flow.Step) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
