package flow

import (
	"encoding/json"
	"fmt"
)

// RawStep is a step as stored, before decoding into Step. Corrective
// transforms work on this shape so legacy keys are not lost on decode.
type RawStep map[string]any

// Legacy option keys seen in stored documents, in lookup order.
var (
	legacyIDKeys    = []string{"numero"}
	legacyTextKeys  = []string{"texto", "label", "title", "titulo"}
	legacyValueKeys = []string{"valor"}
	legacyNextKeys  = []string{"proximaEtapa", "next"}
	legacyBranchKey = "proximaEtapaCondicional"
)

// NormalizeOptionLabelField rewrites every option of the step into the
// canonical {id, text, value, nextStep} shape. Legacy keys are renamed, value
// defaults to id, and id falls back to numero, then value. Keys that are
// neither canonical nor legacy pass through. Numeric ids and values become
// strings. The input is not modified.
func NormalizeOptionLabelField(step RawStep) RawStep {
	rawOpts, ok := step["options"].([]any)
	if !ok {
		return step
	}

	out := make(RawStep, len(step))
	for k, v := range step {
		out[k] = v
	}

	opts := make([]any, len(rawOpts))
	for i, ro := range rawOpts {
		o, ok := ro.(map[string]any)
		if !ok {
			opts[i] = ro
			continue
		}
		opts[i] = normalizeOption(o)
	}
	out["options"] = opts
	return out
}

func normalizeOption(o map[string]any) map[string]any {
	id := firstString(o, append([]string{"id"}, legacyIDKeys...))
	value := firstString(o, append([]string{"value"}, legacyValueKeys...))
	if id == "" {
		id = value
	}
	if value == "" {
		value = id
	}

	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v
	}
	for _, k := range legacyOptionKeys() {
		delete(out, k)
	}
	delete(out, "conditionalNext")
	delete(out, "nextStep")

	out["id"] = id
	out["text"] = firstString(o, append([]string{"text"}, legacyTextKeys...))
	out["value"] = value
	if next := firstString(o, append([]string{"nextStep"}, legacyNextKeys...)); next != "" {
		out["nextStep"] = next
	}
	if branches := normalizeBranches(o); len(branches) > 0 {
		out["conditionalNext"] = branches
	}
	return out
}

func normalizeBranches(o map[string]any) []any {
	raw, ok := o["conditionalNext"].([]any)
	if !ok {
		raw, _ = o[legacyBranchKey].([]any)
	}
	out := make([]any, 0, len(raw))
	for _, rb := range raw {
		b, ok := rb.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"if":   firstString(b, []string{"if", "se"}),
			"then": firstString(b, []string{"then", "entao"}),
		})
	}
	return out
}

func legacyOptionKeys() []string {
	keys := []string{legacyBranchKey}
	keys = append(keys, legacyIDKeys...)
	keys = append(keys, legacyTextKeys...)
	keys = append(keys, legacyValueKeys...)
	return append(keys, legacyNextKeys...)
}

// HasLegacyOptionFields reports whether any option still uses a legacy key,
// lacks the canonical text key or carries a non-string id or value.
func HasLegacyOptionFields(step RawStep) bool {
	rawOpts, _ := step["options"].([]any)
	legacy := legacyOptionKeys()
	for _, ro := range rawOpts {
		o, ok := ro.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := o["text"]; !ok {
			return true
		}
		if !isStringOrMissing(o, "id") || !isStringOrMissing(o, "value") {
			return true
		}
		for _, k := range legacy {
			if _, ok := o[k]; ok {
				return true
			}
		}
	}
	return false
}

// DecodeStep converts a raw step into its typed form.
func DecodeStep(raw RawStep) (Step, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return Step{}, fmt.Errorf("encode raw step: %w", err)
	}
	var s Step
	if err := json.Unmarshal(data, &s); err != nil {
		return Step{}, fmt.Errorf("decode step: %w", err)
	}
	return s, nil
}

func isStringOrMissing(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok {
		return true
	}
	_, isString := v.(string)
	return isString
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64, int, int64, bool:
		return fmt.Sprint(v)
	}
	return ""
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v := stringField(m, k); v != "" {
			return v
		}
	}
	return ""
}
