package flow

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks every invariant and returns one violation per failed check.
// An empty result means the document can run on the bot. It never mutates d.
func Validate(d Document) []Violation {
	var out []Violation

	required := []struct {
		field string
		value interface{}
		rules []validation.Rule
	}{
		{"id", d.ID, []validation.Rule{validation.Required}},
		{"name", d.Name, []validation.Rule{validation.Required}},
		{"kind", d.Kind, []validation.Rule{validation.Required}},
		{"version", d.Version, []validation.Rule{validation.Required, validation.Min(1)}},
		{"structure.initialStep", d.Structure.InitialStep, []validation.Rule{validation.Required}},
		{"structure.steps", d.Structure.Steps, []validation.Rule{validation.Required}},
	}
	for _, r := range required {
		if err := validation.Validate(r.value, r.rules...); err != nil {
			out = append(out, Violation{Code: "required", Field: r.field, Message: err.Error()})
		}
	}

	if d.Kind != "" {
		if err := validation.Validate(d.Kind, validation.In(kindValues()...)); err != nil {
			out = append(out, Violation{
				Code:    "invalid_kind",
				Field:   "kind",
				Message: fmt.Sprintf("%q %s", d.Kind, err.Error()),
			})
		}
	}

	steps := d.Structure.Steps
	if d.Structure.InitialStep != "" {
		if _, ok := steps[d.Structure.InitialStep]; !ok {
			out = append(out, Violation{
				Code:    "unresolved_initial_step",
				Field:   "structure.initialStep",
				StepID:  d.Structure.InitialStep,
				Message: fmt.Sprintf("initial step %q is not defined", d.Structure.InitialStep),
			})
		}
	}

	keys := SortedStepIDs(d.Structure)
	for _, check := range stepChecks {
		for _, key := range keys {
			out = append(out, check(key, steps[key], steps)...)
		}
	}

	if d.Published != (d.PublishedAt != nil) {
		out = append(out, Violation{
			Code:    "publish_state",
			Field:   "publishedAt",
			Message: "publishedAt must be set if and only if the flow is published",
		})
	}

	return out
}

// StepViolations validates one step against the given step map.
func StepViolations(key string, s Step, steps map[string]Step) []Violation {
	var out []Violation
	for _, check := range stepChecks {
		out = append(out, check(key, s, steps)...)
	}
	return out
}

// SortedStepIDs returns step keys in a stable order.
func SortedStepIDs(s Structure) []string {
	keys := make([]string, 0, len(s.Steps))
	for k := range s.Steps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type stepCheck func(key string, s Step, steps map[string]Step) []Violation

var stepChecks = []stepCheck{
	checkStepID,
	checkStepKind,
	checkMessage,
	checkOptionsPresent,
	checkOptionFields,
	checkMetadata,
	checkReferences,
}

func kindValues() []interface{} {
	vals := make([]interface{}, len(Kinds))
	for i, k := range Kinds {
		vals[i] = k
	}
	return vals
}

func checkStepID(key string, s Step, _ map[string]Step) []Violation {
	if s.ID == key {
		return nil
	}
	return []Violation{{
		Code:    "step_id_mismatch",
		Field:   "id",
		StepID:  key,
		Message: fmt.Sprintf("step id %q does not match its key", s.ID),
	}}
}

func checkStepKind(key string, s Step, _ map[string]Step) []Violation {
	if s.Kind == StepMessage || s.Kind == StepInteractive {
		return nil
	}
	return []Violation{{
		Code:    "invalid_step_kind",
		Field:   "kind",
		StepID:  key,
		Message: fmt.Sprintf("step kind %q must be %q or %q", s.Kind, StepMessage, StepInteractive),
	}}
}

func checkMessage(key string, s Step, _ map[string]Step) []Violation {
	if err := validation.Validate(s.Message, validation.Required); err != nil {
		return []Violation{{Code: "empty_message", Field: "message", StepID: key, Message: "message " + err.Error()}}
	}
	return nil
}

func checkOptionsPresent(key string, s Step, _ map[string]Step) []Violation {
	switch {
	case s.Kind == StepInteractive && len(s.Options) == 0:
		return []Violation{{
			Code:    "empty_options",
			Field:   "options",
			StepID:  key,
			Message: "interactive step needs at least one option",
		}}
	case s.Kind == StepMessage && len(s.Options) > 0:
		return []Violation{{
			Code:    "options_on_message_step",
			Field:   "options",
			StepID:  key,
			Message: "message step advances through nextStep and must not carry options",
		}}
	}
	return nil
}

func checkOptionFields(key string, s Step, _ map[string]Step) []Violation {
	var out []Violation
	seen := make(map[string]bool, len(s.Options))
	for i, o := range s.Options {
		if o.ID == "" {
			out = append(out, Violation{
				Code:    "required",
				Field:   fmt.Sprintf("options[%d].id", i),
				StepID:  key,
				Message: "option id is required",
			})
		} else if seen[o.ID] {
			out = append(out, Violation{
				Code:     "duplicate_option_id",
				Field:    fmt.Sprintf("options[%d].id", i),
				StepID:   key,
				OptionID: o.ID,
				Message:  fmt.Sprintf("option id %q is used more than once", o.ID),
			})
		}
		seen[o.ID] = true

		if o.Text == "" {
			out = append(out, Violation{
				Code:     "empty_option_text",
				Field:    fmt.Sprintf("options[%d].text", i),
				StepID:   key,
				OptionID: o.ID,
				Message:  "option text is required",
			})
		}
	}
	return out
}

func checkMetadata(key string, s Step, _ map[string]Step) []Violation {
	if s.Metadata.Bool(MetaPersonalizeExisting) && s.Metadata.String(MetaExistingCustomerMessage) == "" {
		return []Violation{{
			Code:    "missing_existing_customer_message",
			Field:   "metadata." + MetaExistingCustomerMessage,
			StepID:  key,
			Message: "personalizeForExistingCustomer requires existingCustomerMessage",
		}}
	}
	return nil
}

func checkReferences(key string, s Step, steps map[string]Step) []Violation {
	var out []Violation
	unresolved := func(field, optionID, target string) {
		if target == "" {
			return
		}
		if _, ok := steps[target]; ok {
			return
		}
		out = append(out, Violation{
			Code:     "unresolved_reference",
			Field:    field,
			StepID:   key,
			OptionID: optionID,
			Message:  fmt.Sprintf("next step %q is not defined", target),
		})
	}

	unresolved("nextStep", "", s.NextStep)
	for i, o := range s.Options {
		unresolved(fmt.Sprintf("options[%d].nextStep", i), o.ID, o.NextStep)
		for j, b := range o.ConditionalNext {
			field := fmt.Sprintf("options[%d].conditionalNext[%d]", i, j)
			if err := compileCondition(b.If); err != nil {
				out = append(out, Violation{
					Code:     "invalid_condition",
					Field:    field + ".if",
					StepID:   key,
					OptionID: o.ID,
					Message:  err.Error(),
				})
			}
			if b.Then == "" {
				out = append(out, Violation{
					Code:     "required",
					Field:    field + ".then",
					StepID:   key,
					OptionID: o.ID,
					Message:  "branch target is required",
				})
				continue
			}
			unresolved(field+".then", o.ID, b.Then)
		}
	}
	return out
}
