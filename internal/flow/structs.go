package flow

import "time"

// Kind is the flow's menu style.
type Kind string

const (
	KindOptionMenu     Kind = "option-menu"
	KindSimpleMenu     Kind = "simple-menu"
	KindDecisionTree   Kind = "decision-tree"
	KindKeywordMatch   Kind = "keyword-match"
	KindDataCollection Kind = "data-collection"
	KindConditional    Kind = "conditional"
)

// Kinds lists every accepted flow kind.
var Kinds = []Kind{
	KindOptionMenu,
	KindSimpleMenu,
	KindDecisionTree,
	KindKeywordMatch,
	KindDataCollection,
	KindConditional,
}

// StepKind tells the bot whether a step waits for a choice.
type StepKind string

const (
	StepMessage     StepKind = "message"     // plain text, auto-advance
	StepInteractive StepKind = "interactive" // presents options
)

// Recognized metadata keys
const (
	MetaAutoDetectContact       = "autoDetectContact"
	MetaPersonalizeExisting     = "personalizeForExistingCustomer"
	MetaUseNameIfAvailable      = "useNameIfAvailable"
	MetaExistingCustomerMessage = "existingCustomerMessage"
	MetaEndsSession             = "endsSession"
)

// Document is one persisted conversational flow.
type Document struct {
	ID              string     `json:"id" yaml:"id"`
	EmpresaID       string     `json:"empresaId,omitempty" yaml:"empresaId,omitempty"`
	Name            string     `json:"name" yaml:"name"`
	Description     string     `json:"description,omitempty" yaml:"description,omitempty"`
	Kind            Kind       `json:"kind" yaml:"kind"`
	Channels        []string   `json:"channels" yaml:"channels"`
	TriggerKeywords []string   `json:"triggerKeywords,omitempty" yaml:"triggerKeywords,omitempty"`
	Priority        int        `json:"priority" yaml:"priority"`
	Active          bool       `json:"active" yaml:"active"`
	Published       bool       `json:"published" yaml:"published"`
	PublishedAt     *time.Time `json:"publishedAt" yaml:"publishedAt"`
	Version         int        `json:"version" yaml:"version"`
	Structure       Structure  `json:"structure" yaml:"structure"`
	UpdatedAt       time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// Structure is the step graph of a flow.
type Structure struct {
	InitialStep   string          `json:"initialStep" yaml:"initialStep"`
	SchemaVersion string          `json:"schemaVersion" yaml:"schemaVersion"`
	Steps         map[string]Step `json:"steps" yaml:"steps"`
}

// Step is a node in the flow graph. An empty NextStep ends the conversation.
type Step struct {
	ID          string   `json:"id" yaml:"id"`
	Kind        StepKind `json:"kind" yaml:"kind"`
	Message     string   `json:"message" yaml:"message"`
	DisplayName string   `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	NextStep    string   `json:"nextStep,omitempty" yaml:"nextStep,omitempty"`
	Options     []Option `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Option is a selectable choice in an interactive step.
type Option struct {
	ID              string   `json:"id" yaml:"id"`
	Text            string   `json:"text" yaml:"text"`
	Value           string   `json:"value,omitempty" yaml:"value,omitempty"`
	NextStep        string   `json:"nextStep,omitempty" yaml:"nextStep,omitempty"`
	ConditionalNext []Branch `json:"conditionalNext,omitempty" yaml:"conditionalNext,omitempty"`
}

// Branch overrides an option's NextStep when If evaluates true.
type Branch struct {
	If   string `json:"if" yaml:"if"`
	Then string `json:"then" yaml:"then"`
}

// Metadata holds free-form flags that steer the bot.
type Metadata map[string]any

// Bool reports a metadata flag; anything but a true bool is false.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key].(bool)
	return ok && v
}

// String returns a metadata string or "".
func (m Metadata) String(key string) string {
	v, _ := m[key].(string)
	return v
}

// EffectiveValue is the machine value sent back when the option is chosen.
func (o Option) EffectiveValue() string {
	if o.Value != "" {
		return o.Value
	}
	return o.ID
}

// Clone returns a deep copy safe to mutate.
func (d Document) Clone() Document {
	out := d
	out.Channels = append([]string(nil), d.Channels...)
	out.TriggerKeywords = append([]string(nil), d.TriggerKeywords...)
	if d.PublishedAt != nil {
		t := *d.PublishedAt
		out.PublishedAt = &t
	}
	out.Structure.Steps = make(map[string]Step, len(d.Structure.Steps))
	for k, s := range d.Structure.Steps {
		out.Structure.Steps[k] = s.Clone()
	}
	return out
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	if s.Options != nil {
		out.Options = make([]Option, len(s.Options))
		for i, o := range s.Options {
			o.ConditionalNext = append([]Branch(nil), o.ConditionalNext...)
			out.Options[i] = o
		}
	}
	if s.Metadata != nil {
		out.Metadata = make(Metadata, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
