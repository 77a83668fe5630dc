package flow

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var (
	conditionalBlock = regexp.MustCompile(`(?s)\{\{#if\s+([\w.]+)\s*\}\}(.*?)\{\{/if\}\}`)
	placeholder      = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)
)

// ContactInfo is what the contact lookup knows about the person chatting.
type ContactInfo struct {
	Known     bool
	FirstName string
}

// RenderTemplate resolves {{#if var}}...{{/if}} blocks, then replaces every
// {{var}} with its binding. Unbound placeholders stay as written.
func RenderTemplate(tmpl string, bindings map[string]any) string {
	out := conditionalBlock.ReplaceAllStringFunc(tmpl, func(block string) string {
		m := conditionalBlock.FindStringSubmatch(block)
		if v, ok := lookup(bindings, m[1]); ok && truthy(v) {
			return m[2]
		}
		return ""
	})

	return placeholder.ReplaceAllStringFunc(out, func(ph string) string {
		m := placeholder.FindStringSubmatch(ph)
		v, ok := lookup(bindings, m[1])
		if !ok || v == nil {
			return ph
		}
		return fmt.Sprint(v)
	})
}

// RenderStep renders the step's message for a contact. A known contact gets
// existingCustomerMessage when the step asks for personalization, and the
// first name is bound as firstName when useNameIfAvailable is set.
func RenderStep(s Step, bindings map[string]any, contact ContactInfo) string {
	source := s.Message
	if contact.Known && s.Metadata.Bool(MetaPersonalizeExisting) {
		if alt := s.Metadata.String(MetaExistingCustomerMessage); alt != "" {
			source = alt
		}
	}

	if s.Metadata.Bool(MetaUseNameIfAvailable) && contact.FirstName != "" {
		merged := make(map[string]any, len(bindings)+1)
		for k, v := range bindings {
			merged[k] = v
		}
		merged["firstName"] = contact.FirstName
		bindings = merged
	}
	return RenderTemplate(source, bindings)
}

// lookup finds name as a flat key first, then as a dotted path through
// nested maps.
func lookup(bindings map[string]any, name string) (any, bool) {
	if v, ok := bindings[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}
	var cur any = bindings
	for _, part := range strings.Split(name, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
