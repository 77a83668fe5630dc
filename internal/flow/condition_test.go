package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNext(t *testing.T) {
	o := Option{
		ID:       "1",
		Text:     "Suporte",
		NextStep: "fila-geral",
		ConditionalNext: []Branch{
			{If: `plano == "premium"`, Then: "fila-premium"},
			{If: "tentativas != nil && tentativas > 2", Then: "humano"},
		},
	}

	tests := []struct {
		name     string
		bindings map[string]any
		want     string
	}{
		{"no bindings falls through", nil, "fila-geral"},
		{"first branch", map[string]any{"plano": "premium", "tentativas": 5}, "fila-premium"},
		{"second branch", map[string]any{"plano": "basico", "tentativas": 3}, "humano"},
		{"none match", map[string]any{"plano": "basico", "tentativas": 1}, "fila-geral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveNext(o, tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNext_BadCondition(t *testing.T) {
	o := Option{ID: "1", NextStep: "x", ConditionalNext: []Branch{{If: "a ==", Then: "y"}}}
	_, err := ResolveNext(o, nil)
	assert.Error(t, err)
}

func TestCompileCondition(t *testing.T) {
	assert.NoError(t, compileCondition("cliente != nil"))
	assert.NoError(t, compileCondition("cliente != nil"))
	assert.Error(t, compileCondition(""))
	assert.Error(t, compileCondition("1 +"))
}
