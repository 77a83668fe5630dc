package flow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchesTrigger(t *testing.T) {
	d := Document{TriggerKeywords: []string{"Suporte", "segunda via"}}

	assert.True(t, MatchesTrigger(d, "suporte"))
	assert.True(t, MatchesTrigger(d, "  SUPORTE agora"))
	assert.True(t, MatchesTrigger(d, "quero a segunda via"))
	assert.False(t, MatchesTrigger(d, "bom dia"))
	assert.False(t, MatchesTrigger(d, "suportes"))
	assert.True(t, MatchesTrigger(Document{}, "qualquer coisa"))
}

func TestSelectForMessage(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []Document{
		{ID: "geral", Active: true, Published: true, Channels: []string{"whatsapp"}, Priority: 0, UpdatedAt: base},
		{ID: "financeiro", Active: true, Published: true, Channels: []string{"whatsapp"}, Priority: 10, TriggerKeywords: []string{"boleto"}, UpdatedAt: base},
		{ID: "rascunho", Active: true, Published: false, Channels: []string{"whatsapp"}, Priority: 99, UpdatedAt: base},
		{ID: "inativo", Active: false, Published: true, Channels: []string{"whatsapp"}, Priority: 99, UpdatedAt: base},
		{ID: "email", Active: true, Published: true, Channels: []string{"email"}, Priority: 50, UpdatedAt: base},
		{ID: "geral-novo", Active: true, Published: true, Channels: []string{"WhatsApp"}, Priority: 0, UpdatedAt: base.Add(time.Hour)},
	}

	got, ok := SelectForMessage(docs, "whatsapp", "preciso do boleto")
	assert.True(t, ok)
	assert.Equal(t, "financeiro", got.ID)

	got, ok = SelectForMessage(docs, "whatsapp", "oi")
	assert.True(t, ok)
	assert.Equal(t, "geral-novo", got.ID)

	_, ok = SelectForMessage(docs, "telegram", "oi")
	assert.False(t, ok)
}
