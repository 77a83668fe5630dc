package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"triage-flows/internal/database"
	"triage-flows/internal/flow"
	"triage-flows/internal/models"
	pub "triage-flows/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) FlowChanged(ev pub.FlowEvent) {
	m.Called(ev)
}

func (m *mockNotifier) eventTypes() []string {
	var out []string
	for _, c := range m.Calls {
		out = append(out, c.Arguments.Get(0).(pub.FlowEvent).Type)
	}
	return out
}

var t0 = time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*FlowStore, *gorm.DB, *mockNotifier) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	n := &mockNotifier{}
	n.On("FlowChanged", mock.Anything).Return()

	s := NewFlowStore(db, n)
	clock := t0
	s.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s, db, n
}

func triageDocument() flow.Document {
	return flow.Document{
		Name:     "Triagem padrão WhatsApp",
		Kind:     flow.KindOptionMenu,
		Channels: []string{"whatsapp"},
		Active:   true,
		Structure: flow.Structure{
			InitialStep:   "boas-vindas",
			SchemaVersion: "1.1.0",
			Steps: map[string]flow.Step{
				"boas-vindas": {
					ID:      "boas-vindas",
					Kind:    flow.StepInteractive,
					Message: "Olá! Escolha o setor:",
					Options: []flow.Option{
						{ID: "1", Text: "Suporte", NextStep: "suporte"},
						{ID: "2", Text: "Financeiro", NextStep: "fim"},
					},
				},
				"suporte": {ID: "suporte", Kind: flow.StepMessage, Message: "Um atendente vai te chamar.", NextStep: "fim"},
				"fim":     {ID: "fim", Kind: flow.StepMessage, Message: "Obrigado!", Metadata: flow.Metadata{flow.MetaEndsSession: true}},
			},
		},
	}
}

func TestFlowStore_CreateAndGet(t *testing.T) {
	s, _, n := setup(t)
	ctx := context.Background()

	created, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.False(t, created.Published)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Structure, got.Structure)
	assert.Equal(t, []string{"whatsapp"}, got.Channels)
	assert.Empty(t, flow.Validate(got))
	assert.Equal(t, []string{pub.EventFlowCreated}, n.eventTypes())
}

func TestFlowStore_GetMissing(t *testing.T) {
	s, _, _ := setup(t)

	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	var nerr *flow.NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "flow", nerr.Resource)

	_, err = s.Publish(context.Background(), "00000000-0000-0000-0000-000000000000", 0)
	require.ErrorAs(t, err, &nerr)
}

func TestFlowStore_ApplyStepPatch(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)
	d, err = s.Publish(ctx, d.ID, d.Version)
	require.NoError(t, err)

	patched, err := s.ApplyStepPatch(ctx, d.ID, d.Version, "fim", flow.Step{Kind: flow.StepMessage, Message: "Até a próxima!"})
	require.NoError(t, err)
	assert.Equal(t, d.Version+1, patched.Version)
	assert.True(t, patched.Published)
	assert.True(t, d.PublishedAt.Equal(*patched.PublishedAt))

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Até a próxima!", got.Structure.Steps["fim"].Message)
	assert.True(t, got.Published)
}

func TestFlowStore_ApplyStepPatchInvalidLeavesStoredDocument(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	_, err = s.ApplyStepPatch(ctx, d.ID, 1, "boas-vindas", flow.Step{Kind: flow.StepInteractive, Message: "Escolha:"})
	var verr *flow.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.Len(t, got.Structure.Steps["boas-vindas"].Options, 2)
}

func TestFlowStore_StaleVersionConflicts(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	// two editors read version 1
	first, err := s.ApplyStepPatch(ctx, d.ID, 1, "suporte", flow.Step{Kind: flow.StepMessage, Message: "Aguarde na fila.", NextStep: "fim"})
	require.NoError(t, err)
	require.Equal(t, 2, first.Version)

	_, err = s.ApplyStepPatch(ctx, d.ID, 1, "suporte", flow.Step{Kind: flow.StepMessage, Message: "Outro texto", NextStep: "fim"})
	var cerr *flow.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Expected)
	assert.Equal(t, 2, cerr.Actual)
	assert.Equal(t, 409, cerr.HTTPStatus())

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "Aguarde na fila.", got.Structure.Steps["suporte"].Message)
}

func TestFlowStore_PublishInvalidFails(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	doc := triageDocument()
	step := doc.Structure.Steps["suporte"]
	step.NextStep = "fila-suporte"
	doc.Structure.Steps["suporte"] = step
	d, err := s.Create(ctx, doc)
	require.NoError(t, err)

	_, err = s.Publish(ctx, d.ID, 0)
	var verr *flow.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unresolved_reference", verr.Violations[0].Code)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)
	assert.Nil(t, got.PublishedAt)

	var count int64
	db.Model(&models.FlowVersion{}).Where("fluxo_id = ?", d.ID).Count(&count)
	assert.Zero(t, count)
}

func TestFlowStore_PublishLifecycle(t *testing.T) {
	s, _, n := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	pubd, err := s.Publish(ctx, d.ID, 1)
	require.NoError(t, err)
	assert.True(t, pubd.Published)
	assert.Equal(t, 1, pubd.Version)

	_, err = s.Publish(ctx, d.ID, 1)
	var perr *flow.PreconditionError
	require.ErrorAs(t, err, &perr)

	rep, err := s.Republish(ctx, d.ID, 1)
	require.NoError(t, err)
	assert.True(t, rep.PublishedAt.After(*pubd.PublishedAt))
	assert.Equal(t, 1, rep.Version)

	un, err := s.Unpublish(ctx, d.ID, 1)
	require.NoError(t, err)
	assert.False(t, un.Published)
	assert.Nil(t, un.PublishedAt)

	_, err = s.Republish(ctx, d.ID, 1)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "republish", perr.Op)

	assert.Equal(t, []string{
		pub.EventFlowCreated,
		pub.EventFlowPublished,
		pub.EventFlowRepublished,
		pub.EventFlowUnpublished,
	}, n.eventTypes())

	history, err := s.History(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, "boas-vindas", history[0].Structure.InitialStep)
}

func TestFlowStore_UnpublishInvalidDocument(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)
	d, err = s.Publish(ctx, d.ID, 0)
	require.NoError(t, err)

	// break the stored structure behind the store's back
	broken := d.Structure
	broken.InitialStep = "removida"
	data, _ := json.Marshal(broken)
	require.NoError(t, db.Model(&models.Flow{}).Where("id = ?", d.ID).Update("estrutura", datatypes.JSON(data)).Error)

	un, err := s.Unpublish(context.Background(), d.ID, 0)
	require.NoError(t, err)
	assert.False(t, un.Published)
}

const legacyStructure = `{
	"initialStep": "menu",
	"schemaVersion": "1.0",
	"steps": {
		"menu": {
			"id": "menu", "kind": "interactive", "message": "Escolha:",
			"options": [
				{"valor": "1", "texto": "Suporte", "proximaEtapa": "fim"},
				{"valor": "2", "texto": "Vendas", "proximaEtapa": "fim"}
			]
		},
		"fim": {"id": "fim", "kind": "message", "message": "Tchau", "extra": "kept"}
	}
}`

func insertLegacy(t *testing.T, db *gorm.DB) string {
	t.Helper()
	row := models.Flow{
		Name:      "Legado",
		Kind:      "option-menu",
		Channels:  models.StringArray{"whatsapp"},
		Active:    true,
		Version:   3,
		Structure: datatypes.JSON(legacyStructure),
		UpdatedAt: t0,
	}
	require.NoError(t, db.Create(&row).Error)
	return row.ID
}

func TestFlowStore_LegacyKeysSurviveOtherEdits(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	id := insertLegacy(t, db)

	d, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, codesOf(flow.Validate(d)), "empty_option_text")

	_, err = s.ApplyStepPatch(ctx, id, 3, "fim", flow.Step{Kind: flow.StepMessage, Message: "Até mais"})
	require.NoError(t, err)

	raw, err := s.RawSteps(ctx, id)
	require.NoError(t, err)
	opt := raw["menu"]["options"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Suporte", opt["texto"])
	assert.NotContains(t, raw["fim"], "extra")
}

func TestFlowStore_NormalizeOptionLabels(t *testing.T) {
	s, db, n := setup(t)
	ctx := context.Background()
	id := insertLegacy(t, db)

	d, fixed, err := s.NormalizeOptionLabels(ctx, id, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu"}, fixed)
	assert.Equal(t, 4, d.Version)
	assert.Empty(t, flow.Validate(d))
	assert.Equal(t, "Vendas", d.Structure.Steps["menu"].Options[1].Text)
	assert.Equal(t, "2", d.Structure.Steps["menu"].Options[1].Value)

	raw, err := s.RawSteps(ctx, id)
	require.NoError(t, err)
	assert.False(t, flow.HasLegacyOptionFields(raw["menu"]))

	again, fixed, err := s.NormalizeOptionLabels(ctx, id, 0)
	require.NoError(t, err)
	assert.Empty(t, fixed)
	assert.Equal(t, 4, again.Version)
	assert.Equal(t, []string{pub.EventFlowNormalized}, n.eventTypes())
}

func TestFlowStore_ListAndFindDefault(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	low := triageDocument()
	low.Name = "Geral"
	low.Priority = 1
	high := triageDocument()
	high.Name = "Prioritário"
	high.Priority = 10
	high.TriggerKeywords = []string{"urgente"}
	email := triageDocument()
	email.Name = "Email"
	email.Channels = []string{"email"}
	email.Priority = 50

	var ids []string
	for _, doc := range []flow.Document{low, high, email} {
		d, err := s.Create(ctx, doc)
		require.NoError(t, err)
		ids = append(ids, d.ID)
	}

	_, err := s.FindDefault(ctx, "", "whatsapp")
	var nerr *flow.NotFoundError
	require.ErrorAs(t, err, &nerr)

	for _, id := range ids {
		_, err := s.Publish(ctx, id, 0)
		require.NoError(t, err)
	}

	def, err := s.FindDefault(ctx, "", "whatsapp")
	require.NoError(t, err)
	assert.Equal(t, "Prioritário", def.Name)

	byMsg, err := s.FindForMessage(ctx, "", "whatsapp", "bom dia")
	require.NoError(t, err)
	assert.Equal(t, "Geral", byMsg.Name)

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Email", all[0].Name)

	no := false
	drafts, err := s.List(ctx, Filter{Published: &no})
	require.NoError(t, err)
	assert.Empty(t, drafts)

	wa, err := s.List(ctx, Filter{Channel: "WhatsApp", Kind: string(flow.KindOptionMenu)})
	require.NoError(t, err)
	assert.Len(t, wa, 2)
}

func TestFlowStore_Replace(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	body := triageDocument()
	body.Name = "Triagem v2"
	delete(body.Structure.Steps, "suporte")
	menu := body.Structure.Steps["boas-vindas"]
	menu.Options = menu.Options[1:]
	body.Structure.Steps["boas-vindas"] = menu

	out, err := s.Replace(ctx, d.ID, 1, body)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Version)
	assert.Equal(t, d.ID, out.ID)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Triagem v2", got.Name)
	assert.NotContains(t, got.Structure.Steps, "suporte")

	body.Structure.InitialStep = "nada"
	_, err = s.Replace(ctx, d.ID, 2, body)
	var verr *flow.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestFlowStore_StepsReferencing(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	refs, err := s.StepsReferencing(ctx, d.ID, "fim")
	require.NoError(t, err)
	assert.Equal(t, []string{"boas-vindas", "suporte"}, refs)
}

func codesOf(vs []flow.Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Code
	}
	return out
}

func TestFlowStore_SetPriority(t *testing.T) {
	s, _, n := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	out, err := s.SetPriority(ctx, d.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, out.Priority)
	assert.Equal(t, 1, out.Version)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Priority)
	assert.Equal(t, 1, got.Version)

	same, err := s.SetPriority(ctx, d.ID, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, same.Version)
	assert.Equal(t, []string{pub.EventFlowCreated, pub.EventPriorityChanged}, n.eventTypes())
}

func TestFlowStore_ScopedByCompany(t *testing.T) {
	s, _, _ := setup(t)
	ctx := context.Background()

	a := triageDocument()
	a.EmpresaID = "empresa-A"
	a.Name = "Triagem A"
	a.Priority = 1
	b := triageDocument()
	b.EmpresaID = "empresa-B"
	b.Name = "Triagem B"
	b.Priority = 100
	b.TriggerKeywords = []string{"oi"}

	for _, doc := range []flow.Document{a, b} {
		d, err := s.Create(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, doc.EmpresaID, d.EmpresaID)
		_, err = s.Publish(ctx, d.ID, 1)
		require.NoError(t, err)
	}

	def, err := s.FindDefault(ctx, "empresa-A", "whatsapp")
	require.NoError(t, err)
	assert.Equal(t, "Triagem A", def.Name)
	assert.Equal(t, "empresa-A", def.EmpresaID)

	byMsg, err := s.FindForMessage(ctx, "empresa-A", "whatsapp", "oi")
	require.NoError(t, err)
	assert.Equal(t, "Triagem A", byMsg.Name)

	onlyB, err := s.List(ctx, Filter{EmpresaID: "empresa-B"})
	require.NoError(t, err)
	require.Len(t, onlyB, 1)
	assert.Equal(t, "Triagem B", onlyB[0].Name)

	_, err = s.FindDefault(ctx, "empresa-C", "whatsapp")
	var nerr *flow.NotFoundError
	require.ErrorAs(t, err, &nerr)

	// replacing without a company keeps the stored one
	body := triageDocument()
	body.Name = "Triagem A v2"
	out, err := s.Replace(ctx, def.ID, 0, body)
	require.NoError(t, err)
	assert.Equal(t, "empresa-A", out.EmpresaID)
	got, err := s.Get(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "empresa-A", got.EmpresaID)
}

const numericStructure = `{
	"initialStep": "menu",
	"steps": {
		"menu": {
			"id": "menu", "kind": "interactive", "message": "Escolha:",
			"options": [
				{"id": 1, "texto": "Suporte", "valor": 1, "proximaEtapa": "fim", "descricao": "Nível 1"},
				{"numero": "2", "texto": "Comercial", "proximaEtapa": "fim"}
			]
		},
		"fim": {"id": "fim", "kind": "message", "message": "Tchau"}
	}
}`

func TestFlowStore_NormalizeNumericOptionIDs(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	row := models.Flow{
		Name:      "Legado numérico",
		Kind:      "option-menu",
		Channels:  models.StringArray{"whatsapp"},
		Version:   1,
		Structure: datatypes.JSON(numericStructure),
		UpdatedAt: t0,
	}
	require.NoError(t, db.Create(&row).Error)

	_, err := s.Get(ctx, row.ID)
	require.Error(t, err)
	listed, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	ids, err := s.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{row.ID}, ids)
	stored, version, err := s.RawStructure(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.JSONEq(t, numericStructure, string(stored))

	d, fixed, err := s.NormalizeOptionLabels(ctx, row.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"menu"}, fixed)
	assert.Equal(t, 2, d.Version)

	got, err := s.Get(ctx, row.ID)
	require.NoError(t, err)
	opts := got.Structure.Steps["menu"].Options
	require.Len(t, opts, 2)
	assert.Equal(t, "1", opts[0].ID)
	assert.Equal(t, "1", opts[0].Value)
	assert.Equal(t, "Suporte", opts[0].Text)
	assert.Equal(t, "2", opts[1].ID)
	assert.Equal(t, "2", opts[1].Value)
	assert.Empty(t, flow.Validate(got))

	raw, err := s.RawSteps(ctx, row.ID)
	require.NoError(t, err)
	first := raw["menu"]["options"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Nível 1", first["descricao"])
}

func TestFlowStore_RestoreVersion(t *testing.T) {
	s, _, n := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)
	_, err = s.Publish(ctx, d.ID, 1)
	require.NoError(t, err)

	_, err = s.ApplyStepPatch(ctx, d.ID, 1, "fim", flow.Step{Kind: flow.StepMessage, Message: "Mudou"})
	require.NoError(t, err)

	restored, err := s.RestoreVersion(ctx, d.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Version)
	assert.True(t, restored.Published)
	assert.Equal(t, "Obrigado!", restored.Structure.Steps["fim"].Message)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Obrigado!", got.Structure.Steps["fim"].Message)
	assert.Contains(t, n.eventTypes(), pub.EventFlowRestored)

	_, err = s.RestoreVersion(ctx, d.ID, 3, 7)
	var nerr *flow.NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "snapshot", nerr.Resource)

	_, err = s.RestoreVersion(ctx, d.ID, 1, 1)
	var cerr *flow.ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestFlowStore_RestoreInvalidSnapshot(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	broken, _ := json.Marshal(flow.Structure{InitialStep: "sumiu", Steps: map[string]flow.Step{}})
	require.NoError(t, db.Create(&models.FlowVersion{FlowID: d.ID, Version: 9, Structure: datatypes.JSON(broken), CreatedAt: t0}).Error)

	_, err = s.RestoreVersion(ctx, d.ID, 1, 9)
	var verr *flow.ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestFlowStore_Duplicate(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	doc := triageDocument()
	doc.EmpresaID = "empresa-A"
	doc.Priority = 7
	d, err := s.Create(ctx, doc)
	require.NoError(t, err)
	d, err = s.Publish(ctx, d.ID, 1)
	require.NoError(t, err)
	_, err = s.ApplyStepPatch(ctx, d.ID, 1, "fim", flow.Step{Kind: flow.StepMessage, Message: "Até"})
	require.NoError(t, err)

	cp, err := s.Duplicate(ctx, d.ID, "")
	require.NoError(t, err)
	assert.NotEqual(t, d.ID, cp.ID)
	assert.Equal(t, "Triagem padrão WhatsApp (Cópia)", cp.Name)
	assert.Equal(t, 1, cp.Version)
	assert.False(t, cp.Active)
	assert.False(t, cp.Published)
	assert.Nil(t, cp.PublishedAt)
	assert.Equal(t, "empresa-A", cp.EmpresaID)
	assert.Equal(t, 7, cp.Priority)

	got, err := s.Get(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Até", got.Structure.Steps["fim"].Message)

	named, err := s.Duplicate(ctx, d.ID, "Outra")
	require.NoError(t, err)
	assert.Equal(t, "Outra", named.Name)

	// legacy keys are copied with the structure
	id := insertLegacy(t, db)
	legacyCopy, err := s.Duplicate(ctx, id, "")
	require.NoError(t, err)
	raw, err := s.RawSteps(ctx, legacyCopy.ID)
	require.NoError(t, err)
	assert.True(t, flow.HasLegacyOptionFields(raw["menu"]))

	_, err = s.Duplicate(ctx, "00000000-0000-0000-0000-000000000000", "")
	var nerr *flow.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestFlowStore_ConflictAfterConcurrentWrite(t *testing.T) {
	s, db, _ := setup(t)
	ctx := context.Background()
	d, err := s.Create(ctx, triageDocument())
	require.NoError(t, err)

	// another writer commits between the read and the conditional update
	bumped := false
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:concurrent_write", func(tx *gorm.DB) {
		if bumped || tx.Statement.Table != "fluxos_triagem" {
			return
		}
		bumped = true
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context, "UPDATE fluxos_triagem SET versao = versao + 1 WHERE id = ?", d.ID)
		require.NoError(t, err)
	}))

	_, err = s.ApplyStepPatch(ctx, d.ID, 1, "fim", flow.Step{Kind: flow.StepMessage, Message: "Até"})
	var cerr *flow.ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Expected)
	assert.Equal(t, 2, cerr.Actual)
}
