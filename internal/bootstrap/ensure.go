package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"triage-flows/internal/directory"
	"triage-flows/internal/flow"
	"triage-flows/internal/models"
	"triage-flows/internal/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BusinessHours is Monday to Friday, 08:00 to 18:00.
var BusinessHours = directory.OperatingHours{
	"seg": {Start: "08:00", End: "18:00"},
	"ter": {Start: "08:00", End: "18:00"},
	"qua": {Start: "08:00", End: "18:00"},
	"qui": {Start: "08:00", End: "18:00"},
	"sex": {Start: "08:00", End: "18:00"},
}

// DefaultNucleos are upserted by their per-company id so repeated runs
// converge. See CompanyScopedID.
var DefaultNucleos = []models.Nucleo{
	{ID: "22222222-3333-4444-5555-666666666661", Name: "Suporte Técnico", Priority: 100,
		Description: "Atendimento técnico nível 1 para incidentes, integrações e uso do produto."},
	{ID: "22222222-3333-4444-5555-666666666662", Name: "Financeiro", Priority: 120,
		Description: "Cobranças, boletos, notas fiscais e ajustes contratuais."},
	{ID: "22222222-3333-4444-5555-666666666663", Name: "Comercial", Priority: 110,
		Description: "Consultas sobre planos, propostas e novas oportunidades."},
	{ID: "22222222-3333-4444-5555-666666666664", Name: "Atendimento Geral", Priority: 90,
		Description: "Fila geral para direcionamento rápido quando o cliente quer falar com um humano."},
}

// Result reports what EnsureDefault touched.
type Result struct {
	Flow    flow.Document
	Nucleos []models.Nucleo
	Created bool
	Demoted []string
}

// CompanyScopedID derives a stable id for one company's copy of a default
// record, so two companies never share a row.
func CompanyScopedID(base, empresaID string) string {
	return uuid.NewSHA1(uuid.MustParse(base), []byte(empresaID)).String()
}

// DefaultFlowIDFor is the id of a company's default WhatsApp flow.
func DefaultFlowIDFor(empresaID string) string {
	return CompanyScopedID(DefaultFlowID, empresaID)
}

// EnsureDefault makes sure the company's default nucleos exist and its default
// WhatsApp flow is stored, current and published with the highest priority on
// its channel. Competing published flows of the same company are demoted
// below it; other companies are never touched.
func EnsureDefault(ctx context.Context, db *gorm.DB, s *store.FlowStore, empresaID string) (Result, error) {
	var res Result
	if empresaID == "" {
		return res, errors.New("ensure default flow: company id is required")
	}

	nucleos, err := upsertNucleos(ctx, db, empresaID)
	if err != nil {
		return res, err
	}
	res.Nucleos = nucleos

	doc := DefaultFlow(NucleoIDs{
		Support: nucleos[0].ID,
		Finance: nucleos[1].ID,
		Sales:   nucleos[2].ID,
		General: nucleos[3].ID,
	})
	doc.ID = DefaultFlowIDFor(empresaID)
	doc.EmpresaID = empresaID

	cur, err := s.Get(ctx, doc.ID)
	var nf *flow.NotFoundError
	switch {
	case errors.As(err, &nf):
		cur, err = s.Create(ctx, doc)
		res.Created = true
	case err == nil:
		cur, err = s.Replace(ctx, cur.ID, cur.Version, doc)
	}
	if err != nil {
		return res, err
	}

	if cur.Published {
		cur, err = s.Republish(ctx, cur.ID, cur.Version)
	} else {
		cur, err = s.Publish(ctx, cur.ID, cur.Version)
	}
	if err != nil {
		return res, err
	}
	res.Flow = cur

	yes := true
	live, err := s.List(ctx, store.Filter{EmpresaID: empresaID, Published: &yes, Channel: DefaultChannel})
	if err != nil {
		return res, err
	}
	for _, d := range live {
		if d.ID == doc.ID || d.Priority < DefaultPriority {
			continue
		}
		if _, err := s.SetPriority(ctx, d.ID, d.Version, DefaultPriority-1); err != nil {
			return res, err
		}
		log.Printf("[Bootstrap] Demoted flow %s (%s) from priority %d", d.ID, d.Name, d.Priority)
		res.Demoted = append(res.Demoted, d.ID)
	}
	return res, nil
}

func upsertNucleos(ctx context.Context, db *gorm.DB, empresaID string) ([]models.Nucleo, error) {
	hours, err := json.Marshal(BusinessHours)
	if err != nil {
		return nil, err
	}
	out := make([]models.Nucleo, 0, len(DefaultNucleos))
	for _, n := range DefaultNucleos {
		n.ID = CompanyScopedID(n.ID, empresaID)
		n.EmpresaID = &empresaID
		n.Active = true
		n.VisibleToBot = true
		n.OperatingHours = datatypes.JSON(hours)

		err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"empresa_id", "nome", "descricao", "prioridade", "ativo", "visivel_no_bot", "horario_funcionamento", "updated_at"}),
		}).Create(&n).Error
		if err != nil {
			return nil, &flow.StorageError{Op: "upsert nucleo " + n.Name, Err: err}
		}
		log.Printf("[Bootstrap] Nucleo ensured: %s (%s)", n.Name, n.ID)
		out = append(out, n)
	}
	return out, nil
}
