package directory

import (
	"context"
	"log"
	"sort"
	"time"

	"triage-flows/internal/flow"
	"triage-flows/internal/models"
	pub "triage-flows/pkg/models"

	"gorm.io/gorm"
)

// Directory reads the nucleos and departments the bot menu routes to.
type Directory struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// BotMenu returns active, bot-visible nucleos ordered by priority then name,
// each with its active, bot-visible departments ordered by order then name.
// Nucleos left without departments are dropped. Closed nucleos stay in the
// menu marked Open=false.
func (d *Directory) BotMenu(ctx context.Context, empresaID string, now time.Time) ([]pub.MenuNucleo, error) {
	nucleos, err := d.load(ctx, empresaID)
	if err != nil {
		return nil, err
	}

	var out []pub.MenuNucleo
	for _, n := range nucleos {
		if !n.Active || !n.VisibleToBot {
			continue
		}
		open := isOpen(n.OperatingHours, now, n.Name)

		var deps []pub.MenuDepartment
		for _, dep := range visibleDepartments(n.Departments) {
			depOpen := open
			if len(dep.OperatingHours) > 0 {
				depOpen = isOpen(dep.OperatingHours, now, dep.Name)
			}
			deps = append(deps, pub.MenuDepartment{ID: dep.ID, Name: dep.Name, Order: dep.Order, Open: depOpen})
		}
		if len(deps) == 0 {
			continue
		}
		out = append(out, pub.MenuNucleo{
			ID:          n.ID,
			Name:        n.Name,
			Priority:    n.Priority,
			Open:        open,
			Departments: deps,
		})
	}
	return out, nil
}

// Report explains for every nucleo of the company whether the bot shows it.
func (d *Directory) Report(ctx context.Context, empresaID string, now time.Time) ([]pub.NucleoReport, error) {
	nucleos, err := d.load(ctx, empresaID)
	if err != nil {
		return nil, err
	}

	out := make([]pub.NucleoReport, 0, len(nucleos))
	for _, n := range nucleos {
		r := pub.NucleoReport{
			ID:                 n.ID,
			Name:               n.Name,
			Active:             n.Active,
			VisibleToBot:       n.VisibleToBot,
			Priority:           n.Priority,
			TotalDepartments:   len(n.Departments),
			VisibleDepartments: len(visibleDepartments(n.Departments)),
		}
		hours, err := ParseHours(n.OperatingHours)
		if err != nil {
			r.Reasons = append(r.Reasons, err.Error())
		} else {
			var reason string
			r.Open, reason = hours.IsOpen(now)
			if reason != "" {
				r.Reasons = append(r.Reasons, reason)
			}
		}
		if !n.Active {
			r.Reasons = append(r.Reasons, "inactive")
		}
		if !n.VisibleToBot {
			r.Reasons = append(r.Reasons, "hidden from bot")
		}
		if r.VisibleDepartments == 0 {
			r.Reasons = append(r.Reasons, "no active bot-visible departments")
		}
		r.Shown = n.Active && n.VisibleToBot && r.VisibleDepartments > 0
		out = append(out, r)
	}
	return out, nil
}

func (d *Directory) load(ctx context.Context, empresaID string) ([]models.Nucleo, error) {
	q := d.db.WithContext(ctx).Preload("Departments")
	if empresaID != "" {
		q = q.Where("empresa_id = ?", empresaID)
	}
	var nucleos []models.Nucleo
	if err := q.Order("prioridade ASC").Order("nome ASC").Find(&nucleos).Error; err != nil {
		return nil, &flow.StorageError{Op: "load nucleos", Err: err}
	}
	return nucleos, nil
}

func visibleDepartments(deps []models.Department) []models.Department {
	var out []models.Department
	for _, dep := range deps {
		if dep.Active && dep.VisibleToBot {
			out = append(out, dep)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func isOpen(raw []byte, now time.Time, name string) bool {
	hours, err := ParseHours(raw)
	if err != nil {
		log.Printf("[Directory] %s: %v, treating as open", name, err)
		return true
	}
	open, _ := hours.IsOpen(now)
	return open
}
