package contact

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"triage-flows/internal/flow"
	"triage-flows/internal/models"

	"gorm.io/gorm"
)

// Lookup answers whether a phone number belongs to a known contact.
type Lookup struct {
	db        *gorm.DB
	empresaID string
}

// NewLookup scopes lookups to one company; an empty empresaID searches all.
func NewLookup(db *gorm.DB, empresaID string) *Lookup {
	return &Lookup{db: db, empresaID: empresaID}
}

// Find returns what is known about the person behind phone. Numbers are
// compared by digits only, with and without the Brazilian country code and
// ninth mobile digit.
func (l *Lookup) Find(ctx context.Context, phone string) (flow.ContactInfo, error) {
	variants := PhoneVariants(phone)
	if len(variants) == 0 {
		return flow.ContactInfo{}, nil
	}

	want := make(map[string]bool, len(variants))
	for _, v := range variants {
		want[v] = true
	}
	tail := variants[0]
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}

	q := l.db.WithContext(ctx).Where("ativo = ? AND telefone LIKE ?", true, "%"+tail)
	if l.empresaID != "" {
		q = q.Where("empresa_id = ?", l.empresaID)
	}
	var candidates []models.Contact
	if err := q.Order("updated_at DESC").Find(&candidates).Error; err != nil {
		return flow.ContactInfo{}, &flow.StorageError{Op: "contact lookup", Err: err}
	}

	for _, c := range candidates {
		if want[digits(c.Phone)] {
			log.Printf("[Contact] Found contact %s for %s", c.ID, MaskPhone(phone))
			return flow.ContactInfo{Known: true, FirstName: FirstName(c.Name)}, nil
		}
	}
	log.Printf("[Contact] No contact for %s", MaskPhone(phone))
	return flow.ContactInfo{}, nil
}

// PhoneVariants lists the digit strings a stored number may match.
func PhoneVariants(phone string) []string {
	d := digits(phone)
	if d == "" {
		return nil
	}
	out := []string{d}
	if strings.HasPrefix(d, "55") && len(d) > 2 {
		local := d[2:]
		out = append(out, local)
		if len(local) == 10 {
			withNine := local[:2] + "9" + local[2:]
			out = append(out, withNine, "55"+withNine)
		}
	}
	return out
}

// FirstName is the first word of a full name.
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// MaskPhone hides all but the last four digits for logs.
func MaskPhone(phone string) string {
	d := digits(phone)
	if d == "" {
		return "[telefone]"
	}
	if len(d) <= 4 {
		return "****"
	}
	return fmt.Sprintf("%s%s", strings.Repeat("*", len(d)-4), d[len(d)-4:])
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
