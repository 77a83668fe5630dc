package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Flow is one triage flow document
type Flow struct {
	ID              string         `gorm:"primaryKey;type:uuid" json:"id"`
	Name            string         `gorm:"column:nome;type:varchar(255);not null" json:"name"`
	Description     string         `gorm:"column:descricao;type:text" json:"description"`
	Kind            string         `gorm:"column:tipo;type:varchar(50);not null" json:"kind"`
	Channels        StringArray    `gorm:"column:canais" json:"channels"`
	TriggerKeywords StringArray    `gorm:"column:palavras_gatilho" json:"trigger_keywords"`
	Priority        int            `gorm:"column:prioridade;not null" json:"priority"`
	Active          bool           `gorm:"column:ativo;not null" json:"active"`
	Published       bool           `gorm:"column:publicado;not null" json:"published"`
	PublishedAt     *time.Time     `gorm:"column:published_at" json:"published_at"`
	Version         int            `gorm:"column:versao;not null" json:"version"`
	Structure       datatypes.JSON `gorm:"column:estrutura" json:"structure"`
	EmpresaID       *string        `gorm:"column:empresa_id;index" json:"empresa_id,omitempty"`
	Code            *string        `gorm:"column:codigo;type:varchar(100)" json:"code,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (Flow) TableName() string {
	return "fluxos_triagem"
}

func (f *Flow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FlowVersion is a structure snapshot written on publish
type FlowVersion struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FlowID    string         `gorm:"column:fluxo_id;index;not null" json:"flow_id"`
	Version   int            `gorm:"column:versao;not null" json:"version"`
	Structure datatypes.JSON `gorm:"column:estrutura" json:"structure"`
	Note      string         `gorm:"column:descricao;type:text" json:"note"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

func (FlowVersion) TableName() string {
	return "fluxo_versoes"
}

// Nucleo is a service unit the bot menu can route to
type Nucleo struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"id"`
	EmpresaID      *string        `gorm:"column:empresa_id;index" json:"empresa_id,omitempty"`
	Name           string         `gorm:"column:nome;type:varchar(255);not null" json:"name"`
	Description    string         `gorm:"column:descricao;type:text" json:"description"`
	Active         bool           `gorm:"column:ativo;not null" json:"active"`
	VisibleToBot   bool           `gorm:"column:visivel_no_bot;not null" json:"visible_to_bot"`
	Priority       int            `gorm:"column:prioridade;not null" json:"priority"`
	OperatingHours datatypes.JSON `gorm:"column:horario_funcionamento" json:"operating_hours"`
	Departments    []Department   `gorm:"foreignKey:NucleoID" json:"departments,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Nucleo) TableName() string {
	return "nucleos_atendimento"
}

func (n *Nucleo) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Department belongs to a nucleo
type Department struct {
	ID             string         `gorm:"primaryKey;type:uuid" json:"id"`
	NucleoID       string         `gorm:"column:nucleo_id;index;not null" json:"nucleo_id"`
	Name           string         `gorm:"column:nome;type:varchar(255);not null" json:"name"`
	Active         bool           `gorm:"column:ativo;not null" json:"active"`
	VisibleToBot   bool           `gorm:"column:visivel_no_bot;not null" json:"visible_to_bot"`
	Order          int            `gorm:"column:ordem;not null" json:"order"`
	OperatingHours datatypes.JSON `gorm:"column:horario_funcionamento" json:"operating_hours"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Department) TableName() string {
	return "departamentos"
}

func (d *Department) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Contact represents a CRM contact reachable over WhatsApp
type Contact struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	EmpresaID *string   `gorm:"column:empresa_id;index" json:"empresa_id,omitempty"`
	Name      string    `gorm:"column:nome;type:varchar(255)" json:"name"`
	Phone     string    `gorm:"column:telefone;type:varchar(50);index" json:"phone"`
	Active    bool      `gorm:"column:ativo;not null" json:"active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contatos"
}

func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for AutoMigrate and data copies, parents first.
func All() []interface{} {
	return []interface{}{
		&Flow{},
		&FlowVersion{},
		&Nucleo{},
		&Department{},
		&Contact{},
	}
}
