package models

import (
	"strings"
	"time"
)

// Gestor é um gerente do tenant; quem tem RecebeAlertas recebe os alertas do worker.
type Gestor struct {
	ID            int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Owner         string     `gorm:"column:owner;not null;index" json:"owner"`
	Nome          string     `gorm:"column:nome;not null" json:"nome" form:"nome"`
	Telefone      string     `gorm:"column:telefone;not null" json:"telefone" form:"telefone"`
	RecebeAlertas bool       `gorm:"column:recebe_alertas;not null" json:"recebe_alertas" form:"recebe_alertas"`
	Ativo         bool       `gorm:"column:ativo;not null" json:"ativo" form:"ativo"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

func (Gestor) TableName() string { return "gestores" }

func (g Gestor) MissingFields() string {
	if strings.TrimSpace(g.Nome) == "" {
		return "nome"
	} else if strings.TrimSpace(g.Telefone) == "" {
		return "telefone"
	}
	return ""
}
