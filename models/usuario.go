package models

import (
	"strings"
	"time"
)

// Usuario é um usuário do back-office. Admin enxerga todos os tenants;
// os demais ficam restritos ao Owner.
type Usuario struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Nome      string     `gorm:"column:nome;not null" json:"nome" form:"nome"`
	Email     string     `gorm:"column:email;not null;unique_index" json:"email" form:"email"`
	Senha     string     `gorm:"column:senha;not null" json:"senha,omitempty" form:"senha"`
	Admin     bool       `gorm:"column:admin;not null" json:"admin" form:"admin"`
	Owner     string     `gorm:"column:owner;index" json:"owner" form:"owner"`
	Ativo     bool       `gorm:"column:ativo;not null" json:"ativo" form:"ativo"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (Usuario) TableName() string { return "usuarios" }

func (u Usuario) MissingFields() string {
	if strings.TrimSpace(u.Nome) == "" {
		return "nome"
	} else if strings.TrimSpace(u.Email) == "" {
		return "email"
	} else if len(u.Senha) < 6 {
		return "senha"
	} else if !u.Admin && strings.TrimSpace(u.Owner) == "" {
		return "owner"
	}
	return ""
}

// CanAccess diz se o usuário pode ver os dados do owner.
func (u Usuario) CanAccess(owner string) bool {
	return u.Admin || (u.Owner != "" && u.Owner == owner)
}
