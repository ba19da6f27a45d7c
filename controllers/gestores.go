package controllers

import (
	"net/http"
	"strings"

	"acutis/models"
	"acutis/tools"

	"github.com/gin-gonic/gin"
)

type GestorInput struct {
	Nome          *string `json:"nome"`
	Telefone      *string `json:"telefone"`
	RecebeAlertas *bool   `json:"recebe_alertas"`
	Ativo         *bool   `json:"ativo"`
}

// GET /api/admin/empresas/:owner/gestores
func (ctl *Controller) ListGestores(c *gin.Context) {
	rows, err := ctl.store.Gestores(c.Param("owner"))
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, rows)
}

// POST /api/admin/empresas/:owner/gestores
func (ctl *Controller) CreateGestor(c *gin.Context) {
	owner := c.Param("owner")
	if _, err := ctl.store.CompanyByOwner(owner); err != nil {
		respondStoreError(c, err)
		return
	}

	var in GestorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	g := models.Gestor{Owner: owner, RecebeAlertas: true, Ativo: true}
	if in.Nome != nil {
		g.Nome = strings.TrimSpace(*in.Nome)
	}
	if in.Telefone != nil {
		g.Telefone = strings.TrimSpace(*in.Telefone)
	}
	if in.RecebeAlertas != nil {
		g.RecebeAlertas = *in.RecebeAlertas
	}
	if in.Ativo != nil {
		g.Ativo = *in.Ativo
	}
	if missing := g.MissingFields(); missing != "" {
		RespondError(c, missing+" é obrigatório", http.StatusBadRequest)
		return
	}
	phone, err := tools.NormalizeWhatsAppTo(g.Telefone)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	g.Telefone = phone

	if err := ctl.store.CreateGestor(&g); err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// PUT /api/admin/gestores/:id
func (ctl *Controller) UpdateGestor(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var in GestorInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}

	fields := map[string]any{}
	if in.Nome != nil {
		nome := strings.TrimSpace(*in.Nome)
		if nome == "" {
			RespondError(c, "nome não pode ser vazio", http.StatusBadRequest)
			return
		}
		fields["nome"] = nome
	}
	if in.Telefone != nil {
		phone, err := tools.NormalizeWhatsAppTo(*in.Telefone)
		if err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
		fields["telefone"] = phone
	}
	if in.RecebeAlertas != nil {
		fields["recebe_alertas"] = *in.RecebeAlertas
	}
	if in.Ativo != nil {
		fields["ativo"] = *in.Ativo
	}
	if len(fields) == 0 {
		RespondError(c, "nenhum campo para atualizar", http.StatusBadRequest)
		return
	}

	if err := ctl.store.UpdateGestor(id, fields); err != nil {
		respondStoreError(c, err)
		return
	}
	g, err := ctl.store.GestorByID(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, g)
}

// DELETE /api/admin/gestores/:id
func (ctl *Controller) DeleteGestor(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	if err := ctl.store.DeleteGestor(id); err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"success": true})
}
