package controllers

import (
	"net/http"
	"strings"

	"acutis/models"
	"acutis/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type UsuarioInput struct {
	Nome  string `json:"nome" form:"nome"`
	Email string `json:"email" form:"email"`
	Senha string `json:"senha" form:"senha"`
	Admin bool   `json:"admin" form:"admin"`
	Owner string `json:"owner" form:"owner"`
}

// POST /api/admin/usuarios
func (ctl *Controller) CreateUsuario(c *gin.Context) {
	var in UsuarioInput
	if err := c.Bind(&in); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	u := models.Usuario{
		Nome:  strings.TrimSpace(in.Nome),
		Email: tools.NormalizeEmail(in.Email),
		Senha: in.Senha,
		Admin: in.Admin,
		Owner: tools.ChatPhone(in.Owner),
		Ativo: true,
	}
	if missing := u.MissingFields(); missing != "" {
		RespondError(c, "campo inválido: "+missing, http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(u.Email) {
		RespondError(c, "email inválido", http.StatusBadRequest)
		return
	}
	if !u.Admin {
		if _, err := ctl.store.CompanyByOwner(u.Owner); err != nil {
			respondStoreError(c, err)
			return
		}
	}
	if _, err := ctl.store.UsuarioByEmail(u.Email); err == nil {
		RespondError(c, "email já cadastrado", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Senha), bcrypt.DefaultCost)
	if err != nil {
		RespondError(c, "erro ao gerar senha", http.StatusInternalServerError)
		return
	}
	u.Senha = string(hash)

	if err := ctl.store.CreateUsuario(&u); err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Info().Int64("usuario_id", u.ID).Bool("admin", u.Admin).Msg("usuário criado")
	u.Senha = ""
	c.JSON(http.StatusCreated, u)
}
