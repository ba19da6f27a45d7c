package controllers

import (
	"net/http"

	"acutis/models"
	"acutis/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email string `json:"email" form:"email"`
	Senha string `json:"senha" form:"senha"`
}

type LoginResponse struct {
	Token   string         `json:"token"`
	Usuario models.Usuario `json:"usuario"`
}

func (ctl *Controller) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	req.Email = tools.NormalizeEmail(req.Email)
	if req.Email == "" || req.Senha == "" {
		RespondError(c, "email e senha são obrigatórios", http.StatusBadRequest)
		return
	}

	user, err := ctl.store.UsuarioByEmail(req.Email)
	if err != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Senha), []byte(req.Senha)) != nil {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if !user.Ativo {
		RespondError(c, "usuário bloqueado", http.StatusForbidden)
		return
	}

	now := ctl.clock.Now()
	signed, err := signHS256JWT(ctl.jwtSecret, jwtClaims{
		Sub:   user.ID,
		Email: user.Email,
		Iat:   now.Unix(),
		Exp:   now.Add(ctl.sessionTTL).Unix(),
	})
	if err != nil {
		RespondError(c, "erro ao assinar token", http.StatusInternalServerError)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SESSION_COOKIE, signed, int(ctl.sessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)

	log.Info().Int64("usuario_id", user.ID).Msg("login")
	user.Senha = ""
	RespondSuccess(c, LoginResponse{Token: signed, Usuario: *user})
}

func (ctl *Controller) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SESSION_COOKIE, "", -1, "/", "", c.Request.TLS != nil, true)
	RespondSuccess(c, gin.H{"success": true})
}

func (ctl *Controller) Me(c *gin.Context) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondError(c, "unauthorized", http.StatusUnauthorized)
		return
	}
	user.Senha = ""
	c.JSON(http.StatusOK, gin.H{"usuario": user})
}
