package controllers

import (
	"net/http"
	"strings"

	"acutis/models"

	"github.com/gin-gonic/gin"
)

const SESSION_COOKIE = "acutis_session"

const ctxUserKey = "auth_user"

// AuthRequired valida o token de sessão (Bearer ou cookie acutis_session) e
// carrega o usuário no contexto.
func (ctl *Controller) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			RespondError(c, "sessão ausente", http.StatusUnauthorized)
			c.Abort()
			return
		}
		claims, ok := parseAndVerifyJWT(token, ctl.jwtSecret, ctl.clock.Now())
		if !ok {
			RespondError(c, "sessão inválida ou expirada", http.StatusUnauthorized)
			c.Abort()
			return
		}

		user, err := ctl.store.UsuarioByID(claims.Sub)
		if err != nil {
			RespondError(c, "usuário não encontrado", http.StatusUnauthorized)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, *user)
		c.Next()
	}
}

// GetUserLogged devolve o usuário carregado pelo AuthRequired.
func GetUserLogged(c *gin.Context) (models.Usuario, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.Usuario{}, false
	}
	user, ok := v.(models.Usuario)
	return user, ok
}

func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	if v, err := c.Cookie(SESSION_COOKIE); err == nil {
		return strings.TrimSpace(v)
	}
	return ""
}

// resolveOwner decide o owner da consulta: o do parâmetro ownerId ou, sem ele, o do
// usuário logado. Chamadas com token do cron (sem usuário) precisam informar ownerId.
func resolveOwner(c *gin.Context, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	user, logged := GetUserLogged(c)
	if !logged {
		if requested == "" {
			RespondError(c, "ownerId é obrigatório", http.StatusBadRequest)
			return "", false
		}
		return requested, true
	}

	if requested == "" {
		requested = user.Owner
	}
	if requested == "" {
		RespondError(c, "ownerId é obrigatório", http.StatusBadRequest)
		return "", false
	}
	if !user.CanAccess(requested) {
		RespondError(c, "sem acesso a este owner", http.StatusForbidden)
		return "", false
	}
	return requested, true
}
