package router

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"acutis/controllers"

	"github.com/gin-gonic/gin"
)

const ctxCronKey = "cron_token"

// CronToken protege as rotas chamadas pelo agendador externo com um Bearer estático.
// Sem segredo configurado a checagem é desligada.
func CronToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		if !validCronToken(c, secret) {
			controllers.RespondFailure(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		c.Set(ctxCronKey, true)
		c.Next()
	}
}

// CronOrSession aceita o token do cron ou, na falta dele, uma sessão de usuário ativo.
func CronOrSession(secret string, ctl *controllers.Controller) gin.HandlerFunc {
	session := []gin.HandlerFunc{ctl.AuthRequired(), Authorizer()}
	return func(c *gin.Context) {
		if secret == "" || validCronToken(c, secret) {
			c.Set(ctxCronKey, true)
			c.Next()
			return
		}
		for _, h := range session {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}

func validCronToken(c *gin.Context, secret string) bool {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return false
	}
	token := strings.TrimSpace(h[len("Bearer "):])
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
