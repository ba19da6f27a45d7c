package router

import (
	"net/http"

	"acutis/controllers"

	"github.com/gin-gonic/gin"
)

// Authorizer bloqueia usuários desativados nas rotas com sessão.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if !user.Ativo {
			controllers.RespondError(c, "sem acesso ao aplicativo", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
