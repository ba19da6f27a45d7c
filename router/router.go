package router

import (
	"net/http"

	"acutis/config"
	"acutis/controllers"
	"acutis/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Initialize registra rotas e middlewares.
// Três grupos: rotas do agendador (token do cron), rotas com sessão e rotas de admin.
func Initialize(r *gin.Engine, cfg config.Configuration, ctl *controllers.Controller) {
	r.Use(gin.Recovery())
	r.Use(Logger())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Pipeline (agendador externo / N8N)
	cron := api.Group("")
	cron.Use(CronToken(cfg.Security.CronSecret))
	cron.POST("/trigger-analysis", ctl.TriggerAnalysis)
	cron.GET("/trigger-analysis", ctl.PendingCount)
	cron.POST("/process-pending", ctl.ProcessPending)
	cron.GET("/process-pending", ctl.PendingCount)
	cron.POST("/cron/analyze", ctl.CronAnalyze)
	cron.GET("/cron/analyze", ctl.CronStatus)
	cron.POST("/analyze-conversations", ctl.AnalyzeConversations)
	cron.POST("/analyze-conversations/single", ctl.AnalyzeSingle)
	cron.GET("/analyze-conversations/single", ctl.AnalyzeSingle)
	cron.POST("/webhook/uazapi", ctl.WebhookUazapi)

	api.GET("/daily-report", CronOrSession(cfg.Security.CronSecret, ctl), ctl.DailyReport)

	// Public
	api.POST("/auth/login", ctl.Login)
	api.POST("/auth/logout", ctl.Logout)

	// Session (token + usuário ativo)
	validated := api.Group("")
	validated.Use(ctl.AuthRequired(), Authorizer())
	validated.GET("/me", ctl.Me)
	validated.POST("/chat", ctl.Chat)
	validated.GET("/dashboard/kpis", ctl.DashboardKPIs)
	validated.GET("/dashboard/funnel", ctl.DashboardFunnel)
	validated.GET("/dashboard/objections", ctl.DashboardObjections)

	// Admin routes
	admin := validated.Group("/admin")
	admin.Use(Adminizer())
	admin.GET("/empresas", ctl.ListEmpresas)
	admin.POST("/empresas", ctl.CreateEmpresa)
	admin.GET("/empresas/:owner", ctl.GetEmpresa)
	admin.PUT("/empresas/:owner", ctl.UpdateEmpresa)
	admin.DELETE("/empresas/:owner", ctl.DeleteEmpresa)
	admin.PUT("/empresas/:owner/horario", ctl.UpdateHorario)
	admin.GET("/empresas/:owner/gestores", ctl.ListGestores)
	admin.POST("/empresas/:owner/gestores", ctl.CreateGestor)
	admin.PUT("/gestores/:id", ctl.UpdateGestor)
	admin.DELETE("/gestores/:id", ctl.DeleteGestor)
	admin.POST("/usuarios", ctl.CreateUsuario)

	log.Info().Msg("rotas inicializadas")
}
