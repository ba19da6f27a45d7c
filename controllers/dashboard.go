package controllers

import (
	"net/http"
	"time"

	"acutis/dashboard"
	"acutis/models"

	"github.com/gin-gonic/gin"
)

const DAILY_REPORT_WINDOW = 24 * time.Hour

// loadAnalyses resolve owner e período da query e carrega as análises do intervalo.
func (ctl *Controller) loadAnalyses(c *gin.Context) (*models.ConfigEmpresa, []models.ConversationAnalysis, time.Time, time.Time, bool) {
	owner, ok := resolveOwner(c, c.Query("ownerId"))
	if !ok {
		return nil, nil, time.Time{}, time.Time{}, false
	}
	company, err := ctl.companies.Get(owner)
	if err != nil {
		respondStoreError(c, err)
		return nil, nil, time.Time{}, time.Time{}, false
	}
	from, to, ok := parseDateRange(c, ctl.clock.Now(), company.Location())
	if !ok {
		return nil, nil, time.Time{}, time.Time{}, false
	}
	items, err := ctl.store.AnalysesBetween(owner, from, to)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return nil, nil, time.Time{}, time.Time{}, false
	}
	return company, items, from, to, true
}

// GET /api/dashboard/kpis?ownerId=&from=YYYY-MM-DD&to=YYYY-MM-DD
func (ctl *Controller) DashboardKPIs(c *gin.Context) {
	company, items, from, to, ok := ctl.loadAnalyses(c)
	if !ok {
		return
	}
	RespondSuccess(c, gin.H{
		"owner":  company.Owner,
		"from":   from.Format("2006-01-02"),
		"to":     to.AddDate(0, 0, -1).Format("2006-01-02"),
		"kpis":   dashboard.ComputeKPIs(items),
		"series": dashboard.DailySeries(items, from, to.AddDate(0, 0, -1), company.Location()),
	})
}

// GET /api/dashboard/funnel
// Funil e gargalos consideram só conversas de Vendas.
func (ctl *Controller) DashboardFunnel(c *gin.Context) {
	company, items, from, to, ok := ctl.loadAnalyses(c)
	if !ok {
		return
	}
	sales := dashboard.Sales(items)
	RespondSuccess(c, gin.H{
		"owner":    company.Owner,
		"from":     from.Format("2006-01-02"),
		"to":       to.AddDate(0, 0, -1).Format("2006-01-02"),
		"funil":    dashboard.BuildFunnel(sales),
		"gargalos": dashboard.DetectGargalos(sales),
	})
}

// GET /api/dashboard/objections?top=10
func (ctl *Controller) DashboardObjections(c *gin.Context) {
	company, items, from, to, ok := ctl.loadAnalyses(c)
	if !ok {
		return
	}
	top := clampInt(queryInt(c, "top", 10), 1, 50)
	RespondSuccess(c, gin.H{
		"owner":    company.Owner,
		"from":     from.Format("2006-01-02"),
		"to":       to.AddDate(0, 0, -1).Format("2006-01-02"),
		"objecoes": dashboard.RankObjections(items, top),
	})
}

// GET /api/daily-report?ownerId=
// Janela fixa das últimas 24h.
func (ctl *Controller) DailyReport(c *gin.Context) {
	owner, ok := resolveOwner(c, c.Query("ownerId"))
	if !ok {
		return
	}
	company, err := ctl.companies.Get(owner)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	to := ctl.clock.Now()
	from := to.Add(-DAILY_REPORT_WINDOW)
	items, err := ctl.store.AnalysesBetween(owner, from, to)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	alerts, err := ctl.store.AlertsSince(owner, from)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	novos, err := ctl.store.FirstContactsSince(owner, from.UnixMilli())
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, dashboard.BuildDailyReport(*company, items, alerts, novos, from, to))
}
