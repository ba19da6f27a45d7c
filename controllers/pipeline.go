package controllers

import (
	"net/http"
	"strings"

	"acutis/store"
	"acutis/workers"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const ANALYZE_DEFAULT_BATCH = 10
const ANALYZE_MAX_BATCH = 100

/************************************************
/**** MARK: TRIGGER ****/
/************************************************/

type TriggerRequest struct {
	ChatID string `json:"chatid"`
	Owner  string `json:"owner"`
}

// POST /api/trigger-analysis
func (ctl *Controller) TriggerAnalysis(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondFailure(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ChatID) == "" || strings.TrimSpace(req.Owner) == "" {
		RespondFailure(c, "chatid e owner são obrigatórios", http.StatusBadRequest)
		return
	}

	action, err := ctl.debouncer.Trigger(req.ChatID, strings.TrimSpace(req.Owner))
	if err != nil {
		RespondFailure(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"success": true, "action": action})
}

// GET /api/trigger-analysis e GET /api/process-pending
func (ctl *Controller) PendingCount(c *gin.Context) {
	n, err := ctl.debouncer.PendingCount()
	if err != nil {
		RespondFailure(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"success": true, "pendingCount": n})
}

/************************************************
/**** MARK: PROCESS PENDING ****/
/************************************************/

// POST /api/process-pending
func (ctl *Controller) ProcessPending(c *gin.Context) {
	report, err := ctl.worker.Run(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("process-pending: falha ao buscar fila")
		RespondFailure(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{
		"success":       true,
		"processed":     report.Processed,
		"alerted":       report.Alerted,
		"errors":        report.Errors,
		"stoppedReason": report.StoppedReason,
		"results":       report.Results,
	})
}

/************************************************
/**** MARK: CRON ****/
/************************************************/

type CronRequest struct {
	MaxPerCompany int    `json:"maxPerCompany"`
	MaxTotal      int    `json:"maxTotal"`
	OrigemFilter  string `json:"origemFilter"`
	OwnerID       string `json:"ownerId"`
}

// POST /api/cron/analyze
func (ctl *Controller) CronAnalyze(c *gin.Context) {
	var req CronRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	report, err := ctl.cron.Run(c.Request.Context(), workers.Options{
		MaxPerCompany: req.MaxPerCompany,
		MaxTotal:      req.MaxTotal,
		OrigemFilter:  req.OrigemFilter,
		Owner:         strings.TrimSpace(req.OwnerID),
	})
	if err != nil {
		respondRunError(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"success":        true,
		"runId":          report.RunID,
		"companies":      report.Companies,
		"totalProcessed": report.TotalProcessed,
		"totalErrors":    report.TotalErrors,
		"totalSkipped":   report.TotalSkipped,
		"durationMs":     report.DurationMs,
		"stoppedReason":  report.StoppedReason,
	})
}

type companySummary struct {
	Owner               string `json:"owner"`
	NomeEmpresa         string `json:"nome_empresa"`
	AnaliseOrigemFilter string `json:"analise_origem_filter"`
}

// GET /api/cron/analyze
func (ctl *Controller) CronStatus(c *gin.Context) {
	companies, err := ctl.cron.Companies("")
	if err != nil {
		RespondFailure(c, err.Error(), http.StatusInternalServerError)
		return
	}
	list := make([]companySummary, 0, len(companies))
	for _, e := range companies {
		list = append(list, companySummary{Owner: e.Owner, NomeEmpresa: e.NomeEmpresa, AnaliseOrigemFilter: e.OrigemFilter()})
	}
	RespondSuccess(c, gin.H{"success": true, "activeCompanies": len(list), "companiesList": list})
}

/************************************************
/**** MARK: ANALYZE CONVERSATIONS ****/
/************************************************/

type AnalyzeRequest struct {
	OwnerID      string `json:"ownerId" form:"ownerId"`
	BatchSize    int    `json:"batchSize" form:"batchSize"`
	DryRun       bool   `json:"dryRun" form:"dryRun"`
	OrigemFilter string `json:"origemFilter" form:"origemFilter"`
}

// POST /api/analyze-conversations
// Rodada manual: mesma ordem do cron, limitada a batchSize chats no total.
func (ctl *Controller) AnalyzeConversations(c *gin.Context) {
	var req AnalyzeRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.BatchSize <= 0 {
		req.BatchSize = ANALYZE_DEFAULT_BATCH
	}
	batch := clampInt(req.BatchSize, 1, ANALYZE_MAX_BATCH)

	report, err := ctl.cron.Run(c.Request.Context(), workers.Options{
		MaxPerCompany: batch,
		MaxTotal:      batch,
		OrigemFilter:  req.OrigemFilter,
		Owner:         strings.TrimSpace(req.OwnerID),
		DryRun:        req.DryRun,
	})
	if err != nil {
		respondRunError(c, err)
		return
	}

	details := []workers.AnalyzeResult{}
	for _, company := range report.Companies {
		for _, phase := range company.Phases {
			details = append(details, phase.Details...)
		}
	}
	RespondSuccess(c, gin.H{
		"success":       true,
		"processed":     report.TotalProcessed,
		"errors":        report.TotalErrors,
		"skipped":       report.TotalSkipped,
		"dryRun":        req.DryRun,
		"durationMs":    report.DurationMs,
		"stoppedReason": report.StoppedReason,
		"details":       details,
	})
}

// POST|GET /api/analyze-conversations/single
func (ctl *Controller) AnalyzeSingle(c *gin.Context) {
	var req AnalyzeRequest
	if c.Request.Method == http.MethodGet {
		req.OwnerID = c.Query("ownerId")
		req.OrigemFilter = c.Query("origemFilter")
	} else if !bindOptionalJSON(c, &req) {
		return
	}
	owner := strings.TrimSpace(req.OwnerID)
	if owner == "" {
		RespondFailure(c, "ownerId é obrigatório", http.StatusBadRequest)
		return
	}

	res, err := ctl.cron.AnalyzeNext(c.Request.Context(), owner, req.OrigemFilter)
	if err != nil {
		respondRunError(c, err)
		return
	}
	RespondSuccess(c, gin.H{
		"success":   res.Status != workers.STATUS_ERROR,
		"status":    res.Status,
		"chatid":    res.ChatID,
		"message":   res.Message,
		"remaining": res.Remaining,
	})
}

func respondRunError(c *gin.Context, err error) {
	if store.IsNotFound(err) {
		RespondFailure(c, "empresa não encontrada ou inativa", http.StatusNotFound)
		return
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("falha ao iniciar rodada")
	RespondFailure(c, err.Error(), http.StatusInternalServerError)
}
