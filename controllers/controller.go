package controllers

import (
	"time"

	"acutis/store"
	"acutis/workers"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// RespondFailure é o formato de erro das rotas do pipeline: {success:false, error}.
func RespondFailure(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"success": false, "error": msg})
}

// Deps são as dependências montadas no main.
type Deps struct {
	Store      *store.Store
	Debouncer  *workers.Debouncer
	Worker     *workers.PendingWorker
	Cron       *workers.Orchestrator
	Companies  *workers.CompanyCache
	Assistant  Assistant
	Clock      workers.Clock
	JwtSecret  string
	SessionTTL time.Duration
	Lookback   time.Duration
}

// Controller agrupa os handlers HTTP. Não guarda estado de requisição.
type Controller struct {
	store      *store.Store
	debouncer  *workers.Debouncer
	worker     *workers.PendingWorker
	cron       *workers.Orchestrator
	companies  *workers.CompanyCache
	assistant  Assistant
	clock      workers.Clock
	jwtSecret  string
	sessionTTL time.Duration
	lookback   time.Duration
	limiter    *ownerLimiter
}

func New(d Deps) *Controller {
	if d.Clock == nil {
		d.Clock = workers.SystemClock()
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = 24 * time.Hour
	}
	if d.Lookback <= 0 {
		d.Lookback = 30 * 24 * time.Hour
	}
	return &Controller{
		store:      d.Store,
		debouncer:  d.Debouncer,
		worker:     d.Worker,
		cron:       d.Cron,
		companies:  d.Companies,
		assistant:  d.Assistant,
		clock:      d.Clock,
		jwtSecret:  d.JwtSecret,
		sessionTTL: d.SessionTTL,
		lookback:   d.Lookback,
		limiter:    newOwnerLimiter(CHAT_RATE_EVERY, CHAT_RATE_BURST),
	}
}
