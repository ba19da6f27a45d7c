package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"acutis/config"
	"acutis/controllers"
	"acutis/db"
	"acutis/router"
	"acutis/store"
	"acutis/tools"
	"acutis/workers"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const SCHEDULER_WORKER_EVERY = 30 * time.Second
const SCHEDULER_CRON_EVERY = 15 * time.Minute

func main() {
	path := os.Getenv("ACUTIS_CONFIG")
	if path == "" {
		path = "config.json"
	}
	conf := config.Get(path)
	setupLogger(conf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Connect(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao conectar no banco")
	}
	defer gormDB.Close()
	st := store.New(gormDB)

	gemini, err := tools.NewGemini(ctx, conf.GeminiAPIKey, conf.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao iniciar gemini")
	}
	defer gemini.Close()
	uazapi := tools.NewUazapi(conf.UazapiBaseURL)

	clock := workers.SystemClock()
	companies := workers.NewCompanyCache(st, conf.Pipeline.CompanyCache())
	debouncer := workers.NewDebouncer(st, clock, conf.Pipeline.Debounce())
	worker := workers.NewPendingWorker(st, companies, gemini, uazapi, clock, conf.Pipeline)
	orchestrator := workers.NewOrchestrator(st, workers.NewAnalyzer(st, gemini, clock, conf.Pipeline), clock, conf.Pipeline)

	ctl := controllers.New(controllers.Deps{
		Store:      st,
		Debouncer:  debouncer,
		Worker:     worker,
		Cron:       orchestrator,
		Companies:  companies,
		Assistant:  gemini,
		Clock:      clock,
		JwtSecret:  conf.Security.JwtSecret,
		SessionTTL: time.Duration(conf.Security.SessionTTLHour) * time.Hour,
		Lookback:   conf.Pipeline.Lookback(),
	})

	if conf.Security.CronSecret == "" {
		log.Warn().Msg("CRON_SECRET vazio: rotas do pipeline sem autenticação")
	}
	if conf.LocalScheduler {
		log.Info().Dur("worker", SCHEDULER_WORKER_EVERY).Dur("cron", SCHEDULER_CRON_EVERY).Msg("agendador local ligado")
		workers.StartScheduler(ctx, worker, orchestrator, SCHEDULER_WORKER_EVERY, SCHEDULER_CRON_EVERY)
	}

	if !strings.EqualFold(conf.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	router.Initialize(r, conf, ctl)

	// WriteTimeout acima do orçamento do cron (250s)
	srv := &http.Server{
		Addr:              ":" + conf.ApiPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      300 * time.Second,
	}

	go func() {
		log.Info().Str("port", conf.ApiPort).Msg("Acutis ouvindo")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("servidor caiu")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("encerrando")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func setupLogger(conf config.Configuration) {
	level, err := zerolog.ParseLevel(strings.ToLower(conf.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if strings.EqualFold(conf.LogFormat, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
}
