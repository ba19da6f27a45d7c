package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Configuration struct {
	ApiPort   string `json:"api_port"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // "json" ou "console"

	Database    string `json:"database"` // "sqlite3" ou "postgres"
	DatabaseURL string `json:"database_url"`
	DbHost      string `json:"db_host"`
	DbPort      string `json:"db_port"`
	DbUser      string `json:"db_user"`
	DbName      string `json:"db_name"`
	DbPass      string `json:"db_pass"`
	DbPath      string `json:"db_path"`
	AutoMigrate bool   `json:"automigrate"`

	GeminiAPIKey string `json:"gemini_api_key"`
	GeminiModel  string `json:"gemini_model"`

	UazapiBaseURL string `json:"uazapi_base_url"`

	CORSOrigins    []string `json:"cors_origins"`
	LocalScheduler bool     `json:"local_scheduler"`

	Security struct {
		CronSecret     string `json:"cron_secret"`
		JwtSecret      string `json:"jwt_secret"`
		SessionTTLHour int    `json:"session_ttl_hours"`
	} `json:"security"`

	Pipeline Pipeline `json:"pipeline"`
}

// Pipeline agrupa os parâmetros do fluxo trigger -> worker -> cron -> analyzer.
// Durações no JSON são em segundos.
type Pipeline struct {
	DebounceSeconds      int `json:"debounce_seconds"`
	WorkerBatchSize      int `json:"worker_batch_size"`
	WorkerRecentMessages int `json:"worker_recent_messages"`
	MinMessages          int `json:"min_messages"`
	WorkerDelaySeconds   int `json:"worker_delay_seconds"`
	WorkerBudgetSeconds  int `json:"worker_budget_seconds"`
	CronMaxPerCompany    int `json:"cron_max_per_company"`
	CronMaxTotal         int `json:"cron_max_total"`
	CronDelaySeconds     int `json:"cron_delay_seconds"`
	CronBudgetSeconds    int `json:"cron_budget_seconds"`
	LookbackDays         int `json:"lookback_days"`
	TranscriptMaxChars   int `json:"transcript_max_chars"`
	CompanyCacheSeconds  int `json:"company_cache_seconds"`
}

func (p Pipeline) Debounce() time.Duration     { return seconds(p.DebounceSeconds) }
func (p Pipeline) WorkerDelay() time.Duration  { return seconds(p.WorkerDelaySeconds) }
func (p Pipeline) WorkerBudget() time.Duration { return seconds(p.WorkerBudgetSeconds) }
func (p Pipeline) CronDelay() time.Duration    { return seconds(p.CronDelaySeconds) }
func (p Pipeline) CronBudget() time.Duration   { return seconds(p.CronBudgetSeconds) }
func (p Pipeline) CompanyCache() time.Duration { return seconds(p.CompanyCacheSeconds) }
func (p Pipeline) Lookback() time.Duration {
	return time.Duration(p.LookbackDays) * 24 * time.Hour
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// DefaultPipeline devolve os valores usados em produção.
func DefaultPipeline() Pipeline {
	return Pipeline{
		DebounceSeconds:      60,
		WorkerBatchSize:      5,
		WorkerRecentMessages: 20,
		MinMessages:          3,
		WorkerDelaySeconds:   2,
		WorkerBudgetSeconds:  50,
		CronMaxPerCompany:    20,
		CronMaxTotal:         100,
		CronDelaySeconds:     5,
		CronBudgetSeconds:    250,
		LookbackDays:         30,
		TranscriptMaxChars:   60000,
		CompanyCacheSeconds:  60,
	}
}

// Get lê o config.json (opcional), o .env (opcional) e aplica as variáveis de ambiente por cima.
func Get(path string) Configuration {
	var c Configuration

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := json.Unmarshal(b, &c); err != nil {
				log.Fatal().Err(err).Str("path", path).Msg("config inválido")
			}
		case os.IsNotExist(err):
			log.Warn().Str("path", path).Msg("config não encontrado, usando env/defaults")
		default:
			log.Fatal().Err(err).Str("path", path).Msg("erro lendo config")
		}
	}

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("sem arquivo .env, usando variáveis de ambiente do sistema")
	}

	applyEnv(&c)
	applyDefaults(&c)
	return c
}

func applyEnv(c *Configuration) {
	setString(&c.ApiPort, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.Database, "DATABASE")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.DbHost, "DB_HOST")
	setString(&c.DbPort, "DB_PORT")
	setString(&c.DbUser, "DB_USER")
	setString(&c.DbName, "DB_NAME")
	setString(&c.DbPass, "DB_PASS")
	setString(&c.DbPath, "DB_PATH")
	setBool(&c.AutoMigrate, "AUTOMIGRATE")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.UazapiBaseURL, "UAZAPI_BASE_URL")
	setBool(&c.LocalScheduler, "LOCAL_SCHEDULER")
	setString(&c.Security.CronSecret, "CRON_SECRET")
	setString(&c.Security.JwtSecret, "JWT_SECRET")

	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
}

func applyDefaults(c *Configuration) {
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.DbPath == "" {
		c.DbPath = "db/acutis.db"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.0-flash"
	}
	if c.UazapiBaseURL == "" {
		c.UazapiBaseURL = "https://free.uazapi.com"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Security.SessionTTLHour <= 0 {
		c.Security.SessionTTLHour = 24
	}

	d := DefaultPipeline()
	p := &c.Pipeline
	fill(&p.DebounceSeconds, d.DebounceSeconds)
	fill(&p.WorkerBatchSize, d.WorkerBatchSize)
	fill(&p.WorkerRecentMessages, d.WorkerRecentMessages)
	fill(&p.MinMessages, d.MinMessages)
	fill(&p.WorkerDelaySeconds, d.WorkerDelaySeconds)
	fill(&p.WorkerBudgetSeconds, d.WorkerBudgetSeconds)
	fill(&p.CronMaxPerCompany, d.CronMaxPerCompany)
	fill(&p.CronMaxTotal, d.CronMaxTotal)
	fill(&p.CronDelaySeconds, d.CronDelaySeconds)
	fill(&p.CronBudgetSeconds, d.CronBudgetSeconds)
	fill(&p.LookbackDays, d.LookbackDays)
	fill(&p.TranscriptMaxChars, d.TranscriptMaxChars)
	fill(&p.CompanyCacheSeconds, d.CompanyCacheSeconds)
}

func fill(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*dst = v == "1"
		return
	}
	*dst = b
}
