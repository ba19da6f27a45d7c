package db

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"acutis/config"
	"acutis/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// timestamps sempre em UTC: o sqlite compara datas como texto
func init() {
	gorm.NowFunc = func() time.Time { return time.Now().UTC() }
}

// Connect abre conexão com o DB (sqlite3 por padrão, postgres/Supabase em produção).
// Com automigrate ligado (AUTOMIGRATE=1) cria/atualiza as tabelas.
func Connect(conf config.Configuration) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch strings.ToLower(conf.Database) {
	case "postgres", "postgresql":
		log.Info().Msg("utilizando conexão com o postgresql")
		db, err = gorm.Open("postgres", postgresDSN(conf))
	default:
		log.Info().Str("path", conf.DbPath).Msg("utilizando conexão com o sqlite3")
		if dir := filepath.Dir(conf.DbPath); dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
		db, err = gorm.Open("sqlite3", conf.DbPath)
	}
	if err != nil {
		return nil, eris.Wrap(err, "conectando ao banco")
	}

	db.LogMode(strings.EqualFold(conf.LogLevel, "debug"))

	if conf.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// OpenMemory abre um sqlite em memória já migrado. Uma única conexão,
// senão cada conexão do pool enxerga um banco diferente.
func OpenMemory() (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, eris.Wrap(err, "abrindo sqlite em memória")
	}
	db.DB().SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate cria as tabelas do Acutis.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.PendingAnalysis{},
		&models.ConfigEmpresa{},
		&models.Gestor{},
		&models.MensagemCliente{},
		&models.LeadTracking{},
		&models.ConversationAnalysis{},
		&models.Usuario{},
	).Error
	return eris.Wrap(err, "automigrate")
}

func postgresDSN(conf config.Configuration) string {
	if conf.DatabaseURL != "" {
		return conf.DatabaseURL
	}
	path := "host=" + conf.DbHost + " port=" + conf.DbPort
	path += " user=" + conf.DbUser + " dbname=" + conf.DbName
	path += " password=" + conf.DbPass
	if !strings.Contains(conf.DbHost, "localhost") && conf.DbHost != "" {
		path += " sslmode=require"
	} else {
		path += " sslmode=disable"
	}
	return path
}
