// Package store concentra o acesso ao banco (Supabase/Postgres em produção,
// sqlite em dev e testes). Handlers e workers recebem um *Store já construído.
package store

import (
	"github.com/jinzhu/gorm"
	"github.com/rotisserie/eris"
)

var ErrNotFound = eris.New("registro não encontrado")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

func notFound(err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return ErrNotFound
	}
	return err
}

// IsNotFound também reconhece ErrNotFound embrulhado.
func IsNotFound(err error) bool {
	return err != nil && (eris.Is(err, ErrNotFound) || gorm.IsRecordNotFoundError(err))
}
