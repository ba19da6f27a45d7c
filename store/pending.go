package store

import (
	"time"

	"acutis/models"

	"github.com/rotisserie/eris"
)

// UpsertPending é o "insert-or-reset" do debounce: um único statement com
// conflito em (chatid, owner), atômico por linha mesmo com triggers concorrentes.
func (s *Store) UpsertPending(chatID, owner string, agendadoPara, now time.Time) error {
	err := s.db.Exec(`
		INSERT INTO analise_pendente (chatid, owner, agendado_para, processado, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chatid, owner) DO UPDATE SET
			agendado_para = excluded.agendado_para,
			processado = excluded.processado,
			resultado_alerta = NULL,
			processado_em = NULL,
			updated_at = excluded.updated_at`,
		chatID, owner, agendadoPara.UTC(), false, now.UTC(), now.UTC(),
	).Error
	return eris.Wrapf(err, "upsert analise_pendente %s/%s", owner, chatID)
}

// DuePending devolve até limit linhas vencidas e não processadas, das mais antigas para as mais novas.
func (s *Store) DuePending(now time.Time, limit int) ([]models.PendingAnalysis, error) {
	var rows []models.PendingAnalysis
	err := s.db.
		Where("processado = ? AND agendado_para <= ?", false, now.UTC()).
		Order("agendado_para asc, id asc").
		Limit(limit).
		Find(&rows).Error
	return rows, eris.Wrap(err, "buscando analise_pendente vencidas")
}

// CountPending conta as linhas ainda não processadas (vencidas ou não).
func (s *Store) CountPending() (int64, error) {
	var n int64
	err := s.db.Model(&models.PendingAnalysis{}).Where("processado = ?", false).Count(&n).Error
	return n, eris.Wrap(err, "contando analise_pendente")
}

func (s *Store) GetPending(chatID, owner string) (*models.PendingAnalysis, error) {
	var row models.PendingAnalysis
	if err := s.db.Where("chatid = ? AND owner = ?", chatID, owner).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// MarkPendingProcessed grava o resultado e tira a linha da fila.
func (s *Store) MarkPendingProcessed(id int64, outcome models.AlertOutcome, now time.Time) error {
	value, err := outcome.Value()
	if err != nil {
		return eris.Wrap(err, "serializando resultado_alerta")
	}
	err = s.db.Model(&models.PendingAnalysis{}).Where("id = ?", id).Updates(map[string]any{
		"processado":       true,
		"resultado_alerta": value,
		"processado_em":    now.UTC(),
		"updated_at":       now.UTC(),
	}).Error
	return eris.Wrapf(err, "marcando analise_pendente %d", id)
}

// AlertsSince lista as linhas processadas de um owner desde from que geraram alerta.
func (s *Store) AlertsSince(owner string, from time.Time) ([]models.PendingAnalysis, error) {
	var rows []models.PendingAnalysis
	err := s.db.
		Where("owner = ? AND processado = ? AND processado_em >= ?", owner, true, from.UTC()).
		Order("processado_em desc").
		Find(&rows).Error
	if err != nil {
		return nil, eris.Wrap(err, "buscando alertas")
	}
	out := rows[:0]
	for _, r := range rows {
		if r.ResultadoAlerta.Alertado {
			out = append(out, r)
		}
	}
	return out, nil
}
