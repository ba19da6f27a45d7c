package store

import (
	"strings"

	"acutis/models"

	"github.com/rotisserie/eris"
)

// SaveMessage insere a mensagem; message_id repetido é ignorado (webhook reentregue).
// Devolve false quando já existia.
func (s *Store) SaveMessage(m *models.MensagemCliente) (bool, error) {
	var n int64
	if err := s.db.Model(&models.MensagemCliente{}).Where("message_id = ?", m.MessageID).Count(&n).Error; err != nil {
		return false, eris.Wrap(err, "verificando mensagem")
	}
	if n > 0 {
		return false, nil
	}
	if err := s.db.Create(m).Error; err != nil {
		return false, eris.Wrapf(err, "salvando mensagem %s", m.MessageID)
	}
	return true, nil
}

// RecentMessages devolve as últimas limit mensagens do chat em ordem cronológica.
func (s *Store) RecentMessages(chatID, owner string, limit int) ([]models.MensagemCliente, error) {
	var rows []models.MensagemCliente
	err := s.db.
		Where("chatid = ? AND owner = ?", chatID, owner).
		Order("message_timestamp desc, id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, eris.Wrap(err, "buscando mensagens recentes")
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// ChatMessages devolve o histórico completo do chat em ordem cronológica.
func (s *Store) ChatMessages(chatID, owner string) ([]models.MensagemCliente, error) {
	var rows []models.MensagemCliente
	err := s.db.
		Where("chatid = ? AND owner = ?", chatID, owner).
		Order("message_timestamp asc, id asc").
		Find(&rows).Error
	return rows, eris.Wrap(err, "buscando histórico do chat")
}

// FirstContactsSince conta chats cuja primeira mensagem caiu a partir de sinceMs.
func (s *Store) FirstContactsSince(owner string, sinceMs int64) (int64, error) {
	var rows []struct {
		ChatID string `gorm:"column:chatid"`
	}
	err := s.db.Raw(`
		SELECT chatid FROM mensagens_clientes
		WHERE owner = ?
		GROUP BY chatid
		HAVING MIN(message_timestamp) >= ?`, owner, sinceMs).Scan(&rows).Error
	if err != nil {
		return 0, eris.Wrap(err, "contando novos contatos")
	}
	var n int64
	for _, r := range rows {
		if !strings.HasSuffix(r.ChatID, "@g.us") {
			n++
		}
	}
	return n, nil
}

/************************************************
/**** MARK: TRACKING ****/
/************************************************/

// SaveTracking registra a origem de primeiro toque; se já existir, mantém a original.
func (s *Store) SaveTracking(t *models.LeadTracking) error {
	var n int64
	if err := s.db.Model(&models.LeadTracking{}).Where("chatid = ? AND owner = ?", t.ChatID, t.Owner).Count(&n).Error; err != nil {
		return eris.Wrap(err, "verificando tracking")
	}
	if n > 0 {
		return nil
	}
	return eris.Wrap(s.db.Create(t).Error, "salvando tracking")
}

func (s *Store) TrackingFor(chatID, owner string) (*models.LeadTracking, error) {
	var row models.LeadTracking
	if err := s.db.Where("chatid = ? AND owner = ?", chatID, owner).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// TrackingByOwner indexa o tracking do tenant por chatid.
func (s *Store) TrackingByOwner(owner string) (map[string]models.LeadTracking, error) {
	var rows []models.LeadTracking
	if err := s.db.Where("owner = ?", owner).Find(&rows).Error; err != nil {
		return nil, eris.Wrap(err, "buscando tracking")
	}
	out := make(map[string]models.LeadTracking, len(rows))
	for _, r := range rows {
		out[r.ChatID] = r
	}
	return out, nil
}
