package store

import (
	"time"

	"acutis/models"

	"github.com/rotisserie/eris"
)

// ChatActivity é um chat com mensagens ainda não cobertas pela última análise.
type ChatActivity struct {
	ChatID        string `gorm:"column:chatid" json:"chatid"`
	LastMessageTS int64  `gorm:"column:last_message_ts" json:"last_message_ts"`
	Total         int    `gorm:"column:total" json:"total"`
}

// PendingChats lista os chats do owner com atividade desde sinceMs e sem análise
// cobrindo a última mensagem. Grupos ficam de fora. Mais recentes primeiro.
func (s *Store) PendingChats(owner string, sinceMs int64) ([]ChatActivity, error) {
	var rows []ChatActivity
	err := s.db.Raw(`
		SELECT m.chatid AS chatid, MAX(m.message_timestamp) AS last_message_ts, COUNT(*) AS total
		FROM mensagens_clientes m
		LEFT JOIN analises_conversas a ON a.chatid = m.chatid AND a.owner = m.owner
		WHERE m.owner = ? AND m.message_timestamp >= ? AND m.chatid NOT LIKE ?
		GROUP BY m.chatid, a.ultima_mensagem_ts
		HAVING a.ultima_mensagem_ts IS NULL OR MAX(m.message_timestamp) > a.ultima_mensagem_ts
		ORDER BY last_message_ts DESC, chatid ASC`,
		owner, sinceMs, "%@g.us",
	).Scan(&rows).Error
	return rows, eris.Wrapf(err, "listando chats pendentes de %s", owner)
}

func (s *Store) AnalysisFor(chatID, owner string) (*models.ConversationAnalysis, error) {
	var row models.ConversationAnalysis
	if err := s.db.Where("chatid = ? AND owner = ?", chatID, owner).First(&row).Error; err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// SaveAnalysis sobrescreve a análise do chat (uma linha por chatid/owner).
// O cron é o único escritor e roda em sequência, então buscar-e-gravar basta.
func (s *Store) SaveAnalysis(a *models.ConversationAnalysis) error {
	existing, err := s.AnalysisFor(a.ChatID, a.Owner)
	switch {
	case err == nil:
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		if a.PrimeiraMensagemID == "" {
			a.PrimeiraMensagemID = existing.PrimeiraMensagemID
		}
		return eris.Wrap(s.db.Save(a).Error, "atualizando análise")
	case IsNotFound(err):
		return eris.Wrap(s.db.Create(a).Error, "criando análise")
	default:
		return err
	}
}

// AnalysesBetween devolve as análises do owner atualizadas em [from, to).
func (s *Store) AnalysesBetween(owner string, from, to time.Time) ([]models.ConversationAnalysis, error) {
	var rows []models.ConversationAnalysis
	err := s.db.
		Where("owner = ? AND updated_at >= ? AND updated_at < ?", owner, from.UTC(), to.UTC()).
		Order("updated_at desc").
		Find(&rows).Error
	return rows, eris.Wrap(err, "buscando análises")
}
