package workers

import (
	"time"

	"acutis/store"
	"acutis/tools"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const ACTION_QUEUED = "queued"
const ACTION_IGNORED_GROUP = "ignored_group"

// Debouncer agenda a análise leve de um chat para now+delay. Cada nova mensagem
// empurra o prazo para frente em vez de acumular linhas.
type Debouncer struct {
	store *store.Store
	clock Clock
	delay time.Duration
}

func NewDebouncer(st *store.Store, clock Clock, delay time.Duration) *Debouncer {
	return &Debouncer{store: st, clock: clock, delay: delay}
}

// Trigger devolve a ação tomada (queued ou ignored_group).
func (d *Debouncer) Trigger(chatID, owner string) (string, error) {
	chatID = tools.NormalizeChatID(chatID)
	if chatID == "" || owner == "" {
		return "", eris.New("chatid e owner são obrigatórios")
	}
	if tools.IsGroupChat(chatID) {
		return ACTION_IGNORED_GROUP, nil
	}

	now := d.clock.Now()
	due := now.Add(d.delay)
	if err := d.store.UpsertPending(chatID, owner, due, now); err != nil {
		return "", err
	}

	log.Debug().Str("owner", owner).Str("chatid", chatID).Time("agendado_para", due).Msg("análise agendada")
	return ACTION_QUEUED, nil
}

func (d *Debouncer) PendingCount() (int64, error) {
	return d.store.CountPending()
}
