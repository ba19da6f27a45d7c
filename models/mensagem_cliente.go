package models

import "time"

// MensagemCliente é uma mensagem de WhatsApp (entrada ou saída). Append-only.
// MessageTimestamp é unix em milissegundos, como vem do gateway.
type MensagemCliente struct {
	ID               int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	MessageID        string     `gorm:"column:message_id;not null;unique_index" json:"message_id"`
	ChatID           string     `gorm:"column:chatid;not null;index:idx_mensagens_chat_owner" json:"chatid"`
	Owner            string     `gorm:"column:owner;not null;index:idx_mensagens_chat_owner" json:"owner"`
	FromMe           bool       `gorm:"column:from_me;not null" json:"from_me"`
	Texto            string     `gorm:"column:texto;type:text" json:"texto"`
	Tipo             string     `gorm:"column:tipo" json:"tipo"`
	SenderName       string     `gorm:"column:sender_name" json:"sender_name"`
	MessageTimestamp int64      `gorm:"column:message_timestamp;not null;index" json:"message_timestamp"`
	CreatedAt        *time.Time `json:"created_at"`
}

func (MensagemCliente) TableName() string { return "mensagens_clientes" }

func (m MensagemCliente) Time() time.Time {
	return time.UnixMilli(m.MessageTimestamp)
}

/************************************************
/**** MARK: ORIGENS ****/
/************************************************/
const ORIGEM_FACEBOOK_ADS = "facebook_ads"
const ORIGEM_INSTAGRAM_ADS = "instagram_ads"
const ORIGEM_GOOGLE_ADS = "google_ads"
const ORIGEM_ORGANICO = "organico"

// IsPaidOrigin diz se a origem rastreada é tráfego pago.
func IsPaidOrigin(origem string) bool {
	switch origem {
	case ORIGEM_FACEBOOK_ADS, ORIGEM_INSTAGRAM_ADS, ORIGEM_GOOGLE_ADS:
		return true
	}
	return false
}

// LeadTracking guarda a origem de primeiro toque de um chat.
type LeadTracking struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ChatID    string     `gorm:"column:chatid;not null;unique_index:idx_leads_tracking_chat_owner" json:"chatid"`
	Owner     string     `gorm:"column:owner;not null;unique_index:idx_leads_tracking_chat_owner" json:"owner"`
	Origem    string     `gorm:"column:origem;not null" json:"origem"`
	Campanha  string     `gorm:"column:campanha" json:"campanha"`
	CreatedAt *time.Time `json:"created_at"`
}

func (LeadTracking) TableName() string { return "leads_tracking" }
