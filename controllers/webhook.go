package controllers

import (
	"net/http"
	"strings"
	"time"

	"acutis/models"
	"acutis/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const WEBHOOK_ACTION_STORED = "stored"
const WEBHOOK_ACTION_DUPLICATE = "duplicate"
const WEBHOOK_ACTION_IGNORED = "ignored"

// UazapiEvent é o corpo do webhook de mensagens do gateway.
type UazapiEvent struct {
	EventType string        `json:"EventType"`
	Owner     string        `json:"owner"`
	Message   UazapiMessage `json:"message"`
}

type UazapiMessage struct {
	ChatID           string        `json:"chatid"`
	MessageID        string        `json:"messageid"`
	FromMe           bool          `json:"fromMe"`
	IsGroup          bool          `json:"isGroup"`
	MessageType      string        `json:"messageType"`
	MessageTimestamp int64         `json:"messageTimestamp"`
	SenderName       string        `json:"senderName"`
	Text             string        `json:"text"`
	Content          UazapiContent `json:"content"`
}

type UazapiContent struct {
	ContextInfo struct {
		ExternalAdReply *AdReferral `json:"externalAdReply"`
	} `json:"contextInfo"`
}

// AdReferral vem em mensagens iniciadas por anúncio (click-to-WhatsApp).
type AdReferral struct {
	SourceApp  string `json:"sourceApp"`
	SourceType string `json:"sourceType"`
	SourceID   string `json:"sourceId"`
	SourceURL  string `json:"sourceUrl"`
	Title      string `json:"title"`
}

// POST /api/webhook/uazapi
// Grava a mensagem, registra a origem de primeiro toque e, para mensagens recebidas
// fora de grupos, agenda a análise leve (mesmo caminho do /api/trigger-analysis).
// Eventos que não interessam respondem 200 para o gateway não reenviar.
func (ctl *Controller) WebhookUazapi(c *gin.Context) {
	var ev UazapiEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		RespondFailure(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	if ev.EventType != "" && !strings.EqualFold(ev.EventType, "messages") {
		RespondSuccess(c, gin.H{"success": true, "action": WEBHOOK_ACTION_IGNORED, "reason": "evento " + ev.EventType})
		return
	}

	owner := tools.ChatPhone(ev.Owner)
	m := ev.Message
	chatID := tools.NormalizeChatID(m.ChatID)
	if owner == "" || chatID == "" || strings.TrimSpace(m.MessageID) == "" {
		RespondFailure(c, "owner, message.chatid e message.messageid são obrigatórios", http.StatusBadRequest)
		return
	}
	if _, err := ctl.companies.Get(owner); err != nil {
		RespondSuccess(c, gin.H{"success": true, "action": WEBHOOK_ACTION_IGNORED, "reason": models.REASON_COMPANY_NOT_FOUND})
		return
	}

	msg := models.MensagemCliente{
		MessageID:        strings.TrimSpace(m.MessageID),
		ChatID:           chatID,
		Owner:            owner,
		FromMe:           m.FromMe,
		Texto:            m.Text,
		Tipo:             messageKind(m.MessageType),
		SenderName:       strings.TrimSpace(m.SenderName),
		MessageTimestamp: timestampMillis(m.MessageTimestamp, ctl.clock.Now()),
	}
	created, err := ctl.store.SaveMessage(&msg)
	if err != nil {
		RespondFailure(c, err.Error(), http.StatusInternalServerError)
		return
	}
	if !created {
		RespondSuccess(c, gin.H{"success": true, "action": WEBHOOK_ACTION_DUPLICATE})
		return
	}

	group := m.IsGroup || tools.IsGroupChat(chatID)
	if !m.FromMe && !group {
		origem, campanha := detectOrigin(m)
		t := models.LeadTracking{ChatID: chatID, Owner: owner, Origem: origem, Campanha: campanha}
		if err := ctl.store.SaveTracking(&t); err != nil {
			log.Warn().Err(err).Str("owner", owner).Str("chatid", chatID).Msg("webhook: tracking não gravado")
		}
	}

	resp := gin.H{"success": true, "action": WEBHOOK_ACTION_STORED}
	if !m.FromMe {
		action, err := ctl.debouncer.Trigger(chatID, owner)
		if err != nil {
			RespondFailure(c, err.Error(), http.StatusInternalServerError)
			return
		}
		resp["trigger"] = action
	}
	RespondSuccess(c, resp)
}

// detectOrigin classifica a origem pelo referral do anúncio; sem referral é orgânico.
func detectOrigin(m UazapiMessage) (string, string) {
	ad := m.Content.ContextInfo.ExternalAdReply
	text := strings.ToLower(m.Text)
	if ad == nil {
		if strings.Contains(text, "gclid=") || strings.Contains(text, "utm_source=google") {
			return models.ORIGEM_GOOGLE_ADS, ""
		}
		return models.ORIGEM_ORGANICO, ""
	}

	campanha := strings.TrimSpace(ad.Title)
	if campanha == "" {
		campanha = strings.TrimSpace(ad.SourceID)
	}
	app := strings.ToLower(ad.SourceApp + " " + ad.SourceURL)
	switch {
	case strings.Contains(app, "instagram"):
		return models.ORIGEM_INSTAGRAM_ADS, campanha
	case strings.Contains(app, "google"):
		return models.ORIGEM_GOOGLE_ADS, campanha
	default:
		return models.ORIGEM_FACEBOOK_ADS, campanha
	}
}

// messageKind reduz o messageType do gateway a text ou ao tipo de mídia.
func messageKind(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	switch {
	case t == "", t == "conversation", strings.HasPrefix(t, "extendedtext"):
		return "text"
	case strings.HasSuffix(t, "message"):
		return strings.TrimSuffix(t, "message")
	}
	return t
}

// timestampMillis aceita segundos ou milissegundos; zero vira agora.
func timestampMillis(ts int64, now time.Time) int64 {
	switch {
	case ts <= 0:
		return now.UnixMilli()
	case ts < 1e12:
		return ts * 1000
	}
	return ts
}
