package tools

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

const WHATSAPP_USER_SUFFIX = "@s.whatsapp.net"
const WHATSAPP_GROUP_SUFFIX = "@g.us"

// NormalizeChatID apara espaços e completa com o sufixo padrão de contato quando não há '@'.
func NormalizeChatID(raw string) string {
	chatID := strings.TrimSpace(raw)
	if chatID == "" || strings.Contains(chatID, "@") {
		return chatID
	}
	return chatID + WHATSAPP_USER_SUFFIX
}

func IsGroupChat(chatID string) bool {
	return strings.HasSuffix(strings.TrimSpace(chatID), WHATSAPP_GROUP_SUFFIX)
}

// ChatPhone devolve a parte antes do '@' (o telefone, para chats individuais).
func ChatPhone(chatID string) string {
	chatID = strings.TrimSpace(chatID)
	if i := strings.Index(chatID, "@"); i >= 0 {
		return chatID[:i]
	}
	return chatID
}

// NormalizeWhatsAppTo normaliza um telefone para o formato aceito pelo gateway
// (apenas dígitos, em formato internacional, sem '+').
//
// Heurística atual (Brasil):
// - remove tudo que não é dígito
// - se vier com 10/11 dígitos, assume BR e prefixa 55
// - se já vier com DDI (>= 12 dígitos), mantém
func NormalizeWhatsAppTo(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("telefone vazio")
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	phone := strings.TrimLeft(b.String(), "0")

	if len(phone) == 10 || len(phone) == 11 {
		phone = "55" + phone
	}

	if len(phone) < 12 {
		return "", eris.Errorf("telefone inválido: %d dígitos", len(phone))
	}
	return phone, nil
}
