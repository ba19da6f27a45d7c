package workers

import (
	"strings"
	"time"

	"acutis/models"
)

// BuildTranscript formata as mensagens como "[dd/mm/aaaa HH:MM] Cliente: texto" no fuso
// do tenant. Acima de maxChars mantém as linhas mais recentes.
func BuildTranscript(msgs []models.MensagemCliente, loc *time.Location, maxChars int) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		text := strings.TrimSpace(m.Texto)
		if text == "" {
			if m.Tipo == "" || m.Tipo == "text" {
				continue
			}
			text = "[" + m.Tipo + "]"
		}
		who := "Cliente"
		if m.FromMe {
			who = "Atendente"
		}
		lines = append(lines, "["+m.Time().In(loc).Format("02/01/2006 15:04")+"] "+who+": "+text)
	}

	if maxChars <= 0 {
		return strings.Join(lines, "\n")
	}
	size := 0
	start := len(lines)
	for start > 0 {
		n := len(lines[start-1]) + 1
		if size+n > maxChars {
			break
		}
		size += n
		start--
	}
	return strings.Join(lines[start:], "\n")
}
