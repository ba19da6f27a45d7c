package workers

import (
	"fmt"
	"strings"
	"time"

	"acutis/models"
	"acutis/tools"
)

const alertSystemPrompt = `Você monitora conversas de WhatsApp de uma empresa e decide se um gestor precisa ser avisado AGORA.
Tipos de alerta:
- lead_sem_resposta: cliente interessado esperando resposta há tempo demais dentro do expediente
- sentimento_negativo: cliente irritado, reclamando ou ameaçando desistir
- pedido_humano: cliente pede para falar com uma pessoa/gerente
- oportunidade_quente: cliente pronto para fechar (pediu preço final, forma de pagamento, contrato)
- nenhum: nada que justifique interromper o gestor
Seja conservador: na dúvida, não alerte.
Responda SOMENTE com JSON:
{"precisa_alerta": bool, "tipo": "...", "urgencia": "alta|media|baixa", "motivo": "frase curta", "resumo": "até 2 frases"}`

func alertPrompt(company models.ConfigEmpresa, msgs []models.MensagemCliente, now time.Time) string {
	loc := company.Location()
	var b strings.Builder
	fmt.Fprintf(&b, "Empresa: %s", company.NomeEmpresa)
	if company.Nicho != "" {
		fmt.Fprintf(&b, " (%s)", company.Nicho)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Horário de atendimento: %s\n", company.HorarioFuncionamento.Describe())

	local := now.In(loc)
	state := "fechado"
	if company.HorarioFuncionamento.IsOpen(local) {
		state = "aberto"
	}
	fmt.Fprintf(&b, "Agora: %s (expediente %s)\n", local.Format("02/01/2006 15:04"), state)

	if last := msgs[len(msgs)-1]; !last.FromMe {
		fmt.Fprintf(&b, "A última mensagem é do cliente e está sem resposta há %.0f minutos.\n", now.Sub(last.Time()).Minutes())
	}

	b.WriteString("\nÚltimas mensagens:\n")
	b.WriteString(BuildTranscript(msgs, loc, 0))
	return b.String()
}

func analysisSystemPrompt(company models.ConfigEmpresa) string {
	var b strings.Builder
	b.WriteString("Você é um analista comercial que avalia conversas de WhatsApp entre uma empresa e seus clientes.\n")
	fmt.Fprintf(&b, "Empresa: %s\n", company.NomeEmpresa)
	if company.Nicho != "" {
		fmt.Fprintf(&b, "Nicho: %s\n", company.Nicho)
	}
	if company.ObjetivoConversao != "" {
		fmt.Fprintf(&b, "Objetivo de conversão: %s\n", company.ObjetivoConversao)
	}
	if strings.TrimSpace(company.InstrucoesIA) != "" {
		b.WriteString("\nInstruções da empresa:\n")
		b.WriteString(strings.TrimSpace(company.InstrucoesIA))
		b.WriteString("\n")
	}
	b.WriteString(`
Responda SOMENTE com JSON neste formato:
{
  "tipo_conversacao": "Vendas" | "Suporte" | "Outro",
  "temperatura": "quente" | "morno" | "frio",
  "fase_funil": "Primeiro Contato" | "Qualificação" | "Apresentação" | "Negociação" | "Fechamento" | "Pós-venda" | "Perdido",
  "score": 0-100,
  "resumo": "até 3 frases",
  "objecoes": ["objeção curta", ...],
  "desempenho": {"nota_atendimento": 0-10, "pontos_fortes": [...], "pontos_melhoria": [...]},
  "proximo_passo": "ação recomendada ao atendente",
  "convertido": bool
}`)
	return b.String()
}

func analysisPrompt(company models.ConfigEmpresa, m models.Metricas, prev *models.ConversationAnalysis, origem, transcript string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Horário de atendimento (%s): %s\n", company.Location().String(), company.HorarioFuncionamento.Describe())
	b.WriteString("Ao julgar tempo de resposta, desconsidere o período fora do expediente.\n")
	fmt.Fprintf(&b, "Métricas calculadas: %d mensagens do cliente, %d do atendente, primeira resposta em %.1f min, média %.1f min",
		m.MensagensCliente, m.MensagensAtendente, m.TempoPrimeiraRespostaMin, m.TempoMedioRespostaMin)
	if m.SemResposta {
		b.WriteString(", cliente aguardando resposta")
	}
	b.WriteString(".\n")
	if origem != "" {
		fmt.Fprintf(&b, "Origem do lead: %s\n", origem)
	}
	if prev != nil && prev.ResultadoIA.Resumo != "" {
		fmt.Fprintf(&b, "\nAnálise anterior (fase %s, %s): %s\n", prev.FaseFunil, prev.Temperatura, prev.ResultadoIA.Resumo)
		b.WriteString("Considere apenas as mensagens novas abaixo para atualizar a análise.\n")
	}
	b.WriteString("\nConversa:\n")
	b.WriteString(transcript)
	return b.String()
}

func alertText(company models.ConfigEmpresa, chatID, sender string, c models.AlertClassification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚨 *Alerta Acutis* - %s", strings.ReplaceAll(c.Tipo, "_", " "))
	if c.Urgencia != "" {
		fmt.Fprintf(&b, " (urgência %s)", c.Urgencia)
	}
	fmt.Fprintf(&b, "\nEmpresa: %s\nCliente: %s", company.NomeEmpresa, tools.ChatPhone(chatID))
	if sender != "" {
		fmt.Fprintf(&b, " (%s)", sender)
	}
	if c.Motivo != "" {
		fmt.Fprintf(&b, "\nMotivo: %s", c.Motivo)
	}
	if c.Resumo != "" {
		fmt.Fprintf(&b, "\nResumo: %s", c.Resumo)
	}
	return b.String()
}

