// Package dashboard agrega as análises de conversa em indicadores. Só leitura:
// recebe as linhas já filtradas por owner e período.
package dashboard

import (
	"math"

	"acutis/models"
)

type KPIs struct {
	Total                    int            `json:"total"`
	Vendas                   int            `json:"vendas"`
	Suporte                  int            `json:"suporte"`
	Outros                   int            `json:"outros"`
	Quentes                  int            `json:"quentes"`
	Mornos                   int            `json:"mornos"`
	Frios                    int            `json:"frios"`
	ScoreMedio               float64        `json:"score_medio"`
	Convertidos              int            `json:"convertidos"`
	TaxaConversao            float64        `json:"taxa_conversao"`
	TempoPrimeiraRespostaMin float64        `json:"tempo_primeira_resposta_min"`
	SemResposta              int            `json:"sem_resposta"`
	NotaMediaAtendimento     float64        `json:"nota_media_atendimento"`
	PorOrigem                map[string]int `json:"por_origem"`
	TokensTotal              int            `json:"tokens_total"`
}

// ComputeKPIs calcula os totais. A taxa de conversão é sobre as conversas de Vendas;
// o tempo de primeira resposta considera só conversas em que o atendente respondeu.
func ComputeKPIs(items []models.ConversationAnalysis) KPIs {
	k := KPIs{PorOrigem: map[string]int{}}
	var scoreSum, notaSum, respSum float64
	var notas, respostas int

	for _, a := range items {
		k.Total++
		switch a.TipoConversacao {
		case models.TIPO_VENDAS:
			k.Vendas++
			if a.ResultadoIA.Convertido {
				k.Convertidos++
			}
		case models.TIPO_SUPORTE:
			k.Suporte++
		default:
			k.Outros++
		}
		switch a.Temperatura {
		case models.TEMPERATURA_QUENTE:
			k.Quentes++
		case models.TEMPERATURA_MORNO:
			k.Mornos++
		default:
			k.Frios++
		}

		scoreSum += float64(a.Score)
		m := a.ResultadoIA.Metricas
		if m.MensagensAtendente > 0 {
			respSum += m.TempoPrimeiraRespostaMin
			respostas++
		}
		if m.SemResposta {
			k.SemResposta++
		}
		if n := a.ResultadoIA.Desempenho.NotaAtendimento; n > 0 {
			notaSum += float64(n)
			notas++
		}

		origem := a.OrigemTracking
		if origem == "" {
			origem = models.ORIGEM_ORGANICO
		}
		k.PorOrigem[origem]++
		k.TokensTotal += a.ResultadoIA.Tokens.Total
	}

	k.ScoreMedio = avg(scoreSum, k.Total)
	k.TempoPrimeiraRespostaMin = avg(respSum, respostas)
	k.NotaMediaAtendimento = avg(notaSum, notas)
	k.TaxaConversao = percent(k.Convertidos, k.Vendas)
	return k
}

// Sales filtra as conversas de Vendas (base do funil).
func Sales(items []models.ConversationAnalysis) []models.ConversationAnalysis {
	var out []models.ConversationAnalysis
	for _, a := range items {
		if a.TipoConversacao == models.TIPO_VENDAS {
			out = append(out, a)
		}
	}
	return out
}

func avg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
