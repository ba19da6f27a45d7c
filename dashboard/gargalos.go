package dashboard

import "acutis/models"

// Uma fase vira gargalo quando pelo menos GARGALO_MIN_PERCENT% das conversas nela
// estão travadas (frias ou sem resposta) e são pelo menos GARGALO_MIN_TRAVADOS.
const GARGALO_MIN_PERCENT = 30.0
const GARGALO_MIN_TRAVADOS = 2

type Gargalo struct {
	Fase       string  `json:"fase"`
	Total      int     `json:"total"`
	Travados   int     `json:"travados"`
	Frios      int     `json:"frios"`
	SemRes     int     `json:"sem_resposta"`
	Percentual float64 `json:"percentual"`
	Critico    bool    `json:"critico"`
}

func DetectGargalos(items []models.ConversationAnalysis) []Gargalo {
	byPhase := make([]Gargalo, len(models.FunnelPhases))
	for i, fase := range models.FunnelPhases {
		byPhase[i].Fase = fase
	}

	for _, a := range items {
		i := phaseIndex(a.FaseFunil)
		if i < 0 {
			continue
		}
		g := &byPhase[i]
		g.Total++
		frio := a.Temperatura == models.TEMPERATURA_FRIO
		semResposta := a.ResultadoIA.Metricas.SemResposta
		if frio {
			g.Frios++
		}
		if semResposta {
			g.SemRes++
		}
		if frio || semResposta {
			g.Travados++
		}
	}

	out := []Gargalo{}
	for _, g := range byPhase {
		if g.Total == 0 {
			continue
		}
		g.Percentual = percent(g.Travados, g.Total)
		g.Critico = g.Percentual >= GARGALO_MIN_PERCENT && g.Travados >= GARGALO_MIN_TRAVADOS
		out = append(out, g)
	}
	return out
}
