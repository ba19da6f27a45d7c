package dashboard

import "acutis/models"

type FunnelStage struct {
	Fase       string  `json:"fase"`
	Atual      int     `json:"atual"`
	Alcancaram int     `json:"alcancaram"`
	Conversao  float64 `json:"conversao"` // % da etapa anterior que chegou aqui
}

type Funnel struct {
	Stages   []FunnelStage `json:"etapas"`
	Perdidos int           `json:"perdidos"`
	SemFase  int           `json:"sem_fase"`
}

// BuildFunnel conta quantas conversas estão em cada fase e quantas chegaram pelo
// menos até ela, na ordem canônica. Perdido fica fora da progressão.
func BuildFunnel(items []models.ConversationAnalysis) Funnel {
	current := make([]int, len(models.FunnelPhases))
	f := Funnel{}

	for _, a := range items {
		if a.FaseFunil == models.FASE_PERDIDO {
			f.Perdidos++
			continue
		}
		i := phaseIndex(a.FaseFunil)
		if i < 0 {
			f.SemFase++
			continue
		}
		current[i]++
	}

	reached := 0
	reachedAt := make([]int, len(current))
	for i := len(current) - 1; i >= 0; i-- {
		reached += current[i]
		reachedAt[i] = reached
	}

	for i, fase := range models.FunnelPhases {
		stage := FunnelStage{Fase: fase, Atual: current[i], Alcancaram: reachedAt[i]}
		if i == 0 {
			if reachedAt[0] > 0 {
				stage.Conversao = 100
			}
		} else {
			stage.Conversao = percent(reachedAt[i], reachedAt[i-1])
		}
		f.Stages = append(f.Stages, stage)
	}
	return f
}

func phaseIndex(fase string) int {
	for i, p := range models.FunnelPhases {
		if p == fase {
			return i
		}
	}
	return -1
}
