package dashboard

import (
	"sort"
	"strings"

	"acutis/models"
)

type Objection struct {
	Texto string `json:"texto"`
	Count int    `json:"count"`
}

// RankObjections conta as objeções normalizadas (trim + minúsculas), uma vez por conversa,
// e devolve as top mais frequentes; empate em ordem alfabética.
func RankObjections(items []models.ConversationAnalysis, top int) []Objection {
	counts := map[string]int{}
	for _, a := range items {
		seen := map[string]bool{}
		for _, o := range a.ResultadoIA.Objecoes {
			key := strings.ToLower(strings.TrimSpace(o))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	out := make([]Objection, 0, len(counts))
	for k, v := range counts {
		out = append(out, Objection{Texto: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Texto < out[j].Texto
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
