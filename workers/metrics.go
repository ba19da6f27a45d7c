package workers

import (
	"math"
	"time"

	"acutis/models"
)

// ComputeMetrics calcula contagens e tempos de resposta a partir das mensagens (em ordem
// cronológica). O relógio de uma pergunta feita fora do expediente só começa a contar
// na abertura seguinte.
func ComputeMetrics(msgs []models.MensagemCliente, hours models.BusinessHours, loc *time.Location) models.Metricas {
	var (
		out     models.Metricas
		waiting *time.Time
		delays  []float64
	)

	for _, m := range msgs {
		at := m.Time().In(loc)
		if !m.FromMe {
			out.MensagensCliente++
			if waiting == nil {
				waiting = &at
			}
			continue
		}

		out.MensagensAtendente++
		if !hours.IsOpen(at) {
			out.RespostasForaHorario++
		}
		if waiting != nil {
			delays = append(delays, responseMinutes(*waiting, at, hours))
			waiting = nil
		}
	}

	out.SemResposta = waiting != nil
	if len(delays) > 0 {
		out.TempoPrimeiraRespostaMin = round1(delays[0])
		var sum float64
		for _, d := range delays {
			sum += d
		}
		out.TempoMedioRespostaMin = round1(sum / float64(len(delays)))
	}
	return out
}

func responseMinutes(asked, answered time.Time, hours models.BusinessHours) float64 {
	start := hours.NextOpening(asked)
	if start.IsZero() || !answered.After(start) {
		return 0
	}
	return answered.Sub(start).Minutes()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
