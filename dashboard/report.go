package dashboard

import (
	"sort"
	"time"

	"acutis/models"
)

type AlertSummary struct {
	ChatID   string    `json:"chatid"`
	Tipo     string    `json:"tipo"`
	Urgencia string    `json:"urgencia"`
	Motivo   string    `json:"motivo"`
	Em       time.Time `json:"em"`
}

type HotLead struct {
	ChatID       string `json:"chatid"`
	Score        int    `json:"score"`
	Fase         string `json:"fase"`
	Origem       string `json:"origem"`
	Resumo       string `json:"resumo"`
	ProximoPasso string `json:"proximo_passo"`
}

type DailyReport struct {
	Owner         string         `json:"owner"`
	NomeEmpresa   string         `json:"nome_empresa"`
	De            time.Time      `json:"de"`
	Ate           time.Time      `json:"ate"`
	NovosContatos int64          `json:"novos_contatos"`
	KPIs          KPIs           `json:"kpis"`
	Funil         Funnel         `json:"funil"`
	Gargalos      []Gargalo      `json:"gargalos"`
	Objecoes      []Objection    `json:"objecoes"`
	Alertas       []AlertSummary `json:"alertas"`
	LeadsQuentes  []HotLead      `json:"leads_quentes"`
}

const REPORT_TOP_OBJECTIONS = 5
const REPORT_TOP_LEADS = 10

// BuildDailyReport junta os indicadores da janela [from, to) num único documento.
func BuildDailyReport(company models.ConfigEmpresa, items []models.ConversationAnalysis, alerts []models.PendingAnalysis, novosContatos int64, from, to time.Time) DailyReport {
	r := DailyReport{
		Owner:         company.Owner,
		NomeEmpresa:   company.NomeEmpresa,
		De:            from,
		Ate:           to,
		NovosContatos: novosContatos,
		KPIs:          ComputeKPIs(items),
		Funil:         BuildFunnel(Sales(items)),
		Gargalos:      DetectGargalos(Sales(items)),
		Objecoes:      RankObjections(items, REPORT_TOP_OBJECTIONS),
		Alertas:       []AlertSummary{},
		LeadsQuentes:  []HotLead{},
	}

	for _, p := range alerts {
		s := AlertSummary{ChatID: p.ChatID, Em: p.ResultadoAlerta.ProcessadoEm}
		if c := p.ResultadoAlerta.Classificacao; c != nil {
			s.Tipo, s.Urgencia, s.Motivo = c.Tipo, c.Urgencia, c.Motivo
		}
		r.Alertas = append(r.Alertas, s)
	}

	for _, a := range items {
		if a.Temperatura != models.TEMPERATURA_QUENTE || a.ResultadoIA.Convertido {
			continue
		}
		r.LeadsQuentes = append(r.LeadsQuentes, HotLead{
			ChatID:       a.ChatID,
			Score:        a.Score,
			Fase:         a.FaseFunil,
			Origem:       a.OrigemTracking,
			Resumo:       a.ResultadoIA.Resumo,
			ProximoPasso: a.ResultadoIA.ProximoPasso,
		})
	}
	sort.SliceStable(r.LeadsQuentes, func(i, j int) bool { return r.LeadsQuentes[i].Score > r.LeadsQuentes[j].Score })
	if len(r.LeadsQuentes) > REPORT_TOP_LEADS {
		r.LeadsQuentes = r.LeadsQuentes[:REPORT_TOP_LEADS]
	}
	return r
}

type DayCount struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// DailySeries conta as análises por dia (no fuso do tenant) e preenche os dias vazios com 0.
func DailySeries(items []models.ConversationAnalysis, from, to time.Time, loc *time.Location) []DayCount {
	m := map[string]int64{}
	for _, a := range items {
		if a.UpdatedAt == nil {
			continue
		}
		m[a.UpdatedAt.In(loc).Format("2006-01-02")]++
	}

	var out []DayCount
	from, to = from.In(loc), to.In(loc)
	cur := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, loc)
	for !cur.After(end) {
		key := cur.Format("2006-01-02")
		out = append(out, DayCount{Day: key, Count: m[key]})
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}
