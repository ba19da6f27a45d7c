package workers

import (
	"context"

	"acutis/config"
	"acutis/models"
	"acutis/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const FASE_TRAFEGO_PAGO = models.ORIGEM_FILTER_TRAFEGO_PAGO
const FASE_ORGANICO = models.ORIGEM_FILTER_ORGANICO

// Options de uma rodada do cron. Zeros caem nos padrões da configuração.
type Options struct {
	MaxPerCompany int
	MaxTotal      int
	OrigemFilter  string // vazio = preferência de cada empresa
	Owner         string // vazio = todas as empresas ativas
	DryRun        bool
}

type PhaseReport struct {
	Fase      string          `json:"fase"`
	Processed int             `json:"processed"`
	Skipped   int             `json:"skipped"`
	Errors    int             `json:"errors"`
	Details   []AnalyzeResult `json:"details"`
}

type CompanyReport struct {
	Owner       string        `json:"owner"`
	NomeEmpresa string        `json:"nome_empresa"`
	Processed   int           `json:"processed"`
	Skipped     int           `json:"skipped"`
	Errors      int           `json:"errors"`
	Phases      []PhaseReport `json:"phases"`
	Error       string        `json:"error,omitempty"`
}

type CronReport struct {
	RunID          string          `json:"runId"`
	Companies      []CompanyReport `json:"companies"`
	TotalProcessed int             `json:"totalProcessed"`
	TotalErrors    int             `json:"totalErrors"`
	TotalSkipped   int             `json:"totalSkipped"`
	DurationMs     int64           `json:"durationMs"`
	StoppedReason  string          `json:"stoppedReason,omitempty"`
}

// SingleResult é a resposta da variante um-chat-por-chamada.
type SingleResult struct {
	Status    string `json:"status"`
	ChatID    string `json:"chatid,omitempty"`
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

// Orchestrator percorre as empresas ativas e chama o Analyzer chat a chat,
// tráfego pago antes do orgânico, em sequência.
type Orchestrator struct {
	store    *store.Store
	analyzer *Analyzer
	clock    Clock
	conf     config.Pipeline
}

func NewOrchestrator(st *store.Store, analyzer *Analyzer, clock Clock, conf config.Pipeline) *Orchestrator {
	return &Orchestrator{store: st, analyzer: analyzer, clock: clock, conf: conf}
}

func (o *Orchestrator) withDefaults(opts Options) Options {
	if opts.MaxPerCompany <= 0 {
		opts.MaxPerCompany = o.conf.CronMaxPerCompany
	}
	if opts.MaxTotal <= 0 {
		opts.MaxTotal = o.conf.CronMaxTotal
	}
	return opts
}

// Companies devolve as empresas da rodada: todas as ativas ou só a do owner.
func (o *Orchestrator) Companies(owner string) ([]models.ConfigEmpresa, error) {
	if owner == "" {
		return o.store.ActiveCompanies()
	}
	c, err := o.store.CompanyByOwner(owner)
	if err != nil {
		return nil, err
	}
	if !c.Ativo {
		return nil, store.ErrNotFound
	}
	return []models.ConfigEmpresa{*c}, nil
}

// Run executa uma rodada. As condições de parada (processed+errors >= MaxTotal ou tempo
// estourado) são checadas antes de cada empresa, fase e chat; o que sobrar fica para a próxima.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (CronReport, error) {
	opts = o.withDefaults(opts)
	start := o.clock.Now()
	report := CronReport{RunID: uuid.NewString(), Companies: []CompanyReport{}}
	logger := log.With().Str("run_id", report.RunID).Logger()

	companies, err := o.Companies(opts.Owner)
	if err != nil {
		return report, err
	}

	stop := func() string {
		switch {
		case ctx.Err() != nil:
			return STOPPED_CANCELED
		case report.TotalProcessed+report.TotalErrors >= opts.MaxTotal:
			return STOPPED_MAX_TOTAL
		case o.clock.Now().Sub(start) > o.conf.CronBudget():
			return STOPPED_TIME_BUDGET
		}
		return ""
	}

	pause := false
	sinceMs := start.Add(-o.conf.Lookback()).UnixMilli()

companies:
	for _, company := range companies {
		if report.StoppedReason = stop(); report.StoppedReason != "" {
			break
		}
		cr := CompanyReport{Owner: company.Owner, NomeEmpresa: company.NomeEmpresa, Phases: []PhaseReport{}}

		chats, tracking, err := o.candidates(company.Owner, sinceMs)
		if err != nil {
			logger.Error().Err(err).Str("owner", company.Owner).Msg("cron: buscando chats pendentes")
			cr.Error = err.Error()
			report.Companies = append(report.Companies, cr)
			continue
		}

		for _, fase := range phasesFor(company, opts.OrigemFilter) {
			if report.StoppedReason = stop(); report.StoppedReason != "" {
				report.Companies = append(report.Companies, cr)
				break companies
			}
			limit := opts.MaxPerCompany
			if left := opts.MaxTotal - (report.TotalProcessed + report.TotalErrors); left < limit {
				limit = left
			}

			pr := PhaseReport{Fase: fase, Details: []AnalyzeResult{}}
			for _, chat := range inPhase(chats, tracking, fase, limit) {
				if report.StoppedReason = stop(); report.StoppedReason != "" {
					break
				}
				if pause {
					if err := o.clock.Sleep(ctx, o.conf.CronDelay()); err != nil {
						report.StoppedReason = STOPPED_CANCELED
						break
					}
				}

				r := o.analyzer.AnalyzeChat(ctx, chat.ChatID, company, opts.DryRun)
				pause = r.CalledLLM
				pr.Details = append(pr.Details, r)
				switch r.Status {
				case STATUS_SUCCESS:
					pr.Processed++
					report.TotalProcessed++
				case STATUS_ERROR:
					pr.Errors++
					report.TotalErrors++
				default:
					pr.Skipped++
					report.TotalSkipped++
				}
			}

			cr.Processed += pr.Processed
			cr.Skipped += pr.Skipped
			cr.Errors += pr.Errors
			cr.Phases = append(cr.Phases, pr)
			if report.StoppedReason != "" {
				report.Companies = append(report.Companies, cr)
				break companies
			}
		}
		report.Companies = append(report.Companies, cr)
	}

	report.DurationMs = o.clock.Now().Sub(start).Milliseconds()
	logger.Info().
		Int("empresas", len(report.Companies)).
		Int("processed", report.TotalProcessed).
		Int("errors", report.TotalErrors).
		Int("skipped", report.TotalSkipped).
		Int64("duration_ms", report.DurationMs).
		Str("stopped", report.StoppedReason).
		Msg("cron: rodada concluída")
	return report, nil
}

// AnalyzeNext analisa o próximo chat pendente do owner. Chats pulados sem chamada à IA
// não contam: segue para o seguinte até uma chamada real ou o fim da lista.
func (o *Orchestrator) AnalyzeNext(ctx context.Context, owner, origemFilter string) (SingleResult, error) {
	companies, err := o.Companies(owner)
	if err != nil {
		return SingleResult{}, err
	}
	company := companies[0]
	start := o.clock.Now()

	chats, tracking, err := o.candidates(owner, start.Add(-o.conf.Lookback()).UnixMilli())
	if err != nil {
		return SingleResult{}, err
	}
	var queue []store.ChatActivity
	for _, fase := range phasesFor(company, origemFilter) {
		queue = append(queue, inPhase(chats, tracking, fase, len(chats))...)
	}

	out := SingleResult{Status: STATUS_SKIPPED, Message: "nenhum chat pendente"}
	for i, chat := range queue {
		if ctx.Err() != nil || o.clock.Now().Sub(start) > o.conf.CronBudget() {
			out.Remaining = len(queue) - i
			return out, nil
		}
		r := o.analyzer.AnalyzeChat(ctx, chat.ChatID, company, false)
		out = SingleResult{Status: r.Status, ChatID: r.ChatID, Message: r.Message, Remaining: len(queue) - i - 1}
		if r.CalledLLM {
			break
		}
	}
	return out, nil
}

func (o *Orchestrator) candidates(owner string, sinceMs int64) ([]store.ChatActivity, map[string]models.LeadTracking, error) {
	chats, err := o.store.PendingChats(owner, sinceMs)
	if err != nil {
		return nil, nil, err
	}
	tracking, err := o.store.TrackingByOwner(owner)
	if err != nil {
		return nil, nil, err
	}
	return chats, tracking, nil
}

// phasesFor respeita o filtro pedido na chamada e, sem ele, a preferência da empresa.
func phasesFor(company models.ConfigEmpresa, requested string) []string {
	filter := company.OrigemFilter()
	if requested != "" {
		filter = models.NormalizeOrigemFilter(requested)
	}
	switch filter {
	case models.ORIGEM_FILTER_TRAFEGO_PAGO:
		return []string{FASE_TRAFEGO_PAGO}
	case models.ORIGEM_FILTER_ORGANICO:
		return []string{FASE_ORGANICO}
	}
	return []string{FASE_TRAFEGO_PAGO, FASE_ORGANICO}
}

// inPhase filtra os chats da fase mantendo a ordem da consulta (mais recentes primeiro).
func inPhase(chats []store.ChatActivity, tracking map[string]models.LeadTracking, fase string, limit int) []store.ChatActivity {
	var out []store.ChatActivity
	for _, c := range chats {
		if len(out) >= limit {
			break
		}
		paid := models.IsPaidOrigin(tracking[c.ChatID].Origem)
		if paid == (fase == FASE_TRAFEGO_PAGO) {
			out = append(out, c)
		}
	}
	return out
}
