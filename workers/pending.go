package workers

import (
	"context"
	"encoding/json"
	"strings"

	"acutis/config"
	"acutis/models"
	"acutis/store"
	"acutis/tools"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

const STATUS_CLASSIFIED = models.OUTCOME_CLASSIFIED
const STATUS_SKIPPED = "skipped"
const STATUS_ERROR = "error"
const STATUS_SUCCESS = "success"

const STOPPED_TIME_BUDGET = "time_budget"
const STOPPED_MAX_TOTAL = "max_total"
const STOPPED_CANCELED = "canceled"

// PendingResult é uma linha do relatório do worker.
type PendingResult struct {
	ID          int64  `json:"id"`
	ChatID      string `json:"chatid"`
	Owner       string `json:"owner"`
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Tipo        string `json:"tipo,omitempty"`
	Alertado    bool   `json:"alertado"`
	Envios      int    `json:"envios,omitempty"`
	FalhasEnvio int    `json:"falhas_envio,omitempty"`
	Error       string `json:"error,omitempty"`
}

type PendingReport struct {
	Processed     int             `json:"processed"`
	Alerted       int             `json:"alerted"`
	Errors        int             `json:"errors"`
	StoppedReason string          `json:"stoppedReason,omitempty"`
	Results       []PendingResult `json:"results"`
}

// PendingWorker consome a fila analise_pendente: classificação leve e alerta aos gestores.
type PendingWorker struct {
	store     *store.Store
	companies *CompanyCache
	llm       LLM
	sender    Sender
	clock     Clock
	conf      config.Pipeline
}

func NewPendingWorker(st *store.Store, companies *CompanyCache, llm LLM, sender Sender, clock Clock, conf config.Pipeline) *PendingWorker {
	return &PendingWorker{store: st, companies: companies, llm: llm, sender: sender, clock: clock, conf: conf}
}

// Run processa até WorkerBatchSize linhas vencidas, em ordem de vencimento. O corte por
// tempo é cooperativo: a linha em andamento termina e o restante fica para a próxima chamada.
// Erro só é devolvido quando a busca inicial falha.
func (w *PendingWorker) Run(ctx context.Context) (PendingReport, error) {
	report := PendingReport{Results: []PendingResult{}}
	start := w.clock.Now()
	deadline := start.Add(w.conf.WorkerBudget())

	rows, err := w.store.DuePending(start, w.conf.WorkerBatchSize)
	if err != nil {
		return report, err
	}

	for i, row := range rows {
		if i > 0 {
			if err := w.clock.Sleep(ctx, w.conf.WorkerDelay()); err != nil {
				report.StoppedReason = STOPPED_CANCELED
				break
			}
		}
		if w.clock.Now().After(deadline) {
			report.StoppedReason = STOPPED_TIME_BUDGET
			log.Warn().Int("restantes", len(rows)-i).Msg("process-pending: limite de tempo atingido")
			break
		}

		res := w.processRow(ctx, row)
		report.Results = append(report.Results, res)
		if res.Status == STATUS_ERROR {
			report.Errors++
			continue
		}
		report.Processed++
		if res.Alertado {
			report.Alerted++
		}
	}
	return report, nil
}

func (w *PendingWorker) processRow(ctx context.Context, row models.PendingAnalysis) PendingResult {
	res := PendingResult{ID: row.ID, ChatID: row.ChatID, Owner: row.Owner}
	logger := log.With().Str("owner", row.Owner).Str("chatid", row.ChatID).Logger()

	fail := func(err error) PendingResult {
		logger.Error().Err(err).Msg("process-pending: falha na linha")
		res.Status = STATUS_ERROR
		res.Error = err.Error()
		return res
	}
	skip := func(reason string, messages int) PendingResult {
		if err := w.store.MarkPendingProcessed(row.ID, models.SkippedOutcome(reason, messages, w.clock.Now()), w.clock.Now()); err != nil {
			return fail(err)
		}
		logger.Info().Str("reason", reason).Msg("process-pending: pulado")
		res.Status = STATUS_SKIPPED
		res.Reason = reason
		return res
	}

	msgs, err := w.store.RecentMessages(row.ChatID, row.Owner, w.conf.WorkerRecentMessages)
	if err != nil {
		return fail(err)
	}
	if len(msgs) < w.conf.MinMessages {
		return skip(models.REASON_TOO_FEW_MESSAGES, len(msgs))
	}

	company, err := w.companies.Get(row.Owner)
	if store.IsNotFound(err) || (err == nil && !company.Ativo) {
		return skip(models.REASON_COMPANY_NOT_FOUND, len(msgs))
	}
	if err != nil {
		return fail(err)
	}

	classification, err := w.classify(ctx, *company, msgs)
	if err != nil {
		return fail(err)
	}

	now := w.clock.Now()
	outcome := models.AlertOutcome{
		Status:              models.OUTCOME_CLASSIFIED,
		Classificacao:       &classification,
		MensagensAnalisadas: len(msgs),
		ProcessadoEm:        now,
	}
	if classification.PrecisaAlerta {
		outcome.Envios, outcome.FalhasEnvio = w.sendAlert(ctx, *company, row.ChatID, senderName(msgs), classification)
		outcome.Alertado = outcome.Envios > 0
	}

	// falha de envio não segura a linha: o alerta não é reenviado
	if err := w.store.MarkPendingProcessed(row.ID, outcome, now); err != nil {
		return fail(err)
	}

	logger.Info().
		Bool("precisa_alerta", classification.PrecisaAlerta).
		Str("tipo", classification.Tipo).
		Int("envios", outcome.Envios).
		Int("falhas", outcome.FalhasEnvio).
		Msg("process-pending: classificado")

	res.Status = STATUS_CLASSIFIED
	res.Tipo = classification.Tipo
	res.Alertado = outcome.Alertado
	res.Envios = outcome.Envios
	res.FalhasEnvio = outcome.FalhasEnvio
	return res
}

func (w *PendingWorker) classify(ctx context.Context, company models.ConfigEmpresa, msgs []models.MensagemCliente) (models.AlertClassification, error) {
	var out models.AlertClassification
	completion, err := w.llm.Complete(ctx, alertSystemPrompt, alertPrompt(company, msgs, w.clock.Now()))
	if err != nil {
		return out, eris.Wrap(err, "classificando alerta")
	}
	raw, err := tools.ExtractJSON(completion.Text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, eris.Wrap(err, "decodificando classificação")
	}
	out.Tipo = strings.ToLower(strings.TrimSpace(out.Tipo))
	if out.Tipo == "" {
		out.Tipo = models.ALERTA_NENHUM
	}
	if out.Tipo == models.ALERTA_NENHUM {
		out.PrecisaAlerta = false
	}
	return out, nil
}

// sendAlert avisa o grupo de alertas e cada gestor que recebe alertas. Devolve envios e falhas.
func (w *PendingWorker) sendAlert(ctx context.Context, company models.ConfigEmpresa, chatID, sender string, c models.AlertClassification) (int, int) {
	var targets []string
	if g := strings.TrimSpace(company.GrupoAlertas); g != "" {
		targets = append(targets, g)
	}
	gestores, err := w.store.AlertRecipients(company.Owner)
	if err != nil {
		log.Error().Err(err).Str("owner", company.Owner).Msg("process-pending: buscando gestores")
	}
	for _, g := range gestores {
		targets = append(targets, g.Telefone)
	}

	text := alertText(company, chatID, sender, c)
	sent, failed := 0, 0
	for _, to := range targets {
		if err := w.sender.SendText(ctx, company.UazapiToken, to, text); err != nil {
			log.Warn().Err(err).Str("owner", company.Owner).Str("to", to).Msg("process-pending: falha ao enviar alerta")
			failed++
			continue
		}
		sent++
	}
	if len(targets) == 0 {
		log.Warn().Str("owner", company.Owner).Msg("process-pending: alerta sem destinatários")
	}
	return sent, failed
}

func senderName(msgs []models.MensagemCliente) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].FromMe && msgs[i].SenderName != "" {
			return msgs[i].SenderName
		}
	}
	return ""
}
