package workers

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"acutis/config"
	"acutis/models"
	"acutis/store"
	"acutis/tools"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// AnalyzeResult é o retorno do analyze-service para um chat.
type AnalyzeResult struct {
	ChatID  string                 `json:"chatid"`
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Origem  string                 `json:"origem,omitempty"`
	Result  *models.AnalysisResult `json:"resultado,omitempty"`

	// CalledLLM indica que houve chamada ao provedor (o cron só espera o intervalo nesses casos).
	CalledLLM bool `json:"-"`
}

// Analyzer faz a análise completa de um chat e grava em analises_conversas.
type Analyzer struct {
	store *store.Store
	llm   LLM
	clock Clock
	conf  config.Pipeline
}

func NewAnalyzer(st *store.Store, llm LLM, clock Clock, conf config.Pipeline) *Analyzer {
	return &Analyzer{store: st, llm: llm, clock: clock, conf: conf}
}

func (a *Analyzer) AnalyzeChat(ctx context.Context, chatID string, company models.ConfigEmpresa, dryRun bool) AnalyzeResult {
	res := AnalyzeResult{ChatID: chatID}
	logger := log.With().Str("owner", company.Owner).Str("chatid", chatID).Logger()

	fail := func(err error) AnalyzeResult {
		logger.Error().Err(err).Msg("analyze: erro")
		res.Status = STATUS_ERROR
		res.Message = err.Error()
		return res
	}
	skip := func(msg string) AnalyzeResult {
		logger.Debug().Str("motivo", msg).Msg("analyze: pulado")
		res.Status = STATUS_SKIPPED
		res.Message = msg
		return res
	}

	msgs, err := a.store.ChatMessages(chatID, company.Owner)
	if err != nil {
		return fail(err)
	}
	if len(msgs) == 0 {
		return skip("chat sem mensagens")
	}
	last := msgs[len(msgs)-1]
	now := a.clock.Now()
	if now.Sub(last.Time()) > a.conf.Lookback() {
		return skip("chat fora da janela de análise")
	}

	prev, err := a.store.AnalysisFor(chatID, company.Owner)
	if err != nil && !store.IsNotFound(err) {
		return fail(err)
	}
	fresh := msgs
	if prev != nil {
		fresh = messagesAfter(msgs, prev.UltimaMensagemID, prev.UltimaMensagemTS)
		if len(fresh) == 0 {
			return skip("nenhuma mensagem nova desde a última análise")
		}
	}
	if len(fresh) < a.conf.MinMessages {
		return skip("mensagens novas insuficientes desde a última análise")
	}

	tracking, err := a.store.TrackingFor(chatID, company.Owner)
	if err != nil && !store.IsNotFound(err) {
		return fail(err)
	}
	origem := models.ORIGEM_ORGANICO
	if tracking != nil && tracking.Origem != "" {
		origem = tracking.Origem
	}
	res.Origem = origem

	loc := company.Location()
	metrics := ComputeMetrics(fresh, company.HorarioFuncionamento, loc)
	transcript := BuildTranscript(fresh, loc, a.conf.TranscriptMaxChars)
	if strings.TrimSpace(transcript) == "" {
		return skip("mensagens sem texto")
	}

	res.CalledLLM = true
	completion, err := a.llm.Complete(ctx, analysisSystemPrompt(company), analysisPrompt(company, metrics, prev, origem, transcript))
	if err != nil {
		return fail(eris.Wrap(err, "gemini"))
	}
	result, err := parseAnalysis(completion.Text)
	if err != nil {
		return fail(err)
	}

	entry := leadEntry(msgs, tracking, prev)
	result.Metricas = metrics
	result.Origem = origem
	result.DataEntradaLead = entry.In(loc).Format(time.RFC3339)
	result.Tokens = models.TokenUsage{
		Prompt: completion.PromptTokens,
		Saida:  completion.OutputTokens,
		Total:  completion.TotalTokens,
	}
	if models.IsPaidOrigin(origem) {
		result.TipoConversacao = models.TIPO_VENDAS
	}
	res.Result = &result

	if dryRun {
		res.Status = STATUS_SUCCESS
		res.Message = "dry run: análise não gravada"
		return res
	}

	analysis := &models.ConversationAnalysis{
		ChatID:             chatID,
		Owner:              company.Owner,
		ResultadoIA:        result,
		PrimeiraMensagemID: msgs[0].MessageID,
		UltimaMensagemID:   last.MessageID,
		UltimaMensagemTS:   last.MessageTimestamp,
		OrigemTracking:     origem,
		TipoConversacao:    result.TipoConversacao,
		Temperatura:        result.Temperatura,
		FaseFunil:          result.FaseFunil,
		Score:              result.Score,
		DataEntradaLead:    &entry,
	}
	if err := a.store.SaveAnalysis(analysis); err != nil {
		return fail(err)
	}

	logger.Info().
		Str("tipo", result.TipoConversacao).
		Str("fase", result.FaseFunil).
		Int("score", result.Score).
		Int("tokens", result.Tokens.Total).
		Msg("analyze: análise salva")

	res.Status = STATUS_SUCCESS
	res.Message = "análise salva"
	return res
}

// messagesAfter devolve as mensagens depois de lastID; se o id sumiu, usa o timestamp.
func messagesAfter(msgs []models.MensagemCliente, lastID string, lastTS int64) []models.MensagemCliente {
	if lastID != "" {
		for i, m := range msgs {
			if m.MessageID == lastID {
				return msgs[i+1:]
			}
		}
	}
	for i, m := range msgs {
		if m.MessageTimestamp > lastTS {
			return msgs[i:]
		}
	}
	return nil
}

// leadEntry é o primeiro contato conhecido: a mensagem mais antiga, o tracking ou a análise anterior.
func leadEntry(msgs []models.MensagemCliente, tracking *models.LeadTracking, prev *models.ConversationAnalysis) time.Time {
	entry := msgs[0].Time().UTC()
	if tracking != nil && tracking.CreatedAt != nil && tracking.CreatedAt.Before(entry) {
		entry = tracking.CreatedAt.UTC()
	}
	if prev != nil && prev.DataEntradaLead != nil && prev.DataEntradaLead.Before(entry) {
		entry = prev.DataEntradaLead.UTC()
	}
	return entry
}

func parseAnalysis(text string) (models.AnalysisResult, error) {
	var out models.AnalysisResult
	raw, err := tools.ExtractJSON(text)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, eris.Wrap(err, "decodificando análise")
	}

	out.TipoConversacao = canonical(out.TipoConversacao, []string{models.TIPO_VENDAS, models.TIPO_SUPORTE, models.TIPO_OUTRO}, models.TIPO_OUTRO)
	out.Temperatura = canonical(out.Temperatura, []string{models.TEMPERATURA_QUENTE, models.TEMPERATURA_MORNO, models.TEMPERATURA_FRIO}, models.TEMPERATURA_FRIO)
	out.FaseFunil = canonical(out.FaseFunil, append(append([]string{}, models.FunnelPhases...), models.FASE_PERDIDO), models.FASE_PRIMEIRO_CONTATO)
	out.Score = models.ClampScore(out.Score)
	return out, nil
}

func canonical(v string, options []string, fallback string) string {
	v = strings.TrimSpace(v)
	for _, o := range options {
		if strings.EqualFold(v, o) {
			return o
		}
	}
	return fallback
}
