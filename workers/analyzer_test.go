package workers

import (
	"context"
	"strings"
	"testing"
	"time"

	"acutis/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzerPaidOriginForcesVendas(t *testing.T) {
	st := newTestStore(t)
	clock := newFakeClock(t0)
	company := seedCompany(t, st, "1")
	chat := "5511977776666@s.whatsapp.net"
	seedChat(t, st, chat, "1", t0.Add(-30*time.Minute), 4)
	tracked := t0.Add(-10 * time.Minute)
	require.NoError(t, st.SaveTracking(&models.LeadTracking{ChatID: chat, Owner: "1", Origem: models.ORIGEM_INSTAGRAM_ADS, CreatedAt: &tracked}))

	a := NewAnalyzer(st, staticLLM(analysisJSON("Suporte")), clock, testPipeline())
	res := a.AnalyzeChat(context.Background(), chat, company, false)
	require.Equal(t, STATUS_SUCCESS, res.Status, res.Message)
	assert.True(t, res.CalledLLM)

	saved, err := st.AnalysisFor(chat, "1")
	require.NoError(t, err)
	assert.Equal(t, models.TIPO_VENDAS, saved.TipoConversacao)
	assert.Equal(t, models.TIPO_VENDAS, saved.ResultadoIA.TipoConversacao)
	assert.Equal(t, models.ORIGEM_INSTAGRAM_ADS, saved.OrigemTracking)
	assert.Equal(t, models.ORIGEM_INSTAGRAM_ADS, saved.ResultadoIA.Origem)

	// normalização da resposta
	assert.Equal(t, models.TEMPERATURA_QUENTE, saved.Temperatura)
	assert.Equal(t, models.FASE_NEGOCIACAO, saved.FaseFunil)
	assert.Equal(t, 100, saved.Score)
	assert.Equal(t, []string{"Preço alto"}, saved.ResultadoIA.Objecoes)
	assert.Equal(t, 160, saved.ResultadoIA.Tokens.Total)

	// bookkeeping
	assert.Equal(t, chat+"#a", saved.PrimeiraMensagemID)
	assert.Equal(t, chat+"#d", saved.UltimaMensagemID)
	assert.Equal(t, t0.Add(-27*time.Minute).UnixMilli(), saved.UltimaMensagemTS)
	require.NotNil(t, saved.DataEntradaLead)
	assert.True(t, saved.DataEntradaLead.Equal(t0.Add(-30*time.Minute)))
	assert.Equal(t, 2, saved.ResultadoIA.Metricas.MensagensCliente)
	assert.Equal(t, 2, saved.ResultadoIA.Metricas.MensagensAtendente)
	assert.Equal(t, 1.0, saved.ResultadoIA.Metricas.TempoPrimeiraRespostaMin)
}

func TestAnalyzerOrganicKeepsModelType(t *testing.T) {
	st := newTestStore(t)
	company := seedCompany(t, st, "1")
	seedChat(t, st, "c@s.whatsapp.net", "1", t0.Add(-time.Hour), 3)

	a := NewAnalyzer(st, staticLLM(analysisJSON("suporte")), newFakeClock(t0), testPipeline())
	res := a.AnalyzeChat(context.Background(), "c@s.whatsapp.net", company, false)
	require.Equal(t, STATUS_SUCCESS, res.Status, res.Message)
	assert.Equal(t, models.ORIGEM_ORGANICO, res.Origem)

	saved, err := st.AnalysisFor("c@s.whatsapp.net", "1")
	require.NoError(t, err)
	assert.Equal(t, models.TIPO_SUPORTE, saved.TipoConversacao)
}

func TestAnalyzerDryRunDoesNotSave(t *testing.T) {
	st := newTestStore(t)
	company := seedCompany(t, st, "1")
	seedChat(t, st, "c@s.whatsapp.net", "1", t0.Add(-time.Hour), 3)
	require.NoError(t, st.SaveTracking(&models.LeadTracking{ChatID: "c@s.whatsapp.net", Owner: "1", Origem: models.ORIGEM_GOOGLE_ADS}))

	a := NewAnalyzer(st, staticLLM(analysisJSON("Outro")), newFakeClock(t0), testPipeline())
	res := a.AnalyzeChat(context.Background(), "c@s.whatsapp.net", company, true)
	require.Equal(t, STATUS_SUCCESS, res.Status)
	require.NotNil(t, res.Result)
	assert.Equal(t, models.TIPO_VENDAS, res.Result.TipoConversacao)

	_, err := st.AnalysisFor("c@s.whatsapp.net", "1")
	assert.Error(t, err)
}

func TestAnalyzerSkips(t *testing.T) {
	st := newTestStore(t)
	company := seedCompany(t, st, "1")
	llm := staticLLM(analysisJSON("Vendas"))
	a := NewAnalyzer(st, llm, newFakeClock(t0), testPipeline())

	res := a.AnalyzeChat(context.Background(), "vazio@s.whatsapp.net", company, false)
	assert.Equal(t, STATUS_SKIPPED, res.Status)

	seedChat(t, st, "antigo@s.whatsapp.net", "1", t0.Add(-40*24*time.Hour), 5)
	res = a.AnalyzeChat(context.Background(), "antigo@s.whatsapp.net", company, false)
	assert.Equal(t, STATUS_SKIPPED, res.Status)
	assert.Contains(t, res.Message, "janela")

	seedChat(t, st, "curto@s.whatsapp.net", "1", t0.Add(-time.Hour), 2)
	res = a.AnalyzeChat(context.Background(), "curto@s.whatsapp.net", company, false)
	assert.Equal(t, STATUS_SKIPPED, res.Status)

	assert.Equal(t, 0, llm.calls())
	assert.False(t, res.CalledLLM)
}

func TestAnalyzerOnlySendsNewMessages(t *testing.T) {
	st := newTestStore(t)
	company := seedCompany(t, st, "1")
	chat := "c@s.whatsapp.net"
	seedChat(t, st, chat, "1", t0.Add(-2*time.Hour), 4)
	llm := staticLLM(analysisJSON("Vendas"))
	clock := newFakeClock(t0)
	a := NewAnalyzer(st, llm, clock, testPipeline())

	require.Equal(t, STATUS_SUCCESS, a.AnalyzeChat(context.Background(), chat, company, false).Status)

	// só duas novas: abaixo do mínimo
	for i, id := range []string{"n1", "n2", "n3"} {
		if i == 2 {
			res := a.AnalyzeChat(context.Background(), chat, company, false)
			assert.Equal(t, STATUS_SKIPPED, res.Status)
		}
		_, err := st.SaveMessage(&models.MensagemCliente{MessageID: id, ChatID: chat, Owner: "1", Texto: "nova " + id,
			MessageTimestamp: t0.Add(-time.Duration(30-i) * time.Minute).UnixMilli()})
		require.NoError(t, err)
	}

	res := a.AnalyzeChat(context.Background(), chat, company, false)
	require.Equal(t, STATUS_SUCCESS, res.Status, res.Message)
	last := llm.prompts[len(llm.prompts)-1]
	assert.Contains(t, last, "nova n1")
	assert.Contains(t, last, "nova n3")
	assert.NotContains(t, last, "mensagem a")
	assert.Contains(t, last, "Análise anterior")

	saved, err := st.AnalysisFor(chat, "1")
	require.NoError(t, err)
	assert.Equal(t, "n3", saved.UltimaMensagemID)
	assert.Equal(t, chat+"#a", saved.PrimeiraMensagemID)
	assert.True(t, saved.DataEntradaLead.Equal(t0.Add(-2*time.Hour)))
}

func TestAnalyzerReportsLLMErrors(t *testing.T) {
	st := newTestStore(t)
	company := seedCompany(t, st, "1")
	seedChat(t, st, "c@s.whatsapp.net", "1", t0.Add(-time.Hour), 3)

	res := NewAnalyzer(st, failingLLM(), newFakeClock(t0), testPipeline()).AnalyzeChat(context.Background(), "c@s.whatsapp.net", company, false)
	assert.Equal(t, STATUS_ERROR, res.Status)
	assert.True(t, res.CalledLLM)
	assert.True(t, strings.Contains(res.Message, "quota"))

	res = NewAnalyzer(st, staticLLM("não sei"), newFakeClock(t0), testPipeline()).AnalyzeChat(context.Background(), "c@s.whatsapp.net", company, false)
	assert.Equal(t, STATUS_ERROR, res.Status)
}
