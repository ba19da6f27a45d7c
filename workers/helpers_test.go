package workers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"acutis/config"
	"acutis/db"
	"acutis/models"
	"acutis/store"
	"acutis/tools"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
)

// t0 é uma quarta-feira, 10:00 em São Paulo.
var t0 = time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock(at time.Time) *fakeClock { return &fakeClock{now: at} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.advance(d)
	c.mu.Lock()
	c.slept = append(c.slept, d)
	c.mu.Unlock()
	return ctx.Err()
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeLLM responde com reply(prompt) e avança o relógio em cost por chamada.
type fakeLLM struct {
	clock   *fakeClock
	cost    time.Duration
	reply   func(prompt string) (string, error)
	prompts []string
}

func (f *fakeLLM) Complete(ctx context.Context, system, prompt string) (tools.Completion, error) {
	f.prompts = append(f.prompts, prompt)
	if f.clock != nil {
		f.clock.advance(f.cost)
	}
	text, err := f.reply(prompt)
	if err != nil {
		return tools.Completion{}, err
	}
	return tools.Completion{Text: text, PromptTokens: 120, OutputTokens: 40, TotalTokens: 160}, nil
}

func (f *fakeLLM) calls() int { return len(f.prompts) }

func staticLLM(text string) *fakeLLM {
	return &fakeLLM{reply: func(string) (string, error) { return text, nil }}
}

func failingLLM() *fakeLLM {
	return &fakeLLM{reply: func(string) (string, error) { return "", eris.New("quota excedida") }}
}

type fakeSender struct {
	sent []string
	fail map[string]bool
}

func (s *fakeSender) SendText(ctx context.Context, token, to, text string) error {
	if s.fail[to] {
		return eris.Errorf("falha ao enviar para %s", to)
	}
	s.sent = append(s.sent, to+"|"+text)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { gdb.Close() })
	return store.New(gdb)
}

func testPipeline() config.Pipeline {
	return config.DefaultPipeline()
}

func seedCompany(t *testing.T, st *store.Store, owner string, mutate ...func(*models.ConfigEmpresa)) models.ConfigEmpresa {
	t.Helper()
	e := models.ConfigEmpresa{
		Owner:        owner,
		NomeEmpresa:  "Empresa " + owner,
		Nicho:        "odontologia",
		Timezone:     "America/Sao_Paulo",
		GrupoAlertas: "120363-alertas@g.us",
		UazapiToken:  "tok-" + owner,
		Ativo:        true,
	}
	for _, m := range mutate {
		m(&e)
	}
	require.NoError(t, st.CreateCompany(&e))
	return e
}

// seedChat grava n mensagens alternando cliente/atendente, uma por minuto a partir de start.
func seedChat(t *testing.T, st *store.Store, chatID, owner string, start time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := st.SaveMessage(&models.MensagemCliente{
			MessageID:        chatID + "#" + string(rune('a'+i)),
			ChatID:           chatID,
			Owner:            owner,
			FromMe:           i%2 == 1,
			Texto:            "mensagem " + string(rune('a'+i)),
			Tipo:             "text",
			SenderName:       "Cliente",
			MessageTimestamp: start.Add(time.Duration(i) * time.Minute).UnixMilli(),
		})
		require.NoError(t, err)
	}
}

const noAlertJSON = `{"precisa_alerta": false, "tipo": "nenhum", "urgencia": "baixa", "motivo": "", "resumo": "conversa normal"}`
const alertJSON = "```json\n{\"precisa_alerta\": true, \"tipo\": \"pedido_humano\", \"urgencia\": \"alta\", \"motivo\": \"pediu gerente\", \"resumo\": \"cliente quer falar com gerente\"}\n```"

func analysisJSON(tipo string) string {
	return strings.ReplaceAll(`{
		"tipo_conversacao": "TIPO",
		"temperatura": "Quente",
		"fase_funil": "negociação",
		"score": 140,
		"resumo": "cliente negociando preço",
		"objecoes": ["Preço alto"],
		"desempenho": {"nota_atendimento": 8, "pontos_fortes": ["rápido"], "pontos_melhoria": []},
		"proximo_passo": "enviar proposta",
		"convertido": false
	}`, "TIPO", tipo)
}
