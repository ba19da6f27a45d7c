package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"acutis/config"
	"acutis/controllers"
	"acutis/db"
	"acutis/models"
	"acutis/store"
	"acutis/tools"
	"acutis/workers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testCronSecret = "segredo-cron"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.advance(d)
	return ctx.Err()
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeLLM struct {
	mu    sync.Mutex
	reply string
	calls int
}

func (f *fakeLLM) Complete(ctx context.Context, system, prompt string) (tools.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return tools.Completion{Text: f.reply, TotalTokens: 10}, nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *fakeSender) SendText(ctx context.Context, token, to, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return nil
}

type fakeAssistant struct {
	chunks []string
	system string
}

func (a *fakeAssistant) Stream(ctx context.Context, system string, history []tools.ChatMessage, onChunk func(string) error) error {
	a.system = system
	for _, c := range a.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

type testEnv struct {
	t         *testing.T
	st        *store.Store
	clock     *fakeClock
	llm       *fakeLLM
	sender    *fakeSender
	assistant *fakeAssistant
	engine    *gin.Engine
}

func newEnv(t *testing.T, cronSecret string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { gdb.Close() })

	env := &testEnv{
		t:         t,
		st:        store.New(gdb),
		clock:     &fakeClock{now: time.Now().UTC().Truncate(time.Second)},
		llm:       &fakeLLM{reply: `{"precisa_alerta": false, "tipo": "nenhum"}`},
		sender:    &fakeSender{},
		assistant: &fakeAssistant{chunks: []string{"Olá", ", tudo certo"}},
	}

	pipeline := config.DefaultPipeline()
	companies := workers.NewCompanyCache(env.st, time.Minute)
	orchestrator := workers.NewOrchestrator(env.st, workers.NewAnalyzer(env.st, env.llm, env.clock, pipeline), env.clock, pipeline)
	ctl := controllers.New(controllers.Deps{
		Store:     env.st,
		Debouncer: workers.NewDebouncer(env.st, env.clock, pipeline.Debounce()),
		Worker:    workers.NewPendingWorker(env.st, companies, env.llm, env.sender, env.clock, pipeline),
		Cron:      orchestrator,
		Companies: companies,
		Assistant: env.assistant,
		Clock:     env.clock,
		JwtSecret: "jwt-teste",
	})

	var cfg config.Configuration
	cfg.CORSOrigins = []string{"http://localhost:3000"}
	cfg.Security.CronSecret = cronSecret

	env.engine = gin.New()
	Initialize(env.engine, cfg, ctl)
	return env
}

// do faz a requisição; headers em pares chave/valor.
func (e *testEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) cron(method, path string, body any) *httptest.ResponseRecorder {
	return e.do(method, path, body, "Authorization", "Bearer "+testCronSecret)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) company(owner string, mutate ...func(*models.ConfigEmpresa)) {
	e.t.Helper()
	c := models.ConfigEmpresa{
		Owner:        owner,
		NomeEmpresa:  "Empresa " + owner,
		Timezone:     "America/Sao_Paulo",
		GrupoAlertas: "120363-alertas@g.us",
		UazapiToken:  "tok",
		Ativo:        true,
	}
	for _, m := range mutate {
		m(&c)
	}
	require.NoError(e.t, e.st.CreateCompany(&c))
}

func (e *testEnv) messages(chatID, owner string, n int) {
	e.t.Helper()
	start := e.clock.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		_, err := e.st.SaveMessage(&models.MensagemCliente{
			MessageID:        chatID + "#" + string(rune('a'+i)),
			ChatID:           chatID,
			Owner:            owner,
			FromMe:           i%2 == 1,
			Texto:            "oi",
			Tipo:             "text",
			MessageTimestamp: start.Add(time.Duration(i) * time.Minute).UnixMilli(),
		})
		require.NoError(e.t, err)
	}
}

func (e *testEnv) analysis(chatID, owner, tipo, fase string, age time.Duration) {
	e.t.Helper()
	at := e.clock.Now().Add(-age)
	require.NoError(e.t, e.st.SaveAnalysis(&models.ConversationAnalysis{
		ChatID:          chatID,
		Owner:           owner,
		TipoConversacao: tipo,
		Temperatura:     models.TEMPERATURA_QUENTE,
		FaseFunil:       fase,
		Score:           80,
		ResultadoIA:     models.AnalysisResult{TipoConversacao: tipo, Objecoes: []string{"Preço"}},
		CreatedAt:       &at,
		UpdatedAt:       &at,
	}))
}

// login cria o usuário e devolve o token de sessão.
func (e *testEnv) login(email string, admin bool, owner string) string {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	require.NoError(e.t, err)
	require.NoError(e.t, e.st.CreateUsuario(&models.Usuario{
		Nome: "Teste", Email: email, Senha: string(hash), Admin: admin, Owner: owner, Ativo: true,
	}))

	w := e.do(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "senha": "senha123"})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(e.t, w)["token"].(string)
	require.NotEmpty(e.t, token)
	return token
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}
