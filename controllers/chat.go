package controllers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"acutis/dashboard"
	"acutis/models"
	"acutis/tools"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const CHAT_RATE_EVERY = 3 * time.Second
const CHAT_RATE_BURST = 3
const CHAT_MAX_MESSAGES = 40

// Assistant é o modelo com streaming usado no /api/chat (tools.Gemini em produção).
type Assistant interface {
	Stream(ctx context.Context, system string, history []tools.ChatMessage, onChunk func(string) error) error
}

// ownerLimiter mantém um rate.Limiter por owner; limiters ociosos expiram do cache.
type ownerLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	every    time.Duration
	burst    int
}

func newOwnerLimiter(every time.Duration, burst int) *ownerLimiter {
	return &ownerLimiter{limiters: cache.New(10*time.Minute, 20*time.Minute), every: every, burst: burst}
}

func (l *ownerLimiter) Allow(owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.limiters.Get(owner); ok {
		lim := v.(*rate.Limiter)
		l.limiters.SetDefault(owner, lim)
		return lim.Allow()
	}
	lim := rate.NewLimiter(rate.Every(l.every), l.burst)
	l.limiters.SetDefault(owner, lim)
	return lim.Allow()
}

type ChatRequest struct {
	Messages    []tools.ChatMessage `json:"messages"`
	OwnerID     string              `json:"ownerId"`
	NomeEmpresa string              `json:"nomeEmpresa"`
}

// POST /api/chat
// Responde em text/plain, em pedaços, conforme o modelo gera.
func (ctl *Controller) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	history := cleanHistory(req.Messages)
	if len(history) == 0 || history[len(history)-1].Role != "user" {
		RespondError(c, "messages precisa terminar com uma mensagem do usuário", http.StatusBadRequest)
		return
	}
	owner, ok := resolveOwner(c, req.OwnerID)
	if !ok {
		return
	}
	if !ctl.limiter.Allow(owner) {
		RespondError(c, "muitas requisições, tente novamente em alguns segundos", http.StatusTooManyRequests)
		return
	}
	if ctl.assistant == nil {
		RespondError(c, "assistente não configurado", http.StatusServiceUnavailable)
		return
	}

	company, err := ctl.companies.Get(owner)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	now := ctl.clock.Now()
	items, err := ctl.store.AnalysesBetween(owner, now.Add(-ctl.lookback), now)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	nome := strings.TrimSpace(req.NomeEmpresa)
	if nome == "" {
		nome = company.NomeEmpresa
	}
	system := assistantPrompt(nome, *company, items, ctl.lookback)

	started := false
	err = ctl.assistant.Stream(c.Request.Context(), system, history, func(chunk string) error {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("owner", owner).Msg("chat: falha no streaming")
		if !started {
			RespondError(c, "falha ao consultar o assistente: "+err.Error(), http.StatusBadGateway)
		}
		return
	}
	if !started {
		c.String(http.StatusOK, "")
	}
}

// cleanHistory descarta mensagens vazias e mantém só as últimas CHAT_MAX_MESSAGES.
func cleanHistory(msgs []tools.ChatMessage) []tools.ChatMessage {
	var out []tools.ChatMessage
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "assistant" && role != "model" {
			role = "user"
		}
		out = append(out, tools.ChatMessage{Role: role, Content: content})
	}
	if len(out) > CHAT_MAX_MESSAGES {
		out = out[len(out)-CHAT_MAX_MESSAGES:]
	}
	return out
}

func assistantPrompt(nome string, company models.ConfigEmpresa, items []models.ConversationAnalysis, window time.Duration) string {
	k := dashboard.ComputeKPIs(items)
	funil := dashboard.BuildFunnel(dashboard.Sales(items))
	objecoes := dashboard.RankObjections(items, 5)

	var b strings.Builder
	fmt.Fprintf(&b, "Você é o assistente comercial do Acutis para a empresa %s", nome)
	if company.Nicho != "" {
		fmt.Fprintf(&b, " (nicho: %s)", company.Nicho)
	}
	b.WriteString(". Responda em português, de forma objetiva, usando só os dados abaixo. ")
	b.WriteString("Se a pergunta não puder ser respondida com eles, diga isso.\n\n")

	fmt.Fprintf(&b, "Dados dos últimos %d dias:\n", int(window.Hours()/24))
	fmt.Fprintf(&b, "- Conversas analisadas: %d (vendas %d, suporte %d, outros %d)\n", k.Total, k.Vendas, k.Suporte, k.Outros)
	fmt.Fprintf(&b, "- Temperatura: %d quentes, %d mornos, %d frios; score médio %.1f\n", k.Quentes, k.Mornos, k.Frios, k.ScoreMedio)
	fmt.Fprintf(&b, "- Convertidos: %d (taxa %.1f%% sobre vendas)\n", k.Convertidos, k.TaxaConversao)
	fmt.Fprintf(&b, "- Tempo médio de primeira resposta: %.1f min; sem resposta: %d\n", k.TempoPrimeiraRespostaMin, k.SemResposta)
	if k.NotaMediaAtendimento > 0 {
		fmt.Fprintf(&b, "- Nota média do atendimento: %.1f\n", k.NotaMediaAtendimento)
	}
	origens := make([]string, 0, len(k.PorOrigem))
	for origem := range k.PorOrigem {
		origens = append(origens, origem)
	}
	sort.Strings(origens)
	for _, origem := range origens {
		fmt.Fprintf(&b, "- Origem %s: %d\n", origem, k.PorOrigem[origem])
	}

	b.WriteString("\nFunil de vendas (atual / alcançaram):\n")
	for _, s := range funil.Stages {
		fmt.Fprintf(&b, "- %s: %d / %d\n", s.Fase, s.Atual, s.Alcancaram)
	}
	fmt.Fprintf(&b, "- Perdidos: %d\n", funil.Perdidos)

	if len(objecoes) > 0 {
		b.WriteString("\nPrincipais objeções:\n")
		for _, o := range objecoes {
			fmt.Fprintf(&b, "- %s (%d)\n", o.Texto, o.Count)
		}
	}
	return b.String()
}
