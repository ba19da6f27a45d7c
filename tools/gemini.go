package tools

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Completion é a resposta de uma chamada não-streaming, com o consumo de tokens.
type Completion struct {
	Text         string
	PromptTokens int
	OutputTokens int
	TotalTokens  int
}

// ChatMessage é um turno do assistente de /api/chat. Role: "user" ou "assistant".
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Gemini embrulha o client do generative-ai-go. Um GenerativeModel novo é criado
// por chamada porque a system instruction muda por tenant.
type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, eris.New("GEMINI_API_KEY não configurada")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "criando cliente gemini")
	}
	return &Gemini{client: client, model: model, temperature: 0.3}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) generativeModel(system string, jsonOutput bool) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(g.temperature)
	if system != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if jsonOutput {
		m.ResponseMIMEType = "application/json"
	}
	return m
}

// Complete pede uma resposta JSON ao modelo.
func (g *Gemini) Complete(ctx context.Context, system, prompt string) (Completion, error) {
	resp, err := g.generativeModel(system, true).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Completion{}, eris.Wrap(err, "gemini generate")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Completion{}, eris.New("gemini sem candidatos na resposta")
	}

	out := Completion{Text: partsText(resp.Candidates[0].Content.Parts)}
	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	if strings.TrimSpace(out.Text) == "" {
		return out, eris.New("gemini devolveu resposta vazia")
	}
	return out, nil
}

// Stream conversa com o modelo e entrega cada pedaço de texto a onChunk.
// O último item de history é a pergunta atual.
func (g *Gemini) Stream(ctx context.Context, system string, history []ChatMessage, onChunk func(string) error) error {
	if len(history) == 0 {
		return eris.New("conversa vazia")
	}

	cs := g.generativeModel(system, false).StartChat()
	for _, m := range history[:len(history)-1] {
		role := "user"
		if m.Role == "assistant" || m.Role == "model" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}

	it := cs.SendMessageStream(ctx, genai.Text(history[len(history)-1].Content))
	for {
		resp, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "gemini stream")
		}
		for _, c := range resp.Candidates {
			if c.Content == nil {
				continue
			}
			if text := partsText(c.Content.Parts); text != "" {
				if err := onChunk(text); err != nil {
					return err
				}
			}
		}
	}
}

func partsText(parts []genai.Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// ExtractJSON recorta o objeto JSON entre a primeira '{' e a última '}'.
// O modelo às vezes embrulha a resposta em ```json ... ```.
func ExtractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", eris.Errorf("resposta sem JSON: %.80q", text)
	}
	return text[start : end+1], nil
}
