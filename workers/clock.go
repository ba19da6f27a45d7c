package workers

import (
	"context"
	"time"

	"acutis/tools"
)

// Clock é injetado nos loops com orçamento de tempo para que o corte seja testável.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LLM é o que o pipeline precisa do provedor de IA.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (tools.Completion, error)
}

// Sender entrega mensagens de WhatsApp usando o token da instância da empresa.
type Sender interface {
	SendText(ctx context.Context, token, to, text string) error
}
