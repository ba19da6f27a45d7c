package tools

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// Uazapi envia mensagens pelo gateway UazAPI. Cada empresa tem seu próprio token de instância.
type Uazapi struct {
	http *resty.Client
}

func NewUazapi(baseURL string) *Uazapi {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	c.OnError(func(req *resty.Request, err error) {
		if v, ok := err.(*resty.ResponseError); ok {
			log.Debug().Str("response", v.Response.String()).Msg("uazapi error")
		}
	})
	return &Uazapi{http: c}
}

// SendText manda texto para um número ou grupo (chatid com @g.us).
func (u *Uazapi) SendText(ctx context.Context, token, to, text string) error {
	if strings.TrimSpace(token) == "" {
		return eris.New("empresa sem token uazapi")
	}
	number := to
	if !IsGroupChat(to) {
		phone, err := NormalizeWhatsAppTo(ChatPhone(to))
		if err != nil {
			return err
		}
		number = phone
	}

	resp, err := u.http.R().
		SetContext(ctx).
		SetHeader("token", token).
		SetBody(map[string]any{
			"number": number,
			"text":   text,
		}).
		Post("/send/text")
	if err != nil {
		return eris.Wrapf(err, "uazapi send/text para %s", number)
	}
	if resp.IsError() {
		return eris.Errorf("uazapi error: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	return nil
}
