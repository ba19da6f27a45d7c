package controllers

import (
	"strings"
	"testing"
	"time"

	"acutis/models"
	"acutis/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	token, err := signHS256JWT("segredo", jwtClaims{Sub: 7, Email: "a@b.com", Iat: now.Unix(), Exp: now.Add(time.Hour).Unix()})
	require.NoError(t, err)

	claims, ok := parseAndVerifyJWT(token, "segredo", now)
	require.True(t, ok)
	assert.Equal(t, int64(7), claims.Sub)
	assert.Equal(t, "a@b.com", claims.Email)

	_, ok = parseAndVerifyJWT(token, "outro", now)
	assert.False(t, ok)

	_, ok = parseAndVerifyJWT(token, "segredo", now.Add(2*time.Hour))
	assert.False(t, ok, "expirado")

	parts := strings.Split(token, ".")
	_, ok = parseAndVerifyJWT(parts[0]+"."+parts[1], "segredo", now)
	assert.False(t, ok)
}

func TestDetectOrigin(t *testing.T) {
	cases := []struct {
		name     string
		msg      UazapiMessage
		origem   string
		campanha string
	}{
		{"sem anúncio", UazapiMessage{Text: "oi"}, models.ORIGEM_ORGANICO, ""},
		{"gclid no texto", UazapiMessage{Text: "vim do site ?gclid=abc"}, models.ORIGEM_GOOGLE_ADS, ""},
		{"instagram", adMessage(AdReferral{SourceApp: "instagram", Title: "Promo"}), models.ORIGEM_INSTAGRAM_ADS, "Promo"},
		{"facebook usa sourceId", adMessage(AdReferral{SourceApp: "facebook", SourceID: "123"}), models.ORIGEM_FACEBOOK_ADS, "123"},
		{"url do google", adMessage(AdReferral{SourceURL: "https://ads.google.com/x"}), models.ORIGEM_GOOGLE_ADS, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			origem, campanha := detectOrigin(tc.msg)
			assert.Equal(t, tc.origem, origem)
			assert.Equal(t, tc.campanha, campanha)
		})
	}
}

func adMessage(ad AdReferral) UazapiMessage {
	var m UazapiMessage
	m.Content.ContextInfo.ExternalAdReply = &ad
	return m
}

func TestMessageKindAndTimestamp(t *testing.T) {
	assert.Equal(t, "text", messageKind("Conversation"))
	assert.Equal(t, "text", messageKind("ExtendedTextMessage"))
	assert.Equal(t, "text", messageKind(""))
	assert.Equal(t, "image", messageKind("ImageMessage"))
	assert.Equal(t, "sticker", messageKind("sticker"))

	now := time.UnixMilli(1760000000123)
	assert.Equal(t, int64(1760000000000), timestampMillis(1760000000, now))
	assert.Equal(t, int64(1760000000456), timestampMillis(1760000000456, now))
	assert.Equal(t, now.UnixMilli(), timestampMillis(0, now))
}

func TestCleanHistory(t *testing.T) {
	in := []tools.ChatMessage{
		{Role: "assistant", Content: "olá"},
		{Role: "USER", Content: "  "},
		{Role: "qualquer", Content: " quanto vendemos? "},
	}
	out := cleanHistory(in)
	require.Len(t, out, 2)
	assert.Equal(t, tools.ChatMessage{Role: "user", Content: "quanto vendemos?"}, out[1])

	long := make([]tools.ChatMessage, CHAT_MAX_MESSAGES+5)
	for i := range long {
		long[i] = tools.ChatMessage{Role: "user", Content: "m"}
	}
	assert.Len(t, cleanHistory(long), CHAT_MAX_MESSAGES)
}

func TestOwnerLimiter(t *testing.T) {
	l := newOwnerLimiter(time.Hour, 2)
	assert.True(t, l.Allow("1"))
	assert.True(t, l.Allow("1"))
	assert.False(t, l.Allow("1"))
	assert.True(t, l.Allow("2"), "limite é por owner")
}

func TestEmpresaInputFields(t *testing.T) {
	str := func(s string) *string { return &s }

	fields, msg := EmpresaInput{NomeEmpresa: str(" Clínica "), AnaliseOrigemFilter: str("pago")}.fields()
	require.Empty(t, msg)
	assert.Equal(t, "Clínica", fields["nome_empresa"])
	assert.Equal(t, models.ORIGEM_FILTER_TRAFEGO_PAGO, fields["analise_origem_filter"])
	assert.NotContains(t, fields, "timezone")

	_, msg = EmpresaInput{NomeEmpresa: str(" ")}.fields()
	assert.NotEmpty(t, msg)
	_, msg = EmpresaInput{GrupoAlertas: str("5511999")}.fields()
	assert.Contains(t, msg, "@g.us")
	_, msg = EmpresaInput{Timezone: str("Marte/Base")}.fields()
	assert.Contains(t, msg, "timezone")
	_, msg = EmpresaInput{HorarioFuncionamento: &models.BusinessHours{"xyz": {}}}.fields()
	assert.NotEmpty(t, msg)

	fields, msg = EmpresaInput{GrupoAlertas: str("")}.fields()
	require.Empty(t, msg)
	assert.Equal(t, "", fields["grupo_alertas"], "vazio desliga o grupo")
}
