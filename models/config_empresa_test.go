package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func comercial() BusinessHours {
	return BusinessHours{
		"seg": {Ativo: true, Inicio: "08:00", Fim: "18:00"},
		"ter": {Ativo: true, Inicio: "08:00", Fim: "18:00"},
		"qua": {Ativo: true, Inicio: "08:00", Fim: "18:00"},
		"qui": {Ativo: true, Inicio: "08:00", Fim: "18:00"},
		"sex": {Ativo: true, Inicio: "08:00", Fim: "17:00"},
		"sab": {Ativo: false},
	}
}

func TestBusinessHoursIsOpen(t *testing.T) {
	b := comercial()
	// 2026-10-12 é segunda-feira
	assert.True(t, b.IsOpen(time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC)))
	assert.True(t, b.IsOpen(time.Date(2026, 10, 12, 17, 59, 0, 0, time.UTC)))
	assert.False(t, b.IsOpen(time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC)))
	assert.False(t, b.IsOpen(time.Date(2026, 10, 12, 7, 59, 0, 0, time.UTC)))
	assert.False(t, b.IsOpen(time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)), "sábado fechado")
	assert.False(t, b.IsOpen(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)), "domingo ausente")

	assert.True(t, BusinessHours(nil).IsOpen(time.Date(2026, 10, 18, 3, 0, 0, 0, time.UTC)))
}

func TestBusinessHoursNextOpening(t *testing.T) {
	b := comercial()
	friNight := time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), b.NextOpening(friNight))

	monEarly := time.Date(2026, 10, 12, 6, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC), b.NextOpening(monEarly))

	open := time.Date(2026, 10, 12, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, open, b.NextOpening(open))
}

func TestBusinessHoursValidate(t *testing.T) {
	require.NoError(t, comercial().Validate())
	assert.Error(t, BusinessHours{"xyz": {Ativo: true, Inicio: "08:00", Fim: "09:00"}}.Validate())
	assert.Error(t, BusinessHours{"seg": {Ativo: true, Inicio: "18:00", Fim: "08:00"}}.Validate())
	assert.Error(t, BusinessHours{"seg": {Ativo: true, Inicio: "8h", Fim: "18:00"}}.Validate())
}

func TestBusinessHoursDescribe(t *testing.T) {
	d := comercial().Describe()
	assert.Contains(t, d, "seg 08:00-18:00")
	assert.Contains(t, d, "sab fechado")
	assert.Contains(t, d, "dom fechado")
}

func TestNormalizeOrigemFilter(t *testing.T) {
	assert.Equal(t, ORIGEM_FILTER_TRAFEGO_PAGO, NormalizeOrigemFilter(" Trafego_Pago "))
	assert.Equal(t, ORIGEM_FILTER_ORGANICO, NormalizeOrigemFilter("organic"))
	assert.Equal(t, ORIGEM_FILTER_TODOS, NormalizeOrigemFilter(""))
}

func TestAlertOutcomeColumnRoundTrip(t *testing.T) {
	var zero AlertOutcome
	v, err := zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	src := SkippedOutcome(REASON_TOO_FEW_MESSAGES, 2, at)
	v, err = src.Value()
	require.NoError(t, err)

	var got AlertOutcome
	require.NoError(t, got.Scan([]byte(v.(string))))
	assert.Equal(t, OUTCOME_SKIPPED, got.Status)
	assert.Equal(t, REASON_TOO_FEW_MESSAGES, got.Reason)
	assert.Nil(t, got.Classificacao)
	assert.True(t, got.ProcessadoEm.Equal(at))

	require.NoError(t, got.Scan(nil))
	assert.True(t, got.IsZero())
}
