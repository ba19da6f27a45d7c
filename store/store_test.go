package store_test

import (
	"testing"
	"time"

	"acutis/db"
	"acutis/models"
	"acutis/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	gdb, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { gdb.Close() })
	return store.New(gdb)
}

var t0 = time.Date(2026, 10, 14, 13, 0, 0, 0, time.UTC)

func addMessage(t *testing.T, st *store.Store, id, chatID, owner string, fromMe bool, at time.Time) {
	t.Helper()
	_, err := st.SaveMessage(&models.MensagemCliente{
		MessageID:        id,
		ChatID:           chatID,
		Owner:            owner,
		FromMe:           fromMe,
		Texto:            "mensagem " + id,
		Tipo:             "text",
		MessageTimestamp: at.UnixMilli(),
	})
	require.NoError(t, err)
}

func TestUpsertPendingDebounce(t *testing.T) {
	st := newStore(t)
	chat := "5511999@s.whatsapp.net"

	require.NoError(t, st.UpsertPending(chat, "123", t0.Add(60*time.Second), t0))
	require.NoError(t, st.UpsertPending(chat, "123", t0.Add(90*time.Second), t0.Add(30*time.Second)))

	n, err := st.CountPending()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	row, err := st.GetPending(chat, "123")
	require.NoError(t, err)
	assert.True(t, row.AgendadoPara.Equal(t0.Add(90*time.Second)), "agendado_para = %s", row.AgendadoPara)
	assert.False(t, row.Processado)

	// ainda não venceu
	due, err := st.DuePending(t0.Add(60*time.Second), 5)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = st.DuePending(t0.Add(95*time.Second), 5)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, chat, due[0].ChatID)
}

func TestUpsertPendingResetsProcessedRow(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.UpsertPending("a@s.whatsapp.net", "1", t0, t0))
	row, err := st.GetPending("a@s.whatsapp.net", "1")
	require.NoError(t, err)

	outcome := models.AlertOutcome{Status: models.OUTCOME_CLASSIFIED, Alertado: true, ProcessadoEm: t0}
	require.NoError(t, st.MarkPendingProcessed(row.ID, outcome, t0))

	row, err = st.GetPending("a@s.whatsapp.net", "1")
	require.NoError(t, err)
	assert.True(t, row.Processado)
	assert.True(t, row.ResultadoAlerta.Alertado)

	alerts, err := st.AlertsSince("1", t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, alerts, 1)

	require.NoError(t, st.UpsertPending("a@s.whatsapp.net", "1", t0.Add(time.Hour), t0.Add(time.Minute)))
	row, err = st.GetPending("a@s.whatsapp.net", "1")
	require.NoError(t, err)
	assert.False(t, row.Processado)
	assert.True(t, row.ResultadoAlerta.IsZero())
	assert.Nil(t, row.ProcessadoEm)
}

func TestDuePendingOrderAndLimit(t *testing.T) {
	st := newStore(t)
	for i, chat := range []string{"c@x", "a@x", "b@x"} {
		due := t0.Add(time.Duration(3-i) * time.Second)
		require.NoError(t, st.UpsertPending(chat, "1", due, t0))
	}
	rows, err := st.DuePending(t0.Add(time.Minute), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b@x", rows[0].ChatID)
	assert.Equal(t, "a@x", rows[1].ChatID)
}

func TestMessagesAndTracking(t *testing.T) {
	st := newStore(t)
	for i := 0; i < 5; i++ {
		addMessage(t, st, string(rune('a'+i)), "chat@s.whatsapp.net", "1", i%2 == 1, t0.Add(time.Duration(i)*time.Minute))
	}
	created, err := st.SaveMessage(&models.MensagemCliente{MessageID: "a", ChatID: "chat@s.whatsapp.net", Owner: "1"})
	require.NoError(t, err)
	assert.False(t, created)

	recent, err := st.RecentMessages("chat@s.whatsapp.net", "1", 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "c", recent[0].MessageID)
	assert.Equal(t, "e", recent[2].MessageID)

	require.NoError(t, st.SaveTracking(&models.LeadTracking{ChatID: "chat@s.whatsapp.net", Owner: "1", Origem: models.ORIGEM_FACEBOOK_ADS}))
	require.NoError(t, st.SaveTracking(&models.LeadTracking{ChatID: "chat@s.whatsapp.net", Owner: "1", Origem: models.ORIGEM_ORGANICO}))
	tr, err := st.TrackingFor("chat@s.whatsapp.net", "1")
	require.NoError(t, err)
	assert.Equal(t, models.ORIGEM_FACEBOOK_ADS, tr.Origem)

	_, err = st.TrackingFor("outro@s.whatsapp.net", "1")
	assert.True(t, store.IsNotFound(err))
}

func TestPendingChats(t *testing.T) {
	st := newStore(t)
	addMessage(t, st, "1", "novo@s.whatsapp.net", "1", false, t0)
	addMessage(t, st, "2", "analisado@s.whatsapp.net", "1", false, t0.Add(time.Minute))
	addMessage(t, st, "3", "grupo@g.us", "1", false, t0.Add(2*time.Minute))
	addMessage(t, st, "4", "atualizado@s.whatsapp.net", "1", false, t0.Add(3*time.Minute))
	addMessage(t, st, "5", "atualizado@s.whatsapp.net", "1", true, t0.Add(10*time.Minute))
	addMessage(t, st, "6", "outro-owner@s.whatsapp.net", "2", false, t0)

	require.NoError(t, st.SaveAnalysis(&models.ConversationAnalysis{
		ChatID: "analisado@s.whatsapp.net", Owner: "1",
		UltimaMensagemID: "2", UltimaMensagemTS: t0.Add(time.Minute).UnixMilli(),
	}))
	require.NoError(t, st.SaveAnalysis(&models.ConversationAnalysis{
		ChatID: "atualizado@s.whatsapp.net", Owner: "1",
		UltimaMensagemID: "4", UltimaMensagemTS: t0.Add(3 * time.Minute).UnixMilli(),
	}))

	chats, err := st.PendingChats("1", t0.Add(-time.Hour).UnixMilli())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "atualizado@s.whatsapp.net", chats[0].ChatID)
	assert.Equal(t, t0.Add(10*time.Minute).UnixMilli(), chats[0].LastMessageTS)
	assert.Equal(t, "novo@s.whatsapp.net", chats[1].ChatID)
}

func TestSaveAnalysisOverwrites(t *testing.T) {
	st := newStore(t)
	a := &models.ConversationAnalysis{ChatID: "c", Owner: "1", PrimeiraMensagemID: "m1", Score: 10,
		ResultadoIA: models.AnalysisResult{Resumo: "primeira", Objecoes: []string{"preço"}}}
	require.NoError(t, st.SaveAnalysis(a))

	b := &models.ConversationAnalysis{ChatID: "c", Owner: "1", Score: 80,
		ResultadoIA: models.AnalysisResult{Resumo: "segunda"}}
	require.NoError(t, st.SaveAnalysis(b))

	got, err := st.AnalysisFor("c", "1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, 80, got.Score)
	assert.Equal(t, "segunda", got.ResultadoIA.Resumo)
	assert.Equal(t, "m1", got.PrimeiraMensagemID)
}

func TestCompaniesAndGestores(t *testing.T) {
	st := newStore(t)
	require.NoError(t, st.CreateCompany(&models.ConfigEmpresa{Owner: "1", NomeEmpresa: "Loja", Ativo: true}))
	require.NoError(t, st.CreateCompany(&models.ConfigEmpresa{Owner: "2", NomeEmpresa: "Inativa", Ativo: false}))

	active, err := st.ActiveCompanies()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "1", active[0].Owner)

	assert.ErrorIs(t, st.UpdateCompany("999", map[string]any{"nicho": "x"}), store.ErrNotFound)
	require.NoError(t, st.UpdateCompany("1", map[string]any{"nicho": "moda"}))
	e, err := st.CompanyByOwner("1")
	require.NoError(t, err)
	assert.Equal(t, "moda", e.Nicho)

	require.NoError(t, st.CreateGestor(&models.Gestor{Owner: "1", Nome: "Ana", Telefone: "11999998888", RecebeAlertas: true, Ativo: true}))
	require.NoError(t, st.CreateGestor(&models.Gestor{Owner: "1", Nome: "Bia", Telefone: "11999997777", RecebeAlertas: false, Ativo: true}))
	require.NoError(t, st.CreateGestor(&models.Gestor{Owner: "1", Nome: "Caio", Telefone: "11999996666", RecebeAlertas: true, Ativo: false}))

	recipients, err := st.AlertRecipients("1")
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, "Ana", recipients[0].Nome)

	require.NoError(t, st.DeleteGestor(recipients[0].ID))
	assert.ErrorIs(t, st.DeleteGestor(recipients[0].ID), store.ErrNotFound)
}
