package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUazapiSendText(t *testing.T) {
	var got map[string]string
	var token string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/text", r.URL.Path)
		token = r.Header.Get("token")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	u := NewUazapi(srv.URL + "/")
	require.NoError(t, u.SendText(context.Background(), "tok-1", "5511999998888@s.whatsapp.net", "olá"))
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, "5511999998888", got["number"])
	assert.Equal(t, "olá", got["text"])

	require.NoError(t, u.SendText(context.Background(), "tok-1", "120363@g.us", "grupo"))
	assert.Equal(t, "120363@g.us", got["number"])
}

func TestUazapiSendTextErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"instance disconnected"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	u := NewUazapi(srv.URL)
	assert.Error(t, u.SendText(context.Background(), "tok", "5511999998888", "x"))
	assert.Error(t, u.SendText(context.Background(), "", "5511999998888", "x"))
}
