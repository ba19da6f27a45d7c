package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"acutis/store"

	"github.com/gin-gonic/gin"
)

func ParamID(c *gin.Context, name string) (int64, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, name+" inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// respondStoreError traduz erro do store: não encontrado vira 404, o resto 500 com a mensagem crua.
func respondStoreError(c *gin.Context, err error) {
	if store.IsNotFound(err) {
		RespondError(c, "registro não encontrado", http.StatusNotFound)
		return
	}
	RespondError(c, err.Error(), http.StatusInternalServerError)
}

func queryInt(c *gin.Context, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// parseDateRange lê from/to (YYYY-MM-DD, dias inteiros no fuso do tenant) e devolve
// o intervalo [from, to+1d). Padrão: últimos 7 dias.
func parseDateRange(c *gin.Context, now time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	today := now.In(loc)
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	from := today.AddDate(0, 0, -6)
	to := today

	fromStr := strings.TrimSpace(c.Query("from"))
	toStr := strings.TrimSpace(c.Query("to"))

	var err error
	if fromStr != "" {
		from, err = time.ParseInLocation("2006-01-02", fromStr, loc)
		if err != nil {
			RespondError(c, "from inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation("2006-01-02", toStr, loc)
		if err != nil {
			RespondError(c, "to inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if from.After(to) {
		RespondError(c, "from não pode ser maior que to", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to.AddDate(0, 0, 1), true
}

// bindOptionalJSON aceita corpo vazio; corpo presente e inválido é erro.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		RespondFailure(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
