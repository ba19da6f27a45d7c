package controllers

import (
	"net/http"
	"strings"
	"time"

	"acutis/models"
	"acutis/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// EmpresaInput aceita atualização parcial: só os campos enviados são gravados.
// UazapiToken fica aqui porque o model não o serializa.
type EmpresaInput struct {
	Owner                *string               `json:"owner"`
	NomeEmpresa          *string               `json:"nome_empresa"`
	Nicho                *string               `json:"nicho"`
	ObjetivoConversao    *string               `json:"objetivo_conversao"`
	InstrucoesIA         *string               `json:"instrucoes_ia"`
	HorarioFuncionamento *models.BusinessHours `json:"horario_funcionamento"`
	Timezone             *string               `json:"timezone"`
	AnaliseOrigemFilter  *string               `json:"analise_origem_filter"`
	GrupoAlertas         *string               `json:"grupo_alertas"`
	UazapiToken          *string               `json:"uazapi_token"`
	Ativo                *bool                 `json:"ativo"`
}

// fields valida o input e devolve as colunas a atualizar.
func (in EmpresaInput) fields() (map[string]any, string) {
	out := map[string]any{}
	str := func(col string, v *string) {
		if v != nil {
			out[col] = strings.TrimSpace(*v)
		}
	}
	str("nome_empresa", in.NomeEmpresa)
	str("nicho", in.Nicho)
	str("objetivo_conversao", in.ObjetivoConversao)
	str("instrucoes_ia", in.InstrucoesIA)
	str("uazapi_token", in.UazapiToken)

	if in.NomeEmpresa != nil && strings.TrimSpace(*in.NomeEmpresa) == "" {
		return nil, "nome_empresa não pode ser vazio"
	}
	if in.GrupoAlertas != nil {
		g := strings.TrimSpace(*in.GrupoAlertas)
		if g != "" && !tools.IsGroupChat(g) {
			return nil, "grupo_alertas precisa terminar com " + tools.WHATSAPP_GROUP_SUFFIX
		}
		out["grupo_alertas"] = g
	}
	if in.Timezone != nil {
		tz := strings.TrimSpace(*in.Timezone)
		if tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return nil, "timezone inválido: " + tz
			}
		}
		out["timezone"] = tz
	}
	if in.AnaliseOrigemFilter != nil {
		out["analise_origem_filter"] = models.NormalizeOrigemFilter(*in.AnaliseOrigemFilter)
	}
	if in.HorarioFuncionamento != nil {
		if err := in.HorarioFuncionamento.Validate(); err != nil {
			return nil, err.Error()
		}
		out["horario_funcionamento"] = *in.HorarioFuncionamento
	}
	if in.Ativo != nil {
		out["ativo"] = *in.Ativo
	}
	return out, ""
}

// GET /api/admin/empresas
func (ctl *Controller) ListEmpresas(c *gin.Context) {
	rows, err := ctl.store.ListCompanies()
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, rows)
}

// GET /api/admin/empresas/:owner
func (ctl *Controller) GetEmpresa(c *gin.Context) {
	row, err := ctl.store.CompanyByOwner(c.Param("owner"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	RespondSuccess(c, row)
}

// POST /api/admin/empresas
func (ctl *Controller) CreateEmpresa(c *gin.Context) {
	var in EmpresaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	fields, msg := in.fields()
	if msg != "" {
		RespondError(c, msg, http.StatusBadRequest)
		return
	}

	e := models.ConfigEmpresa{Ativo: true, AnaliseOrigemFilter: models.ORIGEM_FILTER_TODOS, Timezone: models.DEFAULT_TIMEZONE}
	if in.Owner != nil {
		e.Owner = tools.ChatPhone(*in.Owner)
	}
	applyEmpresaFields(&e, fields)
	if missing := e.MissingFields(); missing != "" {
		RespondError(c, missing+" é obrigatório", http.StatusBadRequest)
		return
	}
	if _, err := ctl.store.CompanyByOwner(e.Owner); err == nil {
		RespondError(c, "já existe empresa para este owner", http.StatusConflict)
		return
	}

	if err := ctl.store.CreateCompany(&e); err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Info().Str("owner", e.Owner).Msg("empresa criada")
	c.JSON(http.StatusCreated, e)
}

// PUT /api/admin/empresas/:owner
func (ctl *Controller) UpdateEmpresa(c *gin.Context) {
	var in EmpresaInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	in.Owner = nil
	ctl.saveEmpresa(c, c.Param("owner"), in)
}

// PUT /api/admin/empresas/:owner/horario
// Só horário de funcionamento e fuso.
func (ctl *Controller) UpdateHorario(c *gin.Context) {
	var in struct {
		HorarioFuncionamento *models.BusinessHours `json:"horario_funcionamento"`
		Timezone             *string               `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, "json inválido: "+err.Error(), http.StatusBadRequest)
		return
	}
	if in.HorarioFuncionamento == nil && in.Timezone == nil {
		RespondError(c, "horario_funcionamento ou timezone é obrigatório", http.StatusBadRequest)
		return
	}
	ctl.saveEmpresa(c, c.Param("owner"), EmpresaInput{HorarioFuncionamento: in.HorarioFuncionamento, Timezone: in.Timezone})
}

// DELETE /api/admin/empresas/:owner
// Não apaga: desativa, o histórico de análises continua.
func (ctl *Controller) DeleteEmpresa(c *gin.Context) {
	inactive := false
	ctl.saveEmpresa(c, c.Param("owner"), EmpresaInput{Ativo: &inactive})
}

func (ctl *Controller) saveEmpresa(c *gin.Context, owner string, in EmpresaInput) {
	fields, msg := in.fields()
	if msg != "" {
		RespondError(c, msg, http.StatusBadRequest)
		return
	}
	if len(fields) == 0 {
		RespondError(c, "nenhum campo para atualizar", http.StatusBadRequest)
		return
	}
	if err := ctl.store.UpdateCompany(owner, fields); err != nil {
		respondStoreError(c, err)
		return
	}
	ctl.companies.Invalidate(owner)

	row, err := ctl.store.CompanyByOwner(owner)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	log.Info().Str("owner", owner).Int("campos", len(fields)).Msg("empresa atualizada")
	RespondSuccess(c, row)
}

func applyEmpresaFields(e *models.ConfigEmpresa, fields map[string]any) {
	for col, v := range fields {
		switch col {
		case "nome_empresa":
			e.NomeEmpresa = v.(string)
		case "nicho":
			e.Nicho = v.(string)
		case "objetivo_conversao":
			e.ObjetivoConversao = v.(string)
		case "instrucoes_ia":
			e.InstrucoesIA = v.(string)
		case "uazapi_token":
			e.UazapiToken = v.(string)
		case "grupo_alertas":
			e.GrupoAlertas = v.(string)
		case "timezone":
			if tz := v.(string); tz != "" {
				e.Timezone = tz
			}
		case "analise_origem_filter":
			e.AnaliseOrigemFilter = v.(string)
		case "horario_funcionamento":
			e.HorarioFuncionamento = v.(models.BusinessHours)
		case "ativo":
			e.Ativo = v.(bool)
		}
	}
}
