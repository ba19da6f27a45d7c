package models

import (
	"database/sql/driver"
	"time"
)

/************************************************
/**** MARK: TIPO CONVERSACAO ****/
/************************************************/
const TIPO_VENDAS = "Vendas"
const TIPO_SUPORTE = "Suporte"
const TIPO_OUTRO = "Outro"

/************************************************
/**** MARK: TEMPERATURA ****/
/************************************************/
const TEMPERATURA_QUENTE = "quente"
const TEMPERATURA_MORNO = "morno"
const TEMPERATURA_FRIO = "frio"

/************************************************
/**** MARK: FUNIL ****/
/************************************************/
const FASE_PRIMEIRO_CONTATO = "Primeiro Contato"
const FASE_QUALIFICACAO = "Qualificação"
const FASE_APRESENTACAO = "Apresentação"
const FASE_NEGOCIACAO = "Negociação"
const FASE_FECHAMENTO = "Fechamento"
const FASE_POS_VENDA = "Pós-venda"
const FASE_PERDIDO = "Perdido"

// FunnelPhases é a ordem canônica do funil (Perdido fica fora da progressão).
var FunnelPhases = []string{
	FASE_PRIMEIRO_CONTATO,
	FASE_QUALIFICACAO,
	FASE_APRESENTACAO,
	FASE_NEGOCIACAO,
	FASE_FECHAMENTO,
	FASE_POS_VENDA,
}

// ConversationAnalysis é o resultado estruturado por chat (tabela analises_conversas).
type ConversationAnalysis struct {
	ID                 int64          `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ChatID             string         `gorm:"column:chatid;not null;unique_index:idx_analises_chat_owner" json:"chatid"`
	Owner              string         `gorm:"column:owner;not null;unique_index:idx_analises_chat_owner;index" json:"owner"`
	ResultadoIA        AnalysisResult `gorm:"column:resultado_ia;type:jsonb" json:"resultado_ia"`
	PrimeiraMensagemID string         `gorm:"column:primeira_mensagem_id" json:"primeira_mensagem_id"`
	UltimaMensagemID   string         `gorm:"column:ultima_mensagem_id" json:"ultima_mensagem_id"`
	UltimaMensagemTS   int64          `gorm:"column:ultima_mensagem_ts" json:"ultima_mensagem_ts"`
	OrigemTracking     string         `gorm:"column:origem_tracking" json:"origem_tracking"`
	TipoConversacao    string         `gorm:"column:tipo_conversacao;index" json:"tipo_conversacao"`
	Temperatura        string         `gorm:"column:temperatura" json:"temperatura"`
	FaseFunil          string         `gorm:"column:fase_funil" json:"fase_funil"`
	Score              int            `gorm:"column:score" json:"score"`
	DataEntradaLead    *time.Time     `gorm:"column:data_entrada_lead" json:"data_entrada_lead"`
	CreatedAt          *time.Time     `json:"created_at"`
	UpdatedAt          *time.Time     `gorm:"index" json:"updated_at"`
}

func (ConversationAnalysis) TableName() string { return "analises_conversas" }

// AnalysisResult é o JSON devolvido pela IA, enriquecido antes de salvar.
type AnalysisResult struct {
	TipoConversacao string     `json:"tipo_conversacao"`
	Temperatura     string     `json:"temperatura"`
	FaseFunil       string     `json:"fase_funil"`
	Score           int        `json:"score"`
	Resumo          string     `json:"resumo"`
	Objecoes        []string   `json:"objecoes"`
	Desempenho      Desempenho `json:"desempenho"`
	Metricas        Metricas   `json:"metricas"`
	ProximoPasso    string     `json:"proximo_passo"`
	Convertido      bool       `json:"convertido"`
	DataEntradaLead string     `json:"data_entrada_lead,omitempty"`
	Origem          string     `json:"origem,omitempty"`
	Tokens          TokenUsage `json:"tokens"`
}

type Desempenho struct {
	NotaAtendimento int      `json:"nota_atendimento"`
	PontosFortes    []string `json:"pontos_fortes"`
	PontosMelhoria  []string `json:"pontos_melhoria"`
}

// Metricas é calculada a partir das mensagens, não pela IA.
type Metricas struct {
	MensagensCliente         int     `json:"mensagens_cliente"`
	MensagensAtendente       int     `json:"mensagens_atendente"`
	TempoPrimeiraRespostaMin float64 `json:"tempo_primeira_resposta_min"`
	TempoMedioRespostaMin    float64 `json:"tempo_medio_resposta_min"`
	RespostasForaHorario     int     `json:"respostas_fora_horario"`
	SemResposta              bool    `json:"sem_resposta"`
}

type TokenUsage struct {
	Prompt int `json:"prompt"`
	Saida  int `json:"saida"`
	Total  int `json:"total"`
}

func (r AnalysisResult) Value() (driver.Value, error) {
	return valueJSON(r)
}

func (r *AnalysisResult) Scan(src any) error {
	*r = AnalysisResult{}
	return scanJSON(src, r)
}

// ClampScore mantém o score em 0..100.
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
