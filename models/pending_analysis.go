package models

import (
	"database/sql/driver"
	"time"
)

/************************************************
/**** MARK: ALERT OUTCOME ****/
/************************************************/
const OUTCOME_CLASSIFIED = "classified"
const OUTCOME_SKIPPED = "skipped"

const REASON_TOO_FEW_MESSAGES = "too_few_messages"
const REASON_COMPANY_NOT_FOUND = "company_not_found"

/************************************************
/**** MARK: ALERT TYPES ****/
/************************************************/
const ALERTA_LEAD_SEM_RESPOSTA = "lead_sem_resposta"
const ALERTA_SENTIMENTO_NEGATIVO = "sentimento_negativo"
const ALERTA_PEDIDO_HUMANO = "pedido_humano"
const ALERTA_OPORTUNIDADE_QUENTE = "oportunidade_quente"
const ALERTA_NENHUM = "nenhum"

// PendingAnalysis é a fila de debounce por chat (tabela analise_pendente).
// Cada mensagem inbound empurra AgendadoPara para frente; o worker processa quando vence.
type PendingAnalysis struct {
	ID              int64        `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	ChatID          string       `gorm:"column:chatid;not null;unique_index:idx_analise_pendente_chat_owner" json:"chatid"`
	Owner           string       `gorm:"column:owner;not null;unique_index:idx_analise_pendente_chat_owner" json:"owner"`
	AgendadoPara    time.Time    `gorm:"column:agendado_para;not null;index" json:"agendado_para"`
	Processado      bool         `gorm:"column:processado;not null;index" json:"processado"`
	ResultadoAlerta AlertOutcome `gorm:"column:resultado_alerta;type:jsonb" json:"resultado_alerta"`
	ProcessadoEm    *time.Time   `gorm:"column:processado_em" json:"processado_em"`
	CreatedAt       *time.Time   `json:"created_at"`
	UpdatedAt       *time.Time   `json:"updated_at"`
}

func (PendingAnalysis) TableName() string { return "analise_pendente" }

// AlertClassification é a resposta do prompt leve de alerta.
type AlertClassification struct {
	PrecisaAlerta bool   `json:"precisa_alerta"`
	Tipo          string `json:"tipo"`
	Urgencia      string `json:"urgencia"`
	Motivo        string `json:"motivo"`
	Resumo        string `json:"resumo"`
}

// AlertOutcome é o valor gravado em resultado_alerta.
// Status distingue classificação real de pulos; Reason só é preenchido quando Status == skipped.
type AlertOutcome struct {
	Status              string               `json:"status"`
	Reason              string               `json:"reason,omitempty"`
	Classificacao       *AlertClassification `json:"classificacao,omitempty"`
	Alertado            bool                 `json:"alertado"`
	Envios              int                  `json:"envios"`
	FalhasEnvio         int                  `json:"falhas_envio"`
	MensagensAnalisadas int                  `json:"mensagens_analisadas"`
	ProcessadoEm        time.Time            `json:"processado_em"`
}

func (o AlertOutcome) IsZero() bool { return o.Status == "" }

func (o AlertOutcome) Value() (driver.Value, error) {
	if o.IsZero() {
		return nil, nil
	}
	return valueJSON(o)
}

func (o *AlertOutcome) Scan(src any) error {
	*o = AlertOutcome{}
	return scanJSON(src, o)
}

func SkippedOutcome(reason string, messages int, at time.Time) AlertOutcome {
	return AlertOutcome{
		Status:              OUTCOME_SKIPPED,
		Reason:              reason,
		MensagensAnalisadas: messages,
		ProcessadoEm:        at,
	}
}
