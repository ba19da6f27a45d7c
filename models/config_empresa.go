package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

/************************************************
/**** MARK: ORIGEM FILTER ****/
/************************************************/
const ORIGEM_FILTER_TODOS = "todos"
const ORIGEM_FILTER_TRAFEGO_PAGO = "trafego_pago"
const ORIGEM_FILTER_ORGANICO = "organico"

const DEFAULT_TIMEZONE = "America/Sao_Paulo"

// ConfigEmpresa é a configuração de um tenant (uma linha por owner).
type ConfigEmpresa struct {
	ID                   int64         `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	Owner                string        `gorm:"column:owner;not null;unique_index" json:"owner" form:"owner"`
	NomeEmpresa          string        `gorm:"column:nome_empresa;not null" json:"nome_empresa" form:"nome_empresa"`
	Nicho                string        `gorm:"column:nicho" json:"nicho" form:"nicho"`
	ObjetivoConversao    string        `gorm:"column:objetivo_conversao" json:"objetivo_conversao" form:"objetivo_conversao"`
	InstrucoesIA         string        `gorm:"column:instrucoes_ia;type:text" json:"instrucoes_ia" form:"instrucoes_ia"`
	HorarioFuncionamento BusinessHours `gorm:"column:horario_funcionamento;type:jsonb" json:"horario_funcionamento"`
	Timezone             string        `gorm:"column:timezone" json:"timezone" form:"timezone"`
	AnaliseOrigemFilter  string        `gorm:"column:analise_origem_filter" json:"analise_origem_filter" form:"analise_origem_filter"`
	GrupoAlertas         string        `gorm:"column:grupo_alertas" json:"grupo_alertas" form:"grupo_alertas"`
	UazapiToken          string        `gorm:"column:uazapi_token" json:"-"`
	Ativo                bool          `gorm:"column:ativo;not null;index" json:"ativo" form:"ativo"`
	CreatedAt            *time.Time    `json:"created_at"`
	UpdatedAt            *time.Time    `json:"updated_at"`
}

func (ConfigEmpresa) TableName() string { return "config_empresas" }

func (e ConfigEmpresa) MissingFields() string {
	if strings.TrimSpace(e.Owner) == "" {
		return "owner"
	} else if strings.TrimSpace(e.NomeEmpresa) == "" {
		return "nome_empresa"
	}
	return ""
}

// Location devolve o fuso do tenant; timezone inválido cai no padrão.
func (e ConfigEmpresa) Location() *time.Location {
	name := strings.TrimSpace(e.Timezone)
	if name == "" {
		name = DEFAULT_TIMEZONE
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OrigemFilter normaliza a preferência de origem do tenant.
func (e ConfigEmpresa) OrigemFilter() string {
	return NormalizeOrigemFilter(e.AnaliseOrigemFilter)
}

func NormalizeOrigemFilter(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case ORIGEM_FILTER_TRAFEGO_PAGO, "pago", "paid":
		return ORIGEM_FILTER_TRAFEGO_PAGO
	case ORIGEM_FILTER_ORGANICO, "organic":
		return ORIGEM_FILTER_ORGANICO
	default:
		return ORIGEM_FILTER_TODOS
	}
}

/************************************************
/**** MARK: BUSINESS HOURS ****/
/************************************************/

// Weekdays na ordem de exibição; as chaves do JSON usam essas abreviações.
var Weekdays = []string{"seg", "ter", "qua", "qui", "sex", "sab", "dom"}

var weekdayKeys = map[time.Weekday]string{
	time.Monday:    "seg",
	time.Tuesday:   "ter",
	time.Wednesday: "qua",
	time.Thursday:  "qui",
	time.Friday:    "sex",
	time.Saturday:  "sab",
	time.Sunday:    "dom",
}

// DayHours é o expediente de um dia no formato HH:MM.
type DayHours struct {
	Ativo  bool   `json:"ativo"`
	Inicio string `json:"inicio"`
	Fim    string `json:"fim"`
}

// BusinessHours mapeia dia da semana -> expediente. Vazio significa "sempre aberto".
type BusinessHours map[string]DayHours

func (b BusinessHours) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return valueJSON(b)
}

func (b *BusinessHours) Scan(src any) error {
	*b = nil
	return scanJSON(src, b)
}

// Validate confere o formato HH:MM e se inicio < fim nos dias ativos.
func (b BusinessHours) Validate() error {
	for day, h := range b {
		if _, ok := indexOf(Weekdays, day); !ok {
			return fmt.Errorf("dia inválido: %s", day)
		}
		if !h.Ativo {
			continue
		}
		start, ok1 := parseClock(h.Inicio)
		end, ok2 := parseClock(h.Fim)
		if !ok1 || !ok2 {
			return fmt.Errorf("horário inválido em %s (use HH:MM)", day)
		}
		if start >= end {
			return fmt.Errorf("inicio deve ser antes do fim em %s", day)
		}
	}
	return nil
}

// IsOpen diz se t (já no fuso do tenant) cai dentro do expediente.
func (b BusinessHours) IsOpen(t time.Time) bool {
	if len(b) == 0 {
		return true
	}
	h, ok := b[weekdayKeys[t.Weekday()]]
	if !ok || !h.Ativo {
		return false
	}
	start, ok1 := parseClock(h.Inicio)
	end, ok2 := parseClock(h.Fim)
	if !ok1 || !ok2 {
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= start && minute < end
}

// NextOpening devolve o primeiro instante >= t em que o expediente está aberto.
// Sem expediente configurado devolve t; sem nenhum dia ativo devolve zero.
func (b BusinessHours) NextOpening(t time.Time) time.Time {
	if len(b) == 0 || b.IsOpen(t) {
		return t
	}
	for i := 0; i < 8; i++ {
		day := t.AddDate(0, 0, i)
		h, ok := b[weekdayKeys[day.Weekday()]]
		if !ok || !h.Ativo {
			continue
		}
		start, ok1 := parseClock(h.Inicio)
		if !ok1 {
			continue
		}
		opening := time.Date(day.Year(), day.Month(), day.Day(), start/60, start%60, 0, 0, t.Location())
		if !opening.Before(t) {
			return opening
		}
	}
	return time.Time{}
}

// Describe gera o texto usado nos prompts, ex: "seg 08:00-18:00; sab fechado".
func (b BusinessHours) Describe() string {
	if len(b) == 0 {
		return "sem horário definido (considere atendimento 24h)"
	}
	parts := make([]string, 0, len(Weekdays))
	for _, day := range Weekdays {
		h, ok := b[day]
		if !ok || !h.Ativo {
			parts = append(parts, day+" fechado")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s-%s", day, h.Inicio, h.Fim))
	}
	return strings.Join(parts, "; ")
}

func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func indexOf(list []string, v string) (int, bool) {
	for i, s := range list {
		if s == v {
			return i, true
		}
	}
	return -1, false
}
