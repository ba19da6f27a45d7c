package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// scanJSON decodifica colunas json/jsonb. Postgres entrega []byte, o sqlite pode entregar string.
func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("tipo incompatível para coluna json: %T", src)
	}
}

func valueJSON(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
