package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Metas 自由格式元数据列，序列化为 JSON 存储
type Metas map[string]interface{}

// Value 实现 driver.Valuer
func (m Metas) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan 实现 sql.Scanner
func (m *Metas) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("metas: unsupported column type")
	}

	return json.Unmarshal(data, m)
}
