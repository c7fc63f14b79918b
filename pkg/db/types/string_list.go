package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList persists an ordered list of strings as a JSON array. The column is
// jsonb in Postgres and TEXT in sqlite.
type StringList []string

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return l.parse([]byte(v))
	case []byte:
		return l.parse(v)
	default:
		return fmt.Errorf("StringList: unsupported Scan type %T", src)
	}
}

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("StringList: marshal: %w", err)
	}
	return string(raw), nil
}

// First returns the first non-blank entry or "".
func (l StringList) First() string {
	for _, v := range l {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func (l *StringList) parse(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return fmt.Errorf("StringList: parse %q: %w", trimmed, err)
	}
	*l = StringList(out)
	return nil
}
