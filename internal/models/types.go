package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	return scanJSON(value, j)
}

// StringList is a JSON encoded list of strings (skills, tags)
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// Rewards maps a reward position label ("first", "second", ...) to its token amount
type Rewards map[string]decimal.Decimal

func (r Rewards) Value() (driver.Value, error) {
	if r == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]decimal.Decimal(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *Rewards) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// Total sums every reward position
func (r Rewards) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range r {
		total = total.Add(amount)
	}
	return total
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
}
