package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

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
		return errors.New("type assertion to []byte failed")
	}
}

// JSONB is a free-form jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	return string(b), err
}

func (j *JSONB) Scan(value interface{}) error {
	return scanJSON(value, j)
}

// StringList is a jsonb array of strings (store services, amenities).
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	return string(b), err
}

func (s *StringList) Scan(value interface{}) error {
	return scanJSON(value, (*[]string)(s))
}

// Contains reports whether v is in the list, ignoring case.
func (s StringList) Contains(v string) bool {
	for _, item := range s {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// DayHours is one weekday of a store's opening hours, times as "15:04".
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// OpeningHours maps lower-case weekday names to hours.
type OpeningHours map[string]DayHours

func (o OpeningHours) Value() (driver.Value, error) {
	if o == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]DayHours(o))
	return string(b), err
}

func (o *OpeningHours) Scan(value interface{}) error {
	return scanJSON(value, (*map[string]DayHours)(o))
}

// DefaultOpeningHours mirrors a typical retail week.
func DefaultOpeningHours() OpeningHours {
	weekday := DayHours{Open: "09:00", Close: "20:00"}
	return OpeningHours{
		"monday":    weekday,
		"tuesday":   weekday,
		"wednesday": weekday,
		"thursday":  weekday,
		"friday":    weekday,
		"saturday":  {Open: "09:00", Close: "21:00"},
		"sunday":    {Open: "10:00", Close: "19:00", Closed: true},
	}
}
