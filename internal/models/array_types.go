package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/lib/pq"
)

// StringArray is a TEXT[] column that marshals to an empty JSON array instead of null
type StringArray []string

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return pq.StringArray{}.Value()
	}
	return pq.StringArray(a).Value()
}

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(src interface{}) error {
	if src == nil {
		*a = StringArray{}
		return nil
	}
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*a = StringArray(arr)
	return nil
}

// MarshalJSON implements json.Marshaler
func (a StringArray) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(a))
}
