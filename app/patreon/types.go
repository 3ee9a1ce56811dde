package patreon

import (
	"fmt"
	"strconv"
)

// Record is a flat attribute map as returned by the API, with an injected
// "id" for user and campaign records.
type Record map[string]any

// String returns the value of key as a string. Absent and null fields
// yield an empty string.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Response is the normalized stream payload.
type Response struct {
	Posts    []Record
	User     Record
	Campaign Record
}

type document struct {
	Data     []resource `json:"data"`
	Included []resource `json:"included"`
}

type resource struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes Record `json:"attributes"`
}
