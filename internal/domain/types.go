package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// JSONText is a JSON document stored as text. It is emitted verbatim on the
// wire when valid, as a quoted string when not, and as null when empty.
type JSONText string

func (j JSONText) MarshalJSON() ([]byte, error) {
	if j == "" {
		return []byte("null"), nil
	}
	if !json.Valid([]byte(j)) {
		return json.Marshal(string(j))
	}
	return []byte(j), nil
}

func (j *JSONText) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*j = ""
		return nil
	}
	*j = JSONText(b)
	return nil
}

// FlexibleID accepts either a JSON string or a JSON number and keeps its
// textual form. Browser clients send user ids both ways.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// Uint parses the id as an unsigned database key.
func (f FlexibleID) Uint() (uint, bool) {
	v, err := strconv.ParseUint(string(f), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// DiagramText is the stored form of a diagram sent over the wire: a JSON
// string keeps its contents, any other document is kept as raw JSON text.
func DiagramText(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
