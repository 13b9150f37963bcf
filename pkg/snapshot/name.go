package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Name is a file-system path or path fragment that survives a JSON round
// trip byte for byte. Valid UTF-8 encodes as a plain JSON string; anything
// else encodes as {"base64": "..."} since encoding/json would replace the
// invalid bytes with U+FFFD.
type Name string

type nameJSON struct {
	Base64 []byte `json:"base64"`
}

// MarshalJSON implements json.Marshaler.
func (n Name) MarshalJSON() ([]byte, error) {
	if utf8.ValidString(string(n)) {
		return json.Marshal(string(n))
	}
	return json.Marshal(nameJSON{Base64: []byte(n)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Name) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var raw nameJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if utf8.Valid(raw.Base64) {
			return fmt.Errorf("%w: base64 name %q is valid UTF-8", ErrInvalidSnapshot, raw.Base64)
		}
		*n = Name(raw.Base64)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*n = Name(s)
	return nil
}
