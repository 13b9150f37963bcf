package unmarshal

import "encoding/json"

type record struct {
	Version int    `json:"version"`
	Root    string `json:"root"`
}

func decodeByValue(data []byte) (record, error) {
	var r record
	err := json.Unmarshal(data, r) // want "passes non-pointer"
	return r, err
}

func decode(data []byte) (record, error) {
	var r record
	err := json.Unmarshal(data, &r)
	return r, err
}
