package dto

import (
	"bytes"
	"encoding/json"
)

// JSONCatalog is the top-level document returned by the camera's
// /_gr/objs endpoint:
//
//	{"dirs":[{"name":"100RICOH","files":[{"n":"R0001.JPG","d":"2024-05-01T10:00:00"}]}]}
//
// Dirs is kept raw so one malformed directory does not fail the whole
// document. A nil Dirs means the field was missing or null.
type JSONCatalog struct {
	Dirs *[]json.RawMessage `json:"dirs"`
}

// UnmarshalJSON reads the "dirs" key with exact case. encoding/json would
// otherwise accept "DIRS" or "Dirs" for the tagged field.
func (c *JSONCatalog) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	c.Dirs = nil
	raw, ok := fields["dirs"]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, &c.Dirs)
}

// JSONDir is one camera directory ("tag").
//
// Both fields are raw so the parser can tell a missing or non-string name
// and a non-array file list apart from valid values.
type JSONDir struct {
	Name  json.RawMessage `json:"name"`
	Files json.RawMessage `json:"files"`
}

// UnmarshalJSON reads "name" and "files" with exact case.
func (d *JSONDir) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	d.Name = fields["name"]
	d.Files = fields["files"]
	return nil
}

// JSONFile is one file entry inside a directory.
type JSONFile struct {
	Name json.RawMessage `json:"n"`
	Date json.RawMessage `json:"d"`
}

// UnmarshalJSON reads "n" and "d" with exact case.
func (f *JSONFile) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	f.Name = fields["n"]
	f.Date = fields["d"]
	return nil
}

// objectFields decodes a JSON object into its raw members keyed by their
// exact names. null yields an empty map.
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// StringValue decodes raw as a JSON string.
// ok is false for missing values, null, and any non-string JSON type.
func StringValue(raw json.RawMessage) (s string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// ArrayValue decodes raw as a JSON array of raw elements.
// ok is false for missing values, null, and any non-array JSON type.
func ArrayValue(raw json.RawMessage) (items []json.RawMessage, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}
