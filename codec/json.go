package codec

import "encoding/json"

// JSON is the default codec. Values round-trip through encoding/json, which
// matches the wire shape of the documents themselves.
type JSON struct{}

func (JSON) Name() string { return "json" }

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
