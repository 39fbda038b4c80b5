package codec

import "github.com/vmihailenco/msgpack/v5"

// Msgpack trades JSON's readability for smaller entries and faster
// encode/decode. Useful when the cache backend is remote and entries are
// large result sets.
type Msgpack struct{}

func (Msgpack) Name() string { return "msgpack" }

func (Msgpack) Marshal(v any) ([]byte, error) { return msgpack.Marshal(v) }

func (Msgpack) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
