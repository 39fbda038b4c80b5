// Package codec defines how cached query results are serialized before they
// reach the cache backend and decoded on the way back out.
package codec

// Codec encodes and decodes cached values. Implementations must be safe for
// concurrent use.
type Codec interface {
	// Name identifies the codec. Stored values are only readable by the
	// codec that produced them, so deployments should not switch codecs
	// without flushing the cache.
	Name() string

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
