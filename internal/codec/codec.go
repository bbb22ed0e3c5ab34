// Package codec centralizes cache-entry payload encoding.
//
// The on-disk format is an implementation choice, not a compatibility
// requirement: nothing outside this module reads the entry files. Changing
// the codec simply turns existing entries into misses on the next read.
package codec

import "encoding/json"

// Codec encodes and decodes cached values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSON is the standard-library JSON codec.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }

// Default is the codec used for all cache entries.
var Default Codec = JSON{}
