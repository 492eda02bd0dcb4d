// Package codec owns the byte-level encoding of registry snapshots.
package codec

import (
	"github.com/goccy/go-json"
	"github.com/rotisserie/eris"
)

// Codec round-trips values to bytes. Implementations must be able to encode the entity
// table snapshot and every registered component and singleton type.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type jsonCodec struct{}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	bz, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "json marshal")
	}
	return bz, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrap(err, "json unmarshal")
	}
	return nil
}

// ByName resolves a codec from its name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", JSON.Name():
		return JSON, nil
	default:
		return nil, eris.Errorf("codec: unknown codec %q", name)
	}
}

// Decode unmarshals bz into a fresh T using the default codec.
func Decode[T any](bz []byte) (T, error) {
	v := new(T)
	err := JSON.Unmarshal(bz, v)
	if err != nil {
		return *v, err
	}
	return *v, nil
}

// Encode marshals v using the default codec.
func Encode(v any) ([]byte, error) {
	return JSON.Marshal(v)
}
