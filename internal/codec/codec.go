// Package codec provides the serializers used to move typed values through
// the []byte plane of the cache. JSON is the default; msgpack and CBOR are
// denser binary alternatives for hot keys.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/stratacache/strata/internal/types"
)

// JSON serializes values with encoding/json.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Msgpack serializes values with vmihailenco/msgpack.
type Msgpack struct{}

func (Msgpack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (Msgpack) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// CBOR serializes values with fxamacker/cbor using the canonical encoding
// options, so equal values produce equal bytes.
type CBOR struct {
	enc cbor.EncMode
}

// NewCBOR builds a CBOR codec. Construction only fails on invalid encoding
// options, which the canonical preset never produces.
func NewCBOR() (*CBOR, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return &CBOR{enc: enc}, nil
}

func (c *CBOR) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c *CBOR) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// ByName returns the serializer registered under name. The empty string
// selects JSON.
func ByName(name string) (types.Serializer, error) {
	switch name {
	case "", "json":
		return JSON{}, nil
	case "msgpack":
		return Msgpack{}, nil
	case "cbor":
		return NewCBOR()
	default:
		return nil, fmt.Errorf("unknown serializer %q", name)
	}
}

var (
	_ types.Serializer = JSON{}
	_ types.Serializer = Msgpack{}
	_ types.Serializer = (*CBOR)(nil)
)
