package cache

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/skillforge/treecache/internal/types"
)

// StructuredCodec encodes values as strict JSON. Values JSON cannot
// represent (channels, funcs, cyclic structures, NaN) produce a
// recoverable SerializationError.
type StructuredCodec struct{}

// NewStructuredCodec creates a new structured (JSON) codec.
func NewStructuredCodec() *StructuredCodec {
	return &StructuredCodec{}
}

func (c *StructuredCodec) Mode() types.Mode {
	return types.ModeStructured
}

func (c *StructuredCodec) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, types.NewSerializationError(types.ModeStructured, err)
	}
	return data, nil
}

func (c *StructuredCodec) Decode(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

// FullCodec encodes values as MessagePack. It succeeds for a larger
// class of values than the structured codec (binary payloads, NaN/Inf
// floats, timestamps) at the cost of cross-language portability.
type FullCodec struct{}

// NewFullCodec creates a new full (MessagePack) codec.
func NewFullCodec() *FullCodec {
	return &FullCodec{}
}

func (c *FullCodec) Mode() types.Mode {
	return types.ModeFull
}

func (c *FullCodec) Encode(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, types.NewSerializationError(types.ModeFull, err)
	}
	return data, nil
}

func (c *FullCodec) Decode(data []byte, dest any) error {
	return msgpack.Unmarshal(data, dest)
}

// NewCodec returns the codec for a serialization mode.
func NewCodec(mode types.Mode) types.Codec {
	if mode == types.ModeStructured {
		return NewStructuredCodec()
	}
	return NewFullCodec()
}

var (
	_ types.Codec = (*StructuredCodec)(nil)
	_ types.Codec = (*FullCodec)(nil)
)
