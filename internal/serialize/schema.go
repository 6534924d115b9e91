// Package serialize snapshots resolved schemas for the bind cache.
//
// Snapshots are msgpack-encoded and ZStandard-compressed. The cache holds
// only these blobs, so every cache hit decodes into a fresh value with no
// aliasing back into the cached state.
package serialize

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/esbridge/esbridge-go/schema"
)

// Codec encodes and decodes schema snapshots. Create once and reuse; the
// underlying zstd coders are safe for concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCodec creates a snapshot codec. Caller must call Close when done.
func NewCodec() (*Codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create snapshot encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create snapshot decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Encode snapshots a schema into a compressed blob.
func (c *Codec) Encode(sch *schema.Schema) ([]byte, error) {
	data, err := msgpack.Marshal(sch)
	if err != nil {
		return nil, fmt.Errorf("encode schema snapshot: %w", err)
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decode materializes a snapshot into a fresh schema value.
func (c *Codec) Decode(blob []byte) (*schema.Schema, error) {
	data, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress schema snapshot: %w", err)
	}
	var sch schema.Schema
	if err := msgpack.Unmarshal(data, &sch); err != nil {
		return nil, fmt.Errorf("decode schema snapshot: %w", err)
	}
	return &sch, nil
}

// Close releases codec resources.
func (c *Codec) Close() {
	if c.enc != nil {
		c.enc.Close()
	}
	if c.dec != nil {
		c.dec.Close()
	}
}
