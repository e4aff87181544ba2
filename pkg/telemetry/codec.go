package telemetry

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/proto"
)

// Codec encodes and decodes reports.
type Codec interface {
	Name() string
	Encode(*StatusReport) ([]byte, error)
	Decode([]byte) (*StatusReport, error)
}

// ProtoCodec encodes reports as protobuf.
type ProtoCodec struct{}

// Name implements Codec.
func (ProtoCodec) Name() string { return "proto" }

// Encode implements Codec.
func (ProtoCodec) Encode(r *StatusReport) ([]byte, error) {
	return proto.Marshal(r)
}

// Decode implements Codec.
func (ProtoCodec) Decode(data []byte) (*StatusReport, error) {
	r := &StatusReport{}
	if err := proto.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode proto report: %w", err)
	}
	return r, nil
}

// CBORCodec encodes reports as CBOR maps keyed by field number.
type CBORCodec struct {
	enc cbor.EncMode
}

// NewCBORCodec creates a CBORCodec with canonical encoding.
func NewCBORCodec() (*CBORCodec, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return &CBORCodec{enc: enc}, nil
}

// Name implements Codec.
func (c *CBORCodec) Name() string { return "cbor" }

// Encode implements Codec.
func (c *CBORCodec) Encode(r *StatusReport) ([]byte, error) {
	return c.enc.Marshal(r)
}

// Decode implements Codec.
func (c *CBORCodec) Decode(data []byte) (*StatusReport, error) {
	r := &StatusReport{}
	if err := cbor.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode cbor report: %w", err)
	}
	return r, nil
}

// CodecByName returns the codec named "proto" or "cbor".
func CodecByName(name string) (Codec, error) {
	switch name {
	case "proto", "":
		return ProtoCodec{}, nil
	case "cbor":
		return NewCBORCodec()
	default:
		return nil, fmt.Errorf("unknown telemetry codec %q", name)
	}
}
