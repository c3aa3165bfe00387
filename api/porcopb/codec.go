package porcopb

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName is registered as a gRPC content-subtype: the wire
// content-type becomes "application/grpc+porco". grpc-go selects a codec
// by content-subtype per call (see grpc.CallContentSubtype), which lets
// this service run over real gRPC framing, flow control, deadlines and
// TLS without requiring a protoc-generated protobuf codec.
const codecName = "porco"

func init() {
	encoding.RegisterCodec(gobCodec{})
}

type gobCodec struct{}

func (gobCodec) Name() string { return codecName }

func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
