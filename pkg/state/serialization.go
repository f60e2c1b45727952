package state

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPackSerializer uses MessagePack, gzip-compressing large payloads.
// Every blob starts with a marker byte: 0 plain, 1 gzip.
type MsgPackSerializer struct {
	UseCompression bool
	// CompressionThreshold is the minimum encoded size that triggers compression.
	CompressionThreshold int
}

// NewMsgPackSerializer creates a new MsgPack serializer.
func NewMsgPackSerializer() *MsgPackSerializer {
	return &MsgPackSerializer{
		UseCompression:       true,
		CompressionThreshold: 1024,
	}
}

func (s *MsgPackSerializer) Name() string { return "msgpack" }

func (s *MsgPackSerializer) Marshal(v any) ([]byte, error) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}

	if s.UseCompression && len(data) >= s.CompressionThreshold {
		if compressed, err := compress(data); err == nil {
			return append([]byte{1}, compressed...), nil
		}
	}
	return append([]byte{0}, data...), nil
}

func (s *MsgPackSerializer) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrInvalidData
	}

	payload := data[1:]
	switch data[0] {
	case 0:
	case 1:
		decompressed, err := decompress(payload)
		if err != nil {
			return err
		}
		payload = decompressed
	default:
		return fmt.Errorf("%w: unknown marker %d", ErrInvalidData, data[0])
	}

	return msgpack.Unmarshal(payload, v)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}

// JSONSerializer uses JSON. It is the draft default: a flat object of
// field name to value, readable with any tool.
type JSONSerializer struct {
	Pretty bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Name() string { return "json" }

func (s *JSONSerializer) Marshal(v any) ([]byte, error) {
	if s.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func (s *JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// SerializerByName returns the serializer for "json" or "msgpack".
func SerializerByName(name string) (Serializer, error) {
	switch name {
	case "", "json":
		return NewJSONSerializer(), nil
	case "msgpack":
		return NewMsgPackSerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer %q", name)
	}
}
