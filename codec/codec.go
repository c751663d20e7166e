package codec

import (
	"fmt"
	"io"

	"github.com/TopiaNetwork/topia-vault/codec/json"
)

type CodecType byte

const (
	CodecType_Unknown CodecType = iota
	CodecType_JSON
)

// Marshaler serializes the directory index and backup payloads.
type Marshaler interface {
	Marshal(interface{}) ([]byte, error)

	Unmarshal([]byte, interface{}) error
}

// Encoder writes command output.
type Encoder interface {
	Encode(interface{}) error
}

func CreateMarshaler(codecType CodecType) Marshaler {
	switch codecType {
	case CodecType_JSON:
		return &json.MarshalJson{}
	default:
		panic(fmt.Errorf("invalid codec type %d when CreateMarshaler", codecType).Error())
	}
}

// CreateEncoder returns an encoder that indents with two spaces.
func CreateEncoder(codecType CodecType, w io.Writer) Encoder {
	switch codecType {
	case CodecType_JSON:
		return json.NewEncoderJson(w, "  ")
	default:
		panic(fmt.Errorf("invalid codec type %d when CreateEncoder", codecType).Error())
	}
}
