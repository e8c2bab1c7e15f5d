package message

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Encode marshals msg with deterministic map ordering so reports of the same
// state compare equal byte for byte.
func Encode(msg proto.Message) ([]byte, error) {
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("message: encode %T: %w", msg, err)
	}
	return data, nil
}

func Decode(data []byte, msg proto.Message) error {
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("message: decode %T: %w", msg, err)
	}
	return nil
}
