package classifier

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type envelope struct {
	Kind    string             `msgpack:"kind"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// Encode serializes c into a self-describing blob.
func Encode(c Classifier) ([]byte, error) {
	payload, err := msgpack.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Kind(), err)
	}
	return msgpack.Marshal(envelope{Kind: c.Kind(), Payload: payload})
}

// Decode restores a classifier from a blob written by Encode.
func Decode(blob []byte) (Classifier, error) {
	var env envelope
	if err := msgpack.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var c Classifier
	switch env.Kind {
	case KindLogistic:
		c = &Logistic{}
	case KindLinearSVC:
		c = &LinearSVC{}
	case KindMLP:
		c = &MLP{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
	if err := msgpack.Unmarshal(env.Payload, c); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformed, env.Kind, err)
	}
	if c.Classes() < 2 || c.Dim() == 0 {
		return nil, fmt.Errorf("%w: %s with %d classes and dim %d", ErrMalformed, env.Kind, c.Classes(), c.Dim())
	}
	return c, nil
}
