package telemetry

import (
	"encoding/json"
	"fmt"

	"github.com/rishabhfit2026/MiniTelemetry/errors"
)

// Payload is the wire representation of a reading. Field order is not
// significant and decoders must tolerate unknown fields; the four fields
// below are required.
type Payload struct {
	ID        int     `json:"id"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Sequence  uint64  `json:"sequence"`
}

// Encode serializes a reading into the wire payload format.
func Encode(r Reading) ([]byte, error) {
	p := Payload{
		ID:        r.SourceID,
		Value:     r.Value,
		Timestamp: r.GeneratedAt,
		Sequence:  r.Sequence,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Codec", "Encode", "marshal payload")
	}
	return data, nil
}

// wirePayload mirrors Payload with pointer fields so missing required
// fields are distinguishable from zero values.
type wirePayload struct {
	ID        *int     `json:"id"`
	Value     *float64 `json:"value"`
	Timestamp *int64   `json:"timestamp"`
	Sequence  *uint64  `json:"sequence"`
}

// Decode parses a wire payload into a reading. Unknown fields are
// ignored; a payload that fails to parse or is missing a required field
// returns an error classified as invalid so callers can skip the tuple
// without aborting the stream.
func Decode(data []byte) (Reading, error) {
	var w wirePayload
	if err := json.Unmarshal(data, &w); err != nil {
		return Reading{}, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrMalformedPayload, err),
			"Codec", "Decode", "unmarshal payload")
	}

	for _, f := range []struct {
		name    string
		present bool
	}{
		{"id", w.ID != nil},
		{"value", w.Value != nil},
		{"timestamp", w.Timestamp != nil},
		{"sequence", w.Sequence != nil},
	} {
		if !f.present {
			return Reading{}, errors.WrapInvalid(
				fmt.Errorf("%w: %s", errors.ErrMissingField, f.name),
				"Codec", "Decode", "validate payload")
		}
	}

	return Reading{
		SourceID:    *w.ID,
		Value:       *w.Value,
		GeneratedAt: *w.Timestamp,
		Sequence:    *w.Sequence,
	}, nil
}
