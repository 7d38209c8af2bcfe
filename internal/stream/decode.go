package stream

import (
	"errors"
	"fmt"

	"github.com/arbhalerao/sse-demo/internal/model"
)

var (
	ErrInvalidJSON   = errors.New("stream: payload is not valid JSON")
	ErrNotObject     = errors.New("stream: payload is not a JSON object")
	ErrFrameTooLarge = errors.New("stream: frame exceeds size limit")
)

// DecodeEvent parses one frame payload. The payload must be a JSON object;
// message must be a string and timestamp a string or number when present.
// Keys match exactly, and a repeated key resolves to its last occurrence.
func DecodeEvent(payload []byte) (model.Event, error) {
	root, err := model.ParseValue(payload)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	if root.Kind() != model.KindObject {
		return model.Event{}, ErrNotObject
	}

	timestamp, err := timestampField(root)
	if err != nil {
		return model.Event{}, err
	}
	message, err := stringField(root, "message")
	if err != nil {
		return model.Event{}, err
	}
	eventType, err := stringField(root, "type")
	if err != nil {
		eventType = ""
	}
	data, _ := root.Get("data")

	return model.Event{
		Timestamp: timestamp,
		Message:   message,
		Type:      eventType,
		Data:      data,
	}, nil
}

func stringField(root model.Value, key string) (string, error) {
	v, _ := root.Get(key)
	switch v.Kind() {
	case model.KindAbsent, model.KindNull:
		return "", nil
	case model.KindString:
		return v.Text(), nil
	default:
		return "", fmt.Errorf("stream: %s must be a string", key)
	}
}

// timestampField accepts a string or a number; numbers keep their literal
// text.
func timestampField(root model.Value) (string, error) {
	v, _ := root.Get("timestamp")
	switch v.Kind() {
	case model.KindAbsent, model.KindNull:
		return "", nil
	case model.KindString, model.KindNumber:
		return v.Text(), nil
	default:
		return "", errors.New("stream: timestamp must be a string or number")
	}
}
