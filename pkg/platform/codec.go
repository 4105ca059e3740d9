// Package platform connects geodealer to the host's native location service.
//
// Go calls native methods through a MethodChannel and receives native events
// through EventChannels. A NativeBridge installed by the embedding app
// carries the encoded messages; LocationProvider builds a location.Provider
// on top of these channels.
package platform

import (
	"encoding/json"
	"errors"
)

// MessageCodec turns bridge payloads into bytes and back. Decoded values use
// the shapes of encoding/json: maps, slices, float64, string and bool.
type MessageCodec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// JSONCodec is the MessageCodec spoken by the location bridge.
type JSONCodec struct{}

// Encode implements MessageCodec.
func (JSONCodec) Encode(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Decode implements MessageCodec. An empty payload decodes to nil, which is
// how the bridge sends method calls without arguments.
func (JSONCodec) Decode(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var v any
	err := json.Unmarshal(data, &v)
	return v, err
}

// DefaultCodec encodes every channel message.
var DefaultCodec MessageCodec = JSONCodec{}

var (
	// ErrChannelNotFound is returned for a native call on an unknown method channel.
	ErrChannelNotFound = errors.New("platform channel not found")

	// ErrMethodNotFound is returned when a method channel has no handler.
	ErrMethodNotFound = errors.New("method not implemented")

	// ErrPlatformUnavailable is returned while no NativeBridge is installed.
	ErrPlatformUnavailable = errors.New("platform feature unavailable")

	// ErrStreamClosed is passed to Failed when the native side ends the
	// location updates stream.
	ErrStreamClosed = errors.New("platform event stream closed")
)

// ChannelError is a failure reported by the native side, such as a denied
// location request. Code is the native error domain or code.
type ChannelError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *ChannelError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// NewChannelError returns a ChannelError without details.
func NewChannelError(code, message string) *ChannelError {
	return &ChannelError{Code: code, Message: message}
}
