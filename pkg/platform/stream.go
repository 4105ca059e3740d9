package platform

import "github.com/go-drift/geodealer/pkg/errors"

// Stream is a typed view of an EventChannel. Payloads that fail to parse are
// reported through errors.Report and dropped.
type Stream[T any] struct {
	eventChannel *EventChannel
	parser       func(data any) (T, error)
}

// NewStream creates a Stream wrapping an EventChannel.
// The parser converts raw event data to the typed value.
func NewStream[T any](channel *EventChannel, parser func(data any) (T, error)) *Stream[T] {
	return &Stream[T]{
		eventChannel: channel,
		parser:       parser,
	}
}

// Listen subscribes handler to parsed events. Stream errors go to onError;
// when onError is nil they are reported through errors.Report. onDone, if
// set, runs once when the native side ends the stream.
// Call the returned function to stop receiving events.
func (s *Stream[T]) Listen(handler func(T), onError func(error), onDone func()) (unsubscribe func()) {
	name := s.eventChannel.Name()
	sub := s.eventChannel.Listen(EventHandler{
		OnEvent: func(data any) {
			val, err := s.parser(data)
			if err != nil {
				errors.Report(&errors.Error{
					Op:      "stream.parse",
					Kind:    errors.KindParsing,
					Channel: name,
					Err:     err,
				})
				return
			}
			handler(val)
		},
		OnError: func(err error) {
			if onError != nil {
				onError(err)
				return
			}
			errors.Report(&errors.Error{
				Op:      "stream.error",
				Kind:    errors.KindPlatform,
				Channel: name,
				Err:     err,
			})
		},
		OnDone: onDone,
	})
	return sub.Cancel
}
