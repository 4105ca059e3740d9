package bus

import (
	"fmt"

	"github.com/go-drift/geodealer/pkg/errors"
	"github.com/go-drift/geodealer/pkg/location"
)

// OnCurrentLocation subscribes fn to TopicCurrent.
func OnCurrentLocation(b *Local, fn func(location.Result[location.Sample])) *Subscription {
	return listen(b, location.TopicCurrent, fn)
}

// OnLocationUpdates subscribes fn to TopicUpdates.
func OnLocationUpdates(b *Local, fn func(location.Result[[]location.Sample])) *Subscription {
	return listen(b, location.TopicUpdates, fn)
}

// OnError subscribes fn to TopicError.
func OnError(b *Local, fn func(*location.DealerError)) *Subscription {
	return listen(b, location.TopicError, fn)
}

// OnStatusChanged subscribes fn to TopicStatusChanged.
func OnStatusChanged(b *Local, fn func(location.AuthorizationStatus)) *Subscription {
	return listen(b, location.TopicStatusChanged, fn)
}

// listen adapts a typed handler. Payloads of another type are reported and
// skipped.
func listen[T any](b *Local, topic location.Topic, fn func(T)) *Subscription {
	return b.Subscribe(topic, func(payload any) {
		v, ok := payload.(T)
		if !ok {
			var want T
			errors.Report(&errors.Error{
				Op:      "bus.listen",
				Kind:    errors.KindBus,
				Channel: string(topic),
				Err:     fmt.Errorf("payload %T is not %T", payload, want),
			})
			return
		}
		fn(v)
	})
}
