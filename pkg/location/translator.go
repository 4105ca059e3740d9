package location

import (
	"github.com/sirupsen/logrus"
)

// The Dealer is the provider's Events handler. Each callback settles the
// order under the lock and publishes after releasing it, so observers may
// issue new requests from their handlers.

// AuthorizationChanged publishes status on TopicStatusChanged regardless of
// the outstanding order.
func (d *Dealer) AuthorizationChanged(status AuthorizationStatus) {
	d.log.WithField("status", status).Debug("authorization changed")
	d.publish(TopicStatusChanged, status, true)
}

// Failed stops the provider and publishes a FailedRequest on TopicError.
//
// While a permission probe is outstanding and the user has still not
// decided, the error is swallowed and the probe stays outstanding: some
// providers report a failure when the consent dialog is left open for a few
// seconds.
func (d *Dealer) Failed(err error) {
	description := "unknown provider error"
	if err != nil {
		description = err.Error()
	}

	d.mu.Lock()
	d.provider.StopUpdates()
	if d.order == OrderPermissionProbe && d.Permit() == PermitNotDetermined {
		d.mu.Unlock()
		d.log.WithField("error", description).Info("provider error swallowed while consent is pending")
		d.metrics.ErrorSwallowed()
		return
	}
	d.log.WithFields(logrus.Fields{"order": d.order, "error": description}).Warn("location request failed")
	d.setOrder(OrderNone)
	d.mu.Unlock()

	d.publish(TopicError, FailedRequestError(description), false)
}

// LocationsUpdated settles a batch against the outstanding order.
func (d *Dealer) LocationsUpdated(fixes []Fix) {
	d.mu.Lock()
	order := d.order
	log := d.log.WithFields(logrus.Fields{"order": order, "count": len(fixes)})
	log.Debug("locations updated")

	switch order {
	case OrderNone:
		d.provider.StopUpdates()
		d.mu.Unlock()
		log.Info("locations for no order")

	case OrderPermissionProbe:
		d.provider.StopUpdates()
		d.setOrder(OrderNone)
		d.mu.Unlock()
		log.Info("locations for a permission probe")

	case OrderCurrentLocation:
		d.provider.StopUpdates()
		d.setOrder(OrderNone)
		d.mu.Unlock()

		if len(fixes) == 0 {
			d.publish(TopicCurrent, Failure[Sample](EmptyLocationDataError()), false)
			return
		}
		d.publish(TopicCurrent, Success(NewSample(fixes[0])), true)

	case OrderLocationUpdates:
		if len(fixes) == 0 {
			d.provider.StopUpdates()
			d.setOrder(OrderNone)
			d.mu.Unlock()
			log.Info("no locations, updates stopped")
			d.publish(TopicUpdates, Failure[[]Sample](EmptyLocationDataError()), false)
			return
		}
		d.mu.Unlock()
		d.publish(TopicUpdates, Success(samplesOf(fixes)), true)

	default:
		d.mu.Unlock()
	}
}

func (d *Dealer) publish(topic Topic, payload any, ok bool) {
	d.metrics.Published(topic, ok)
	if d.bus == nil {
		return
	}
	d.bus.Publish(topic, payload)
}
