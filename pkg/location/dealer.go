// Package location brokers access to the host positioning capability.
//
// A Dealer owns the single outstanding request (its Order), checks the
// permission state before fetching, drives a Provider, and turns the
// provider's asynchronous callbacks into typed notifications on a Bus:
//
//	dealer := location.New(provider, bus)
//	if err := dealer.RequestCurrentLocation(location.HundredMeters); err != nil {
//		// err is a *DealerError of kind NeedsPermission
//	}
//	// later, on bus topic TopicCurrent: Result[Sample]
//
// Only one request is outstanding at a time. A new request supersedes the
// previous one; it is never queued.
package location

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Dealer is the location request orchestrator. Create one per provider with
// New; it is safe for concurrent use.
type Dealer struct {
	provider Provider
	bus      Bus
	caps     Capabilities
	log      *logrus.Entry
	metrics  Metrics

	defaultAccuracy Accuracy

	// mu guards order and accuracy. Provider commands are issued while it is
	// held so that a superseding request and a stale callback cannot interleave.
	mu       sync.Mutex
	order    Order
	accuracy Accuracy
}

// Option configures a Dealer.
type Option func(*Dealer)

// WithLogger sets the log entry the Dealer writes to.
func WithLogger(entry *logrus.Entry) Option {
	return func(d *Dealer) {
		if entry != nil {
			d.log = entry
		}
	}
}

// WithMetrics installs a metrics observer.
func WithMetrics(m Metrics) Option {
	return func(d *Dealer) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithDefaultAccuracy sets the accuracy used when callers pass
// AccuracyDefault.
func WithDefaultAccuracy(a Accuracy) Option {
	return func(d *Dealer) {
		if a != AccuracyDefault {
			d.defaultAccuracy = a
		}
	}
}

// New creates a Dealer, registers it as the provider's event handler and
// applies the default accuracy to the provider.
func New(provider Provider, bus Bus, opts ...Option) *Dealer {
	d := &Dealer{
		provider:        provider,
		bus:             bus,
		caps:            DetectCapabilities(provider),
		log:             logrus.NewEntry(logrus.StandardLogger()),
		metrics:         noopMetrics{},
		defaultAccuracy: DefaultAccuracy,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.WithField("component", "location.dealer")

	d.accuracy = d.defaultAccuracy
	provider.SetDesiredAccuracy(d.accuracy.Meters())
	provider.SetEventHandler(d)

	d.log.WithFields(logrus.Fields{
		"oneShotFix":     d.caps.OneShotFix,
		"explicitPrompt": d.caps.ExplicitPrompt,
		"accuracy":       d.accuracy,
	}).Info("location dealer ready")
	return d
}

// Capabilities returns the provider capabilities captured by New.
func (d *Dealer) Capabilities() Capabilities {
	return d.caps
}

// Order returns the outstanding request.
func (d *Dealer) Order() Order {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order
}

// DesiredAccuracy returns the accuracy last applied to the provider.
func (d *Dealer) DesiredAccuracy() Accuracy {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.accuracy
}

// Permit evaluates the provider's current state. It is never cached.
func (d *Dealer) Permit() Permit {
	return Evaluate(d.provider.ServiceEnabled(), d.provider.AuthorizationStatus())
}

// RequestPermission asks the user for location access at the given level.
//
// When the permit is already determined, onAlreadyDetermined (if non-nil)
// receives it and nothing else happens. Otherwise providers with an explicit
// prompt show it; the rest start updates as a probe whose callbacks are
// absorbed without notifications.
func (d *Dealer) RequestPermission(level Authorization, onAlreadyDetermined func(Permit)) {
	permit := d.Permit()
	log := d.log.WithFields(logrus.Fields{"permit": permit, "level": level})
	log.Debug("requestPermission")

	if permit != PermitNotDetermined {
		log.Info("permission already determined")
		if onAlreadyDetermined != nil {
			onAlreadyDetermined(permit)
		}
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.caps.ExplicitPrompt {
		d.provider.(PermissionPrompter).PromptForPermission(level)
		d.setOrder(OrderNone)
		return
	}
	if d.order == OrderPermissionProbe {
		log.Debug("permission probe already running")
		return
	}
	d.provider.StopUpdates()
	d.setOrder(OrderPermissionProbe)
	d.metrics.RequestIssued(OrderPermissionProbe)
	d.provider.StartUpdates()
}

// RequestCurrentLocation asks for a single fix. When the permit is not
// Allowed it returns a *DealerError of kind NeedsPermission and leaves the
// provider alone. The fix arrives on TopicCurrent.
func (d *Dealer) RequestCurrentLocation(accuracy Accuracy) error {
	permit := d.Permit()
	d.log.WithFields(logrus.Fields{"permit": permit, "accuracy": accuracy}).Debug("requestCurrentLocation")

	if permit != PermitAllowed {
		return NeedsPermissionError(permit)
	}
	d.requestCurrent(accuracy)
	return nil
}

// AskForCurrentLocation is RequestCurrentLocation reporting a refused permit
// to onNotAllowed (if non-nil) instead of returning an error.
func (d *Dealer) AskForCurrentLocation(accuracy Accuracy, onNotAllowed func(Permit)) {
	permit := d.Permit()
	d.log.WithFields(logrus.Fields{"permit": permit, "accuracy": accuracy}).Debug("askForCurrentLocation")

	if permit != PermitAllowed {
		if onNotAllowed != nil {
			onNotAllowed(permit)
		}
		return
	}
	d.requestCurrent(accuracy)
}

func (d *Dealer) requestCurrent(accuracy Accuracy) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.provider.StopUpdates()
	d.setOrder(OrderCurrentLocation)
	d.applyAccuracy(accuracy)
	d.metrics.RequestIssued(OrderCurrentLocation)

	if d.caps.OneShotFix {
		d.provider.(FixRequester).RequestFix()
		return
	}
	d.provider.StartUpdates()
}

// StartUpdatingLocation starts continuous updates, superseding any
// outstanding request. Each call applies accuracy afresh. There is no permit
// check; the provider enforces permission itself. Batches arrive on
// TopicUpdates.
func (d *Dealer) StartUpdatingLocation(accuracy Accuracy) {
	d.log.WithField("accuracy", accuracy).Debug("startUpdatingLocation")

	d.mu.Lock()
	defer d.mu.Unlock()

	d.provider.StopUpdates()
	d.setOrder(OrderLocationUpdates)
	d.applyAccuracy(accuracy)
	d.metrics.RequestIssued(OrderLocationUpdates)
	d.provider.StartUpdates()
}

// StopUpdatingLocation stops the provider and clears the outstanding
// request. It is idempotent.
func (d *Dealer) StopUpdatingLocation() {
	d.log.Debug("stopUpdatingLocation")

	d.mu.Lock()
	defer d.mu.Unlock()

	d.provider.StopUpdates()
	d.setOrder(OrderNone)
}

// Reset clears the order and restores the default accuracy without
// touching provider activity.
func (d *Dealer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.setOrder(OrderNone)
	d.applyAccuracy(AccuracyDefault)
}

// setOrder must be called with mu held.
func (d *Dealer) setOrder(o Order) {
	if d.order != o {
		d.log.WithFields(logrus.Fields{"from": d.order, "to": o}).Debug("order changed")
	}
	d.order = o
	d.metrics.OrderChanged(o)
}

// applyAccuracy must be called with mu held.
func (d *Dealer) applyAccuracy(a Accuracy) {
	if a == AccuracyDefault {
		a = d.defaultAccuracy
	}
	d.accuracy = a
	d.provider.SetDesiredAccuracy(a.Meters())
}
