package platform

import (
	"fmt"
	"sync"

	"github.com/go-drift/geodealer/pkg/errors"
	"github.com/go-drift/geodealer/pkg/location"
)

// Channel names used by LocationProvider.
const (
	LocationChannel              = "geodealer/location"
	LocationUpdatesChannel       = "geodealer/location/updates"
	LocationAuthorizationChannel = "geodealer/location/authorization"
)

// LocationProvider implements location.Provider over the native bridge.
//
// Commands are method calls on LocationChannel. Batches arrive on
// LocationUpdatesChannel; errors on that stream become Failed callbacks.
// Authorization changes arrive on LocationAuthorizationChannel. Events are
// handed to the registered dispatch function when there is one.
//
// When the native side ends a stream the provider reports ErrStreamClosed
// through Failed and subscribes again on the next StartUpdates or RequestFix.
//
// Create one LocationProvider per process: channels are registered by name.
type LocationProvider struct {
	channel       *MethodChannel
	updates       *Stream[[]location.Fix]
	authorization *Stream[location.AuthorizationStatus]

	mu           sync.Mutex
	handler      location.Events
	updatesSub   *streamSub
	authorizeSub *streamSub
	generation   uint64
}

// streamSub is one subscription to a native stream. A nil cancel means
// Listen has not returned yet.
type streamSub struct {
	cancel   func()
	starting bool
	startErr error
}

// NewLocationProvider registers the location channels.
func NewLocationProvider() *LocationProvider {
	return &LocationProvider{
		channel:       NewMethodChannel(LocationChannel),
		updates:       NewStream(NewEventChannel(LocationUpdatesChannel), parseLocationBatch),
		authorization: NewStream(NewEventChannel(LocationAuthorizationChannel), parseAuthorizationEvent),
	}
}

// Capabilities asks the native side which variant it implements. Without an
// answer the provider behaves as the probe-only variant.
func (p *LocationProvider) Capabilities() location.Capabilities {
	result, err := p.channel.Invoke("capabilities", nil)
	if err != nil {
		p.report("location.capabilities", errors.KindPlatform, err)
		return location.Capabilities{}
	}
	m, ok := result.(map[string]any)
	if !ok {
		p.reportParse("location.capabilities", "Capabilities", result)
		return location.Capabilities{}
	}
	oneShot, _ := parseBool(m["oneShotFix"])
	prompt, _ := parseBool(m["explicitPrompt"])
	return location.Capabilities{OneShotFix: oneShot, ExplicitPrompt: prompt}
}

// ServiceEnabled reports whether location services are on. A failed query
// reads as disabled.
func (p *LocationProvider) ServiceEnabled() bool {
	result, err := p.channel.Invoke("isServiceEnabled", nil)
	if err != nil {
		p.report("location.isServiceEnabled", errors.KindPlatform, err)
		return false
	}
	if m, ok := result.(map[string]any); ok {
		if enabled, ok := parseBool(m["enabled"]); ok {
			return enabled
		}
	}
	p.reportParse("location.isServiceEnabled", "ServiceEnabled", result)
	return false
}

// AuthorizationStatus reports the app's authorization. A failed query reads
// as NotDetermined.
func (p *LocationProvider) AuthorizationStatus() location.AuthorizationStatus {
	result, err := p.channel.Invoke("authorizationStatus", nil)
	if err != nil {
		p.report("location.authorizationStatus", errors.KindPlatform, err)
		return location.StatusNotDetermined
	}
	status, err := parseAuthorizationEvent(result)
	if err != nil {
		p.reportParse("location.authorizationStatus", "AuthorizationStatus", result)
		return location.StatusNotDetermined
	}
	return status
}

// SetDesiredAccuracy implements location.Provider.
func (p *LocationProvider) SetDesiredAccuracy(meters float64) {
	p.command("setDesiredAccuracy", map[string]any{"meters": meters})
}

// StartUpdates implements location.Provider.
func (p *LocationProvider) StartUpdates() {
	p.request("startUpdates")
}

// StopUpdates implements location.Provider.
func (p *LocationProvider) StopUpdates() {
	p.nextGeneration()
	p.command("stopUpdates", nil)
}

// RequestFix implements location.FixRequester.
func (p *LocationProvider) RequestFix() {
	p.request("requestLocation")
}

// PromptForPermission implements location.PermissionPrompter.
func (p *LocationProvider) PromptForPermission(level location.Authorization) {
	name := "always"
	if level == location.AuthorizeWhenInUse {
		name = "when_in_use"
	}
	p.command("requestAuthorization", map[string]any{"level": name})
}

// SetEventHandler subscribes to the native event streams and forwards them
// to h. Passing nil unsubscribes.
func (p *LocationProvider) SetEventHandler(h location.Events) {
	p.mu.Lock()
	p.handler = h
	var stale []*streamSub
	if h == nil {
		stale = []*streamSub{p.updatesSub, p.authorizeSub}
		p.updatesSub, p.authorizeSub = nil, nil
	}
	p.mu.Unlock()

	if h == nil {
		for _, sub := range stale {
			p.cancel(sub)
		}
		return
	}
	if err := p.subscribe(); err != nil {
		p.deliver(func(h location.Events) { h.Failed(err) })
	}
}

// Close unsubscribes from the native event streams.
func (p *LocationProvider) Close() {
	p.SetEventHandler(nil)
}

// subscribe listens on every stream that has no live subscription. It
// returns the error that kept the updates stream from starting.
func (p *LocationProvider) subscribe() error {
	p.mu.Lock()
	if p.handler == nil {
		p.mu.Unlock()
		return nil
	}
	var updates, authorize *streamSub
	if p.updatesSub == nil {
		updates = &streamSub{starting: true}
		p.updatesSub = updates
	}
	if p.authorizeSub == nil {
		authorize = &streamSub{starting: true}
		p.authorizeSub = authorize
	}
	p.mu.Unlock()

	var startErr error
	if updates != nil {
		cancel := p.updates.Listen(func(fixes []location.Fix) {
			p.deliver(func(h location.Events) { h.LocationsUpdated(fixes) })
		}, func(err error) {
			if p.holdStartError(updates, err) {
				return
			}
			p.deliver(func(h location.Events) { h.Failed(err) })
		}, func() {
			if p.ended(&p.updatesSub, updates) {
				p.deliver(func(h location.Events) { h.Failed(ErrStreamClosed) })
			}
		})
		startErr = p.started(updates, cancel)
	}
	if authorize != nil {
		cancel := p.authorization.Listen(func(status location.AuthorizationStatus) {
			p.deliver(func(h location.Events) { h.AuthorizationChanged(status) })
		}, nil, func() {
			p.ended(&p.authorizeSub, authorize)
		})
		p.started(authorize, cancel)
	}
	return startErr
}

// holdStartError keeps an error raised while sub is still starting so that
// subscribe can return it instead of calling the handler.
func (p *LocationProvider) holdStartError(sub *streamSub, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !sub.starting {
		return false
	}
	sub.startErr = err
	return true
}

func (p *LocationProvider) started(sub *streamSub, cancel func()) error {
	p.mu.Lock()
	sub.cancel = cancel
	sub.starting = false
	err := sub.startErr
	live := p.updatesSub == sub || p.authorizeSub == sub
	p.mu.Unlock()
	if !live {
		// Unsubscribed while Listen was running.
		cancel()
	}
	return err
}

// ended forgets sub when the native side closes its stream. It reports
// whether sub was the live subscription.
func (p *LocationProvider) ended(slot **streamSub, sub *streamSub) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if *slot != sub {
		return false
	}
	*slot = nil
	return true
}

func (p *LocationProvider) cancel(sub *streamSub) {
	if sub == nil {
		return
	}
	p.mu.Lock()
	cancel := sub.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *LocationProvider) eventHandler() location.Events {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler
}

func (p *LocationProvider) deliver(fn func(location.Events)) {
	dispatchOrRun(func() {
		if h := p.eventHandler(); h != nil {
			fn(h)
		}
	})
}

func (p *LocationProvider) nextGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	return p.generation
}

func (p *LocationProvider) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// request sends a command that should produce locations. A failure to
// resubscribe or to send the command reaches the handler from a separate
// goroutine, since the caller may be holding the handler's lock, and is
// dropped if another start, stop or fix request was issued in between.
func (p *LocationProvider) request(method string) {
	gen := p.nextGeneration()
	err := p.subscribe()
	if err != nil {
		p.report("location.subscribe", errors.KindPlatform, err)
	}
	if cmdErr := p.command(method, nil); cmdErr != nil {
		err = cmdErr
	}
	if err == nil {
		return
	}
	go p.deliver(func(h location.Events) {
		if p.currentGeneration() != gen {
			return
		}
		h.Failed(err)
	})
}

// command invokes a native method and reports a failure.
func (p *LocationProvider) command(method string, args any) error {
	_, err := p.channel.Invoke(method, args)
	if err != nil {
		p.report("location."+method, errors.KindPlatform, err)
	}
	return err
}

func (p *LocationProvider) report(op string, kind errors.ErrorKind, err error) {
	errors.Report(&errors.Error{
		Op:      op,
		Kind:    kind,
		Channel: LocationChannel,
		Err:     err,
	})
}

func (p *LocationProvider) reportParse(op, dataType string, got any) {
	p.report(op, errors.KindParsing, &errors.ParseError{
		Channel:  LocationChannel,
		DataType: dataType,
		Got:      got,
	})
}

// parseLocationBatch decodes {"locations": [{latitude, longitude, altitude,
// accuracy, timestamp}]}. An empty list is a valid, empty batch.
func parseLocationBatch(data any) ([]location.Fix, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected map, got %T", data)
	}
	raw, ok := m["locations"].([]any)
	if !ok {
		if m["locations"] == nil {
			return nil, fmt.Errorf("missing locations")
		}
		return nil, fmt.Errorf("expected list of locations, got %T", m["locations"])
	}
	fixes := make([]location.Fix, 0, len(raw))
	for i, item := range raw {
		fix, err := parseFix(item)
		if err != nil {
			return nil, fmt.Errorf("location %d: %w", i, err)
		}
		fixes = append(fixes, fix)
	}
	return fixes, nil
}

func parseFix(data any) (location.Fix, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return location.Fix{}, fmt.Errorf("expected map, got %T", data)
	}
	lat, ok := toFloat64(m["latitude"])
	if !ok {
		return location.Fix{}, fmt.Errorf("missing latitude")
	}
	lon, ok := toFloat64(m["longitude"])
	if !ok {
		return location.Fix{}, fmt.Errorf("missing longitude")
	}
	alt, _ := toFloat64(m["altitude"])
	acc, _ := toFloat64(m["accuracy"])
	return location.Fix{
		Latitude:           lat,
		Longitude:          lon,
		Altitude:           alt,
		HorizontalAccuracy: acc,
		Timestamp:          parseTime(m["timestamp"]),
	}, nil
}

func parseAuthorizationEvent(data any) (location.AuthorizationStatus, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return location.StatusNotDetermined, fmt.Errorf("expected map, got %T", data)
	}
	name := parseString(m["status"])
	status, ok := location.ParseAuthorizationStatus(name)
	if !ok {
		return location.StatusNotDetermined, fmt.Errorf("unknown authorization status %q", name)
	}
	return status, nil
}
