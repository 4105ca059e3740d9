package location_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/go-drift/geodealer/pkg/location"
	"github.com/go-drift/geodealer/pkg/simulator"
)

type publication struct {
	topic   location.Topic
	payload any
}

// recordingBus captures publications in order.
type recordingBus struct {
	mu   sync.Mutex
	pubs []publication
}

func (b *recordingBus) Publish(topic location.Topic, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pubs = append(b.pubs, publication{topic, payload})
}

func (b *recordingBus) all() []publication {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]publication, len(b.pubs))
	copy(out, b.pubs)
	return out
}

func (b *recordingBus) last(t *testing.T) publication {
	t.Helper()
	pubs := b.all()
	if len(pubs) == 0 {
		t.Fatal("expected a publication, got none")
	}
	return pubs[len(pubs)-1]
}

var (
	locA = location.Fix{Latitude: 55.7522, Longitude: 37.6155}
	locB = location.Fix{Latitude: 59.9386, Longitude: 30.3141}
)

// probeVariant has neither a one-shot fix nor an explicit prompt.
var probeVariant = location.Capabilities{}

// promptVariant has both.
var promptVariant = location.Capabilities{OneShotFix: true, ExplicitPrompt: true}

func newDealer(t *testing.T, caps location.Capabilities, opts ...location.Option) (*location.Dealer, *simulator.Provider, *recordingBus) {
	t.Helper()
	provider := simulator.NewProvider(caps)
	bus := &recordingBus{}
	logger, _ := test.NewNullLogger()
	opts = append([]location.Option{location.WithLogger(logrus.NewEntry(logger))}, opts...)
	d := location.New(provider, bus, opts...)
	provider.ClearCommands()
	return d, provider, bus
}

func allow(p *simulator.Provider) {
	p.SetServiceEnabled(true)
	p.SetAuthorizationStatus(location.StatusAuthorizedWhenInUse)
}

func TestNewAppliesDefaultAccuracy(t *testing.T) {
	provider := simulator.NewProvider(probeVariant)
	d := location.New(provider, &recordingBus{})

	if got := provider.DesiredAccuracy(); got != 3000 {
		t.Errorf("provider accuracy = %v, want 3000", got)
	}
	if d.Order() != location.OrderNone {
		t.Errorf("initial order = %s", d.Order())
	}
	if d.DesiredAccuracy() != location.ThreeKilometers {
		t.Errorf("DesiredAccuracy() = %s", d.DesiredAccuracy())
	}

	provider = simulator.NewProvider(probeVariant)
	location.New(provider, &recordingBus{}, location.WithDefaultAccuracy(location.Kilometer))
	if got := provider.DesiredAccuracy(); got != 1000 {
		t.Errorf("configured default accuracy = %v, want 1000", got)
	}
}

func TestDetectCapabilities(t *testing.T) {
	tests := []struct {
		name string
		caps location.Capabilities
	}{
		{"probe variant", probeVariant},
		{"prompt variant", promptVariant},
		{"one-shot only", location.Capabilities{OneShotFix: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := location.DetectCapabilities(simulator.NewProvider(tt.caps))
			if got != tt.caps {
				t.Errorf("DetectCapabilities = %+v, want %+v", got, tt.caps)
			}
		})
	}
}

// Scenario A.
func TestCurrentLocationDenied(t *testing.T) {
	d, provider, bus := newDealer(t, promptVariant)
	provider.SetServiceEnabled(true)
	provider.SetAuthorizationStatus(location.StatusDenied)

	if d.Permit() != location.PermitDeniedForTheApp {
		t.Fatalf("Permit() = %s", d.Permit())
	}

	var got *location.Permit
	d.AskForCurrentLocation(location.AccuracyDefault, func(p location.Permit) { got = &p })
	if got == nil || *got != location.PermitDeniedForTheApp {
		t.Fatalf("onNotAllowed received %v", got)
	}

	err := d.RequestCurrentLocation(location.Best)
	if !errors.Is(err, location.NeedsPermissionError(location.PermitDeniedForTheApp)) {
		t.Errorf("RequestCurrentLocation error = %v", err)
	}

	if cmds := provider.Commands(); len(cmds) != 0 {
		t.Errorf("provider received %v, want nothing", cmds)
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
	if len(bus.all()) != 0 {
		t.Error("permission refusals must not be published")
	}
}

func TestCurrentLocationNotAllowedLeavesOrder(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)
	allow(provider)
	d.StartUpdatingLocation(location.AccuracyDefault)
	provider.SetAuthorizationStatus(location.StatusRestricted)
	provider.ClearCommands()

	if err := d.RequestCurrentLocation(location.AccuracyDefault); err == nil {
		t.Fatal("expected a permission error")
	}
	if d.Order() != location.OrderLocationUpdates {
		t.Errorf("order = %s, want Location Updates", d.Order())
	}
	if cmds := provider.Commands(); len(cmds) != 0 {
		t.Errorf("provider received %v", cmds)
	}
}

// Scenario B, both platform variants.
func TestCurrentLocationSuccess(t *testing.T) {
	tests := []struct {
		name     string
		caps     location.Capabilities
		wantCmds []string
	}{
		{"one-shot", promptVariant, []string{simulator.CmdStopUpdates, simulator.CmdRequestFix}},
		{"continuous", probeVariant, []string{simulator.CmdStopUpdates, simulator.CmdStartUpdates}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, provider, bus := newDealer(t, tt.caps)
			allow(provider)

			if err := d.RequestCurrentLocation(location.HundredMeters); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.Order() != location.OrderCurrentLocation {
				t.Fatalf("order = %s", d.Order())
			}
			if got := provider.ActivityCommands(); !reflect.DeepEqual(got, tt.wantCmds) {
				t.Errorf("commands = %v, want %v", got, tt.wantCmds)
			}
			if provider.DesiredAccuracy() != 100 {
				t.Errorf("accuracy = %v, want 100", provider.DesiredAccuracy())
			}

			provider.DeliverLocations(locA, locB)

			pub := bus.last(t)
			if pub.topic != location.TopicCurrent {
				t.Fatalf("topic = %s", pub.topic)
			}
			result, ok := pub.payload.(location.Result[location.Sample])
			if !ok {
				t.Fatalf("payload type %T", pub.payload)
			}
			sample, err := result.Get()
			if err != nil {
				t.Fatalf("result error: %v", err)
			}
			if !sample.Equal(location.NewSample(locA)) {
				t.Errorf("sample = %v, want locA", sample)
			}
			if d.Order() != location.OrderNone {
				t.Errorf("order = %s, want None", d.Order())
			}
			if provider.Running() {
				t.Error("provider should be stopped")
			}
			if n := len(bus.all()); n != 1 {
				t.Errorf("publications = %d, want 1", n)
			}
		})
	}
}

// Scenario C.
func TestCurrentLocationEmptyBatch(t *testing.T) {
	d, provider, bus := newDealer(t, probeVariant)
	allow(provider)
	d.AskForCurrentLocation(location.AccuracyDefault, func(location.Permit) {
		t.Error("onNotAllowed must not be called when allowed")
	})

	provider.DeliverLocations()

	pub := bus.last(t)
	result := pub.payload.(location.Result[location.Sample])
	if pub.topic != location.TopicCurrent || result.OK() {
		t.Fatalf("got %s ok=%v", pub.topic, result.OK())
	}
	if !errors.Is(result.Err(), location.ErrReceivedEmptyLocationData) {
		t.Errorf("error = %v", result.Err())
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
}

// Scenario D.
func TestLocationUpdates(t *testing.T) {
	d, provider, bus := newDealer(t, promptVariant)

	d.StartUpdatingLocation(location.NearestTenMeters)
	if got, want := provider.ActivityCommands(), []string{simulator.CmdStopUpdates, simulator.CmdStartUpdates}; !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %v, want %v", got, want)
	}
	if provider.DesiredAccuracy() != 10 {
		t.Errorf("accuracy = %v", provider.DesiredAccuracy())
	}

	provider.DeliverLocations(locA)
	pub := bus.last(t)
	result := pub.payload.(location.Result[[]location.Sample])
	if pub.topic != location.TopicUpdates || !result.OK() {
		t.Fatalf("got %s ok=%v", pub.topic, result.OK())
	}
	if samples := result.Value(); len(samples) != 1 || !samples[0].Equal(location.NewSample(locA)) {
		t.Errorf("samples = %v", samples)
	}
	if d.Order() != location.OrderLocationUpdates || !provider.Running() {
		t.Fatalf("updates should keep running, order = %s", d.Order())
	}

	provider.DeliverLocations(locA, locB)
	if got := bus.last(t).payload.(location.Result[[]location.Sample]).Value(); len(got) != 2 {
		t.Errorf("second batch samples = %d, want 2", len(got))
	}

	provider.DeliverLocations()
	pub = bus.last(t)
	result = pub.payload.(location.Result[[]location.Sample])
	if pub.topic != location.TopicUpdates || result.OK() {
		t.Fatalf("got %s ok=%v", pub.topic, result.OK())
	}
	if !errors.Is(result.Err(), location.ErrReceivedEmptyLocationData) {
		t.Errorf("error = %v", result.Err())
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
	if provider.Running() {
		t.Error("provider should be stopped after an empty batch")
	}
}

// Scenario E.
func TestPermissionProbe(t *testing.T) {
	d, provider, bus := newDealer(t, probeVariant)

	var determined bool
	d.RequestPermission(location.AuthorizeWhenInUse, func(location.Permit) { determined = true })
	if determined {
		t.Fatal("callback must not run while permit is not determined")
	}
	if d.Order() != location.OrderPermissionProbe {
		t.Fatalf("order = %s", d.Order())
	}
	if !provider.Running() {
		t.Fatal("probe should start updates")
	}

	provider.DeliverError(errors.New("kCLErrorDomain error 0"))
	if len(bus.all()) != 0 {
		t.Fatalf("error during pending consent should be swallowed, got %v", bus.all())
	}
	if d.Order() != location.OrderPermissionProbe {
		t.Errorf("order = %s, want Permission", d.Order())
	}

	provider.DeliverLocations(locA)
	if len(bus.all()) != 0 {
		t.Fatalf("probe batches must not be published, got %v", bus.all())
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s, want None", d.Order())
	}
	if provider.Running() {
		t.Error("provider should be stopped")
	}
}

func TestPermissionProbeRepeatIsNoop(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)
	d.RequestPermission(location.AuthorizeAlways, nil)
	provider.ClearCommands()

	d.RequestPermission(location.AuthorizeAlways, nil)
	if cmds := provider.Commands(); len(cmds) != 0 {
		t.Errorf("repeated probe issued %v", cmds)
	}
	if d.Order() != location.OrderPermissionProbe {
		t.Errorf("order = %s", d.Order())
	}
}

func TestPermissionProbeErrorAfterDecision(t *testing.T) {
	d, provider, bus := newDealer(t, probeVariant)
	d.RequestPermission(location.AuthorizeAlways, nil)

	provider.ChangeAuthorization(location.StatusDenied)
	provider.DeliverError(errors.New("denied"))

	pubs := bus.all()
	if len(pubs) != 2 {
		t.Fatalf("publications = %v", pubs)
	}
	if pubs[0].topic != location.TopicStatusChanged || pubs[0].payload != location.StatusDenied {
		t.Errorf("first publication = %+v", pubs[0])
	}
	if pubs[1].topic != location.TopicError {
		t.Errorf("second topic = %s", pubs[1].topic)
	}
	if !errors.Is(pubs[1].payload.(*location.DealerError), location.FailedRequestError("denied")) {
		t.Errorf("error payload = %v", pubs[1].payload)
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
}

func TestRequestPermissionExplicitPrompt(t *testing.T) {
	d, provider, bus := newDealer(t, promptVariant)

	d.RequestPermission(location.AuthorizeWhenInUse, nil)

	cmds := provider.Commands()
	if len(cmds) != 1 || cmds[0].Name != simulator.CmdPrompt || cmds[0].Arg != location.AuthorizeWhenInUse {
		t.Fatalf("commands = %v", cmds)
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s, want None", d.Order())
	}

	provider.ChangeAuthorization(location.StatusAuthorizedWhenInUse)
	if pub := bus.last(t); pub.topic != location.TopicStatusChanged || pub.payload != location.StatusAuthorizedWhenInUse {
		t.Errorf("publication = %+v", pub)
	}
}

func TestRequestPermissionAlreadyDetermined(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		status  location.AuthorizationStatus
		want    location.Permit
	}{
		{"allowed", true, location.StatusAuthorizedAlways, location.PermitAllowed},
		{"denied for app", true, location.StatusDenied, location.PermitDeniedForTheApp},
		{"services off", false, location.StatusDenied, location.PermitDeniedForAllApps},
		{"restricted", true, location.StatusRestricted, location.PermitRestricted},
	}
	for _, tt := range tests {
		for _, caps := range []location.Capabilities{probeVariant, promptVariant} {
			d, provider, _ := newDealer(t, caps)
			provider.SetServiceEnabled(tt.enabled)
			provider.SetAuthorizationStatus(tt.status)

			var got *location.Permit
			d.RequestPermission(location.AuthorizeAlways, func(p location.Permit) { got = &p })

			if got == nil || *got != tt.want {
				t.Errorf("%s: callback got %v, want %s", tt.name, got, tt.want)
			}
			if cmds := provider.Commands(); len(cmds) != 0 {
				t.Errorf("%s: provider received %v", tt.name, cmds)
			}
			// A nil callback is allowed.
			d.RequestPermission(location.AuthorizeAlways, nil)
		}
	}
}

func TestStopUpdatingLocationIdempotent(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)
	d.StartUpdatingLocation(location.AccuracyDefault)
	provider.ClearCommands()

	d.StopUpdatingLocation()
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
	d.StopUpdatingLocation()
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
	if got := provider.Count(simulator.CmdStopUpdates); got != 2 {
		t.Errorf("stop calls = %d, want 2", got)
	}
	if provider.Count(simulator.CmdStartUpdates) != 0 {
		t.Error("stop must not start the provider")
	}
}

func TestEveryStartIsPrecededByStop(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)
	allow(provider)

	d.StartUpdatingLocation(location.Best)
	_ = d.RequestCurrentLocation(location.Kilometer)
	d.StartUpdatingLocation(location.AccuracyDefault)
	provider.SetAuthorizationStatus(location.StatusNotDetermined)
	d.StopUpdatingLocation()
	d.RequestPermission(location.AuthorizeAlways, nil)

	cmds := provider.ActivityCommands()
	for i, name := range cmds {
		if name == simulator.CmdStartUpdates && (i == 0 || cmds[i-1] != simulator.CmdStopUpdates) {
			t.Errorf("start at %d not preceded by stop: %v", i, cmds)
		}
	}
}

func TestStartUpdatingResetsAccuracy(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)

	d.StartUpdatingLocation(location.Best)
	if provider.DesiredAccuracy() != -1 {
		t.Errorf("accuracy = %v", provider.DesiredAccuracy())
	}
	d.StartUpdatingLocation(location.AccuracyDefault)
	if provider.DesiredAccuracy() != 3000 || d.DesiredAccuracy() != location.ThreeKilometers {
		t.Errorf("restart should apply the default, got %v", provider.DesiredAccuracy())
	}
}

func TestReset(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)
	d.StartUpdatingLocation(location.BestForNavigation)
	provider.ClearCommands()

	d.Reset()
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
	if d.DesiredAccuracy() != location.ThreeKilometers || provider.DesiredAccuracy() != 3000 {
		t.Errorf("accuracy not restored: %s", d.DesiredAccuracy())
	}
	if got := provider.ActivityCommands(); len(got) != 0 {
		t.Errorf("Reset touched provider activity: %v", got)
	}
}

func TestUnsolicitedBatch(t *testing.T) {
	d, provider, bus := newDealer(t, probeVariant)

	provider.DeliverLocations(locA)
	provider.DeliverLocations()

	if len(bus.all()) != 0 {
		t.Errorf("unsolicited batches published %v", bus.all())
	}
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
	if got := provider.Count(simulator.CmdStopUpdates); got != 2 {
		t.Errorf("stop calls = %d, want 2", got)
	}
}

func TestFailedPublishesError(t *testing.T) {
	tests := []struct {
		name  string
		start func(*location.Dealer)
	}{
		{"no order", func(*location.Dealer) {}},
		{"current location", func(d *location.Dealer) { _ = d.RequestCurrentLocation(location.AccuracyDefault) }},
		{"updates", func(d *location.Dealer) { d.StartUpdatingLocation(location.AccuracyDefault) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, provider, bus := newDealer(t, probeVariant)
			allow(provider)
			tt.start(d)

			provider.DeliverError(errors.New("network unreachable"))

			pub := bus.last(t)
			if pub.topic != location.TopicError {
				t.Fatalf("topic = %s", pub.topic)
			}
			derr := pub.payload.(*location.DealerError)
			if derr.Kind != location.FailedRequest || derr.Description != "network unreachable" {
				t.Errorf("payload = %+v", derr)
			}
			if d.Order() != location.OrderNone {
				t.Errorf("order = %s", d.Order())
			}
			if provider.Running() {
				t.Error("provider should be stopped")
			}
		})
	}
}

func TestFailedNilError(t *testing.T) {
	_, provider, bus := newDealer(t, probeVariant)
	provider.DeliverError(nil)
	if derr := bus.last(t).payload.(*location.DealerError); derr.Description == "" {
		t.Error("a nil provider error still needs a description")
	}
}

func TestAuthorizationChangedIgnoresOrder(t *testing.T) {
	d, provider, bus := newDealer(t, probeVariant)
	d.StartUpdatingLocation(location.AccuracyDefault)

	provider.ChangeAuthorization(location.StatusRestricted)

	if pub := bus.last(t); pub.topic != location.TopicStatusChanged || pub.payload != location.StatusRestricted {
		t.Errorf("publication = %+v", pub)
	}
	if d.Order() != location.OrderLocationUpdates {
		t.Errorf("order = %s", d.Order())
	}
}

func TestRestartSupersedesPreviousRequest(t *testing.T) {
	d, provider, bus := newDealer(t, probeVariant)
	allow(provider)

	d.StartUpdatingLocation(location.AccuracyDefault)
	if err := d.RequestCurrentLocation(location.AccuracyDefault); err != nil {
		t.Fatal(err)
	}
	provider.DeliverLocations(locB)

	pub := bus.last(t)
	if pub.topic != location.TopicCurrent {
		t.Fatalf("batch after restart should settle the current-location request, got %s", pub.topic)
	}
	if n := len(bus.all()); n != 1 {
		t.Errorf("publications = %d, want 1", n)
	}
}

func TestObserverMayReenterDealer(t *testing.T) {
	provider := simulator.NewProvider(probeVariant)
	allow(provider)
	var d *location.Dealer
	var current []location.Result[location.Sample]
	bus := location.BusFunc(func(topic location.Topic, payload any) {
		if topic == location.TopicCurrent {
			current = append(current, payload.(location.Result[location.Sample]))
			if len(current) == 1 {
				d.StartUpdatingLocation(location.AccuracyDefault)
			}
		}
	})
	logger, _ := test.NewNullLogger()
	d = location.New(provider, bus, location.WithLogger(logrus.NewEntry(logger)))

	_ = d.RequestCurrentLocation(location.AccuracyDefault)
	provider.DeliverLocations(locA)

	if len(current) != 1 {
		t.Fatalf("current results = %d", len(current))
	}
	if d.Order() != location.OrderLocationUpdates {
		t.Errorf("order = %s, want Location Updates", d.Order())
	}
}

func TestNilBus(t *testing.T) {
	provider := simulator.NewProvider(probeVariant)
	d := location.New(provider, nil)
	d.StartUpdatingLocation(location.AccuracyDefault)
	provider.DeliverLocations(locA)
	provider.DeliverError(errors.New("x"))
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
}

func TestLogsSwallowedError(t *testing.T) {
	logger, hook := test.NewNullLogger()
	provider := simulator.NewProvider(probeVariant)
	d := location.New(provider, &recordingBus{}, location.WithLogger(logrus.NewEntry(logger)))

	d.RequestPermission(location.AuthorizeAlways, nil)
	provider.DeliverError(errors.New("pending"))

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.InfoLevel {
		t.Fatalf("last entry = %+v", entry)
	}
	if entry.Data["error"] != "pending" || entry.Data["component"] != "location.dealer" {
		t.Errorf("fields = %v", entry.Data)
	}
}

type countingMetrics struct {
	mu        sync.Mutex
	requests  map[location.Order]int
	orders    []location.Order
	published map[location.Topic][2]int
	swallowed int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		requests:  map[location.Order]int{},
		published: map[location.Topic][2]int{},
	}
}

func (m *countingMetrics) RequestIssued(o location.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[o]++
}

func (m *countingMetrics) OrderChanged(o location.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, o)
}

func (m *countingMetrics) Published(topic location.Topic, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.published[topic]
	if ok {
		c[0]++
	} else {
		c[1]++
	}
	m.published[topic] = c
}

func (m *countingMetrics) ErrorSwallowed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.swallowed++
}

func TestMetricsObserver(t *testing.T) {
	m := newCountingMetrics()
	d, provider, _ := newDealer(t, probeVariant, location.WithMetrics(m))

	d.RequestPermission(location.AuthorizeAlways, nil)
	provider.DeliverError(errors.New("pending"))
	provider.ChangeAuthorization(location.StatusAuthorizedAlways)
	provider.DeliverLocations(locA)

	_ = d.RequestCurrentLocation(location.AccuracyDefault)
	provider.DeliverLocations(locA)
	d.StartUpdatingLocation(location.AccuracyDefault)
	provider.DeliverLocations(locA)
	provider.DeliverLocations()

	if m.swallowed != 1 {
		t.Errorf("swallowed = %d", m.swallowed)
	}
	if m.requests[location.OrderPermissionProbe] != 1 || m.requests[location.OrderCurrentLocation] != 1 || m.requests[location.OrderLocationUpdates] != 1 {
		t.Errorf("requests = %v", m.requests)
	}
	if got := m.published[location.TopicCurrent]; got != [2]int{1, 0} {
		t.Errorf("current publications = %v", got)
	}
	if got := m.published[location.TopicUpdates]; got != [2]int{1, 1} {
		t.Errorf("updates publications = %v", got)
	}
	if got := m.published[location.TopicStatusChanged]; got != [2]int{1, 0} {
		t.Errorf("status publications = %v", got)
	}
	if last := m.orders[len(m.orders)-1]; last != location.OrderNone {
		t.Errorf("last order = %s", last)
	}
}

func TestConcurrentRequestsAndCallbacks(t *testing.T) {
	d, provider, _ := newDealer(t, probeVariant)
	allow(provider)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				switch (i + j) % 3 {
				case 0:
					_ = d.RequestCurrentLocation(location.AccuracyDefault)
				case 1:
					d.StartUpdatingLocation(location.Best)
				default:
					d.StopUpdatingLocation()
				}
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if j%7 == 0 {
					provider.DeliverError(errors.New("x"))
				} else {
					provider.DeliverLocations(locA)
				}
			}
		}(i)
	}
	wg.Wait()

	d.StopUpdatingLocation()
	if d.Order() != location.OrderNone {
		t.Errorf("order = %s", d.Order())
	}
}
