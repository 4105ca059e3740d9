package simulator

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/geodealer/pkg/location"
)

// Scenario is a scripted session between a dealer and a simulated provider.
//
//	service: true
//	status: notDetermined
//	capabilities:
//	  oneShotFix: false
//	  explicitPrompt: false
//	steps:
//	  - action: requestPermission
//	    level: whenInUse
//	  - action: error
//	    message: consent pending
//	  - action: authorization
//	    status: authorizedWhenInUse
//	  - action: requestCurrentLocation
//	    accuracy: hundredMeters
//	  - action: locations
//	    fixes:
//	      - {latitude: 55.7522, longitude: 37.6155}
type Scenario struct {
	Name         string             `yaml:"name,omitempty"`
	Service      *bool              `yaml:"service,omitempty"`
	Status       string             `yaml:"status,omitempty"`
	Capabilities ScenarioCapability `yaml:"capabilities"`
	Steps        []Step             `yaml:"steps"`
}

// ScenarioCapability selects the platform variant.
type ScenarioCapability struct {
	OneShotFix     bool `yaml:"oneShotFix"`
	ExplicitPrompt bool `yaml:"explicitPrompt"`
}

// Step actions.
const (
	ActionRequestPermission      = "requestPermission"
	ActionRequestCurrentLocation = "requestCurrentLocation"
	ActionAskForCurrentLocation  = "askForCurrentLocation"
	ActionStartUpdates           = "startUpdates"
	ActionStopUpdates            = "stopUpdates"
	ActionLocations              = "locations"
	ActionError                  = "error"
	ActionAuthorization          = "authorization"
	ActionSetStatus              = "setStatus"
	ActionSetService             = "setService"
)

// Step is one caller request or provider event.
type Step struct {
	Action   string     `yaml:"action"`
	Level    string     `yaml:"level,omitempty"`
	Accuracy string     `yaml:"accuracy,omitempty"`
	Status   string     `yaml:"status,omitempty"`
	Enabled  bool       `yaml:"enabled,omitempty"`
	Message  string     `yaml:"message,omitempty"`
	Fixes    []FixEntry `yaml:"fixes,omitempty"`
}

// FixEntry is a fix as written in a scenario file. Timestamp is RFC 3339.
type FixEntry struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Altitude  float64 `yaml:"altitude,omitempty"`
	Accuracy  float64 `yaml:"accuracy,omitempty"`
	Timestamp string  `yaml:"timestamp,omitempty"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every name in the scenario resolves.
func (s *Scenario) Validate() error {
	if s.Status != "" {
		if _, ok := location.ParseAuthorizationStatus(s.Status); !ok {
			return fmt.Errorf("scenario: unknown status %q", s.Status)
		}
	}
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("scenario step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Action {
	case ActionRequestPermission:
		if _, ok := parseLevel(st.Level); !ok {
			return fmt.Errorf("unknown level %q", st.Level)
		}
	case ActionRequestCurrentLocation, ActionAskForCurrentLocation, ActionStartUpdates:
		if _, ok := location.ParseAccuracy(st.Accuracy); !ok {
			return fmt.Errorf("unknown accuracy %q", st.Accuracy)
		}
	case ActionAuthorization, ActionSetStatus:
		if _, ok := location.ParseAuthorizationStatus(st.Status); !ok {
			return fmt.Errorf("unknown status %q", st.Status)
		}
	case ActionLocations:
		for _, f := range st.Fixes {
			if _, err := f.fix(); err != nil {
				return err
			}
		}
	case ActionStopUpdates, ActionError, ActionSetService:
	case "":
		return errors.New("missing action")
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// NewProvider builds a provider in the scenario's initial state.
func (s *Scenario) NewProvider() *Provider {
	p := NewProvider(location.Capabilities{
		OneShotFix:     s.Capabilities.OneShotFix,
		ExplicitPrompt: s.Capabilities.ExplicitPrompt,
	})
	if s.Service != nil {
		p.SetServiceEnabled(*s.Service)
	}
	if status, ok := location.ParseAuthorizationStatus(s.Status); ok {
		p.SetAuthorizationStatus(status)
	}
	return p
}

// StepReport describes what a step did from the caller's point of view.
// Notifications are observed separately on the dealer's bus.
type StepReport struct {
	Index int
	Step  Step
	// Err is the synchronous refusal of RequestCurrentLocation.
	Err error
	// Permit is set when a callback received a permit.
	Permit *location.Permit
	// Order is the dealer's order after the step.
	Order location.Order
}

// Play runs the steps against d and p, calling report after each one.
// The scenario must have passed Validate.
func (s *Scenario) Play(d *location.Dealer, p *Provider, report func(StepReport)) {
	for i, st := range s.Steps {
		r := StepReport{Index: i + 1, Step: st}
		onPermit := func(permit location.Permit) { r.Permit = &permit }

		switch st.Action {
		case ActionRequestPermission:
			level, _ := parseLevel(st.Level)
			d.RequestPermission(level, onPermit)
		case ActionRequestCurrentLocation:
			acc, _ := location.ParseAccuracy(st.Accuracy)
			r.Err = d.RequestCurrentLocation(acc)
		case ActionAskForCurrentLocation:
			acc, _ := location.ParseAccuracy(st.Accuracy)
			d.AskForCurrentLocation(acc, onPermit)
		case ActionStartUpdates:
			acc, _ := location.ParseAccuracy(st.Accuracy)
			d.StartUpdatingLocation(acc)
		case ActionStopUpdates:
			d.StopUpdatingLocation()
		case ActionLocations:
			fixes := make([]location.Fix, 0, len(st.Fixes))
			for _, f := range st.Fixes {
				fix, _ := f.fix()
				fixes = append(fixes, fix)
			}
			p.DeliverLocations(fixes...)
		case ActionError:
			p.DeliverError(errors.New(st.Message))
		case ActionAuthorization:
			status, _ := location.ParseAuthorizationStatus(st.Status)
			p.ChangeAuthorization(status)
		case ActionSetStatus:
			status, _ := location.ParseAuthorizationStatus(st.Status)
			p.SetAuthorizationStatus(status)
		case ActionSetService:
			p.SetServiceEnabled(st.Enabled)
		}

		r.Order = d.Order()
		if report != nil {
			report(r)
		}
	}
}

func parseLevel(name string) (location.Authorization, bool) {
	switch name {
	case "", "always":
		return location.AuthorizeAlways, true
	case "whenInUse":
		return location.AuthorizeWhenInUse, true
	default:
		return location.AuthorizeAlways, false
	}
}

func (f FixEntry) fix() (location.Fix, error) {
	fix := location.Fix{
		Latitude:           f.Latitude,
		Longitude:          f.Longitude,
		Altitude:           f.Altitude,
		HorizontalAccuracy: f.Accuracy,
	}
	if f.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, f.Timestamp)
		if err != nil {
			return location.Fix{}, fmt.Errorf("bad timestamp %q: %w", f.Timestamp, err)
		}
		fix.Timestamp = ts
	}
	return fix, nil
}
