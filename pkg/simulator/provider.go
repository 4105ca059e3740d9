// Package simulator provides an in-memory location provider whose state and
// events are driven by the caller. It stands in for the host positioning
// capability in tests and in the geodealer CLI.
package simulator

import (
	"fmt"
	"sync"

	"github.com/go-drift/geodealer/pkg/location"
)

// Command names recorded by Provider.
const (
	CmdStartUpdates       = "startUpdates"
	CmdStopUpdates        = "stopUpdates"
	CmdRequestFix         = "requestFix"
	CmdPrompt             = "promptForPermission"
	CmdSetDesiredAccuracy = "setDesiredAccuracy"
)

// Command is one call the provider received.
type Command struct {
	Name string
	// Arg is the accuracy in meters for CmdSetDesiredAccuracy and the
	// location.Authorization for CmdPrompt.
	Arg any
}

func (c Command) String() string {
	if c.Arg == nil {
		return c.Name
	}
	return fmt.Sprintf("%s(%v)", c.Name, c.Arg)
}

// Provider is a scriptable location.Provider. It implements the optional
// one-shot and prompt interfaces and reports the capabilities it was created
// with, so both platform variants can be exercised.
//
// Events are delivered only when the caller asks for them (DeliverLocations,
// DeliverError, ChangeAuthorization), never from inside a command.
type Provider struct {
	mu       sync.Mutex
	caps     location.Capabilities
	enabled  bool
	status   location.AuthorizationStatus
	accuracy float64
	running  bool
	handler  location.Events
	commands []Command
}

// NewProvider returns a provider with services enabled, status
// NotDetermined and the given capabilities.
func NewProvider(caps location.Capabilities) *Provider {
	return &Provider{caps: caps, enabled: true}
}

// Capabilities implements location.CapabilityReporter.
func (p *Provider) Capabilities() location.Capabilities {
	return p.caps
}

// ServiceEnabled implements location.Provider.
func (p *Provider) ServiceEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// AuthorizationStatus implements location.Provider.
func (p *Provider) AuthorizationStatus() location.AuthorizationStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// SetDesiredAccuracy implements location.Provider.
func (p *Provider) SetDesiredAccuracy(meters float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accuracy = meters
	p.record(CmdSetDesiredAccuracy, meters)
}

// StartUpdates implements location.Provider.
func (p *Provider) StartUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.record(CmdStartUpdates, nil)
}

// StopUpdates implements location.Provider.
func (p *Provider) StopUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.record(CmdStopUpdates, nil)
}

// RequestFix implements location.FixRequester.
func (p *Provider) RequestFix() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CmdRequestFix, nil)
}

// PromptForPermission implements location.PermissionPrompter.
func (p *Provider) PromptForPermission(level location.Authorization) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CmdPrompt, level)
}

// SetEventHandler implements location.Provider.
func (p *Provider) SetEventHandler(h location.Events) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// SetServiceEnabled changes the device-wide service flag silently.
func (p *Provider) SetServiceEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetAuthorizationStatus changes the status without notifying the handler.
func (p *Provider) SetAuthorizationStatus(status location.AuthorizationStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
}

// ChangeAuthorization changes the status and notifies the handler, as the
// host does when the user answers the consent dialog.
func (p *Provider) ChangeAuthorization(status location.AuthorizationStatus) {
	p.SetAuthorizationStatus(status)
	if h := p.eventHandler(); h != nil {
		h.AuthorizationChanged(status)
	}
}

// DeliverLocations sends a batch to the handler.
func (p *Provider) DeliverLocations(fixes ...location.Fix) {
	if h := p.eventHandler(); h != nil {
		h.LocationsUpdated(fixes)
	}
}

// DeliverError sends a failure to the handler.
func (p *Provider) DeliverError(err error) {
	if h := p.eventHandler(); h != nil {
		h.Failed(err)
	}
}

// Running reports whether updates are started.
func (p *Provider) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// DesiredAccuracy returns the last accuracy set, in meters.
func (p *Provider) DesiredAccuracy() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accuracy
}

// Commands returns a copy of the recorded commands.
func (p *Provider) Commands() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Command, len(p.commands))
	copy(out, p.commands)
	return out
}

// ActivityCommands returns the recorded command names, leaving out accuracy
// changes.
func (p *Provider) ActivityCommands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var names []string
	for _, c := range p.commands {
		if c.Name != CmdSetDesiredAccuracy {
			names = append(names, c.Name)
		}
	}
	return names
}

// Count returns how many times the named command was received.
func (p *Provider) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.commands {
		if c.Name == name {
			n++
		}
	}
	return n
}

// ClearCommands forgets the recorded commands.
func (p *Provider) ClearCommands() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = nil
}

func (p *Provider) eventHandler() location.Events {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler
}

// record must be called with mu held.
func (p *Provider) record(name string, arg any) {
	p.commands = append(p.commands, Command{Name: name, Arg: arg})
}
