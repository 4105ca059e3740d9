package location

// Provider is the host positioning capability.
//
// Commands must not deliver events synchronously to the registered Events
// handler: the Dealer holds its lock while issuing them. Deliver from another
// goroutine or after the command returns.
type Provider interface {
	// ServiceEnabled reports whether location services are on for the device.
	ServiceEnabled() bool
	// AuthorizationStatus reports the app's current authorization.
	AuthorizationStatus() AuthorizationStatus
	// SetDesiredAccuracy sets the accuracy threshold, in meters, for
	// subsequent fixes.
	SetDesiredAccuracy(meters float64)
	// StartUpdates begins continuous updates.
	StartUpdates()
	// StopUpdates ends continuous updates. Stopping an idle provider is a no-op.
	StopUpdates()
	// SetEventHandler registers the receiver of asynchronous events.
	SetEventHandler(h Events)
}

// FixRequester is implemented by providers that can deliver a single fix
// without starting continuous updates.
type FixRequester interface {
	RequestFix()
}

// PermissionPrompter is implemented by providers with an explicit call that
// shows the consent dialog.
type PermissionPrompter interface {
	PromptForPermission(level Authorization)
}

// CapabilityReporter lets a provider narrow the capabilities its method set
// suggests, e.g. when the host OS version lacks an API.
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// Capabilities describes the platform variant of a provider.
type Capabilities struct {
	// OneShotFix: current location uses RequestFix instead of StartUpdates.
	OneShotFix bool
	// ExplicitPrompt: permission is requested with PromptForPermission
	// instead of a probe via StartUpdates.
	ExplicitPrompt bool
}

// DetectCapabilities reports what p supports. A capability needs both the
// method and, when p is a CapabilityReporter, the reporter's consent.
func DetectCapabilities(p Provider) Capabilities {
	_, fix := p.(FixRequester)
	_, prompt := p.(PermissionPrompter)
	caps := Capabilities{OneShotFix: fix, ExplicitPrompt: prompt}
	if r, ok := p.(CapabilityReporter); ok {
		reported := r.Capabilities()
		caps.OneShotFix = caps.OneShotFix && reported.OneShotFix
		caps.ExplicitPrompt = caps.ExplicitPrompt && reported.ExplicitPrompt
	}
	return caps
}

// Events receives provider callbacks. Dealer implements it.
type Events interface {
	// AuthorizationChanged is called when the app's authorization changes.
	AuthorizationChanged(status AuthorizationStatus)
	// Failed is called when the provider cannot deliver locations.
	Failed(err error)
	// LocationsUpdated delivers a batch of zero or more fixes.
	LocationsUpdated(fixes []Fix)
}
