package location

// AuthorizationStatus is the provider's authorization state for this app.
type AuthorizationStatus int

const (
	// StatusNotDetermined means the user has not been asked yet.
	StatusNotDetermined AuthorizationStatus = iota
	// StatusRestricted means a system policy prevents access.
	StatusRestricted
	// StatusDenied means the user refused access, or services are off.
	StatusDenied
	// StatusAuthorizedAlways grants access in the foreground and background.
	StatusAuthorizedAlways
	// StatusAuthorizedWhenInUse grants access while the app is in use.
	StatusAuthorizedWhenInUse
)

func (s AuthorizationStatus) String() string {
	switch s {
	case StatusNotDetermined:
		return "notDetermined"
	case StatusRestricted:
		return "restricted"
	case StatusDenied:
		return "denied"
	case StatusAuthorizedAlways:
		return "authorizedAlways"
	case StatusAuthorizedWhenInUse:
		return "authorizedWhenInUse"
	default:
		return "unknown"
	}
}

// ParseAuthorizationStatus maps a status name to its value. Both the
// lowerCamel names returned by String and the snake_case names used on the
// native bridge are accepted.
func ParseAuthorizationStatus(name string) (AuthorizationStatus, bool) {
	switch name {
	case "notDetermined", "not_determined":
		return StatusNotDetermined, true
	case "restricted":
		return StatusRestricted, true
	case "denied":
		return StatusDenied, true
	case "authorizedAlways", "authorized_always":
		return StatusAuthorizedAlways, true
	case "authorizedWhenInUse", "authorized_when_in_use":
		return StatusAuthorizedWhenInUse, true
	default:
		return StatusNotDetermined, false
	}
}

// Permit is the verdict on whether a location fetch is currently allowed.
// It is derived from the provider state on every call and never stored.
type Permit int

const (
	// PermitNotDetermined: the user has not decided yet. Requesting
	// permission will show the consent dialog.
	PermitNotDetermined Permit = iota
	// PermitDeniedForAllAndRestricted: location services are off and the app
	// is restricted.
	PermitDeniedForAllAndRestricted
	// PermitRestricted: location services are on but the app is restricted.
	PermitRestricted
	// PermitDeniedForAllApps: location services are off for every app.
	PermitDeniedForAllApps
	// PermitDeniedForTheApp: location services are on but this app is denied.
	PermitDeniedForTheApp
	// PermitAllowed: authorized always or when in use.
	PermitAllowed
)

func (p Permit) String() string {
	switch p {
	case PermitNotDetermined:
		return "not determined"
	case PermitDeniedForAllAndRestricted:
		return "denied for all and restricted"
	case PermitRestricted:
		return "restricted"
	case PermitDeniedForAllApps:
		return "denied for all apps"
	case PermitDeniedForTheApp:
		return "denied for the app"
	case PermitAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Evaluate derives a Permit from the provider's service flag and
// authorization status.
//
// A NotDetermined status never comes with services turned off; if it does,
// the result is still PermitNotDetermined.
func Evaluate(serviceEnabled bool, status AuthorizationStatus) Permit {
	switch status {
	case StatusNotDetermined:
		return PermitNotDetermined
	case StatusDenied:
		if serviceEnabled {
			return PermitDeniedForTheApp
		}
		return PermitDeniedForAllApps
	case StatusRestricted:
		if serviceEnabled {
			return PermitRestricted
		}
		return PermitDeniedForAllAndRestricted
	default:
		return PermitAllowed
	}
}
