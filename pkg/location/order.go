package location

// Order records which outstanding request, if any, owns the next provider
// callback.
type Order int

const (
	// OrderNone means no location activity is expected.
	OrderNone Order = iota
	// OrderCurrentLocation is a single-fix request.
	OrderCurrentLocation
	// OrderLocationUpdates is a continuous updates stream.
	OrderLocationUpdates
	// OrderPermissionProbe starts updates only to bring up the consent
	// dialog on providers without an explicit prompt.
	OrderPermissionProbe
)

func (o Order) String() string {
	switch o {
	case OrderNone:
		return "None"
	case OrderCurrentLocation:
		return "Current Location"
	case OrderLocationUpdates:
		return "Location Updates"
	case OrderPermissionProbe:
		return "Permission"
	default:
		return "Unknown"
	}
}

// Label is the snake_case form of the order, used for metric labels.
func (o Order) Label() string {
	switch o {
	case OrderNone:
		return "none"
	case OrderCurrentLocation:
		return "current_location"
	case OrderLocationUpdates:
		return "location_updates"
	case OrderPermissionProbe:
		return "permission_probe"
	default:
		return "unknown"
	}
}

// Orders lists every order value, in declaration order.
var Orders = []Order{OrderNone, OrderCurrentLocation, OrderLocationUpdates, OrderPermissionProbe}
