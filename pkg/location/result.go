package location

import "fmt"

// Result carries either a value or a DealerError.
type Result[T any] struct {
	value T
	err   *DealerError
}

// Success returns a successful result holding v.
func Success[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Failure returns a failed result holding err.
func Failure[T any](err *DealerError) Result[T] {
	return Result[T]{err: err}
}

// OK reports whether the result is a success.
func (r Result[T]) OK() bool { return r.err == nil }

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil on success.
func (r Result[T]) Err() *DealerError { return r.err }

// Get returns the value and a non-nil error on failure.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		return r.value, r.err
	}
	return r.value, nil
}

// DealerErrorKind discriminates DealerError values.
type DealerErrorKind int

const (
	// NeedsPermission: the request was refused because of the current permit.
	NeedsPermission DealerErrorKind = iota + 1
	// ReceivedEmptyLocationData: the provider delivered an empty batch.
	ReceivedEmptyLocationData
	// FailedRequest: the provider reported a failure.
	FailedRequest
)

func (k DealerErrorKind) String() string {
	switch k {
	case NeedsPermission:
		return "needsPermission"
	case ReceivedEmptyLocationData:
		return "receivedEmptyLocationData"
	case FailedRequest:
		return "failedRequest"
	default:
		return "unknown"
	}
}

// DealerError is the error observers and callers see.
type DealerError struct {
	Kind DealerErrorKind
	// Permit is set for NeedsPermission.
	Permit Permit
	// Description is the provider's message for FailedRequest.
	Description string
}

// Sentinels for errors.Is. ErrFailedRequest matches any description.
var (
	ErrReceivedEmptyLocationData = &DealerError{Kind: ReceivedEmptyLocationData}
	ErrFailedRequest             = &DealerError{Kind: FailedRequest}
)

// NeedsPermissionError returns the error for a request refused under permit.
func NeedsPermissionError(permit Permit) *DealerError {
	return &DealerError{Kind: NeedsPermission, Permit: permit}
}

// EmptyLocationDataError returns the error for an empty batch.
func EmptyLocationDataError() *DealerError {
	return &DealerError{Kind: ReceivedEmptyLocationData}
}

// FailedRequestError returns the error for a provider failure.
func FailedRequestError(description string) *DealerError {
	return &DealerError{Kind: FailedRequest, Description: description}
}

func (e *DealerError) Error() string {
	switch e.Kind {
	case NeedsPermission:
		return fmt.Sprintf("location: needs permission (%s)", e.Permit)
	case ReceivedEmptyLocationData:
		return "location: received empty location data"
	case FailedRequest:
		return "location: request failed: " + e.Description
	default:
		return "location: unknown error"
	}
}

// Is matches DealerErrors of the same kind. NeedsPermission also compares
// the permit; FailedRequest compares descriptions unless the target's is empty.
func (e *DealerError) Is(target error) bool {
	t, ok := target.(*DealerError)
	if !ok || t == nil || t.Kind != e.Kind {
		return false
	}
	switch e.Kind {
	case NeedsPermission:
		return t.Permit == e.Permit
	case FailedRequest:
		return t.Description == "" || t.Description == e.Description
	default:
		return true
	}
}
