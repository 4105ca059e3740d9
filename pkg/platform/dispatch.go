package platform

import "sync"

var (
	dispatchMu   sync.RWMutex
	dispatchFunc func(callback func())
)

// RegisterDispatch sets the function that moves native events onto the
// app's serial execution context (a main loop or actor goroutine). Without
// one, events are handled on the goroutine the bridge delivers them on.
func RegisterDispatch(fn func(callback func())) {
	dispatchMu.Lock()
	dispatchFunc = fn
	dispatchMu.Unlock()
}

// Dispatch schedules a callback on the registered context.
// Returns false if no dispatch function is registered or the callback is nil.
func Dispatch(callback func()) bool {
	dispatchMu.RLock()
	fn := dispatchFunc
	dispatchMu.RUnlock()
	if fn == nil || callback == nil {
		return false
	}
	fn(callback)
	return true
}

// dispatchOrRun schedules callback, or runs it inline when nothing is registered.
func dispatchOrRun(callback func()) {
	if !Dispatch(callback) {
		callback()
	}
}
