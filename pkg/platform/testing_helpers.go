package platform

import "sync"

// MethodCall is an invocation recorded by TestBridge.
type MethodCall struct {
	Channel string
	Method  string
	Args    any
}

// TestBridge is a NativeBridge for tests. It answers method calls from
// canned responses, records every call and tracks which event streams are
// running.
type TestBridge struct {
	mu        sync.Mutex
	responses map[string]any
	failures  map[string]error
	streamErr error
	calls     []MethodCall
	streams   map[string]bool
}

// NewTestBridge returns an empty TestBridge. Unknown methods answer nil.
func NewTestBridge() *TestBridge {
	return &TestBridge{
		responses: make(map[string]any),
		failures:  make(map[string]error),
		streams:   make(map[string]bool),
	}
}

// Respond sets the value returned for method.
func (b *TestBridge) Respond(method string, value any) {
	b.mu.Lock()
	b.responses[method] = value
	delete(b.failures, method)
	b.mu.Unlock()
}

// Fail makes method return err.
func (b *TestBridge) Fail(method string, err error) {
	b.mu.Lock()
	b.failures[method] = err
	b.mu.Unlock()
}

// FailStreams makes StartEventStream return err.
func (b *TestBridge) FailStreams(err error) {
	b.mu.Lock()
	b.streamErr = err
	b.mu.Unlock()
}

// InvokeMethod implements NativeBridge.
func (b *TestBridge) InvokeMethod(channel, method string, args []byte) ([]byte, error) {
	decoded, err := DefaultCodec.Decode(args)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.calls = append(b.calls, MethodCall{Channel: channel, Method: method, Args: decoded})
	failure := b.failures[method]
	response := b.responses[method]
	b.mu.Unlock()
	if failure != nil {
		return nil, failure
	}
	return DefaultCodec.Encode(response)
}

// StartEventStream implements NativeBridge.
func (b *TestBridge) StartEventStream(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.streamErr != nil {
		return b.streamErr
	}
	b.streams[channel] = true
	return nil
}

// StopEventStream implements NativeBridge.
func (b *TestBridge) StopEventStream(channel string) error {
	b.mu.Lock()
	delete(b.streams, channel)
	b.mu.Unlock()
	return nil
}

// Calls returns the recorded method calls.
func (b *TestBridge) Calls() []MethodCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]MethodCall, len(b.calls))
	copy(out, b.calls)
	return out
}

// Methods returns the names of the recorded method calls in order.
func (b *TestBridge) Methods() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.calls))
	for i, c := range b.calls {
		out[i] = c.Method
	}
	return out
}

// ClearCalls forgets recorded calls.
func (b *TestBridge) ClearCalls() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// Streaming reports whether the native stream for channel is running.
func (b *TestBridge) Streaming(channel string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams[channel]
}

// SetupTestBridge installs a TestBridge and a synchronous dispatch function.
// The cleanup function should be testing.T.Cleanup or equivalent; it
// registers a teardown that calls ResetForTest.
//
//	bridge := platform.SetupTestBridge(t.Cleanup)
func SetupTestBridge(cleanup func(func())) *TestBridge {
	bridge := NewTestBridge()
	SetNativeBridge(bridge)
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(ResetForTest)
	return bridge
}
