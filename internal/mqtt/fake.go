package mqtt

// FakeClient records broker interactions for test assertions.
type FakeClient struct {
	// Subscribed contains every topic passed to Subscribe, in order.
	Subscribed []string

	// Unsubscribed contains every topic passed to Unsubscribe, in order.
	Unsubscribed []string

	// ConnectError, if set, will be returned by Connect.
	ConnectError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Connected controls the return value of IsConnectionOpen.
	Connected bool

	// Disconnected tracks if Disconnect was called
	Disconnected bool

	onConnect func()
	handlers  map[string]func(topic string, payload []byte)
}

// NewFakeClient creates a FakeClient for testing.
func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: make(map[string]func(string, []byte))}
}

// Connect records onConnect and runs it, as a broker connect would.
func (f *FakeClient) Connect(onConnect func()) error {
	f.onConnect = onConnect
	if f.ConnectError != nil {
		return f.ConnectError
	}
	f.Connected = true
	onConnect()
	return nil
}

// Reconnect simulates an automatic reconnect after a lost connection.
func (f *FakeClient) Reconnect() {
	f.Connected = true
	if f.onConnect != nil {
		f.onConnect()
	}
}

// Subscribe records the topic and handler.
func (f *FakeClient) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.Subscribed = append(f.Subscribed, topic)
	f.handlers[topic] = handler
	return nil
}

// Unsubscribe records the topic and drops its handler.
func (f *FakeClient) Unsubscribe(topic string) error {
	f.Unsubscribed = append(f.Unsubscribed, topic)
	delete(f.handlers, topic)
	return nil
}

// Deliver passes payload to the handler subscribed on topic.
// It reports whether a handler was found.
func (f *FakeClient) Deliver(topic string, payload []byte) bool {
	h, ok := f.handlers[topic]
	if ok {
		h(topic, payload)
	}
	return ok
}

// IsConnectionOpen reports whether the fake client is "connected".
func (f *FakeClient) IsConnectionOpen() bool {
	return f.Connected
}

// Disconnect marks the client disconnected.
func (f *FakeClient) Disconnect(quiesce uint) {
	f.Connected = false
	f.Disconnected = true
}
