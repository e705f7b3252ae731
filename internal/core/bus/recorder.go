package bus

import "sync"

// Recorder is a PubSub for tests: it keeps a log of publishes and forwards
// everything to an inner Bus so subscribers still fire.
type Recorder struct {
	inner *Bus

	mu         sync.Mutex
	published  []string
	subscribed []string
}

func NewRecorder() *Recorder {
	return &Recorder{inner: New()}
}

func (r *Recorder) Publish(event string) {
	r.mu.Lock()
	r.published = append(r.published, event)
	r.mu.Unlock()
	r.inner.Publish(event)
}

func (r *Recorder) Subscribe(event string, h Handler) Unsubscribe {
	r.mu.Lock()
	r.subscribed = append(r.subscribed, event)
	r.mu.Unlock()
	return r.inner.Subscribe(event, h)
}

// Published returns the events published so far, in order.
func (r *Recorder) Published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.published...)
}

// Subscribed returns the event names subscriptions were requested for.
func (r *Recorder) Subscribed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.subscribed...)
}

// Live reports the number of active subscriptions for event.
func (r *Recorder) Live(event string) int {
	return r.inner.Subscribers(event)
}
