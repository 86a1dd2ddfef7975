package activetext

import (
	"log/slog"
	"net/url"
)

// TapHandler handles a tap on an element of one category. payload is the
// handle, tag, URL or custom text.
type TapHandler func(payload string, r Range)

// URLTapHandler handles a tap on a URL that parsed successfully.
type URLTapHandler func(u *url.URL, r Range)

// Delegate receives taps that no category handler took.
type Delegate interface {
	DidSelect(text string, t ActiveType, r Range)
}

// DelegateFunc adapts a function to a Delegate.
type DelegateFunc func(text string, t ActiveType, r Range)

func (f DelegateFunc) DidSelect(text string, t ActiveType, r Range) { f(text, t, r) }

// Dispatcher routes completed taps to the handler registered for the
// element's category, or to the delegate when there is none.
type Dispatcher struct {
	handlers   map[ActiveType]TapHandler
	urlHandler URLTapHandler
	delegate   Delegate
}

// NewDispatcher returns a dispatcher with no handlers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[ActiveType]TapHandler)}
}

// Handle registers h for category t, replacing any previous handler.
func (d *Dispatcher) Handle(t ActiveType, h TapHandler) {
	if h == nil {
		delete(d.handlers, t)
		return
	}
	d.handlers[t] = h
}

// HandleURL registers a handler that receives parsed URLs. It takes
// precedence over a string handler registered for URL.
func (d *Dispatcher) HandleURL(h URLTapHandler) {
	d.urlHandler = h
}

// Remove drops every handler registered for t.
func (d *Dispatcher) Remove(t ActiveType) {
	delete(d.handlers, t)
	if t == URL {
		d.urlHandler = nil
	}
}

// SetDelegate sets the fallback receiver. nil removes it.
func (d *Dispatcher) SetDelegate(delegate Delegate) {
	d.delegate = delegate
}

// Resolve picks the single callback a tap on span fires, without running
// it. It returns nil when nobody is registered. A URL payload that does not
// parse goes to the delegate, whichever URL handler is registered.
func (d *Dispatcher) Resolve(span ElementSpan) func() {
	payload := span.Element.Payload()
	r := span.Range

	if span.Type == URL {
		u, err := url.Parse(payload)
		if err != nil {
			slog.Debug("activetext: URL payload does not parse, using delegate", "url", payload, "err", err)
			return d.resolveDelegate(payload, span.Type, r)
		}
		if h := d.urlHandler; h != nil {
			return func() { h(u, r) }
		}
	}
	if h, ok := d.handlers[span.Type]; ok {
		return func() { h(payload, r) }
	}
	return d.resolveDelegate(payload, span.Type, r)
}

func (d *Dispatcher) resolveDelegate(payload string, t ActiveType, r Range) func() {
	if d.delegate == nil {
		return nil
	}
	delegate := d.delegate
	return func() { delegate.DidSelect(payload, t, r) }
}

// Dispatch fires the callback for span and reports whether one ran.
func (d *Dispatcher) Dispatch(span ElementSpan) bool {
	f := d.Resolve(span)
	if f == nil {
		return false
	}
	f()
	return true
}
