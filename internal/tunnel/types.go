// Package tunnel implements the request-correlation and
// streaming-dispatch engine at the core of porco: the request store, the
// broadcast bus, and the dispatcher that ties id-allocation to
// publication order.
package tunnel

// Header is a single HTTP header name/value pair, carried as raw bytes so
// non-UTF-8 values survive the round trip between the public HTTP request
// and the tunneled copy sent to a client.
type Header struct {
	Name  []byte
	Value []byte
}

// Draft is a tunneled request awaiting id assignment. The ingress adapter
// builds one per accepted HTTP request and hands it to the Dispatcher,
// which assigns the id.
type Draft struct {
	Method  string
	URI     string
	Headers []Header
	Body    []byte
}

// Request is an in-flight public HTTP request materialized for transport,
// with its id assigned. id 0 is never assigned by the store; it is
// reserved for "unknown / error before assignment".
type Request struct {
	ID      uint64
	Method  string
	URI     string
	Headers []Header
	Body    []byte
}

// Response is a client's reply to a previously dispatched Request.
type Response struct {
	ID      uint64
	Status  uint16
	Headers []Header
	Body    []byte
}
