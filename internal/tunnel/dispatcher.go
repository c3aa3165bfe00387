package tunnel

// Dispatcher is the single serialization point between request
// allocation and bus publication described in spec.md §4.4: an auxiliary
// background task converts inbound requests into bus publications,
// assigning ids and inserting into the store as one critical section per
// request. Here that critical section is the store's own mutex, held
// across both the id assignment and the bus publish, which is what
// guarantees that publish order on the bus always matches id allocation
// order across concurrent ingress requests.
type Dispatcher struct {
	store *Store
	bus   *Bus
}

// NewDispatcher wires a Store and Bus together.
func NewDispatcher(store *Store, bus *Bus) *Dispatcher {
	return &Dispatcher{store: store, bus: bus}
}

// Dispatch assigns draft an id, registers its reply slot, and publishes
// it to the bus, returning the id and the channel the caller should
// receive the eventual Response from. If the bus has been closed, the
// freshly allocated id is immediately abandoned (never exposed to the
// caller as claimable) and ErrStoreClosed is returned.
func (d *Dispatcher) Dispatch(draft Draft) (uint64, <-chan *Response, error) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()

	id, ch, err := d.store.allocateLocked()
	if err != nil {
		return 0, nil, err
	}

	req := &Request{
		ID:      id,
		Method:  draft.Method,
		URI:     draft.URI,
		Headers: draft.Headers,
		Body:    draft.Body,
	}

	if !d.bus.Publish(req) {
		delete(d.store.slots, id)
		return 0, nil, ErrStoreClosed
	}

	return id, ch, nil
}

// Abandon gives up on id without resolving it; equivalent to calling
// Abandon on the Store the Dispatcher was built with, but keeps ingress
// code from needing a separate Store reference.
func (d *Dispatcher) Abandon(id uint64) {
	d.store.Abandon(id)
}
