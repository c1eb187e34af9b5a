package resource

import (
	"fmt"
	"sync/atomic"

	"github.com/wippyai/bindcore/errors"
)

// Handle is an intrusive, atomically reference-counted wrapper around a
// payload. It is created with one reference owned by its creator and is
// destroyed by the Release that brings the count to zero.
//
// Handle is safe for concurrent use. After Release, the caller must not use
// the handle again: another owner may already have destroyed it.
type Handle struct {
	payload Dropper
	caps    []Capability
	refs    atomic.Int32
}

// NewHandle creates a live handle with a reference count of 1.
// payload may be nil. Entries in caps that use CapabilityIdentity are ignored.
func NewHandle(payload Dropper, caps ...Capability) *Handle {
	h := &Handle{payload: payload}
	for _, c := range caps {
		if c.ID == CapabilityIdentity {
			continue
		}
		h.caps = append(h.caps, c)
	}
	h.refs.Store(1)
	return h
}

// Acquire adds a reference and returns the new count. The count is only
// informative, other goroutines may change it right away.
//
// Acquiring a destroyed handle panics.
func (h *Handle) Acquire() int32 {
	for {
		n := h.refs.Load()
		if n <= 0 {
			panic(fmt.Sprintf("resource: acquire on destroyed handle (refs=%d)", n))
		}
		if h.refs.CompareAndSwap(n, n+1) {
			return n + 1
		}
	}
}

// Release drops a reference and returns the new count. The release that
// reaches zero tears down the payload before returning.
func (h *Handle) Release() int32 {
	n := h.refs.Add(-1)
	switch {
	case n == 0:
		h.destroy()
	case n < 0:
		panic(fmt.Sprintf("resource: release on destroyed handle (refs=%d)", n))
	}
	return n
}

// Refs returns the current reference count for diagnostics.
func (h *Handle) Refs() int32 {
	return h.refs.Load()
}

// QueryCapability resolves id against the handle's capability table.
// On success out holds a new reference that must be released; on
// ErrUnsupportedCapability out is reset to the empty Ref. A nil out yields
// ErrInvalidArgument and touches nothing.
func (h *Handle) QueryCapability(id CapabilityID, out *Ref) error {
	if out == nil {
		return errors.New(errors.PhaseQuery, errors.KindInvalidInput).
			Detail("nil output ref").
			Build()
	}

	view, ok := h.lookup(id)
	if !ok {
		*out = Ref{}
		return errors.New(errors.PhaseQuery, errors.KindUnsupported).
			Value(id).
			Detail("capability %d not supported", id).
			Build()
	}

	h.Acquire()
	*out = Ref{h: h, view: view, id: id}
	return nil
}

func (h *Handle) lookup(id CapabilityID) (any, bool) {
	if id == CapabilityIdentity {
		if h.payload != nil {
			return h.payload, true
		}
		return h, true
	}
	for _, c := range h.caps {
		if c.ID == id {
			return c.View, true
		}
	}
	return nil, false
}

func (h *Handle) destroy() {
	p := h.payload
	h.payload = nil
	h.caps = nil
	if p != nil {
		p.Drop()
	}
}
