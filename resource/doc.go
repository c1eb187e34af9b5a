// Package resource provides reference-counted handles with capability queries.
//
// A Handle wraps a payload that several owners share. The creator holds the
// first reference; every Acquire adds one and every Release gives one back.
// The Release that brings the count to zero runs the payload's Drop on the
// calling goroutine, exactly once.
//
// # Lifecycle
//
//	h := resource.NewHandle(payload)   // refs=1
//	h.Acquire()                        // refs=2, hand to another owner
//	h.Release()                        // refs=1
//	h.Release()                        // refs=0, payload.Drop() runs
//
// A handle never comes back from zero. Acquire or Release on a destroyed
// handle panics, since no owner can legally reach it.
//
// # Capabilities
//
// QueryCapability asks a handle for a role without a type assertion on the
// concrete type. Every handle supports CapabilityIdentity, whose view is the
// payload itself. Other roles are registered at construction:
//
//	const CapabilityStats resource.CapabilityID = 1
//
//	h := resource.NewHandle(obj, resource.Capability{ID: CapabilityStats, View: obj.stats})
//
//	var ref resource.Ref
//	if err := h.QueryCapability(CapabilityStats, &ref); err != nil {
//	    // errors.Is(err, resource.ErrUnsupportedCapability)
//	}
//	defer ref.Release()
//	stats, _ := resource.As[*Stats](ref)
//
// A successful query adds a reference owned by the returned Ref.
package resource
