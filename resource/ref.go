package resource

// Ref is an owned reference produced by QueryCapability.
// The zero Ref is empty and owns nothing.
type Ref struct {
	h    *Handle
	view any
	id   CapabilityID
}

// Valid reports whether the ref holds a reference.
func (r Ref) Valid() bool {
	return r.h != nil
}

// Capability returns the capability the ref was resolved for.
func (r Ref) Capability() CapabilityID {
	return r.id
}

// Handle returns the referenced handle, or nil for an empty ref.
func (r Ref) Handle() *Handle {
	return r.h
}

// View returns the value registered for the capability.
func (r Ref) View() any {
	return r.view
}

// Release gives back the owned reference and empties r.
// Releasing an empty ref is a no-op that returns 0.
func (r *Ref) Release() int32 {
	if r.h == nil {
		return 0
	}
	h := r.h
	*r = Ref{}
	return h.Release()
}

// As returns the ref's view as T.
func As[T any](r Ref) (T, bool) {
	v, ok := r.view.(T)
	return v, ok
}
