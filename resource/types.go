package resource

import "github.com/wippyai/bindcore/errors"

// CapabilityID selects a role a handle may expose.
type CapabilityID uint32

// CapabilityIdentity is the base identity capability. Every handle supports it.
const CapabilityIdentity CapabilityID = 0

// Capability is one entry of a handle's capability table.
type Capability struct {
	View any
	ID   CapabilityID
}

// Dropper is implemented by payloads that need teardown when the last
// reference is released.
type Dropper interface {
	Drop()
}

// DropperFunc adapts a function to Dropper.
type DropperFunc func()

// Drop calls fn.
func (fn DropperFunc) Drop() {
	fn()
}

var (
	// ErrInvalidArgument is returned by QueryCapability for a nil output ref.
	ErrInvalidArgument = &errors.Error{Phase: errors.PhaseQuery, Kind: errors.KindInvalidInput}

	// ErrUnsupportedCapability is returned by QueryCapability when the handle
	// does not expose the requested capability.
	ErrUnsupportedCapability = &errors.Error{Phase: errors.PhaseQuery, Kind: errors.KindUnsupported}
)
