package binding

import (
	"context"
	"slices"

	"github.com/opencontainers/go-digest"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/bindcore/resource"
)

// Capabilities exposed by a Result in addition to resource.CapabilityIdentity.
const (
	// CapabilityModule resolves to the wazero.CompiledModule.
	CapabilityModule resource.CapabilityID = iota + 1

	// CapabilityMetadata resolves to a Metadata value.
	CapabilityMetadata
)

// Metadata describes a bound module.
type Metadata struct {
	Name       string
	Path       string
	ModuleName string
	Digest     digest.Digest
	Exports    []string
	Imports    []string
}

// Result is a binding result shared by every owner of a reference to it.
// It is created with one reference held by the caller of Bind. The compiled
// module is closed when the last reference is released.
type Result struct {
	*resource.Handle
	module  wazero.CompiledModule
	metrics *Metrics
	meta    Metadata
}

func newResult(meta Metadata, module wazero.CompiledModule, metrics *Metrics) *Result {
	r := &Result{
		module:  module,
		metrics: metrics,
		meta:    meta,
	}
	r.Handle = resource.NewHandle(r,
		resource.Capability{ID: CapabilityModule, View: module},
		resource.Capability{ID: CapabilityMetadata, View: meta},
	)
	return r
}

// Name returns the name the result was bound under.
func (r *Result) Name() string { return r.meta.Name }

// Path returns the file the module was read from, empty for in-memory binds.
func (r *Result) Path() string { return r.meta.Path }

// Digest returns the content digest of the module bytes.
func (r *Result) Digest() digest.Digest { return r.meta.Digest }

// Exports returns the sorted exported function names.
func (r *Result) Exports() []string { return slices.Clone(r.meta.Exports) }

// Imports returns imported functions as "module.name" in declaration order.
func (r *Result) Imports() []string { return slices.Clone(r.meta.Imports) }

// Module returns the compiled module. It is valid while the caller holds a reference.
func (r *Result) Module() wazero.CompiledModule { return r.module }

// Drop tears down the compiled module. It is called by the release that
// drops the last reference and must not be called directly.
func (r *Result) Drop() {
	log := Logger().With(zap.String("module", r.meta.Name), zap.String("digest", r.meta.Digest.String()))
	if err := r.module.Close(context.Background()); err != nil {
		log.Warn("close compiled module", zap.Error(err))
	} else {
		log.Debug("binding result destroyed")
	}
	r.module = nil
	r.metrics.tornDown()
}
