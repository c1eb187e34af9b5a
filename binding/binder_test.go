package binding

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/bindcore/errors"
	"github.com/wippyai/bindcore/resource"
)

func TestBinder_Resolve(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeModule(t, second, "greeter.wasm", greeterModule)
	writeModule(t, second, "alt.mod", emptyModule)
	shadow := writeModule(t, first, "shadow.wasm", emptyModule)
	writeModule(t, second, "shadow.wasm", emptyModule)

	b := newTestBinder(t, Config{
		SearchPaths: []string{first, second},
		Extensions:  []string{".wasm", "mod"},
		CacheSize:   4,
	})

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "probed", input: "greeter", want: filepath.Join(second, "greeter.wasm")},
		{name: "second extension", input: "alt", want: filepath.Join(second, "alt.mod")},
		{name: "first search path wins", input: "shadow", want: shadow},
		{name: "explicit path", input: shadow, want: shadow},
		{name: "missing", input: "nope", wantErr: &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindNotFound}},
		{name: "missing path", input: filepath.Join(first, "nope.wasm"), wantErr: &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindNotFound}},
		{name: "empty", input: " ", wantErr: &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindInvalidInput}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Resolve(tt.input)
			if tt.wantErr != nil {
				if !stderrors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBinder_Bind(t *testing.T) {
	dir := t.TempDir()
	path := writeModule(t, dir, "greeter.wasm", greeterModule)
	b := newTestBinder(t, Config{SearchPaths: []string{dir}, CacheSize: 1})

	r, err := b.Bind(t.Context(), "greeter")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer r.Release()

	if r.Name() != "greeter" {
		t.Errorf("Name() = %q, want greeter", r.Name())
	}
	if r.Path() != path {
		t.Errorf("Path() = %q, want %q", r.Path(), path)
	}
	if r.Digest() != digest.FromBytes(greeterModule) {
		t.Errorf("Digest() = %s", r.Digest())
	}
	if got := r.Exports(); !slices.Equal(got, []string{"run"}) {
		t.Errorf("Exports() = %v, want [run]", got)
	}
	if got := r.Imports(); !slices.Equal(got, []string{"env.log"}) {
		t.Errorf("Imports() = %v, want [env.log]", got)
	}
	if r.Module() == nil {
		t.Error("Module() is nil")
	}
	if got := r.Refs(); got != 1 {
		t.Errorf("Refs() = %d, want 1", got)
	}
}

func TestBinder_BindErrors(t *testing.T) {
	component := []byte{0x00, 0x61, 0x73, 0x6D, 0x0D, 0x00, 0x01, 0x00}
	futureCore := []byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0x00, 0x00, 0x00}
	truncated := append(slices.Clone(emptyModule), 0x01, 0x7F)

	tests := []struct {
		name    string
		data    []byte
		wantErr *errors.Error
	}{
		{"not wasm", []byte("hello, world"), &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindInvalidData}},
		{"too short", []byte{0x00, 0x61}, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindInvalidData}},
		{"component", component, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindUnsupported}},
		{"core version", futureCore, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindUnsupported}},
		{"bad section", truncated, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindInvalidData}},
	}

	metrics := NewMetrics(nil)
	b := newTestBinder(t, Config{CacheSize: 1, Metrics: metrics})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := b.BindBytes(t.Context(), tt.name, "", tt.data)
			if r != nil {
				t.Fatal("expected nil result")
			}
			if !stderrors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := testutil.ToFloat64(metrics.binds.WithLabelValues("error")); got != float64(len(tests)) {
		t.Errorf("error binds = %v, want %d", got, len(tests))
	}
	if got := testutil.ToFloat64(metrics.live); got != 0 {
		t.Errorf("live = %v, want 0", got)
	}
}

func TestBinder_BindMissingFile(t *testing.T) {
	b := newTestBinder(t, Config{CacheSize: 1})

	_, err := b.BindFile(t.Context(), "ghost", filepath.Join(t.TempDir(), "ghost.wasm"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}) {
		t.Fatalf("err = %v, want load error", err)
	}
}

func TestBinder_Closed(t *testing.T) {
	b, err := NewBinder(t.Context(), nil)
	if err != nil {
		t.Fatalf("NewBinder: %v", err)
	}
	if err := b.Close(t.Context()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(t.Context()); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	_, err = b.BindBytes(t.Context(), "empty", "", emptyModule)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindClosed}) {
		t.Fatalf("err = %v, want closed", err)
	}
}

func TestBinder_InvalidConfig(t *testing.T) {
	_, err := NewBinder(t.Context(), &Config{CacheSize: 0})
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindInvalidInput}) {
		t.Fatalf("err = %v, want config error", err)
	}
}

func TestResult_Capabilities(t *testing.T) {
	b := newTestBinder(t, Config{CacheSize: 1})
	r, err := b.BindBytes(t.Context(), "greeter", "mem://greeter", greeterModule)
	if err != nil {
		t.Fatalf("BindBytes: %v", err)
	}
	defer r.Release()

	var ref resource.Ref
	if err := r.QueryCapability(resource.CapabilityIdentity, &ref); err != nil {
		t.Fatalf("identity: %v", err)
	}
	if self, ok := resource.As[*Result](ref); !ok || self != r {
		t.Fatal("identity view is not the result")
	}
	if got := r.Refs(); got != 2 {
		t.Fatalf("Refs() after identity query = %d, want 2", got)
	}
	ref.Release()

	if err := r.QueryCapability(CapabilityModule, &ref); err != nil {
		t.Fatalf("module: %v", err)
	}
	mod, ok := resource.As[wazero.CompiledModule](ref)
	if !ok || mod != r.Module() {
		t.Fatal("module view mismatch")
	}
	ref.Release()

	if err := r.QueryCapability(CapabilityMetadata, &ref); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	meta, ok := resource.As[Metadata](ref)
	if !ok || meta.Name != "greeter" || meta.Path != "mem://greeter" || meta.Digest != r.Digest() {
		t.Fatalf("metadata view = %+v", meta)
	}
	ref.Release()

	err = r.QueryCapability(resource.CapabilityID(99), &ref)
	if !stderrors.Is(err, resource.ErrUnsupportedCapability) {
		t.Fatalf("err = %v, want unsupported", err)
	}
	if ref.Valid() {
		t.Fatal("unsupported query returned a valid ref")
	}
	if got := r.Refs(); got != 1 {
		t.Fatalf("Refs() = %d, want 1", got)
	}
}

func TestResult_TeardownOnLastRelease(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	b := newTestBinder(t, Config{CacheSize: 1, Metrics: metrics})

	r, err := b.BindBytes(context.Background(), "greeter", "", greeterModule)
	if err != nil {
		t.Fatalf("BindBytes: %v", err)
	}
	if got := testutil.ToFloat64(metrics.live); got != 1 {
		t.Fatalf("live = %v, want 1", got)
	}

	r.Acquire()
	if n := r.Release(); n != 1 {
		t.Fatalf("Release() = %d, want 1", n)
	}
	if logs.FilterMessage("binding result destroyed").Len() != 0 {
		t.Fatal("result destroyed while referenced")
	}

	if n := r.Release(); n != 0 {
		t.Fatalf("Release() = %d, want 0", n)
	}
	destroyed := logs.FilterMessage("binding result destroyed").All()
	if len(destroyed) != 1 {
		t.Fatalf("destroyed logged %d times, want 1", len(destroyed))
	}
	if got := destroyed[0].ContextMap()["module"]; got != "greeter" {
		t.Errorf("module field = %v, want greeter", got)
	}
	if got := testutil.ToFloat64(metrics.teardowns); got != 1 {
		t.Errorf("teardowns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.live); got != 0 {
		t.Errorf("live = %v, want 0", got)
	}
	if got := testutil.ToFloat64(metrics.binds.WithLabelValues("ok")); got != 1 {
		t.Errorf("ok binds = %v, want 1", got)
	}
}
