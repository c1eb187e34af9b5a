package binding

import (
	"bytes"
	"context"
	"encoding/binary"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/bindcore/errors"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D}

// Binder resolves module names to files and compiles them into binding results.
// Binder is safe for concurrent use.
type Binder struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	metrics *Metrics
	cfg     Config
	mu      sync.RWMutex
	closed  bool
}

// NewBinder creates a binder. A nil cfg uses DefaultConfig.
func NewBinder(ctx context.Context, cfg *Config) (*Binder, error) {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
		c.SearchPaths = slices.Clone(cfg.SearchPaths)
		c.Extensions = slices.Clone(cfg.Extensions)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if c.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MemoryLimitPages)
	}

	var cache wazero.CompilationCache
	if c.CompilationCacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(c.CompilationCacheDir)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "compilation cache "+c.CompilationCacheDir)
		}
		runtimeCfg = runtimeCfg.WithCompilationCache(cache)
	}

	return &Binder{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cache:   cache,
		metrics: c.Metrics,
		cfg:     c,
	}, nil
}

// Close releases the wazero runtime. Results still referenced become unusable,
// so release them first.
func (b *Binder) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := b.runtime.Close(ctx)
	if b.cache != nil {
		if cerr := b.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

// Config returns a copy of the binder's configuration.
func (b *Binder) Config() Config {
	c := b.cfg
	c.SearchPaths = slices.Clone(b.cfg.SearchPaths)
	c.Extensions = slices.Clone(b.cfg.Extensions)
	return c
}

// Resolve maps a module name to a file. Names with a directory or an
// extension are used as paths; bare names are probed across the search
// paths and extensions in order.
func (b *Binder) Resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.InvalidInput(errors.PhaseResolve, "empty module name")
	}

	if strings.ContainsAny(name, `/\`) || filepath.Ext(name) != "" {
		if !isFile(name) {
			return "", errors.NotFound(errors.PhaseResolve, "module file", name)
		}
		return name, nil
	}

	for _, dir := range b.cfg.SearchPaths {
		for _, ext := range b.cfg.Extensions {
			p := filepath.Join(dir, name+ext)
			if isFile(p) {
				return p, nil
			}
		}
	}

	return "", errors.New(errors.PhaseResolve, errors.KindNotFound).
		Module(name).
		Detail("no file in %d search paths", len(b.cfg.SearchPaths)).
		Build()
}

// Bind resolves name and binds the file it maps to.
func (b *Binder) Bind(ctx context.Context, name string) (*Result, error) {
	path, err := b.Resolve(name)
	if err != nil {
		return nil, err
	}
	return b.BindFile(ctx, name, path)
}

// BindFile reads path and binds it under name.
func (b *Binder) BindFile(ctx context.Context, name, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		b.metrics.bound(err)
		return nil, errors.Load(name, err)
	}
	return b.BindBytes(ctx, name, path, data)
}

// BindBytes compiles data and returns a result holding one reference owned
// by the caller. path is informational.
func (b *Binder) BindBytes(ctx context.Context, name, path string, data []byte) (*Result, error) {
	r, err := b.bind(ctx, name, path, data)
	b.metrics.bound(err)
	if err != nil {
		Logger().Debug("bind failed", zap.String("module", name), zap.Error(err))
		return nil, err
	}

	Logger().Debug("module bound",
		zap.String("module", name),
		zap.String("path", path),
		zap.String("digest", r.meta.Digest.String()),
		zap.Int("exports", len(r.meta.Exports)),
		zap.Int("imports", len(r.meta.Imports)),
	)
	return r, nil
}

func (b *Binder) bind(ctx context.Context, name, path string, data []byte) (*Result, error) {
	if err := checkHeader(name, data); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errors.Closed(errors.PhaseBind, "binder")
	}

	compiled, err := b.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.Compile(name, err)
	}

	meta := Metadata{
		Name:       name,
		Path:       path,
		ModuleName: compiled.Name(),
		Digest:     digest.FromBytes(data),
		Exports:    slices.Sorted(maps.Keys(compiled.ExportedFunctions())),
	}
	for _, def := range compiled.ImportedFunctions() {
		mod, fn, _ := def.Import()
		meta.Imports = append(meta.Imports, mod+"."+fn)
	}

	return newResult(meta, compiled, b.metrics), nil
}

func checkHeader(name string, data []byte) error {
	if len(data) < 8 || !bytes.Equal(data[:4], wasmMagic) {
		return errors.InvalidData(errors.PhaseBind, name, "missing wasm magic")
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	layer := binary.LittleEndian.Uint16(data[6:8])
	if layer != 0 {
		return errors.New(errors.PhaseBind, errors.KindUnsupported).
			Module(name).
			Value(layer).
			Detail("component binaries are not bound directly (layer %d)", layer).
			Build()
	}
	if version != 1 {
		return errors.New(errors.PhaseBind, errors.KindUnsupported).
			Module(name).
			Value(version).
			Detail("core module version %d", version).
			Build()
	}
	return nil
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
