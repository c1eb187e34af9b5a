package binding

import (
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/bindcore/errors"
)

// DefaultCacheSize is the number of results a Cache keeps alive by default.
const DefaultCacheSize = 64

// Config holds configuration for binder creation
type Config struct {
	// Metrics receives bind and teardown counts. Nil disables metrics.
	Metrics *Metrics `toml:"-"`

	// SearchPaths are probed in order when a bare module name is bound.
	// Defaults to ["."].
	SearchPaths []string

	// Extensions are appended to bare names while probing.
	// Defaults to [".wasm"].
	Extensions []string

	// CompilationCacheDir enables wazero's on-disk compilation cache.
	CompilationCacheDir string

	// CacheSize bounds the number of results held by a Cache.
	CacheSize int

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		SearchPaths: []string{"."},
		Extensions:  []string{".wasm"},
		CacheSize:   DefaultCacheSize,
	}
}

// Validate checks the configuration, fills empty lists with defaults and
// normalizes extensions.
func (c *Config) Validate() error {
	if c.CacheSize <= 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Value(c.CacheSize).
			Detail("cache_size must be positive, got %d", c.CacheSize).
			Build()
	}
	if len(c.SearchPaths) == 0 {
		c.SearchPaths = []string{"."}
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{".wasm"}
	}
	for i, ext := range c.Extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			return errors.InvalidInput(errors.PhaseConfig, "empty extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Extensions[i] = ext
	}
	return nil
}

// bindcore config.toml keys.
type fileConfig struct {
	SearchPaths         []string `toml:"search_paths"`
	Extensions          []string `toml:"extensions"`
	CompilationCacheDir string   `toml:"compilation_cache_dir"`
	CacheSize           int      `toml:"cache_size"`
	MemoryLimitPages    uint32   `toml:"memory_limit_pages"`
}

// LoadConfig reads a TOML file and overlays the keys it defines on
// DefaultConfig. Relative paths are taken relative to the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "load config "+path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown key %q in %s", undecoded[0].String(), path).
			Build()
	}

	base := filepath.Dir(path)
	if meta.IsDefined("search_paths") {
		cfg.SearchPaths = cfg.SearchPaths[:0]
		for _, p := range raw.SearchPaths {
			cfg.SearchPaths = append(cfg.SearchPaths, relativeTo(base, strings.TrimSpace(p)))
		}
	}
	if meta.IsDefined("extensions") {
		cfg.Extensions = raw.Extensions
	}
	if meta.IsDefined("compilation_cache_dir") {
		cfg.CompilationCacheDir = relativeTo(base, strings.TrimSpace(raw.CompilationCacheDir))
	}
	if meta.IsDefined("cache_size") {
		cfg.CacheSize = raw.CacheSize
	}
	if meta.IsDefined("memory_limit_pages") {
		cfg.MemoryLimitPages = raw.MemoryLimitPages
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func relativeTo(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
