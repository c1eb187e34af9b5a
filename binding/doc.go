// Package binding binds WebAssembly modules into reference-counted results.
//
// A Binder resolves a module name against its search paths, compiles the file
// with wazero and wraps the compiled module in a Result. The Result embeds a
// resource.Handle: the caller of Bind owns the first reference, other owners
// Acquire their own, and the compiled module is closed by the last Release.
//
//	b, err := binding.NewBinder(ctx, &cfg)
//	if err != nil {
//	    return err
//	}
//	defer b.Close(ctx)
//
//	r, err := b.Bind(ctx, "greeter")
//	if err != nil {
//	    return err
//	}
//	defer r.Release()
//
// # Capabilities
//
// Besides resource.CapabilityIdentity, whose view is the *Result, a result
// answers CapabilityModule with its wazero.CompiledModule and
// CapabilityMetadata with a Metadata value.
//
// # Sharing
//
// A Cache keeps recently bound results alive and hands each caller its own
// reference. Evicting an entry only drops the cache's reference.
//
// # Configuration
//
// Config can be built in code or loaded from TOML with LoadConfig:
//
//	search_paths = ["modules", "/opt/wasm"]
//	extensions = [".wasm"]
//	cache_size = 32
//	memory_limit_pages = 256
//	compilation_cache_dir = "/var/cache/bindcore"
package binding
