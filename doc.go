// Package bindcore binds WebAssembly modules into shared, reference-counted results.
//
// # Architecture Overview
//
//	bindcore/
//	├── resource/   Reference-counted handles with capability queries
//	├── binding/    Name resolution, wazero compilation, shared result cache
//	├── errors/     Structured error types for debugging
//	└── cmd/bind/   CLI that binds modules and prints their metadata
//
// # Quick Start
//
//	b, err := binding.NewBinder(ctx, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close(ctx)
//
//	r, err := b.Bind(ctx, "greeter")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	r.Acquire()      // second owner
//	go use(r)        // use calls r.Release() when done
//	r.Release()      // the last Release closes the compiled module
//
// # Thread Safety
//
// Handles, results, the Binder and the Cache are safe for concurrent use.
// A reference must not be used after it is released.
package bindcore
