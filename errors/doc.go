// Package errors provides structured error types for bindcore.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the module name, a detail message and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindNotFound).
//		Module("greeter").
//		Detail("no file in %d search paths", 3).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseResolve, "module", "greeter")
//	err := errors.Compile("greeter", cause)
//
// Errors match with errors.Is when Phase and Kind are equal, so a zero-detail
// Error works as a sentinel.
package errors
