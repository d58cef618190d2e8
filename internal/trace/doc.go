// Package trace provides the tracing subsystem for wirepath.
//
// Tracing is how the resolver reports what it does: which inputs were registered,
// when dependencies were resolved, and how long each phase took.
//
// # Usage
//
//	wirepath resolve --trace=- --trace-level=detail
//
// # Tracers
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr
//   - RingTracer: circular buffer, dumped on failure
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only the failure dump
//   - LevelPhase: driver and per-input boundaries
//   - LevelDetail: per-dependency resolution
//   - LevelDebug: everything, including each registered entry
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeInput, "locations:source", parentID)
//	defer span.End("")
package trace
