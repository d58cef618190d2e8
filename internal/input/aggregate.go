package input

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"wirepath/internal/depgraph"
	"wirepath/internal/location"
	"wirepath/internal/trace"
)

// ResolveStatus is the phase a ResolveEvent reports.
type ResolveStatus uint8

const (
	ResolveStarted ResolveStatus = iota + 1
	ResolveDone
	ResolveFailed
)

// ResolveEvent reports progress on a single dependency while locations are forced.
type ResolveEvent struct {
	Input      string
	Dependency string
	Status     ResolveStatus
	Files      int
	Err        error
	Elapsed    time.Duration
}

// aggregate is the forcing computation behind Locations. It resolves every dependency,
// expands the resolved files through the include table, and appends the local locations
// after them. Once it has run the input accepts no more registrations.
func (in *Input) aggregate(ctx context.Context) ([]location.Location, error) {
	tracer := trace.FromContext(ctx)
	if tracer == trace.Nop {
		tracer = in.tracer
	}
	span := trace.Begin(tracer, trace.ScopeInput, "locations:"+in.Name(), trace.CurrentSpan(ctx))
	deps := in.conf.Dependencies()

	resolved, err := in.resolveAll(ctx, tracer, span.ID(), deps)
	if err != nil {
		span.End("failed")
		return nil, err
	}

	var out []location.Location
	for i, dep := range deps {
		includes := in.includes.get(dep.ID())
		for _, file := range resolved[i] {
			out = append(out, expand(file, includes)...)
		}
	}
	fromDeps := len(out)

	for _, entry := range in.local {
		if entry.tree == nil {
			out = append(out, entry.locs...)
			continue
		}
		locs, err := entry.tree.Locations()
		if err != nil {
			span.End("failed")
			return nil, fmt.Errorf("input %s: source tree %v: %w", in.Name(), entry.tree.Dirs, err)
		}
		out = append(out, locs...)
	}

	span.WithExtra("dependencies", strconv.Itoa(len(deps))).
		WithExtra("from_dependencies", strconv.Itoa(fromDeps)).
		WithExtra("local", strconv.Itoa(len(out)-fromDeps)).
		End("")
	return out, nil
}

// resolveAll resolves deps with at most in.jobs in flight. Results keep the index of
// their dependency, so the output order never depends on scheduling.
func (in *Input) resolveAll(ctx context.Context, tracer trace.Tracer, parent uint64, deps []depgraph.Dependency) ([][]string, error) {
	results := make([][]string, len(deps))
	if len(deps) == 0 {
		return results, nil
	}
	jobs := in.jobs
	if jobs < 1 {
		jobs = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, dep := range deps {
		g.Go(func() error {
			files, err := in.resolveOne(gctx, tracer, parent, dep)
			if err != nil {
				return err
			}
			results[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (in *Input) resolveOne(ctx context.Context, tracer trace.Tracer, parent uint64, dep depgraph.Dependency) ([]string, error) {
	span := trace.Begin(tracer, trace.ScopeDependency, "dep:"+dep.ID(), parent)
	in.notify(ResolveEvent{Input: in.Name(), Dependency: dep.ID(), Status: ResolveStarted})
	start := time.Now()

	files, err := in.resolver.Resolve(ctx, dep)
	elapsed := time.Since(start)
	if err != nil {
		span.End(err.Error())
		in.notify(ResolveEvent{Input: in.Name(), Dependency: dep.ID(), Status: ResolveFailed, Err: err, Elapsed: elapsed})
		return nil, &ResolveError{Dependency: dep.ID(), Err: err}
	}

	span.WithExtra("files", strconv.Itoa(len(files))).End("")
	in.notify(ResolveEvent{Input: in.Name(), Dependency: dep.ID(), Status: ResolveDone, Files: len(files), Elapsed: elapsed})
	return files, nil
}

func (in *Input) notify(ev ResolveEvent) {
	if in.observe != nil {
		in.observe(ev)
	}
}

// Debug emits one trace point per registered dependency with its include filter.
// It does not resolve anything.
func (in *Input) Debug(t trace.Tracer) {
	for _, dep := range in.conf.Dependencies() {
		includes := in.includes.get(dep.ID())
		trace.Point(t, trace.ScopeDependency, "dep:"+dep.ID(), fmt.Sprintf("%s includes=%v", in.Name(), includes), 0)
	}
	for _, entry := range in.local {
		if entry.tree != nil {
			trace.Point(t, trace.ScopeEntry, "tree", fmt.Sprint(entry.tree.Dirs), 0)
			continue
		}
		for _, l := range entry.locs {
			trace.Point(t, trace.ScopeEntry, "path", l.String(), 0)
		}
	}
}
