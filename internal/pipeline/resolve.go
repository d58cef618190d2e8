// Package pipeline resolves every input a manifest declares into its location list.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"wirepath/internal/depgraph"
	"wirepath/internal/input"
	"wirepath/internal/location"
	"wirepath/internal/observ"
	"wirepath/internal/project"
	"wirepath/internal/repository"
	"wirepath/internal/sourcetree"
	"wirepath/internal/trace"
)

// Request configures a resolution run.
type Request struct {
	Manifest *project.Manifest
	// Inputs selects the manifest sections to resolve; empty means all of them.
	Inputs []string
	// Jobs bounds concurrent dependency lookups per input.
	Jobs int
	// NoCache bypasses the on-disk resolution cache.
	NoCache  bool
	Progress ProgressSink
	// Resolver replaces the repository resolver; file dependencies still resolve locally.
	Resolver depgraph.Resolver
}

// InputResult is the resolved list of one input.
type InputResult struct {
	Name         string              `json:"name"`
	Dependencies int                 `json:"dependencies"`
	Locations    []location.Location `json:"locations"`
}

// Result captures the resolved inputs and timings.
type Result struct {
	Project string        `json:"project"`
	Inputs  []InputResult `json:"inputs"`
	Total   int           `json:"total"`
	Report  observ.Report `json:"timings"`
	Timings Timings       `json:"-"`
}

// Input returns the result for name.
func (r *Result) Input(name string) (InputResult, bool) {
	for _, in := range r.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputResult{}, false
}

// Resolve registers every selected input, forces it and collects the locations.
// Inputs resolve in manifest order: source before proto.
func Resolve(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing resolve request")
	}
	if req.Manifest == nil {
		return result, fmt.Errorf("missing project manifest")
	}
	names, err := selectInputs(req.Inputs)
	if err != nil {
		return result, err
	}
	result.Project = req.Manifest.Config.Project.Name

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "pipeline", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)
	defer func() { span.WithExtra("locations", strconv.Itoa(result.Total)).End("") }()

	timer := observ.NewTimer()
	sink := &lockedSink{sink: req.Progress}
	resolver, err := buildResolver(ctx, req)
	if err != nil {
		return result, err
	}

	inputs := make([]*input.Input, 0, len(names))
	emitStage(sink, StageRegister, StatusWorking, nil, 0)
	start := time.Now()
	regErr := timer.Track(string(StageRegister), func() error {
		for _, name := range names {
			in, err := register(req, name, resolver, tracer, sink)
			if err != nil {
				return err
			}
			inputs = append(inputs, in)
		}
		return nil
	})
	result.Timings.Set(StageRegister, time.Since(start))
	if regErr != nil {
		emitStage(sink, StageRegister, StatusError, regErr, time.Since(start))
		result.Report = timer.Report()
		return result, regErr
	}
	emitStage(sink, StageRegister, StatusDone, nil, time.Since(start))

	forced := make([][]location.Location, len(inputs))
	emitStage(sink, StageResolve, StatusWorking, nil, 0)
	start = time.Now()
	for i, in := range inputs {
		err := timer.Track(string(StageResolve)+":"+in.Name(), func() error {
			locs, err := in.ToLocations(ctx)
			forced[i] = locs
			return err
		})
		if err != nil {
			result.Timings.Set(StageResolve, time.Since(start))
			emitStage(sink, StageResolve, StatusError, err, time.Since(start))
			result.Report = timer.Report()
			return result, fmt.Errorf("input %s: %w", in.Name(), err)
		}
	}
	result.Timings.Set(StageResolve, time.Since(start))
	emitStage(sink, StageResolve, StatusDone, nil, time.Since(start))

	start = time.Now()
	_ = timer.Track(string(StageAggregate), func() error {
		for i, in := range inputs {
			result.Inputs = append(result.Inputs, InputResult{
				Name:         in.Name(),
				Dependencies: in.Configuration().Len(),
				Locations:    forced[i],
			})
			result.Total += len(forced[i])
		}
		return nil
	})
	result.Timings.Set(StageAggregate, time.Since(start))
	emitStage(sink, StageAggregate, StatusDone, nil, time.Since(start))
	result.Report = timer.Report()
	return result, nil
}

func selectInputs(requested []string) ([]string, error) {
	all := project.InputNames()
	if len(requested) == 0 {
		return all, nil
	}
	out := make([]string, 0, len(requested))
	for _, name := range all {
		if slices.Contains(requested, name) {
			out = append(out, name)
		}
	}
	for _, name := range requested {
		if !slices.Contains(all, name) {
			return nil, fmt.Errorf("unknown input %q (expected one of %v)", name, all)
		}
	}
	return out, nil
}

func buildResolver(ctx context.Context, req *Request) (depgraph.Resolver, error) {
	if req.Resolver != nil {
		return depgraph.Chain{req.Resolver, depgraph.FileResolver{}}, nil
	}
	opts := []repository.Option{repository.WithTracer(trace.FromContext(ctx))}
	cacheCfg := req.Manifest.Config.Cache
	if !req.NoCache && !cacheCfg.Disabled {
		cache, err := repository.OpenDiskCache(req.Manifest.CacheDir(), CacheApp)
		if err != nil {
			return nil, fmt.Errorf("failed to open resolution cache: %w", err)
		}
		opts = append(opts, repository.WithCache(cache))
	}
	repo := repository.New(req.Manifest.RepositoryDirs(), opts...)
	return depgraph.Chain{repo, depgraph.FileResolver{}}, nil
}

// CacheApp names the resolution cache directory under the user cache dir.
const CacheApp = "wirepath"

// register declares one manifest section. Paths are registered before jars and
// jars before trees. An empty section still yields an input, with no locations.
func register(req *Request, name string, resolver depgraph.Resolver, tracer trace.Tracer, sink ProgressSink) (*input.Input, error) {
	cfg, _ := req.Manifest.Config.Input(name)
	in := input.New(name, req.Manifest.Root,
		input.WithResolver(resolver),
		input.WithJobs(req.Jobs),
		input.WithTracer(tracer),
		input.WithObserver(func(ev input.ResolveEvent) { sink.OnEvent(resolveEvent(ev)) }),
	)

	if cfg.IsEmpty() {
		trace.Point(tracer, trace.ScopeInput, "input empty", name, 0)
		return in, nil
	}
	if err := in.AddPaths(cfg.Paths); err != nil {
		return nil, err
	}
	jars := make([]input.JarRoot, len(cfg.Jars))
	for i, j := range cfg.Jars {
		jars[i] = input.JarRoot{Jar: j.Jar, Includes: j.Includes}
	}
	if err := in.AddJars(jars); err != nil {
		return nil, err
	}
	trees := make([]sourcetree.Tree, len(cfg.Trees))
	for i, t := range cfg.Trees {
		trees[i] = sourcetree.Tree{Dirs: t.Dirs, Include: t.Include, Exclude: t.Exclude, Files: t.Files}
	}
	if err := in.AddTrees(trees); err != nil {
		return nil, err
	}

	for _, dep := range in.Configuration().Dependencies() {
		sink.OnEvent(Event{Input: name, Dependency: dep.ID(), Stage: StageRegister, Status: StatusQueued})
	}
	if tracer.Level() >= trace.LevelDebug {
		in.Debug(tracer)
	}
	return in, nil
}

func resolveEvent(ev input.ResolveEvent) Event {
	out := Event{
		Input:      ev.Input,
		Dependency: ev.Dependency,
		Stage:      StageResolve,
		Files:      ev.Files,
		Err:        ev.Err,
		Elapsed:    ev.Elapsed,
	}
	switch ev.Status {
	case input.ResolveStarted:
		out.Status = StatusWorking
	case input.ResolveDone:
		out.Status = StatusDone
	default:
		out.Status = StatusError
	}
	return out
}

func emitStage(sink ProgressSink, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
