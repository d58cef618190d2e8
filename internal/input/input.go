// Package input builds the ordered list of source locations for one compiler input
// (the source path or the proto path) from literal paths, jar roots, source trees and
// dependency coordinates.
//
// Registration (AddPaths, AddJars, AddTrees) validates local paths immediately and
// registers dependencies without resolving them. Locations returns a deferred value;
// dependencies are resolved only when it is forced, and at most once.
//
// An Input is not safe for concurrent registration; callers serialize those calls.
package input

import (
	"context"
	"fmt"
	"slices"

	"wirepath/internal/depgraph"
	"wirepath/internal/lazy"
	"wirepath/internal/location"
	"wirepath/internal/sourcetree"
	"wirepath/internal/trace"
)

// JarRoot declares an archive, directory or coordinate plus the entries to take from it.
// An empty Jar is skipped; empty Includes means the whole archive.
type JarRoot struct {
	Jar      string
	Includes []string
}

// Input accumulates registrations for one named input.
type Input struct {
	projectDir string

	conf     *depgraph.Configuration
	includes includeTable
	local    []localEntry

	resolver depgraph.Resolver
	jobs     int
	tracer   trace.Tracer
	observe  func(ResolveEvent)

	locations *lazy.Value[[]location.Location]
}

// localEntry is either fixed locations or a tree listed at forcing time.
type localEntry struct {
	locs []location.Location
	tree *sourcetree.Tree
}

// Option configures an Input.
type Option func(*Input)

// WithResolver sets the resolver used when locations are forced.
// The default resolves local file dependencies only.
func WithResolver(r depgraph.Resolver) Option {
	return func(in *Input) { in.resolver = r }
}

// WithJobs bounds how many dependencies are resolved concurrently. n <= 1 resolves
// them one by one in registration order.
func WithJobs(n int) Option {
	return func(in *Input) { in.jobs = n }
}

// WithTracer sets the tracer for registration events. Forcing uses the tracer from
// its context when one is attached, this one otherwise.
func WithTracer(t trace.Tracer) Option {
	return func(in *Input) { in.tracer = t }
}

// WithObserver receives a ResolveEvent before and after each dependency is resolved.
// It may be called from several goroutines when jobs > 1.
func WithObserver(fn func(ResolveEvent)) Option {
	return func(in *Input) { in.observe = fn }
}

// New creates an Input named name whose relative paths resolve against projectDir.
func New(name, projectDir string, opts ...Option) *Input {
	in := &Input{
		projectDir: projectDir,
		conf:       depgraph.NewConfiguration(name),
		includes:   make(includeTable),
		resolver:   depgraph.FileResolver{},
		jobs:       1,
		tracer:     trace.Nop,
	}
	for _, opt := range opts {
		opt(in)
	}
	in.locations = lazy.New(in.aggregate)
	return in
}

// Name returns the input name, which is also the name of its dependency configuration.
func (in *Input) Name() string { return in.conf.Name() }

// Configuration returns the dependency set registered so far.
func (in *Input) Configuration() *depgraph.Configuration { return in.conf }

// AddPaths registers literal paths and coordinates. Local directories and archives
// become fully qualified locations; coordinates become dependencies. Every entry is
// validated before any is registered, so a failing call registers nothing.
func (in *Input) AddPaths(paths []string) error {
	if in.locations.Forced() {
		return ErrFrozen
	}
	var (
		locs []location.Location
		deps []depgraph.Dependency
	)
	for _, raw := range paths {
		decl, err := in.declare(raw)
		if err != nil {
			return err
		}
		if decl.local != nil {
			locs = append(locs, location.Get(decl.local.Abs))
			continue
		}
		deps = append(deps, decl.dep)
	}
	if len(locs) > 0 {
		in.local = append(in.local, localEntry{locs: locs})
	}
	for _, l := range locs {
		trace.Point(in.tracer, trace.ScopeEntry, "path added", l.Path, 0)
	}
	for _, dep := range deps {
		in.register(dep)
	}
	return nil
}

// AddJars registers jar roots. Every non-empty root, local or not, goes through the
// dependency set so its include filter applies when the locations are forced.
func (in *Input) AddJars(jars []JarRoot) error {
	if in.locations.Forced() {
		return ErrFrozen
	}
	type pending struct {
		dep      depgraph.Dependency
		includes []string
	}
	var regs []pending
	for _, jar := range jars {
		if jar.Jar == "" {
			continue
		}
		decl, err := in.declare(jar.Jar)
		if err != nil {
			return err
		}
		dep := decl.dep
		if decl.local != nil {
			dep = &depgraph.FileDependency{Path: decl.local.Abs}
		}
		regs = append(regs, pending{dep: dep, includes: jar.Includes})
	}
	for _, r := range regs {
		in.includes.set(r.dep.ID(), r.includes)
		in.register(r.dep)
	}
	return nil
}

// AddTrees registers source trees. Every root must exist now; the files under them are
// listed and mapped when the locations are forced, keeping their place in the local order.
func (in *Input) AddTrees(trees []sourcetree.Tree) error {
	if in.locations.Forced() {
		return ErrFrozen
	}
	resolved := make([]sourcetree.Tree, 0, len(trees))
	for _, tree := range trees {
		abs := in.absTree(tree)
		if missing := abs.MissingDirs(); len(missing) > 0 {
			i := slices.Index(abs.Dirs, missing[0])
			return &InvalidPathError{Raw: tree.Dirs[i], Path: missing[0]}
		}
		if notDirs := abs.NotDirs(); len(notDirs) > 0 {
			i := slices.Index(abs.Dirs, notDirs[0])
			return &InvalidPathTypeError{Raw: tree.Dirs[i], Input: in.Name(), Root: true}
		}
		resolved = append(resolved, abs)
	}
	for i := range resolved {
		tree := resolved[i]
		in.local = append(in.local, localEntry{tree: &tree})
		trace.Point(in.tracer, trace.ScopeEntry, "tree added", fmt.Sprint(tree.Dirs), 0)
	}
	return nil
}

// Locations returns the deferred location list. Every call returns the same value;
// forcing it freezes the input.
func (in *Input) Locations() *lazy.Value[[]location.Location] {
	return in.locations
}

// ToLocations forces the locations and returns a copy the caller owns.
func (in *Input) ToLocations(ctx context.Context) ([]location.Location, error) {
	locs, err := in.locations.Get(ctx)
	if err != nil {
		return nil, err
	}
	return append([]location.Location(nil), locs...), nil
}

func (in *Input) absTree(tree sourcetree.Tree) sourcetree.Tree {
	out := sourcetree.Tree{
		Dirs:    make([]string, len(tree.Dirs)),
		Include: tree.Include,
		Exclude: tree.Exclude,
	}
	for i, dir := range tree.Dirs {
		out.Dirs[i] = in.abs(dir)
	}
	if tree.Files != nil {
		out.Files = make([]string, len(tree.Files))
		for i, f := range tree.Files {
			out.Files[i] = in.abs(f)
		}
	}
	return out
}
