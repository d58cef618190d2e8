package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fortio.org/safecast"

	"wirepath/internal/depgraph"
	"wirepath/internal/project"
	"wirepath/internal/trace"
)

// NotFoundError reports a coordinate missing from every repository dir.
type NotFoundError struct {
	Coordinate string
	Searched   []string
}

func (e *NotFoundError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("artifact %s not found: no repository configured", e.Coordinate)
	}
	return fmt.Sprintf("artifact %s not found in:\n  %s", e.Coordinate, strings.Join(e.Searched, "\n  "))
}

// Resolver resolves external dependencies to artifact files in Maven-layout dirs.
// It implements depgraph.Resolver and is safe for concurrent use.
type Resolver struct {
	dirs   []string
	cache  *DiskCache
	tracer trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache caches hits in c. A nil cache disables caching.
func WithCache(c *DiskCache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithTracer sets the tracer for cache and lookup events.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// New returns a resolver searching dirs in order.
func New(dirs []string, opts ...Option) *Resolver {
	r := &Resolver{
		dirs:   append([]string(nil), dirs...),
		tracer: trace.Nop,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the artifact for an external dependency. The first dir holding it
// wins, also when the answer comes from the cache. Other dependency kinds report
// depgraph.ErrUnsupported.
func (r *Resolver) Resolve(ctx context.Context, dep depgraph.Dependency) ([]string, error) {
	ext, ok := dep.(*depgraph.ExternalDependency)
	if !ok {
		return nil, depgraph.ErrUnsupported
	}
	coord, err := ParseCoordinate(ext.Coordinate)
	if err != nil {
		return nil, err
	}
	parent := trace.CurrentSpan(ctx)

	key := r.key(coord)
	if files, ok := r.cached(ctx, key, coord, parent); ok {
		return files, nil
	}

	searched := make([]string, 0, len(r.dirs))
	for i, dir := range r.dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		candidate, found, err := lookup(dir, coord)
		if err != nil {
			return nil, err
		}
		if !found {
			searched = append(searched, candidate)
			continue
		}
		files := []string{candidate}
		r.store(key, coord, i, files, parent)
		return files, nil
	}
	return nil, &NotFoundError{Coordinate: coord.String(), Searched: searched}
}

// lookup reports whether dir holds the artifact of coord as a regular file.
func lookup(dir string, coord Coordinate) (string, bool, error) {
	candidate := filepath.Join(dir, filepath.FromSlash(coord.RelPath()))
	info, err := os.Stat(candidate)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return candidate, false, nil
	case err != nil:
		return candidate, false, fmt.Errorf("failed to stat %q: %w", candidate, err)
	}
	return candidate, !info.IsDir(), nil
}

func (r *Resolver) key(coord Coordinate) project.Digest {
	parts := make([]project.Digest, 0, len(r.dirs))
	for _, dir := range r.dirs {
		parts = append(parts, project.HashString(dir))
	}
	return project.Combine(project.HashString(coord.String()), parts...)
}

// cached returns a fresh entry's files. An entry also goes stale when a dir searched
// before the one that held the artifact has gained it since.
func (r *Resolver) cached(ctx context.Context, key project.Digest, coord Coordinate, parent uint64) ([]string, bool) {
	if r.cache == nil {
		return nil, false
	}
	var entry Entry
	ok, err := r.cache.Get(key, &entry)
	switch {
	case err != nil:
		trace.Point(r.tracer, trace.ScopeDependency, "cache unreadable", err.Error(), parent)
		return nil, false
	case !ok:
		return nil, false
	case entry.Coordinate != coord.String() || !entry.Fresh() || r.shadowed(ctx, coord, entry.Dir):
		trace.Point(r.tracer, trace.ScopeDependency, "cache stale", coord.String(), parent)
		return nil, false
	}
	trace.Point(r.tracer, trace.ScopeDependency, "cache hit", coord.String(), parent)
	return entry.Files, true
}

// shadowed reports whether any dir before index hit now holds coord.
func (r *Resolver) shadowed(ctx context.Context, coord Coordinate, hit uint32) bool {
	n, err := safecast.Conv[int](hit)
	if err != nil || n >= len(r.dirs) {
		return true
	}
	for _, dir := range r.dirs[:n] {
		if ctx.Err() != nil {
			return true
		}
		if _, found, err := lookup(dir, coord); found || err != nil {
			return true
		}
	}
	return false
}

func (r *Resolver) store(key project.Digest, coord Coordinate, dir int, files []string, parent uint64) {
	if r.cache == nil {
		return
	}
	entry, err := NewEntry(coord.String(), files)
	if err == nil {
		entry.Dir, err = safecast.Conv[uint32](dir)
	}
	if err == nil {
		err = r.cache.Put(key, entry)
	}
	if err != nil {
		// a failed write only costs the next run a lookup
		trace.Point(r.tracer, trace.ScopeDependency, "cache write failed", err.Error(), parent)
	}
}
