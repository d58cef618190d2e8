// Package depgraph is the host build graph seen by the input engine: dependencies,
// the configurations that collect them, and the resolvers that turn them into files.
//
// Registering a dependency never touches the filesystem or the network. Only a
// Resolver does, and the engine calls it when its locations are forced.
package depgraph

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned by a Resolver that does not handle a dependency kind.
var ErrUnsupported = errors.New("dependency kind not supported by resolver")

// Dependency is a registered, not yet resolved, build input.
// ID is an opaque identity; callers use it as a map key and nothing else.
type Dependency interface {
	ID() string
	String() string
}

// FileDependency is a local directory or archive that resolves to itself.
type FileDependency struct {
	Path string // absolute
}

// ID returns the dependency path.
func (d *FileDependency) ID() string { return d.Path }

func (d *FileDependency) String() string { return "files(" + d.Path + ")" }

// ExternalDependency is a coordinate such as "group:name:version" whose grammar belongs
// to the Resolver that handles it.
type ExternalDependency struct {
	Coordinate string
}

// ID returns the coordinate verbatim.
func (d *ExternalDependency) ID() string { return d.Coordinate }

func (d *ExternalDependency) String() string { return d.Coordinate }

// Configuration is an ordered, caller-scoped set of dependencies. The same coordinate
// may appear several times; each Add keeps its own entry.
type Configuration struct {
	name string
	deps []Dependency
}

// NewConfiguration creates an empty configuration.
func NewConfiguration(name string) *Configuration {
	return &Configuration{name: name}
}

// Name returns the configuration name. An input names its configuration after itself.
func (c *Configuration) Name() string { return c.name }

// Add appends dep.
func (c *Configuration) Add(dep Dependency) {
	c.deps = append(c.deps, dep)
}

// Dependencies returns the dependencies in registration order.
func (c *Configuration) Dependencies() []Dependency {
	out := make([]Dependency, len(c.deps))
	copy(out, c.deps)
	return out
}

// Len returns the number of registered dependencies.
func (c *Configuration) Len() int { return len(c.deps) }

// Resolver turns a dependency into the files backing it, in a stable order.
// Implementations used with parallel resolution must be safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, dep Dependency) ([]string, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, dep Dependency) ([]string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, dep Dependency) ([]string, error) {
	return f(ctx, dep)
}

// FileResolver resolves FileDependency values to their own path.
type FileResolver struct{}

// Resolve implements Resolver.
func (FileResolver) Resolve(_ context.Context, dep Dependency) ([]string, error) {
	fd, ok := dep.(*FileDependency)
	if !ok {
		return nil, ErrUnsupported
	}
	return []string{fd.Path}, nil
}

// Chain tries each resolver in order until one accepts the dependency.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, dep Dependency) ([]string, error) {
	for _, r := range c {
		files, err := r.Resolve(ctx, dep)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return files, err
	}
	return nil, fmt.Errorf("cannot resolve %s: %w", dep, ErrUnsupported)
}
