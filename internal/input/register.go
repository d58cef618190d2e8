package input

import (
	"path/filepath"

	"wirepath/internal/depgraph"
	"wirepath/internal/notation"
	"wirepath/internal/trace"
)

// declaration is a classified and validated raw input: a local path or a dependency.
type declaration struct {
	local *ValidPath
	dep   depgraph.Dependency
}

func (in *Input) declare(raw string) (declaration, error) {
	c := notation.Classify(raw)
	switch c.Kind {
	case notation.LocalFile:
		vp, err := ValidatePath(in.projectDir, raw, c.Value, in.Name())
		if err != nil {
			return declaration{}, err
		}
		return declaration{local: &vp}, nil
	case notation.RemoteURI:
		return declaration{}, &DisallowedRemoteURLError{Raw: raw}
	default:
		// an external coordinate; the resolver sorts it out when forced
		return declaration{dep: &depgraph.ExternalDependency{Coordinate: c.Value}}, nil
	}
}

// register adds dep to the configuration. It never resolves dep and never
// deduplicates: registering a coordinate twice adds two dependencies.
func (in *Input) register(dep depgraph.Dependency) {
	in.conf.Add(dep)
	trace.Point(in.tracer, trace.ScopeEntry, "dependency added", dep.String(), 0)
}

func (in *Input) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(in.projectDir, path)
}
