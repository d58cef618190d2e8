package input

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"wirepath/internal/depgraph"
	"wirepath/internal/location"
	"wirepath/internal/sourcetree"
	"wirepath/internal/testkit"
	"wirepath/internal/trace"
)

// countingResolver resolves file dependencies to themselves and coordinates through files.
type countingResolver struct {
	mu    sync.Mutex
	calls map[string]int
	files map[string][]string
	fail  map[string]error
	delay map[string]time.Duration
}

func newCountingResolver() *countingResolver {
	return &countingResolver{
		calls: make(map[string]int),
		files: make(map[string][]string),
		fail:  make(map[string]error),
		delay: make(map[string]time.Duration),
	}
}

func (r *countingResolver) Resolve(_ context.Context, dep depgraph.Dependency) ([]string, error) {
	r.mu.Lock()
	r.calls[dep.ID()]++
	delay := r.delay[dep.ID()]
	err := r.fail[dep.ID()]
	files, known := r.files[dep.ID()]
	r.mu.Unlock()

	time.Sleep(delay)
	if err != nil {
		return nil, err
	}
	if fd, ok := dep.(*depgraph.FileDependency); ok && !known {
		return []string{fd.Path}, nil
	}
	return files, nil
}

func (r *countingResolver) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

type fixture struct {
	root string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return fixture{root: t.TempDir()}
}

func (f fixture) dir(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", p, err)
	}
	return p
}

func (f fixture) file(t *testing.T, rel string) string {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func force(t *testing.T, in *Input) []location.Location {
	t.Helper()
	locs, err := in.ToLocations(context.Background())
	if err != nil {
		t.Fatalf("ToLocations: %v", err)
	}
	return locs
}

func assertLocations(t *testing.T, got, want []location.Location) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d locations %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("location[%d] = %v, want %v\nall: %v", i, got[i], want[i], got)
		}
	}
}

func TestAddPathsAcceptsExistingDirsAndJars(t *testing.T) {
	f := newFixture(t)
	dir := f.dir(t, "src/main/proto")
	jar := f.file(t, "libs/ext.jar")

	in := New("source", f.root)
	if err := in.AddPaths([]string{"src/main/proto", jar}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{location.Get(dir), location.Get(jar)})
}

func TestMissingPathFails(t *testing.T) {
	f := newFixture(t)
	for name, add := range map[string]func(*Input) error{
		"paths": func(in *Input) error { return in.AddPaths([]string{"does/not/exist"}) },
		"jars":  func(in *Input) error { return in.AddJars([]JarRoot{{Jar: "does/not/exist"}}) },
	} {
		t.Run(name, func(t *testing.T) {
			err := add(New("source", f.root))
			var invalid *InvalidPathError
			if !errors.As(err, &invalid) {
				t.Fatalf("error = %v, want InvalidPathError", err)
			}
			if invalid.Raw != "does/not/exist" || !strings.Contains(err.Error(), `"does/not/exist"`) {
				t.Fatalf("error does not quote the raw input: %v", err)
			}
		})
	}
}

func TestPlainFileIsRejected(t *testing.T) {
	f := newFixture(t)
	f.file(t, "src/Foo.proto")

	in := New("proto", f.root)
	err := in.AddPaths([]string{"src/Foo.proto"})
	var typeErr *InvalidPathTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("error = %v, want InvalidPathTypeError", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, `"src/Foo.proto"`) || !strings.Contains(msg, "[[proto.trees]]") || !strings.Contains(msg, "include") {
		t.Fatalf("message does not explain the tree form:\n%s", msg)
	}
}

func TestRemoteURLIsRejected(t *testing.T) {
	in := New("source", t.TempDir())
	for _, err := range []error{
		in.AddPaths([]string{"http://example.com/foo.jar"}),
		in.AddJars([]JarRoot{{Jar: "http://example.com/foo.jar"}}),
	} {
		var urlErr *DisallowedRemoteURLError
		if !errors.As(err, &urlErr) || urlErr.Raw != "http://example.com/foo.jar" {
			t.Fatalf("error = %v, want DisallowedRemoteURLError", err)
		}
	}
}

func TestFailingCallRegistersNothing(t *testing.T) {
	f := newFixture(t)
	f.dir(t, "ok")
	in := New("source", f.root)
	if err := in.AddPaths([]string{"ok", "g:n:1", "missing"}); err == nil {
		t.Fatalf("expected error")
	}
	if in.Configuration().Len() != 0 {
		t.Fatalf("dependency registered by a failing call")
	}
	if locs := force(t, in); len(locs) != 0 {
		t.Fatalf("locations registered by a failing call: %v", locs)
	}
}

func TestJarWithoutIncludes(t *testing.T) {
	f := newFixture(t)
	jar := f.file(t, "libs/ext.jar")

	in := New("source", f.root)
	if err := in.AddJars([]JarRoot{{Jar: "libs/ext.jar"}, {Jar: ""}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{{Base: jar}})
}

func TestJarWithIncludes(t *testing.T) {
	f := newFixture(t)
	jar := f.file(t, "libs/ext.jar")

	in := New("source", f.root)
	if err := in.AddJars([]JarRoot{{Jar: jar, Includes: []string{"a/b.proto", "c.proto"}}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{
		location.Within(jar, "a/b.proto"),
		location.Within(jar, "c.proto"),
	})
}

func TestCoordinateJarUsesResolvedFiles(t *testing.T) {
	res := newCountingResolver()
	res.files["com.example:protos:1.0"] = []string{"/repo/protos-1.0.jar", "/repo/protos-1.0-extra.jar"}

	in := New("proto", t.TempDir(), WithResolver(res))
	if err := in.AddJars([]JarRoot{{Jar: "com.example:protos:1.0", Includes: []string{"x.proto"}}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{
		location.Within("/repo/protos-1.0.jar", "x.proto"),
		location.Within("/repo/protos-1.0-extra.jar", "x.proto"),
	})
}

func TestTreeMapsRelativeToRoot(t *testing.T) {
	f := newFixture(t)
	src := f.dir(t, "src")
	file := filepath.Join(src, "pkg", "Foo.proto")

	in := New("source", f.root)
	if err := in.AddTrees([]sourcetree.Tree{{Dirs: []string{src}, Files: []string{file}}}); err != nil {
		t.Fatalf("AddTrees: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{location.Within(src, filepath.Join("pkg", "Foo.proto"))})
}

func TestTreeWithMissingRootFails(t *testing.T) {
	f := newFixture(t)
	f.dir(t, "src")
	in := New("source", f.root)
	err := in.AddTrees([]sourcetree.Tree{{Dirs: []string{"src", "gen"}}})
	var invalid *InvalidPathError
	if !errors.As(err, &invalid) || invalid.Raw != "gen" {
		t.Fatalf("error = %v, want InvalidPathError for gen", err)
	}
}

func TestTreeRootThatIsAFileFails(t *testing.T) {
	f := newFixture(t)
	f.dir(t, "src")
	f.file(t, "gen.proto")
	in := New("proto", f.root)
	err := in.AddTrees([]sourcetree.Tree{{Dirs: []string{"src", "gen.proto"}}})
	var typeErr *InvalidPathTypeError
	if !errors.As(err, &typeErr) || typeErr.Raw != "gen.proto" || !typeErr.Root {
		t.Fatalf("error = %v, want InvalidPathTypeError for gen.proto", err)
	}
	if !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("message = %q", err.Error())
	}
	if n := len(in.local); n != 0 {
		t.Fatalf("registered %d entries after a failing call", n)
	}
}

func TestTreeWalkIsDeferred(t *testing.T) {
	f := newFixture(t)
	src := f.dir(t, "src")

	in := New("source", f.root)
	if err := in.AddTrees([]sourcetree.Tree{{Dirs: []string{"src"}, Include: []string{"**/*.proto"}}}); err != nil {
		t.Fatalf("AddTrees: %v", err)
	}
	// files created after registration are still picked up
	f.file(t, "src/late/Late.proto")
	assertLocations(t, force(t, in), []location.Location{location.Within(src, filepath.Join("late", "Late.proto"))})
}

func TestTreeFileOutsideRootsIsFatal(t *testing.T) {
	f := newFixture(t)
	src := f.dir(t, "src")
	in := New("source", f.root)
	if err := in.AddTrees([]sourcetree.Tree{{Dirs: []string{src}, Files: []string{filepath.Join(f.root, "other", "x.proto")}}}); err != nil {
		t.Fatalf("AddTrees: %v", err)
	}
	_, err := in.ToLocations(context.Background())
	var ambiguous *sourcetree.AmbiguousRootError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("error = %v, want AmbiguousRootError", err)
	}
}

func TestForcingIsLazyAndOnce(t *testing.T) {
	f := newFixture(t)
	f.file(t, "libs/a.jar")
	res := newCountingResolver()
	res.files["g:n:1"] = []string{"/repo/n-1.jar"}

	in := New("source", f.root, WithResolver(res))
	if err := in.AddPaths([]string{"g:n:1"}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	if err := in.AddJars([]JarRoot{{Jar: "libs/a.jar"}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	handle := in.Locations()
	if in.Locations() != handle {
		t.Fatalf("Locations must return the same handle")
	}
	if res.total() != 0 || handle.Forced() {
		t.Fatalf("dependencies resolved before forcing")
	}

	first := force(t, in)
	second := force(t, in)
	assertLocations(t, second, first)
	if res.total() != 2 {
		t.Fatalf("resolver called %d times, want once per dependency", res.total())
	}

	if err := in.AddPaths([]string{"g:n:2"}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("AddPaths after forcing = %v, want ErrFrozen", err)
	}
	if err := in.AddJars([]JarRoot{{Jar: "g:n:2"}}); !errors.Is(err, ErrFrozen) {
		t.Fatalf("AddJars after forcing = %v, want ErrFrozen", err)
	}
	if err := in.AddTrees(nil); !errors.Is(err, ErrFrozen) {
		t.Fatalf("AddTrees after forcing = %v, want ErrFrozen", err)
	}
}

func TestCallerOwnsForcedCopy(t *testing.T) {
	f := newFixture(t)
	f.dir(t, "src")
	in := New("source", f.root)
	if err := in.AddPaths([]string{"src"}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	first := force(t, in)
	first[0] = location.Get("mutated")
	if second := force(t, in); second[0].Path == "mutated" {
		t.Fatalf("forced snapshot shared with caller")
	}
}

func TestNoDeduplication(t *testing.T) {
	f := newFixture(t)
	dir := f.dir(t, "src")
	in := New("source", f.root)
	if err := in.AddPaths([]string{"src"}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	if err := in.AddPaths([]string{dir}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{location.Get(dir), location.Get(dir)})
}

func TestRepeatedCoordinateRegistersTwice(t *testing.T) {
	res := newCountingResolver()
	res.files["g:n:1"] = []string{"/repo/n-1.jar"}
	in := New("source", t.TempDir(), WithResolver(res))
	if err := in.AddPaths([]string{"g:n:1", "g:n:1"}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	locs := force(t, in)
	if len(locs) != 2 || res.total() != 2 {
		t.Fatalf("locations %v, resolver calls %d; want two of each", locs, res.total())
	}
}

func TestIncludesLastWriteWins(t *testing.T) {
	f := newFixture(t)
	jar := f.file(t, "libs/ext.jar")
	in := New("source", f.root)
	if err := in.AddJars([]JarRoot{{Jar: jar, Includes: []string{"a.proto"}}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	if err := in.AddJars([]JarRoot{{Jar: jar, Includes: []string{"b.proto"}}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	assertLocations(t, force(t, in), []location.Location{
		location.Within(jar, "b.proto"),
		location.Within(jar, "b.proto"),
	})
}

func TestResolveErrorNamesDependency(t *testing.T) {
	boom := errors.New("artifact not found")
	res := newCountingResolver()
	res.fail["g:missing:1"] = boom

	in := New("source", t.TempDir(), WithResolver(res))
	if err := in.AddPaths([]string{"g:missing:1"}); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	_, err := in.ToLocations(context.Background())
	var resolveErr *ResolveError
	if !errors.As(err, &resolveErr) || resolveErr.Dependency != "g:missing:1" || !errors.Is(err, boom) {
		t.Fatalf("error = %v, want ResolveError wrapping %v", err, boom)
	}
	if _, again := in.ToLocations(context.Background()); !errors.Is(again, boom) || res.total() != 1 {
		t.Fatalf("failure must be cached without retrying: %v, %d calls", again, res.total())
	}
}

func TestParallelResolutionKeepsOrder(t *testing.T) {
	res := newCountingResolver()
	coords := []string{"g:a:1", "g:b:1", "g:c:1", "g:d:1"}
	for i, c := range coords {
		res.files[c] = []string{"/repo/" + c + ".jar"}
		res.delay[c] = time.Duration(len(coords)-i) * 5 * time.Millisecond
	}

	var mu sync.Mutex
	var events []ResolveEvent
	in := New("source", t.TempDir(), WithResolver(res), WithJobs(4), WithObserver(func(ev ResolveEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))
	if err := in.AddPaths(coords); err != nil {
		t.Fatalf("AddPaths: %v", err)
	}
	locs := force(t, in)
	for i, c := range coords {
		if locs[i].Base != "/repo/"+c+".jar" {
			t.Fatalf("location[%d] = %v, want base for %s", i, locs[i], c)
		}
	}
	if len(events) != 2*len(coords) {
		t.Fatalf("observer saw %d events, want %d", len(events), 2*len(coords))
	}
}

func TestEndToEndOrdering(t *testing.T) {
	f := newFixture(t)
	srcDir := f.dir(t, "src/main/proto")
	msg := f.file(t, "src/main/proto/a/Msg.proto")
	jar := f.file(t, "libs/ext.jar")

	in := New("source", f.root)
	if err := in.AddTrees([]sourcetree.Tree{{Dirs: []string{srcDir}, Files: []string{msg}}}); err != nil {
		t.Fatalf("AddTrees: %v", err)
	}
	if err := in.AddJars([]JarRoot{{Jar: jar, Includes: []string{"b/Ext.proto"}}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	locs := force(t, in)
	assertLocations(t, locs, []location.Location{
		location.Within(jar, "b/Ext.proto"),
		location.Within(srcDir, filepath.Join("a", "Msg.proto")),
	})
	if err := testkit.CheckLocations(locs); err != nil {
		t.Fatal(err)
	}
}

func TestTracingDuringForce(t *testing.T) {
	f := newFixture(t)
	f.file(t, "libs/a.jar")
	ring := trace.NewRingTracer(64, trace.LevelDebug)

	in := New("source", f.root, WithTracer(ring))
	if err := in.AddJars([]JarRoot{{Jar: "libs/a.jar", Includes: []string{"x.proto"}}}); err != nil {
		t.Fatalf("AddJars: %v", err)
	}
	in.Debug(ring)
	if in.Locations().Forced() {
		t.Fatalf("Debug forced the locations")
	}
	force(t, in)

	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"dependency added", "locations:source", "dep:" + filepath.Join(f.root, "libs", "a.jar")} {
		if !strings.Contains(joined, want) {
			t.Fatalf("trace missing %q: %v", want, names)
		}
	}
}
