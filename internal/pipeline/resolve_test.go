package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wirepath/internal/depgraph"
	"wirepath/internal/input"
	"wirepath/internal/location"
	"wirepath/internal/project"
	"wirepath/internal/repository"
	"wirepath/internal/trace"
)

type recordingSink struct {
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) { s.events = append(s.events, ev) }

func (s *recordingSink) statuses(dep string) []Status {
	var out []Status
	for _, ev := range s.events {
		if ev.Dependency == dep {
			out = append(out, ev.Status)
		}
	}
	return out
}

func mkfile(t *testing.T, root, rel string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func loadManifest(t *testing.T, root, content string) *project.Manifest {
	t.Helper()
	path := filepath.Join(root, project.ManifestName)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := project.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	return m
}

func TestResolveManifest(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	artifact := mkfile(t, repo, "com/example/protos/1.0/protos-1.0.jar")
	jar := mkfile(t, root, "libs/ext.jar")
	mkfile(t, root, "src/main/proto/a/Msg.proto")
	mkfile(t, root, "src/main/proto/a/internal/Hidden.proto")
	google := mkfile(t, root, "libs/google.jar")

	m := loadManifest(t, root, `
[project]
name = "demo"

[source]
paths = ["com.example:protos:1.0"]

[[source.jars]]
jar = "libs/ext.jar"
includes = ["b/Ext.proto"]

[[source.trees]]
dirs = ["src/main/proto"]
include = ["**/*.proto"]
exclude = ["**/internal/**"]

[proto]
paths = ["libs/google.jar"]

[repository]
dirs = ["repo"]

[cache]
disabled = true
`)
	sink := &recordingSink{}
	res, err := Resolve(context.Background(), &Request{Manifest: m, Jobs: 2, Progress: sink})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Project != "demo" || len(res.Inputs) != 2 || res.Total != 4 {
		t.Fatalf("result = %+v", res)
	}

	src, _ := res.Input("source")
	srcDir := filepath.Join(root, "src", "main", "proto")
	want := []location.Location{
		{Base: artifact},
		location.Within(jar, "b/Ext.proto"),
		location.Within(srcDir, filepath.Join("a", "Msg.proto")),
	}
	if len(src.Locations) != len(want) {
		t.Fatalf("source locations = %v, want %v", src.Locations, want)
	}
	for i := range want {
		if src.Locations[i] != want[i] {
			t.Fatalf("source[%d] = %v, want %v", i, src.Locations[i], want[i])
		}
	}
	if src.Dependencies != 2 {
		t.Fatalf("source dependencies = %d, want 2", src.Dependencies)
	}

	proto, _ := res.Input("proto")
	if len(proto.Locations) != 1 || proto.Locations[0] != location.Get(google) {
		t.Fatalf("proto locations = %v", proto.Locations)
	}

	got := sink.statuses("com.example:protos:1.0")
	if len(got) != 3 || got[0] != StatusQueued || got[1] != StatusWorking || got[2] != StatusDone {
		t.Fatalf("dependency statuses = %v", got)
	}
	for _, stage := range []Stage{StageRegister, StageResolve, StageAggregate} {
		if !res.Timings.Has(stage) {
			t.Fatalf("missing timing for %s", stage)
		}
	}
	if len(res.Report.Phases) != 4 {
		t.Fatalf("report phases = %+v", res.Report.Phases)
	}
}

func TestResolveSelectedInput(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "libs/google.jar")
	m := loadManifest(t, root, `
[project]
name = "demo"
[source]
paths = ["missing"]
[proto]
paths = ["libs/google.jar"]
`)
	res, err := Resolve(context.Background(), &Request{Manifest: m, Inputs: []string{"proto"}, NoCache: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Inputs) != 1 || res.Inputs[0].Name != "proto" {
		t.Fatalf("inputs = %+v", res.Inputs)
	}

	if _, err := Resolve(context.Background(), &Request{Manifest: m, Inputs: []string{"tests"}}); err == nil || !strings.Contains(err.Error(), `unknown input "tests"`) {
		t.Fatalf("error = %v", err)
	}
}

func TestResolveRegistrationError(t *testing.T) {
	root := t.TempDir()
	m := loadManifest(t, root, "[project]\nname = \"demo\"\n[source]\npaths = [\"http://example.com/a.jar\"]\n")
	sink := &recordingSink{}
	_, err := Resolve(context.Background(), &Request{Manifest: m, NoCache: true, Progress: sink})
	var urlErr *input.DisallowedRemoteURLError
	if !errors.As(err, &urlErr) {
		t.Fatalf("error = %v, want DisallowedRemoteURLError", err)
	}
	last := sink.events[len(sink.events)-1]
	if last.Stage != StageRegister || last.Status != StatusError {
		t.Fatalf("last event = %+v", last)
	}
}

func TestResolveMissingArtifact(t *testing.T) {
	root := t.TempDir()
	m := loadManifest(t, root, `
[project]
name = "demo"
[source]
paths = ["g:n:1"]
[repository]
dirs = ["repo"]
[cache]
disabled = true
`)
	sink := &recordingSink{}
	_, err := Resolve(context.Background(), &Request{Manifest: m, Progress: sink})
	var nf *repository.NotFoundError
	var re *input.ResolveError
	if !errors.As(err, &nf) || !errors.As(err, &re) || re.Dependency != "g:n:1" {
		t.Fatalf("error = %v, want ResolveError wrapping NotFoundError", err)
	}
	if got := sink.statuses("g:n:1"); got[len(got)-1] != StatusError {
		t.Fatalf("dependency statuses = %v", got)
	}
}

func TestResolveCustomResolverAndTracing(t *testing.T) {
	root := t.TempDir()
	m := loadManifest(t, root, "[project]\nname = \"demo\"\n[source]\npaths = [\"g:n:1\"]\n")
	resolver := depgraph.ResolverFunc(func(_ context.Context, dep depgraph.Dependency) ([]string, error) {
		if _, ok := dep.(*depgraph.ExternalDependency); !ok {
			return nil, depgraph.ErrUnsupported
		}
		return []string{"/virtual/" + dep.ID() + ".jar"}, nil
	})
	ring := trace.NewRingTracer(128, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)

	res, err := Resolve(ctx, &Request{Manifest: m, Resolver: resolver})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	src, _ := res.Input("source")
	if len(src.Locations) != 1 || src.Locations[0].Base != "/virtual/g:n:1.jar" {
		t.Fatalf("locations = %v", src.Locations)
	}

	seen := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		seen[ev.Name] = true
	}
	for _, name := range []string{"pipeline", "locations:source", "dep:g:n:1"} {
		if !seen[name] {
			t.Fatalf("trace is missing %q", name)
		}
	}
}

func TestResolveRejectsEmptyRequest(t *testing.T) {
	if _, err := Resolve(context.Background(), nil); err == nil {
		t.Fatalf("nil request accepted")
	}
	if _, err := Resolve(context.Background(), &Request{}); err == nil {
		t.Fatalf("request without manifest accepted")
	}
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{Stage: StageResolve})
	if ev := <-ch; ev.Stage != StageResolve {
		t.Fatalf("event = %+v", ev)
	}
	ChannelSink{}.OnEvent(Event{})
}

func TestResolveEmptySection(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "libs/google.jar")
	m := loadManifest(t, root, "[project]\nname = \"demo\"\n[proto]\npaths = [\"libs/google.jar\"]\n")
	ring := trace.NewRingTracer(64, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)

	res, err := Resolve(ctx, &Request{Manifest: m, NoCache: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	src, ok := res.Input("source")
	if !ok || len(src.Locations) != 0 || src.Dependencies != 0 {
		t.Fatalf("source = %+v, %v", src, ok)
	}
	found := false
	for _, ev := range ring.Snapshot() {
		if ev.Name == "input empty" && ev.Detail == "source" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no trace point for the empty source section")
	}
}
