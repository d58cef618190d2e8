package testkit

import (
	"testing"

	"wirepath/internal/location"
)

func TestCheckLocations(t *testing.T) {
	tests := []struct {
		name string
		locs []location.Location
		ok   bool
	}{
		{name: "qualified", locs: []location.Location{{Path: "/src"}}, ok: true},
		{name: "archive", locs: []location.Location{{Base: "/a.jar"}, {Base: "/a.jar", Path: "x/y.proto"}}, ok: true},
		{name: "empty", locs: []location.Location{{}}},
		{name: "relative qualified", locs: []location.Location{{Path: "src"}}},
		{name: "escaping entry", locs: []location.Location{{Base: "/src", Path: "../x.proto"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckLocations(tt.locs); (err == nil) != tt.ok {
				t.Fatalf("CheckLocations = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestCheckTreeMapping(t *testing.T) {
	dirs := []string{"/src", "/src/gen"}
	files := []string{"/src/gen/a.proto"}
	if err := CheckTreeMapping(dirs, files, []location.Location{{Base: "/src", Path: "gen/a.proto"}}); err != nil {
		t.Fatalf("valid mapping rejected: %v", err)
	}
	if err := CheckTreeMapping(dirs, files, []location.Location{{Base: "/src/gen", Path: "a.proto"}}); err == nil {
		t.Fatalf("mapping to a later root accepted")
	}
	if err := CheckTreeMapping(dirs, files, nil); err == nil {
		t.Fatalf("missing location accepted")
	}
}
