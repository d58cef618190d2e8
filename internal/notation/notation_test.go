package notation

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		raw       string
		wantKind  Kind
		wantValue string
	}{
		{raw: "src/main/proto", wantKind: LocalFile, wantValue: "src/main/proto"},
		{raw: "/abs/libs/ext.jar", wantKind: LocalFile, wantValue: "/abs/libs/ext.jar"},
		{raw: "file:///abs/libs/ext.jar", wantKind: LocalFile, wantValue: "/abs/libs/ext.jar"},
		{raw: "file:libs/ext.jar", wantKind: LocalFile, wantValue: "libs/ext.jar"},
		{raw: "http://example.com/foo.jar", wantKind: RemoteURI, wantValue: "http://example.com/foo.jar"},
		{raw: "HTTPS://example.com/foo.jar", wantKind: RemoteURI, wantValue: "HTTPS://example.com/foo.jar"},
		{raw: "ftp://mirror/protos.jar", wantKind: RemoteURI, wantValue: "ftp://mirror/protos.jar"},
		{raw: "com.example:protos:1.0", wantKind: DependencyCoordinate, wantValue: "com.example:protos:1.0"},
		{raw: "com.squareup.wire:wire-schema:4.0.0@jar", wantKind: DependencyCoordinate, wantValue: "com.squareup.wire:wire-schema:4.0.0@jar"},
		{raw: "trailing:", wantKind: LocalFile, wantValue: "trailing:"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Classify(tt.raw)
			if got.Kind != tt.wantKind {
				t.Fatalf("Classify(%q).Kind = %v, want %v", tt.raw, got.Kind, tt.wantKind)
			}
			if got.Value != tt.wantValue {
				t.Fatalf("Classify(%q).Value = %q, want %q", tt.raw, got.Value, tt.wantValue)
			}
		})
	}
}

func TestClassifyIsStable(t *testing.T) {
	inputs := []string{"a/b", "g.h:n:1", "http://x/y.jar"}
	for _, raw := range inputs {
		first := Classify(raw)
		for i := 0; i < 5; i++ {
			if got := Classify(raw); got != first {
				t.Fatalf("Classify(%q) changed between calls: %v then %v", raw, first, got)
			}
		}
	}
}
