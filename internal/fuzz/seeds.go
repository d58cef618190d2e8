package fuzztests

import "testing"

// rawInputSeeds are declarations as users write them in wirepath.toml.
var rawInputSeeds = []string{
	"",
	".",
	"src/main/proto",
	"/abs/path/protos.jar",
	"C:\\protos\\lib.jar",
	"c:/protos",
	"file:///tmp/protos",
	"file:relative/dir",
	"http://example.com/foo.jar",
	"HTTPS://example.com/foo.jar",
	"jar:file:/x.jar!/a.proto",
	"mailto:someone@example.com",
	"com.example:protos:1.0",
	"com.example:protos:1.0:sources@zip",
	"g:n:1",
	"a:b",
	"::",
	"%zz:bad",
	"ünïcode:dep:1",
}

func addRawInputSeeds(f *testing.F) {
	for _, s := range rawInputSeeds {
		f.Add(s)
	}
}
