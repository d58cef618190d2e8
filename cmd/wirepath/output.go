package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/fatih/color"

	"wirepath/internal/location"
	"wirepath/internal/pipeline"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
)

var inputHeaderColor = color.New(color.FgCyan, color.Bold)

func readOutputFormat(value string) (outputFormat, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "text":
		return formatText, nil
	case "json":
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (must be text or json)", value)
	}
}

func defaultJobs() int {
	n := runtime.GOMAXPROCS(0)
	if n > 8 {
		n = 8
	}
	return n
}

// renderResult writes res. Text output shortens paths with short; JSON keeps them absolute.
func renderResult(out io.Writer, format outputFormat, res *pipeline.Result, short func(string) string) error {
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	for i, in := range res.Inputs {
		if i > 0 {
			fmt.Fprintln(out)
		}
		inputHeaderColor.Fprintf(out, "[%s]", in.Name)
		fmt.Fprintf(out, " %d locations, %d dependencies\n", len(in.Locations), in.Dependencies)
		for _, loc := range in.Locations {
			fmt.Fprintln(out, shorten(loc, short).String())
		}
	}
	return nil
}

func shorten(loc location.Location, short func(string) string) location.Location {
	if short == nil {
		return loc
	}
	if loc.IsQualified() {
		loc.Path = short(loc.Path)
		return loc
	}
	loc.Base = short(loc.Base)
	return loc
}
