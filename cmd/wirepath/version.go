package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"wirepath/internal/project"
	"wirepath/internal/version"
)

type versionPayload struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Manifest   string `json:"manifest"`
	GoVersion  string `json:"go_version,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

var (
	versionFormat string
	versionFull   bool
)

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "include commit, build date and toolchain")
	versionCmd.Flags().StringVar(&versionFormat, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show wirepath build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload := buildVersionPayload(versionFull)
		switch strings.ToLower(versionFormat) {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		case "pretty":
			renderVersionPretty(cmd.OutOrStdout(), payload)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFormat)
		}
	},
}

func buildVersionPayload(full bool) versionPayload {
	p := versionPayload{
		Tool:     "wirepath",
		Version:  strings.TrimSpace(version.Version),
		Manifest: project.ManifestName,
	}
	if p.Version == "" {
		p.Version = "dev"
	}
	if full {
		p.GoVersion = runtime.Version()
		p.GitCommit = valueOrUnknown(version.GitCommit)
		p.GitMessage = valueOrUnknown(version.GitMessage)
		p.BuildDate = valueOrUnknown(version.BuildDate)
	}
	return p
}

func renderVersionPretty(out io.Writer, p versionPayload) {
	fmt.Fprintf(out, "wirepath %s (reads %s)\n", version.Pretty(p.Version), p.Manifest)
	if p.GoVersion == "" {
		return
	}
	fmt.Fprintf(out, "go:      %s\n", p.GoVersion)
	fmt.Fprintf(out, "commit:  %s\n", p.GitCommit)
	fmt.Fprintf(out, "message: %s\n", p.GitMessage)
	fmt.Fprintf(out, "built:   %s\n", p.BuildDate)
}

func valueOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
