package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wirepath/internal/pipeline"
	"wirepath/internal/project"
)

const noManifestMessage = "no " + project.ManifestName + " found\nrun `wirepath init` to create one"

var resolveCmd = &cobra.Command{
	Use:   "resolve [dir]",
	Short: "Print the resolved source and proto locations",
	Long: `Resolve loads wirepath.toml from dir (or the nearest parent that has one),
resolves every declared input and prints one location per line, dependency
locations first. Archive entries print as archive!/entry.`,
	Args: cobra.MaximumNArgs(1),
	RunE: resolveExecution,
}

func init() {
	resolveCmd.Flags().String("format", "text", "output format (text|json)")
	resolveCmd.Flags().String("input", "all", "input to resolve (source|proto|all)")
	resolveCmd.Flags().Int("jobs", 0, "max concurrent dependency lookups (0=auto)")
	resolveCmd.Flags().Bool("no-cache", false, "bypass the resolution cache")
	resolveCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func resolveExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	inputValue, err := cmd.Flags().GetString("input")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	outFormat, err := readOutputFormat(format)
	if err != nil {
		return err
	}
	inputs, err := readInputSelection(inputValue)
	if err != nil {
		return err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	if jobs < 0 {
		return fmt.Errorf("--jobs must be >= 0")
	}
	if jobs == 0 {
		jobs = defaultJobs()
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	manifest, err := project.Load(dir)
	if err != nil {
		if errors.Is(err, project.ErrManifestNotFound) {
			return errors.New(noManifestMessage)
		}
		return err
	}

	req := &pipeline.Request{
		Manifest: manifest,
		Inputs:   inputs,
		Jobs:     jobs,
		NoCache:  noCache,
	}

	var res pipeline.Result
	// json output is meant for tools, so the progress view only accompanies text output
	if !quiet && outFormat == formatText && shouldUseTUI(mode) {
		title := fmt.Sprintf("resolving %s", manifest.Config.Project.Name)
		res, err = runResolveWithUI(cmd.Context(), os.Stderr, title, req)
	} else {
		res, err = pipeline.Resolve(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	if err := renderResult(cmd.OutOrStdout(), outFormat, &res, relativeTo(manifest.Root)); err != nil {
		return err
	}
	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings, res.Report)
	}
	return nil
}

func readInputSelection(value string) ([]string, error) {
	switch v := strings.TrimSpace(strings.ToLower(value)); v {
	case "", "all":
		return nil, nil
	case "source", "proto":
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("invalid --input value %q (expected source|proto|all)", value)
	}
}

// relativeTo shortens paths under root for display.
func relativeTo(root string) func(string) string {
	return func(p string) string {
		if p == "" {
			return p
		}
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return p
		}
		return rel
	}
}
