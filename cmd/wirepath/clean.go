package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"wirepath/internal/pipeline"
	"wirepath/internal/project"
	"wirepath/internal/repository"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Remove the dependency resolution cache",
	Long: `Clean removes every cached coordinate lookup. The cache dir comes from
[cache].dir of the nearest wirepath.toml; without a manifest the user cache
dir is cleaned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func runClean(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	cacheDir := ""
	manifest, err := project.Load(dir)
	switch {
	case err == nil:
		cacheDir = manifest.CacheDir()
	case !errors.Is(err, project.ErrManifestNotFound):
		return err
	}

	cache, err := repository.OpenDiskCache(cacheDir, pipeline.CacheApp)
	if err != nil {
		return fmt.Errorf("failed to open resolution cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clean %q: %w", cache.Dir(), err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
	}
	return nil
}
