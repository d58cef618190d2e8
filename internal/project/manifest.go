package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

var (
	// ErrManifestNotFound indicates that no wirepath.toml exists above the start directory.
	ErrManifestNotFound = errors.New("no " + ManifestName + " found")
	// ErrProjectSectionMissing indicates that [project] is missing.
	ErrProjectSectionMissing = errors.New("missing [project]")
	// ErrProjectNameMissing indicates that [project].name is missing or blank.
	ErrProjectNameMissing = errors.New("missing [project].name")
)

// Manifest is a loaded wirepath.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest sections.
type Config struct {
	Project    ProjectConfig    `toml:"project"`
	Source     InputConfig      `toml:"source"`
	Proto      InputConfig      `toml:"proto"`
	Repository RepositoryConfig `toml:"repository"`
	Cache      CacheConfig      `toml:"cache"`
}

// ProjectConfig is the [project] section.
type ProjectConfig struct {
	Name string `toml:"name"`
}

// InputConfig declares one compiler input: [source] or [proto].
type InputConfig struct {
	Paths []string     `toml:"paths"`
	Jars  []JarConfig  `toml:"jars"`
	Trees []TreeConfig `toml:"trees"`
}

// IsEmpty reports whether the section declares nothing.
func (c InputConfig) IsEmpty() bool {
	return len(c.Paths) == 0 && len(c.Jars) == 0 && len(c.Trees) == 0
}

// JarConfig is one [[<input>.jars]] entry.
type JarConfig struct {
	Jar      string   `toml:"jar"`
	Includes []string `toml:"includes"`
}

// TreeConfig is one [[<input>.trees]] entry. Files, when set, replaces the directory walk.
type TreeConfig struct {
	Dirs    []string `toml:"dirs"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
	Files   []string `toml:"files"`
}

// RepositoryConfig is the [repository] section.
type RepositoryConfig struct {
	Dirs []string `toml:"dirs"`
}

// CacheConfig is the [cache] section.
type CacheConfig struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

// Input returns the section for name ("source" or "proto").
func (c *Config) Input(name string) (InputConfig, bool) {
	switch name {
	case "source":
		return c.Source, true
	case "proto":
		return c.Proto, true
	default:
		return InputConfig{}, false
	}
}

// InputNames lists the input sections in the order they are resolved.
func InputNames() []string {
	return []string{"source", "proto"}
}

// Load finds wirepath.toml above startDir and loads it.
func Load(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrManifestNotFound
	}
	return LoadFile(path)
}

// LoadFile parses and validates the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(abs)
	if err != nil {
		return nil, err
	}
	return &Manifest{
		Path:   abs,
		Root:   filepath.Dir(abs),
		Config: cfg,
	}, nil
}

func loadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("project") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrProjectSectionMissing)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrProjectNameMissing)
	}
	for _, name := range InputNames() {
		in, _ := cfg.Input(name)
		for i, tree := range in.Trees {
			if len(tree.Dirs) == 0 {
				return Config{}, fmt.Errorf("%s: [[%s.trees]] #%d: missing dirs", path, name, i+1)
			}
		}
	}
	for i, dir := range cfg.Repository.Dirs {
		expanded, err := ExpandHome(dir)
		if err != nil {
			return Config{}, fmt.Errorf("%s: [repository].dirs: %w", path, err)
		}
		cfg.Repository.Dirs[i] = expanded
	}
	if cfg.Cache.Dir != "" {
		if cfg.Cache.Dir, err = ExpandHome(cfg.Cache.Dir); err != nil {
			return Config{}, fmt.Errorf("%s: [cache].dir: %w", path, err)
		}
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// RepositoryDirs returns the configured repository dirs, made absolute against the
// project root. With none configured it falls back to the local Maven repository.
func (m *Manifest) RepositoryDirs() []string {
	dirs := m.Config.Repository.Dirs
	if len(dirs) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			dirs = []string{filepath.Join(home, ".m2", "repository")}
		}
	}
	out := make([]string, len(dirs))
	for i, dir := range dirs {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(m.Root, filepath.FromSlash(dir))
		}
		out[i] = filepath.Clean(dir)
	}
	return out
}

// CacheDir returns [cache].dir made absolute against the project root, or "" for the
// user cache default.
func (m *Manifest) CacheDir() string {
	dir := m.Config.Cache.Dir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}

// DefaultManifest returns the starter manifest written by init.
func DefaultManifest(name string) string {
	return fmt.Sprintf(`# wirepath project manifest
[project]
name = %q

[[source.trees]]
dirs = ["src/main/proto"]
include = ["**/*.proto"]

[proto]
paths = []

[repository]
dirs = ["~/.m2/repository"]
`, name)
}
