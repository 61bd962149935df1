// Package config loads, normalizes and validates the docweave configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/sidebar"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// Version is the configuration schema version this build understands.
const Version = "1"

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "docweave.yaml"

// Config is the root of the configuration file.
type Config struct {
	Version           string               `yaml:"version"`
	Source            SourceConfig         `yaml:"source"`
	Target            TargetConfig         `yaml:"target"`
	Implementation    ImplementationConfig `yaml:"implementation"`
	Outputs           OutputsConfig        `yaml:"outputs"`
	TaxonomyOverrides taxonomy.Overrides   `yaml:"taxonomy,omitempty"`
	Sidebar           SidebarConfig        `yaml:"sidebar"`
	Logging           LoggingConfig        `yaml:"logging"`
	Notify            NotifyConfig         `yaml:"notify,omitempty"`
	Watch             WatchConfig          `yaml:"watch,omitempty"`
	// Workers bounds concurrent document materialization.
	Workers int `yaml:"workers"`
	// Workspace is a persistent directory for remote checkouts; empty uses a temporary one.
	Workspace string `yaml:"workspace,omitempty"`

	baseDir string
}

// SourceConfig locates the documentation fragments.
type SourceConfig struct {
	// Root is the tree to collect from. With a repository it is relative to the checkout.
	Root          string            `yaml:"root"`
	Repository    *RepositoryConfig `yaml:"repository,omitempty"`
	Patterns      []string          `yaml:"patterns,omitempty"`
	Exclude       []string          `yaml:"exclude,omitempty"`
	CanonicalName string            `yaml:"canonical_name,omitempty"`
	AuxiliaryDocs []string          `yaml:"auxiliary_docs,omitempty"`
}

// RepositoryConfig describes a remote source fetched before each run.
type RepositoryConfig struct {
	URL      string      `yaml:"url"`
	Branch   string      `yaml:"branch,omitempty"`
	Depth    *int        `yaml:"depth,omitempty"`
	Username string      `yaml:"username,omitempty"`
	Token    string      `yaml:"token,omitempty"`
	Retry    RetryConfig `yaml:"retry,omitempty"`
}

// RetryConfig tunes fetch retries.
type RetryConfig struct {
	MaxRetries   *int   `yaml:"max_retries,omitempty"`
	Backoff      string `yaml:"backoff,omitempty"`
	InitialDelay string `yaml:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty"`
}

// TargetConfig describes the generated documentation tree.
type TargetConfig struct {
	Root           string `yaml:"root"`
	RootName       string `yaml:"root_name,omitempty"`
	ModulesDir     string `yaml:"modules_dir,omitempty"`
	TitleInjection string `yaml:"title_injection,omitempty"`
	LinkMode       string `yaml:"link_mode,omitempty"`
	// LinkBase prefixes absolute-mode links, e.g. "docs" for "/docs/modules/x.md".
	LinkBase string `yaml:"link_base,omitempty"`
}

// ImplementationConfig locates the module sources the inventory is built from.
type ImplementationConfig struct {
	Root       string   `yaml:"root"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// OutputsConfig names the generated files. Names are relative to the target root except
// MetricsTextfile, which resolves against the configuration directory.
type OutputsConfig struct {
	Sidebar         string `yaml:"sidebar,omitempty"`
	Metadata        string `yaml:"metadata,omitempty"`
	DocsIndex       string `yaml:"docs_index,omitempty"`
	SitemapMarkdown string `yaml:"sitemap_markdown,omitempty"`
	// SitemapXML is only written when BaseURL is set.
	SitemapXML string `yaml:"sitemap_xml,omitempty"`
	BaseURL    string `yaml:"base_url,omitempty"`
	// MetricsTextfile, when set, receives the run metrics in Prometheus text format.
	MetricsTextfile string `yaml:"metrics_textfile,omitempty"`
}

// SidebarConfig customizes the navigation document.
type SidebarConfig struct {
	Locale            string            `yaml:"locale,omitempty"`
	HomeTitle         string            `yaml:"home_title,omitempty"`
	Headings          map[string]string `yaml:"headings,omitempty"`
	StaticSections    []sidebar.Section `yaml:"static_sections,omitempty"`
	ExternalLinks     *sidebar.Section  `yaml:"external_links,omitempty"`
	MaxStableSections int               `yaml:"max_stable_sections,omitempty"`
	// ProjectURL points the default external block at another hosted repository.
	// ExternalLinks takes precedence.
	ProjectURL string `yaml:"project_url,omitempty"`
	// UseDefaultStatic keeps the built-in static sections when StaticSections is empty.
	UseDefaultStatic *bool `yaml:"use_default_static,omitempty"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// NotifyConfig enables run events on NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce,omitempty"`
	// Schedule is a cron expression for periodic full runs; Interval a Go duration. At most
	// one may be set.
	Schedule string `yaml:"schedule,omitempty"`
	Interval string `yaml:"interval,omitempty"`
	// MetricsListen serves Prometheus metrics while watching, e.g. ":9464".
	MetricsListen string `yaml:"metrics_listen,omitempty"`
}

// Load reads, expands, normalizes, defaults and validates the file at path. Relative paths
// in the file are resolved against its directory.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithCause(err).WithContext("path", path).Fatal().Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read configuration").
			WithContext("path", path).Fatal().Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		if c, ok := ferrors.AsClassified(err); ok {
			return nil, c.WithContext("path", path)
		}
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		abs = filepath.Dir(path)
	}
	cfg.baseDir = abs
	return cfg, nil
}

// Parse decodes configuration bytes with environment expansion and runs the normalize,
// default and validate passes. Relative paths resolve against the working directory.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.ConfigError("failed to parse configuration").WithCause(err).Fatal().Build()
	}
	if cfg.Version != Version {
		return nil, ferrors.ConfigError(fmt.Sprintf("unsupported configuration version %q (expected %q)", cfg.Version, Version)).
			Fatal().Build()
	}

	res := Normalize(&cfg)
	for _, w := range res.Warnings {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists: collect from the working
// directory into ./docs.
func Default() *Config {
	cfg := &Config{Version: Version}
	ApplyDefaults(cfg)
	return cfg
}

// BaseDir is the directory relative paths resolve against; "" means the working directory.
func (c *Config) BaseDir() string { return c.baseDir }

// SetBaseDir overrides the directory relative paths resolve against.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

// Resolve returns p made absolute against the configuration directory. Absolute paths
// and "" are returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// Init writes an example configuration file to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode example configuration").Build()
	}
	header := "# docweave configuration. ${VAR} references are expanded from the environment\n" +
		"# (.env and .env.local next to this file are loaded first).\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write configuration").
			WithContext("path", path).Build()
	}
	slog.Info("Configuration file created", slog.String("path", path))
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := Default()
	cfg.Implementation.Root = "src"
	cfg.Outputs.BaseURL = "https://docs.example.org"
	cfg.TaxonomyOverrides = taxonomy.Overrides{
		Modules: map[string]taxonomy.ModuleDisplay{
			"scheduler": {Name: "Task Scheduler", Status: taxonomy.StatusStable, Icon: "⚙️"},
		},
	}
	cfg.Sidebar.ExternalLinks = &sidebar.Section{
		Title: "Links",
		Links: []sidebar.Link{{Title: "Repository", Path: "https://example.org/project"}},
	}
	cfg.Watch = WatchConfig{Debounce: "2s", Interval: "1h"}
	return cfg
}
