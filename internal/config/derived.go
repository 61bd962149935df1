package config

import (
	"path/filepath"
	"time"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docweave/internal/collector"
	"git.home.luguber.info/inful/docweave/internal/git"
	"git.home.luguber.info/inful/docweave/internal/linkrewrite"
	"git.home.luguber.info/inful/docweave/internal/pathmap"
	"git.home.luguber.info/inful/docweave/internal/retry"
	"git.home.luguber.info/inful/docweave/internal/sidebar"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// The accessors below assume a validated configuration; parse failures fall back to the
// defaults Validate would have rejected.

// Taxonomy returns the built-in taxonomy with the configured overrides applied.
func (c *Config) Taxonomy() taxonomy.Taxonomy {
	return taxonomy.Default().With(c.TaxonomyOverrides)
}

// Locale returns the sidebar locale tag.
func (c *Config) Locale() language.Tag {
	tag, err := language.Parse(c.Sidebar.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// SidebarLayout builds the sidebar layout from the defaults and the sidebar section.
func (c *Config) SidebarLayout() sidebar.Layout {
	l := sidebar.DefaultLayout()
	l.Locale = c.Locale()
	if c.Sidebar.HomeTitle != "" {
		l.HomeTitle = c.Sidebar.HomeTitle
	}
	for k, v := range c.Sidebar.Headings {
		l.Headings[k] = v
	}
	switch {
	case len(c.Sidebar.StaticSections) > 0:
		l.Static = c.Sidebar.StaticSections
	case c.Sidebar.UseDefaultStatic != nil && !*c.Sidebar.UseDefaultStatic:
		l.Static = nil
	}
	switch {
	case c.Sidebar.ExternalLinks != nil:
		l.External = *c.Sidebar.ExternalLinks
	case c.Sidebar.ProjectURL != "":
		l.External = sidebar.ProjectLinks(c.Sidebar.ProjectURL)
	}
	l.MaxStableSections = c.Sidebar.MaxStableSections
	return l
}

// Mapper returns the path mapper for the configured names.
func (c *Config) Mapper() pathmap.Mapper {
	m := pathmap.New()
	m.CanonicalName = c.Source.CanonicalName
	m.TargetRootName = c.Target.RootName
	m.ModulesDir = c.Target.ModulesDir
	return m
}

// Rewriter returns the link rewriter for the configured mode.
func (c *Config) Rewriter() linkrewrite.Rewriter {
	mode, _ := linkrewrite.ParseMode(c.Target.LinkMode)
	base := c.Target.LinkBase
	if base != "" && base[0] != '/' {
		base = "/" + base
	}
	return linkrewrite.New(mode, base)
}

// TitleMode returns the configured heading injection mode.
func (c *Config) TitleMode() collector.TitleMode {
	m, _ := collector.ParseTitleMode(c.Target.TitleInjection)
	return m
}

// RetryPolicy returns the fetch retry policy; without a repository it is the default.
func (c *Config) RetryPolicy() retry.Policy {
	r := c.Source.Repository
	if r == nil {
		return retry.DefaultPolicy()
	}
	mode, _ := retry.ParseBackoffMode(r.Retry.Backoff)
	initial, _ := time.ParseDuration(r.Retry.InitialDelay)
	maxDelay, _ := time.ParseDuration(r.Retry.MaxDelay)
	retries := retry.DefaultPolicy().MaxRetries
	if r.Retry.MaxRetries != nil {
		retries = *r.Retry.MaxRetries
	}
	return retry.NewPolicy(mode, initial, maxDelay, retries)
}

// GitSource returns the fetch request for the configured repository. ok is false when the
// source is a local tree.
func (c *Config) GitSource() (src git.Source, ok bool) {
	r := c.Source.Repository
	if r == nil {
		return git.Source{}, false
	}
	depth := 0
	if r.Depth != nil {
		depth = *r.Depth
	}
	return git.Source{
		Name:     "source",
		URL:      r.URL,
		Branch:   r.Branch,
		Depth:    depth,
		Username: r.Username,
		Token:    r.Token,
	}, true
}

// Debounce returns the watch debounce window.
func (c *Config) Debounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// Interval returns the periodic rebuild interval, zero when unset.
func (c *Config) Interval() time.Duration {
	d, _ := time.ParseDuration(c.Watch.Interval)
	return d
}

// TargetRoot returns the resolved target root. For a remote source the target is still
// relative to the configuration directory, never to the checkout.
func (c *Config) TargetRoot() string { return c.Resolve(c.Target.Root) }

// SourceRoot returns the resolved source root below base, the checkout directory for a
// remote source or "" for the configuration directory.
func (c *Config) SourceRoot(base string) string {
	if base == "" {
		return c.Resolve(c.Source.Root)
	}
	return filepath.Join(base, c.Source.Root)
}

// ImplementationRoot returns the resolved implementation root, following the same rules
// as SourceRoot.
func (c *Config) ImplementationRoot(base string) string {
	if base == "" {
		return c.Resolve(c.Implementation.Root)
	}
	return filepath.Join(base, c.Implementation.Root)
}

// OutputPath returns the absolute path of a generated file name.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.TargetRoot(), name)
}
