package config

import (
	"git.home.luguber.info/inful/docweave/internal/collector"
	"git.home.luguber.info/inful/docweave/internal/indexer"
	"git.home.luguber.info/inful/docweave/internal/linkcheck"
	"git.home.luguber.info/inful/docweave/internal/modmeta"
	"git.home.luguber.info/inful/docweave/internal/pathmap"
	"git.home.luguber.info/inful/docweave/internal/retry"
	"git.home.luguber.info/inful/docweave/internal/sidebar"
	"git.home.luguber.info/inful/docweave/internal/sitemap"
)

// Output file defaults.
const (
	DefaultMetadataFile  = "modules-metadata.json"
	DefaultDocsIndexFile = "docs-index.json"
	DefaultWorkers       = 4
	DefaultDebounce      = "2s"
)

// ApplyDefaults fills every unset field. It runs after Normalize.
func ApplyDefaults(c *Config) {
	s := &c.Source
	if s.Root == "" {
		s.Root = "."
	}
	if len(s.Patterns) == 0 {
		s.Patterns = collector.DefaultPatterns()
	}
	if s.Exclude == nil {
		s.Exclude = collector.DefaultExclude()
	}
	if s.CanonicalName == "" {
		s.CanonicalName = pathmap.DefaultCanonicalName
	}
	if s.AuxiliaryDocs == nil {
		s.AuxiliaryDocs = collector.DefaultAuxiliaryDocs()
	}
	if r := s.Repository; r != nil {
		if r.Depth == nil {
			one := 1
			r.Depth = &one
		}
		if r.Retry.MaxRetries == nil {
			n := retry.DefaultPolicy().MaxRetries
			r.Retry.MaxRetries = &n
		}
		if r.Retry.Backoff == "" {
			r.Retry.Backoff = "linear"
		}
		if r.Retry.InitialDelay == "" {
			r.Retry.InitialDelay = "1s"
		}
		if r.Retry.MaxDelay == "" {
			r.Retry.MaxDelay = "30s"
		}
	}

	t := &c.Target
	if t.Root == "" {
		t.Root = "docs"
	}
	if t.RootName == "" {
		t.RootName = pathmap.DefaultCanonicalName
	}
	if t.ModulesDir == "" {
		t.ModulesDir = pathmap.DefaultModulesDir
	}
	if t.TitleInjection == "" {
		t.TitleInjection = string(collector.TitleAlways)
	}
	if t.LinkMode == "" {
		t.LinkMode = "relative"
	}

	if c.Implementation.Root == "" {
		c.Implementation.Root = s.Root
	}
	if len(c.Implementation.Extensions) == 0 {
		c.Implementation.Extensions = modmeta.DefaultExtensions()
	}

	o := &c.Outputs
	if o.Sidebar == "" {
		o.Sidebar = sidebar.FileName
	}
	if o.Metadata == "" {
		o.Metadata = DefaultMetadataFile
	}
	if o.DocsIndex == "" {
		o.DocsIndex = DefaultDocsIndexFile
	}
	if o.SitemapMarkdown == "" {
		o.SitemapMarkdown = sitemap.MarkdownFile
	}
	if o.SitemapXML == "" {
		o.SitemapXML = sitemap.XMLFile
	}

	if c.Sidebar.Locale == "" {
		c.Sidebar.Locale = "en"
	}
	if c.Sidebar.MaxStableSections == 0 {
		c.Sidebar.MaxStableSections = sidebar.DefaultLayout().MaxStableSections
	}

	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
	if c.Logging.Format == "" {
		c.Logging.Format = LogFormatText
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = DefaultDebounce
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
}

// IndexExcludeFiles returns the file globs the indexer skips: its defaults plus the
// generated Markdown files that are not documentation.
func (c *Config) IndexExcludeFiles() []string {
	return append(indexer.DefaultExcludeFiles(), c.Outputs.SitemapMarkdown, linkcheck.ReportFile)
}
