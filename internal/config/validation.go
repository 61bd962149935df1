package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docweave/internal/collector"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/linkrewrite"
	"git.home.luguber.info/inful/docweave/internal/retry"
)

// Validate checks a defaulted configuration. The first problem found is returned as a
// fatal configuration error naming the offending field.
func Validate(c *Config) error {
	v := &validator{cfg: c}
	for _, check := range []func() error{
		v.validateSource,
		v.validateTarget,
		v.validateOutputs,
		v.validateSidebar,
		v.validateWatch,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	if c.Workers < 1 {
		return invalid("workers", c.Workers, "must be at least 1")
	}
	return nil
}

type validator struct {
	cfg *Config
}

func invalid(field string, value any, reason string) error {
	return ferrors.ConfigError(fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).WithContext("value", value).Fatal().Build()
}

func (v *validator) validateSource() error {
	s := v.cfg.Source
	if strings.TrimSpace(s.Root) == "" {
		return invalid("source.root", s.Root, "must not be empty")
	}
	for _, p := range s.Patterns {
		if _, err := glob.Compile(p); err != nil {
			return invalid("source.patterns", p, err.Error())
		}
	}
	for _, p := range s.Exclude {
		if _, err := glob.Compile(p); err != nil {
			return invalid("source.exclude", p, err.Error())
		}
	}
	if strings.ContainsAny(s.CanonicalName, `/\`) {
		return invalid("source.canonical_name", s.CanonicalName, "must be a file name")
	}
	if r := s.Repository; r != nil {
		if strings.TrimSpace(r.URL) == "" {
			return invalid("source.repository.url", r.URL, "must not be empty")
		}
		if _, err := retry.ParseBackoffMode(r.Retry.Backoff); err != nil {
			return invalid("source.repository.retry.backoff", r.Retry.Backoff, "must be fixed, linear or exponential")
		}
		for field, raw := range map[string]string{
			"source.repository.retry.initial_delay": r.Retry.InitialDelay,
			"source.repository.retry.max_delay":     r.Retry.MaxDelay,
		} {
			if _, err := parsePositiveDuration(raw); err != nil {
				return invalid(field, raw, err.Error())
			}
		}
	}
	return nil
}

func (v *validator) validateTarget() error {
	t := v.cfg.Target
	if strings.TrimSpace(t.Root) == "" {
		return invalid("target.root", t.Root, "must not be empty")
	}
	if filepath.Clean(t.Root) == filepath.Clean(v.cfg.Source.Root) && v.cfg.Source.Repository == nil {
		return invalid("target.root", t.Root, "must differ from source.root")
	}
	if _, err := collector.ParseTitleMode(t.TitleInjection); err != nil {
		return invalid("target.title_injection", t.TitleInjection, "must be always, missing or never")
	}
	if _, err := linkrewrite.ParseMode(t.LinkMode); err != nil {
		return invalid("target.link_mode", t.LinkMode, "must be relative or absolute")
	}
	if strings.ContainsAny(t.RootName, `/\`) {
		return invalid("target.root_name", t.RootName, "must be a file name")
	}
	if strings.ContainsAny(t.ModulesDir, `/\`) || t.ModulesDir == "." || t.ModulesDir == ".." {
		return invalid("target.modules_dir", t.ModulesDir, "must be a single directory name")
	}
	return nil
}

func (v *validator) validateOutputs() error {
	o := v.cfg.Outputs
	for field, name := range map[string]string{
		"outputs.sidebar":          o.Sidebar,
		"outputs.metadata":         o.Metadata,
		"outputs.docs_index":       o.DocsIndex,
		"outputs.sitemap_markdown": o.SitemapMarkdown,
		"outputs.sitemap_xml":      o.SitemapXML,
	} {
		if filepath.IsAbs(name) || strings.HasPrefix(filepath.Clean(name), "..") {
			return invalid(field, name, "must stay inside the target root")
		}
	}
	if o.BaseURL != "" {
		u, err := url.Parse(o.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid("outputs.base_url", o.BaseURL, "must be an absolute URL")
		}
	}
	return nil
}

func (v *validator) validateSidebar() error {
	s := v.cfg.Sidebar
	if _, err := language.Parse(s.Locale); err != nil {
		return invalid("sidebar.locale", s.Locale, err.Error())
	}
	if s.MaxStableSections < 0 {
		return invalid("sidebar.max_stable_sections", s.MaxStableSections, "must not be negative")
	}
	return nil
}

func (v *validator) validateWatch() error {
	w := v.cfg.Watch
	if _, err := parsePositiveDuration(w.Debounce); err != nil {
		return invalid("watch.debounce", w.Debounce, err.Error())
	}
	if w.Schedule != "" && w.Interval != "" {
		return invalid("watch", w.Schedule, "schedule and interval are mutually exclusive")
	}
	if w.Interval != "" {
		if _, err := parsePositiveDuration(w.Interval); err != nil {
			return invalid("watch.interval", w.Interval, err.Error())
		}
	}
	if w.Schedule != "" {
		if n := len(strings.Fields(w.Schedule)); n != 5 && n != 6 {
			return invalid("watch.schedule", w.Schedule, "must be a cron expression with 5 or 6 fields")
		}
	}
	return nil
}

func parsePositiveDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}
	return d, nil
}
