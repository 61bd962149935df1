package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docweave/internal/collector"
	"git.home.luguber.info/inful/docweave/internal/linkrewrite"
	"git.home.luguber.info/inful/docweave/internal/retry"
)

// NormalizationResult captures adjustments made by Normalize.
type NormalizationResult struct{ Warnings []string }

func (r *NormalizationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Normalize canonicalizes enumerations and lists in place. Unknown enumeration values are
// left for Validate to reject; only case and whitespace are folded here.
func Normalize(c *Config) *NormalizationResult {
	res := &NormalizationResult{}

	c.Source.Patterns = trimList("source.patterns", c.Source.Patterns, res)
	c.Source.Exclude = trimList("source.exclude", c.Source.Exclude, res)
	c.Source.AuxiliaryDocs = trimList("source.auxiliary_docs", c.Source.AuxiliaryDocs, res)
	c.Implementation.Extensions = normalizeExtensions(c.Implementation.Extensions, res)

	c.Target.TitleInjection = foldEnum("target.title_injection", c.Target.TitleInjection, res, func(s string) bool {
		_, err := collector.ParseTitleMode(s)
		return err == nil
	})
	c.Target.LinkMode = foldEnum("target.link_mode", c.Target.LinkMode, res, func(s string) bool {
		_, err := linkrewrite.ParseMode(s)
		return err == nil
	})
	if r := c.Source.Repository; r != nil {
		r.Retry.Backoff = foldEnum("source.repository.retry.backoff", r.Retry.Backoff, res, func(s string) bool {
			_, err := retry.ParseBackoffMode(s)
			return err == nil
		})
		if r.Retry.MaxRetries != nil && *r.Retry.MaxRetries < 0 {
			res.warn("source.repository.retry.max_retries %d coerced to 0", *r.Retry.MaxRetries)
			zero := 0
			r.Retry.MaxRetries = &zero
		}
		if r.Depth != nil && *r.Depth < 0 {
			res.warn("source.repository.depth %d coerced to 0", *r.Depth)
			zero := 0
			r.Depth = &zero
		}
	}

	c.Logging.Level = foldLogging("logging.level", c.Logging.Level, logLevelNormalizer.NormalizeWithError, LogLevelInfo, res)
	c.Logging.Format = foldLogging("logging.format", c.Logging.Format, logFormatNormalizer.NormalizeWithError, LogFormatText, res)
	if c.Workers < 0 {
		res.warn("workers %d coerced to 0", c.Workers)
		c.Workers = 0
	}
	return res
}

// foldEnum lower-cases and trims raw when the folded value is valid.
func foldEnum(field, raw string, res *NormalizationResult, valid func(string) bool) string {
	folded := strings.ToLower(strings.TrimSpace(raw))
	if folded == raw || !valid(folded) {
		return raw
	}
	res.warn("normalized %s from '%s' to '%s'", field, raw, folded)
	return folded
}

func foldLogging[T ~string](field string, raw T, parse func(string) (T, error), def T, res *NormalizationResult) T {
	if raw == "" {
		return raw
	}
	v, err := parse(string(raw))
	if err != nil {
		res.warn("unknown %s '%s', defaulting to %s", field, raw, def)
		return def
	}
	if v != raw {
		res.warn("normalized %s from '%s' to '%s'", field, raw, v)
	}
	return v
}

// trimList drops blank and duplicate entries, keeping order.
func trimList(label string, in []string, res *NormalizationResult) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		t := strings.TrimSpace(v)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) != len(in) {
		res.warn("normalized %s list (%d -> %d entries)", label, len(in), len(out))
	}
	return out
}

// normalizeExtensions lower-cases extensions and adds the leading dot.
func normalizeExtensions(in []string, res *NormalizationResult) []string {
	in = trimList("implementation.extensions", in, res)
	for i, e := range in {
		n := strings.ToLower(e)
		if !strings.HasPrefix(n, ".") {
			n = "." + n
		}
		in[i] = n
	}
	return in
}
