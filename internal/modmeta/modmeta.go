// Package modmeta scans the implementation tree and produces the module inventory used
// to badge module entries in the sidebar.
package modmeta

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/taxonomy"
)

// Record describes one implementation module.
type Record struct {
	Key          string          `json:"-"`
	Name         string          `json:"name"`
	Status       taxonomy.Status `json:"status"`
	Icon         string          `json:"icon"`
	Path         string          `json:"path"`
	Files        int             `json:"files"`
	LastModified time.Time       `json:"lastModified"`
}

// Statistics counts modules per status.
type Statistics struct {
	Total        int `json:"total"`
	Stable       int `json:"stable"`
	Beta         int `json:"beta"`
	Experimental int `json:"experimental"`
	Deprecated   int `json:"deprecated"`
}

func (s *Statistics) add(status taxonomy.Status) {
	s.Total++
	switch status {
	case taxonomy.StatusStable:
		s.Stable++
	case taxonomy.StatusBeta:
		s.Beta++
	case taxonomy.StatusExperimental:
		s.Experimental++
	case taxonomy.StatusDeprecated:
		s.Deprecated++
	}
}

// Inventory is the module metadata document.
type Inventory struct {
	Generated  time.Time         `json:"generated"`
	Modules    map[string]Record `json:"modules"`
	Statistics Statistics        `json:"statistics"`
}

// Empty reports whether the inventory holds no modules. A nil inventory is empty.
func (inv *Inventory) Empty() bool { return inv == nil || len(inv.Modules) == 0 }

// Lookup returns the record for a module key.
func (inv *Inventory) Lookup(key string) (Record, bool) {
	if inv == nil {
		return Record{}, false
	}
	r, ok := inv.Modules[key]
	if ok {
		r.Key = key
	}
	return r, ok
}

// Keys returns the module keys, sorted.
func (inv *Inventory) Keys() []string {
	if inv == nil {
		return nil
	}
	keys := make([]string, 0, len(inv.Modules))
	for k := range inv.Modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteJSON writes the inventory with two-space indentation.
func (inv *Inventory) WriteJSON(dest string) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode module metadata").Build()
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create metadata directory").
			WithContext("path", dest).Build()
	}
	if err := os.WriteFile(dest, append(data, '\n'), 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write module metadata").
			WithContext("path", dest).Build()
	}
	return nil
}

// ReadJSON loads an inventory written by WriteJSON. A missing file yields an empty inventory.
func ReadJSON(src string) (*Inventory, error) {
	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return &Inventory{Modules: map[string]Record{}}, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read module metadata").
			WithContext("path", src).Build()
	}
	var inv Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "malformed module metadata").
			WithContext("path", src).Build()
	}
	if inv.Modules == nil {
		inv.Modules = map[string]Record{}
	}
	for k, r := range inv.Modules {
		r.Key = k
		r.Status = taxonomy.ParseStatus(string(r.Status))
		inv.Modules[k] = r
	}
	return &inv, nil
}

// Options configures a Scanner.
type Options struct {
	// Root is the implementation tree, e.g. "src".
	Root string
	// PathPrefix is prepended to module keys in Record.Path. Defaults to the base name of Root.
	PathPrefix string
	// Extensions counted recursively, with leading dot. Defaults to DefaultExtensions.
	Extensions []string
	// Skip are globs naming first-level directories that are not modules, such as the
	// target tree when it lives inside Root. Invalid patterns are ignored.
	Skip []string
	// Now stamps the inventory. Defaults to time.Now.
	Now func() time.Time
}

// DefaultExtensions are the source file types counted per module.
func DefaultExtensions() []string { return []string{".c", ".h"} }

// Scanner builds inventories. It never writes to the implementation tree.
type Scanner struct {
	opts Options
	tax  taxonomy.Taxonomy
	exts map[string]struct{}
	skip []glob.Glob
}

// NewScanner returns a Scanner using tax for display records.
func NewScanner(tax taxonomy.Taxonomy, opts Options) *Scanner {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions()
	}
	if opts.PathPrefix == "" {
		opts.PathPrefix = filepath.Base(filepath.Clean(opts.Root))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, e := range opts.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	skip := make([]glob.Glob, 0, len(opts.Skip))
	for _, p := range opts.Skip {
		g, err := glob.Compile(p)
		if err != nil {
			slog.Warn("Ignoring invalid module skip pattern", slog.String("pattern", p), logfields.Error(err))
			continue
		}
		skip = append(skip, g)
	}
	return &Scanner{opts: opts, tax: tax, exts: exts, skip: skip}
}

// Scan enumerates first-level subdirectories of the root. A missing root is not fatal:
// the result is an empty inventory and a warning is logged.
func (s *Scanner) Scan(ctx context.Context) (*Inventory, error) {
	now := s.opts.Now().UTC()
	inv := &Inventory{Generated: now, Modules: map[string]Record{}}

	entries, err := os.ReadDir(s.opts.Root)
	if err != nil {
		slog.Warn("Implementation root not readable; module metadata is empty",
			logfields.Path(s.opts.Root), logfields.Error(err))
		return inv, nil
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || s.skipped(e.Name()) {
			continue
		}
		rec := s.scanModule(e.Name(), now)
		inv.Modules[rec.Key] = rec
		inv.Statistics.add(rec.Status)
		slog.Debug("Scanned module", logfields.Module(rec.Key), logfields.Status(string(rec.Status)), logfields.Count(rec.Files))
	}
	return inv, nil
}

func (s *Scanner) skipped(name string) bool {
	for _, g := range s.skip {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func (s *Scanner) scanModule(key string, now time.Time) Record {
	display, _ := s.tax.Module(key)
	rec := Record{
		Key:    key,
		Name:   display.Name,
		Status: display.Status,
		Icon:   display.Icon,
		Path:   path.Join(filepath.ToSlash(s.opts.PathPrefix), key),
	}

	dir := filepath.Join(s.opts.Root, key)
	var newest time.Time
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("Skipping unreadable module path", logfields.Module(key), logfields.Path(p), logfields.Error(err))
			if d != nil && d.IsDir() && p != dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if _, ok := s.exts[strings.ToLower(filepath.Ext(d.Name()))]; !ok {
			return nil
		}
		rec.Files++
		if info, err := d.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})

	if newest.IsZero() {
		newest = now
	}
	rec.LastModified = newest.UTC()
	return rec
}
