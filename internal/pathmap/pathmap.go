// Package pathmap maps source-relative documentation paths onto the flattened target namespace.
//
// The mapping is pure: it inspects only the slash-separated path it is given.
//
//	README.md                -> README.md
//	README_zh.md             -> README_zh.md
//	moduleA/README.md        -> modules/moduleA.md
//	net/tcp/README.md        -> modules/net_tcp.md
//	net/tcp/README_api.md    -> modules/net_tcp_README_api.md
package pathmap

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// ErrPathCollision indicates two distinct source paths map to the same target path.
var ErrPathCollision = errors.New("path collision detected")

const (
	// DefaultCanonicalName is the entry-point document of a directory.
	DefaultCanonicalName = "README.md"
	// DefaultModulesDir is the target subdirectory receiving nested documents.
	DefaultModulesDir = "modules"
)

// TargetMapping pairs a source-relative path with its target-relative path.
type TargetMapping struct {
	SourceRelativePath string
	TargetRelativePath string
}

// Mapper applies the flattening rules. The zero value uses the defaults.
type Mapper struct {
	// CanonicalName is the directory entry-point file name (README.md).
	CanonicalName string
	// TargetRootName is the name the root document receives in the target tree.
	TargetRootName string
	// ModulesDir receives documents found at depth two or more.
	ModulesDir string
}

// New returns a Mapper with default names.
func New() Mapper {
	return Mapper{
		CanonicalName:  DefaultCanonicalName,
		TargetRootName: DefaultCanonicalName,
		ModulesDir:     DefaultModulesDir,
	}
}

func (m Mapper) canonical() string {
	if m.CanonicalName == "" {
		return DefaultCanonicalName
	}
	return m.CanonicalName
}

func (m Mapper) rootName() string {
	if m.TargetRootName == "" {
		return m.canonical()
	}
	return m.TargetRootName
}

func (m Mapper) modulesDir() string {
	if m.ModulesDir == "" {
		return DefaultModulesDir
	}
	return m.ModulesDir
}

// Map returns the target-relative path for a source-relative path. Backslashes are treated
// as separators and leading "./" segments are ignored.
func (m Mapper) Map(rel string) string {
	rel = normalize(rel)
	if rel == m.canonical() {
		return m.rootName()
	}

	dir, base := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	stem := strings.TrimSuffix(base, path.Ext(base))

	if dir == "" {
		return stem + ".md"
	}

	flat := strings.ReplaceAll(dir, "/", "_")
	if base == m.canonical() {
		return path.Join(m.modulesDir(), flat+".md")
	}
	return path.Join(m.modulesDir(), flat+"_"+stem+".md")
}

// MapAll maps every path and verifies that no two distinct sources share a target.
// Duplicate source paths are collapsed. The result is sorted by source path.
func (m Mapper) MapAll(rels []string) ([]TargetMapping, error) {
	sorted := make([]string, 0, len(rels))
	seen := make(map[string]struct{}, len(rels))
	for _, r := range rels {
		n := normalize(r)
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	owners := make(map[string]string, len(sorted))
	out := make([]TargetMapping, 0, len(sorted))
	for _, src := range sorted {
		target := m.Map(src)
		key := strings.ToLower(target)
		if prev, ok := owners[key]; ok {
			return nil, ferrors.CollisionError(fmt.Sprintf("%s and %s both map to %s", prev, src, target)).
				WithCause(ErrPathCollision).
				WithContext("target", target).
				WithContext("sources", []string{prev, src}).
				Build()
		}
		owners[key] = src
		out = append(out, TargetMapping{SourceRelativePath: src, TargetRelativePath: target})
	}
	return out, nil
}

func normalize(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	for strings.HasPrefix(rel, "./") {
		rel = rel[2:]
	}
	return strings.TrimPrefix(rel, "/")
}
