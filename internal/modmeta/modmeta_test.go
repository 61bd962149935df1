package modmeta

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docweave/internal/taxonomy"
	"git.home.luguber.info/inful/docweave/internal/testutil/testutils"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func schedulerTree(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "src")
	files := map[string]string{}
	for i := 0; i < 3; i++ {
		files[fmt.Sprintf("scheduler/task%d.c", i)] = "int x;\n"
	}
	files["scheduler/include/sched.h"] = "#pragma once\n"
	files["scheduler/port/ARCH.H"] = "#pragma once\n"
	files["scheduler/README.md"] = "# Scheduler\n"
	files["scheduler/Makefile"] = "all:\n"
	testutils.WriteTree(t, root, files)
	return root
}

func TestScan_KnownModuleIsStable(t *testing.T) {
	root := schedulerTree(t)
	inv, err := NewScanner(taxonomy.Default(), Options{Root: root, Now: func() time.Time { return fixedNow }}).Scan(context.Background())
	require.NoError(t, err)

	rec, ok := inv.Lookup("scheduler")
	require.True(t, ok)
	require.Equal(t, taxonomy.StatusStable, rec.Status)
	require.Equal(t, 5, rec.Files)
	require.Equal(t, "src/scheduler", rec.Path)
	require.Equal(t, "Task Scheduler", rec.Name)
	require.False(t, rec.LastModified.IsZero())
	require.Equal(t, Statistics{Total: 1, Stable: 1}, inv.Statistics)
}

func TestScan_UnknownModuleIsExperimental(t *testing.T) {
	root := schedulerTree(t)
	empty := taxonomy.Default().With(taxonomy.Overrides{ReplaceModules: true})

	inv, err := NewScanner(empty, Options{Root: root}).Scan(context.Background())
	require.NoError(t, err)
	rec, ok := inv.Lookup("scheduler")
	require.True(t, ok)
	require.Equal(t, taxonomy.StatusExperimental, rec.Status)
	require.Equal(t, "scheduler", rec.Name)
	require.Equal(t, "📦", rec.Icon)
	require.Equal(t, 5, rec.Files)
	require.Equal(t, 1, inv.Statistics.Experimental)
}

func TestScan_StatisticsAndOrdering(t *testing.T) {
	root := filepath.Join(t.TempDir(), "src")
	testutils.WriteTree(t, root, map[string]string{
		"utils/a.c":       "",
		"memory/a.c":      "",
		"gpio/a.h":        "",
		".hidden/a.c":     "",
		"loose-file.c":    "",
		"crypto/empty.md": "",
	})
	inv, err := NewScanner(taxonomy.Default(), Options{Root: root, Now: func() time.Time { return fixedNow }}).Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"crypto", "gpio", "memory", "utils"}, inv.Keys())
	require.Equal(t, Statistics{Total: 4, Stable: 1, Beta: 2, Experimental: 1}, inv.Statistics)

	crypto, _ := inv.Lookup("crypto")
	require.Zero(t, crypto.Files)
	require.Equal(t, fixedNow, crypto.LastModified, "no matching files falls back to scan time")
}

func TestScan_CustomExtensions(t *testing.T) {
	root := filepath.Join(t.TempDir(), "pkg")
	testutils.WriteTree(t, root, map[string]string{"net/a.go": "", "net/b.go": "", "net/c.c": ""})
	inv, err := NewScanner(taxonomy.Default(), Options{Root: root, Extensions: []string{"go"}}).Scan(context.Background())
	require.NoError(t, err)
	rec, _ := inv.Lookup("net")
	require.Equal(t, 2, rec.Files)
}

func TestScan_SkipsNamedDirectories(t *testing.T) {
	root := t.TempDir()
	testutils.WriteTree(t, root, map[string]string{"docs/x.c": "", "net/a.c": "", ".git/y.c": "", "_build/z.c": ""})
	inv, err := NewScanner(taxonomy.Default(), Options{Root: root, Skip: []string{"docs", "_*", "["}}).Scan(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"net"}, inv.Keys())
}

func TestScan_MissingRootIsEmpty(t *testing.T) {
	inv, err := NewScanner(taxonomy.Default(), Options{Root: filepath.Join(t.TempDir(), "absent")}).Scan(context.Background())
	require.NoError(t, err)
	require.True(t, inv.Empty())
	require.Zero(t, inv.Statistics.Total)
}

func TestInventoryJSONRoundTrip(t *testing.T) {
	root := schedulerTree(t)
	inv, err := NewScanner(taxonomy.Default(), Options{Root: root, Now: func() time.Time { return fixedNow }}).Scan(context.Background())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out", "module-metadata.json")
	require.NoError(t, inv.WriteJSON(dest))

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"statistics": {`)
	require.Contains(t, string(raw), `"lastModified"`)

	loaded, err := ReadJSON(dest)
	require.NoError(t, err)
	rec, ok := loaded.Lookup("scheduler")
	require.True(t, ok)
	require.Equal(t, "scheduler", rec.Key)
	require.Equal(t, 5, rec.Files)
	require.Equal(t, inv.Statistics, loaded.Statistics)
}

func TestReadJSON_Missing(t *testing.T) {
	inv, err := ReadJSON(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	require.True(t, inv.Empty())
}

func TestNilInventory(t *testing.T) {
	var inv *Inventory
	require.True(t, inv.Empty())
	_, ok := inv.Lookup("x")
	require.False(t, ok)
	require.Nil(t, inv.Keys())
}
