package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retailpos/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add waste index", "add_waste_index"},
		{"Add-Waste-Index", "add_waste_index"},
		{"ADD_WASTE_INDEX", "add_waste_index"},
		{"add__waste--index", "add_waste_index"},
		{"Expenses 2024", "expenses_2024"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"café", "caf"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slug(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add waste index", "Index waste by reason")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_add_waste_index.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_add_waste_index.down.sql"), first.DownPath)

	up, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add waste index\n")
	assert.Contains(t, string(up), "-- Description: Index waste by reason")

	down, err := os.ReadFile(first.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "(Rollback)")

	second, err := CreateMigration(dir, "expense notes", "")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	body, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "Description")
}

func TestCreateMigration_InvalidName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_tenth.up.sql",
		"000010_tenth.down.sql",
		"000002_second.up.sql",
		"000002_second.down.sql",
		"notes.txt",
		"draft.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	list, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(2), list[0].Version)
	assert.Equal(t, "second", list[0].Name)
	assert.Equal(t, uint(10), list[1].Version)
	assert.Equal(t, filepath.Join(dir, "000010_tenth.down.sql"), list[1].DownPath)

	missing, err := ListMigrations(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := migrations.FS.ReadDir(".")
	require.NoError(t, err)

	files := make(map[string]bool)
	for _, e := range entries {
		files[e.Name()] = true
	}
	require.True(t, files["000001_init.up.sql"])
	for name := range files {
		if base, ok := cutUp(name); ok {
			assert.True(t, files[base+".down.sql"], "missing down migration for %s", name)
		}
	}
}

func cutUp(name string) (string, bool) {
	const suffix = ".up.sql"
	if len(name) <= len(suffix) || name[len(name)-len(suffix):] != suffix {
		return "", false
	}
	return name[:len(name)-len(suffix)], true
}
