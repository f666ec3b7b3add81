package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/adapters/driven/config/file"
	"github.com/YX-UOM/Plithos/internal/adapters/driving/cli"
	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func TestBootstrap_Ephemeral(t *testing.T) {
	home := t.TempDir()
	t.Setenv(file.HomeEnv, home)

	s, release, err := bootstrap(context.Background(), cli.Options{Ephemeral: true})
	require.NoError(t, err)
	defer release()

	require.NotNil(t, s.Digests)
	assert.NotNil(t, s.Retrieval)
	assert.NotNil(t, s.Settings)
	assert.NotNil(t, s.Renderer)
	assert.NotNil(t, s.Scheduler)
	assert.Nil(t, s.Prompts)
	assert.Equal(t, filepath.Join(home, file.RegistryFile), s.RegistryPath)
	assert.Equal(t, domain.DefaultSourceRegistry().QueryCount(), s.Digests.Registry().QueryCount())

	// Nothing touches disk.
	entries, err := os.ReadDir(home)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBootstrap_EphemeralReadsSavedConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv(file.HomeEnv, home)
	saved := "[digest]\nwindow_days = 10\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, file.ConfigFile), []byte(saved), 0600))

	s, release, err := bootstrap(context.Background(), cli.Options{Ephemeral: true})
	require.NoError(t, err)
	defer release()

	settings, err := s.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, settings.Digest.WindowDays)

	require.NoError(t, s.Settings.Set("digest.window_days", "3"))
	data, err := os.ReadFile(filepath.Join(home, file.ConfigFile))
	require.NoError(t, err)
	assert.Equal(t, saved, string(data))
}

func TestBootstrap_Persistent(t *testing.T) {
	home := t.TempDir()
	t.Setenv(file.HomeEnv, home)

	s, release, err := bootstrap(context.Background(), cli.Options{})
	require.NoError(t, err)
	defer release()

	assert.NotNil(t, s.Prompts)
	assert.FileExists(t, filepath.Join(home, "data", "digests.db"))

	recent, err := s.Digests.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestBootstrap_EmptyStore(t *testing.T) {
	t.Setenv(file.HomeEnv, t.TempDir())

	s, release, err := bootstrap(context.Background(), cli.Options{Ephemeral: true})
	require.NoError(t, err)
	defer release()

	_, err = s.Digests.Get(context.Background(), domain.Today())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLoadRegistry_Overlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`categories:
  - name: local_news
    description: Regional property press
    queries: ["net zero office retrofit Manchester"]
    weight: 0.5
`), 0600))

	reg, gotPath, err := loadRegistry(path)

	require.NoError(t, err)
	assert.Equal(t, path, gotPath)
	assert.Equal(t, domain.DefaultSourceRegistry().QueryCount()+1, reg.QueryCount())
	assert.Contains(t, reg.CategoryNames(), "local_news")
}

func TestLoadRegistry_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("categories: [{name: ''}]\n"), 0600))

	_, _, err := loadRegistry(path)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOutputDir(t *testing.T) {
	userHome, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "/srv/digests", outputDir("/h", "/srv/digests"))
	assert.Equal(t, "outputs", outputDir("/h", "outputs"))
	assert.Equal(t, filepath.Join("/h", domain.DefaultOutputDir), outputDir("/h", ""))
	assert.Equal(t, filepath.Join(userHome, "esg"), outputDir("/h", "~/esg"))
}
