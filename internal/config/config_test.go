package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/ingest"
)

const storeConfig = `
name = "store"
siteMapFile = "Mvc.sitemap"
root = "."
excludeModules = ["example.com/store/internal/..."]
dynamicKeys = "deterministic"
validateProviders = true

[[routes]]
name = "Browse"
pattern = "Store/Browse/{genre}"

[[sql]]
name = "Genres"
dsn = "store.db"
query = "SELECT name FROM genres"
title = "{{.name}}"

[sql.routeValues]
genre = "{{.name}}"

[[json]]
name = "Albums"
path = "albums.json"
selector = "$.albums[*]"
key = "album-{{.id}}"
title = "{{.title}}"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(storeConfig)
	require.NoError(t, err)

	assert.Equal(t, "store", cfg.Name)
	assert.Equal(t, "Mvc.sitemap", cfg.SiteMapFile)
	assert.True(t, cfg.ScanModules, "default kept")
	assert.Equal(t, ingest.DeterministicKeys, cfg.KeyMode())
	assert.Equal(t, []string{"example.com/store/internal/..."}, cfg.ExcludeModules)

	require.Len(t, cfg.Routes, 1)
	assert.Equal(t, "Store/Browse/{genre}", cfg.Routes[0].Pattern)

	require.Len(t, cfg.SQL, 1)
	assert.Equal(t, "{{.name}}", cfg.SQL[0].Title)
	assert.Equal(t, "{{.name}}", cfg.SQL[0].RouteValues["genre"])

	require.Len(t, cfg.JSON, 1)
	assert.Equal(t, "album-{{.id}}", cfg.JSON[0].Key)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ingest.RandomKeys, cfg.KeyMode())
	assert.True(t, cfg.ScanModules)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitemap.toml")
	require.NoError(t, os.WriteFile(path, []byte(storeConfig), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "store", cfg.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, text := range map[string]string{
		"unknown key":      `nmae = "typo"`,
		"key mode":         `dynamicKeys = "sequential"`,
		"no sources":       `scanModules = false`,
		"route name":       "[[routes]]\npattern = \"x\"",
		"duplicate route":  "[[routes]]\nname = \"a\"\npattern = \"x\"\n[[routes]]\nname = \"a\"\npattern = \"y\"",
		"provider name":    "[[sql]]\nquery = \"SELECT 1\"",
		"empty query":      "[[sql]]\nname = \"a\"",
		"json selector":    "[[json]]\nname = \"a\"\npath = \"x.json\"",
		"duplicate across": "[[sql]]\nname = \"a\"\nquery = \"SELECT 1\"\n[[json]]\nname = \"a\"\npath = \"x.json\"\nselector = \"$\"",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(text)
			assert.Error(t, err)
		})
	}
}
