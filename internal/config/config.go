// Package config loads the TOML configuration of a site map.
package config

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/ingest"
	"github.com/agentic-research/sitemap/internal/provider"
	"github.com/agentic-research/sitemap/internal/provider/jsonprovider"
	"github.com/agentic-research/sitemap/internal/provider/sqlprovider"
)

// Config is the file model. Paths are relative to Root unless absolute.
type Config struct {
	Name string `toml:"name"`

	// SiteMapFile is the declarative document; empty means code only.
	SiteMapFile    string   `toml:"siteMapFile"`
	Root           string   `toml:"root"`
	ScanModules    bool     `toml:"scanModules"`
	IncludeModules []string `toml:"includeModules"`
	ExcludeModules []string `toml:"excludeModules"`

	EnableLocalization bool   `toml:"enableLocalization"`
	DynamicKeys        string `toml:"dynamicKeys"`
	ValidateProviders  bool   `toml:"validateProviders"`

	Routes []provider.Route      `toml:"routes"`
	SQL    []sqlprovider.Config  `toml:"sql"`
	JSON   []jsonprovider.Config `toml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Name:        "default",
		Root:        ".",
		ScanModules: true,
		DynamicKeys: ingest.RandomKeys.String(),
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, cfg.Validate()
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(text string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := checkUndecoded(md); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return errors.Newf("unknown keys: %s", strings.Join(names, ", "))
}

// KeyMode returns the parsed dynamicKeys setting.
func (c Config) KeyMode() ingest.KeyMode {
	m, _ := ingest.ParseKeyMode(c.DynamicKeys)
	return m
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if _, err := ingest.ParseKeyMode(c.DynamicKeys); err != nil {
		return err
	}
	if c.SiteMapFile == "" && !c.ScanModules {
		return errors.New("no sources: set siteMapFile or enable scanModules")
	}

	routes := make(map[string]bool, len(c.Routes))
	for i, r := range c.Routes {
		if r.Name == "" || r.Pattern == "" {
			return errors.Newf("routes[%d]: name and pattern are required", i)
		}
		if routes[r.Name] {
			return errors.Newf("duplicate route %q", r.Name)
		}
		routes[r.Name] = true
	}

	providers := make(map[string]bool)
	check := func(kind string, i int, name string) error {
		if name == "" {
			return errors.Newf("%s[%d]: name is required", kind, i)
		}
		if providers[name] {
			return errors.Newf("duplicate dynamic node provider %q", name)
		}
		providers[name] = true
		return nil
	}
	for i, p := range c.SQL {
		if err := check("sql", i, p.Name); err != nil {
			return err
		}
		if p.Query == "" {
			return errors.Newf("sql provider %q: query is required", p.Name)
		}
	}
	for i, p := range c.JSON {
		if err := check("json", i, p.Name); err != nil {
			return err
		}
		if p.Path == "" || p.Selector == "" {
			return errors.Newf("json provider %q: path and selector are required", p.Name)
		}
	}
	return nil
}
