// Package app assembles a site map provider from configuration.
package app

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentic-research/sitemap/internal/config"
	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/ingest"
	"github.com/agentic-research/sitemap/internal/keygen"
	"github.com/agentic-research/sitemap/internal/metrics"
	"github.com/agentic-research/sitemap/internal/optimize"
	"github.com/agentic-research/sitemap/internal/provider"
	"github.com/agentic-research/sitemap/internal/provider/jsonprovider"
	"github.com/agentic-research/sitemap/internal/provider/sqlprovider"
	"github.com/agentic-research/sitemap/internal/sitemap"
)

// App is a configured site map and the resources backing it.
type App struct {
	Config   config.Config
	Registry *provider.Registry
	SiteMap  *sitemap.Provider
	Metrics  *metrics.Metrics

	closers []io.Closer
}

// Options adjusts assembly. The zero value reads from the OS filesystem
// at Config.Root and records no metrics.
type Options struct {
	// FS overrides the filesystem rooted at Config.Root.
	FS billy.Filesystem
	// Registerer receives build metrics when set.
	Registerer prometheus.Registerer
	// Register adds providers beyond those declared in the config.
	Register func(*provider.Registry)
}

// New wires sources, providers, optimizer and cache for cfg.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)
	fs := opts.FS
	if fs == nil {
		fs = osfs.New(cfg.Root)
	}

	a := &App{
		Config:   cfg,
		Registry: provider.NewRegistry(provider.NewRouteTable(cfg.Routes...)),
	}
	if err := a.registerProviders(fs); err != nil {
		_ = a.Close()
		return nil, err
	}
	if opts.Register != nil {
		opts.Register(a.Registry)
	}

	var hooks sitemap.Hooks = sitemap.NopHooks{}
	if opts.Registerer != nil {
		m, err := metrics.New(opts.Registerer)
		if err != nil {
			_ = a.Close()
			return nil, errors.Wrap(err, "register metrics")
		}
		a.Metrics, hooks = m, m
	}

	keys := keygen.Default{}
	src := a.source(fs, keys)

	var passes []optimize.Pass
	if cfg.ValidateProviders {
		passes = append(passes, optimize.ProviderCheckPass(a.Registry))
	}
	passes = append(passes, optimize.URLPass(a.Registry.URL))

	sm, err := sitemap.New(cfg.Name, sitemap.Capabilities{
		Source:             src,
		Keys:               keys,
		Optimizer:          optimize.New(passes...),
		Registry:           a.Registry,
		Hooks:              hooks,
		EnableLocalization: cfg.EnableLocalization,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.SiteMap = sm
	logger.Debug("site map assembled", "name", cfg.Name, "file", cfg.SiteMapFile, "scan", cfg.ScanModules,
		"dynamic", a.Registry.Dynamic.Names())
	return a, nil
}

// source mirrors the classic provider setup: file plus scan, file only,
// or scan only.
func (a *App) source(fs billy.Filesystem, keys keygen.Generator) ingest.Source {
	cfg := a.Config
	common := []ingest.Option{
		ingest.WithName(cfg.Name),
		ingest.WithKeyGenerator(keys),
		ingest.WithExpander(ingest.NewExpander(a.Registry.Dynamic, keys, cfg.KeyMode())),
	}
	var file, scan ingest.Source
	if cfg.SiteMapFile != "" {
		ffs, path := fs, cfg.SiteMapFile
		if filepath.IsAbs(path) {
			ffs, path = osfs.New(filepath.Dir(path)), filepath.Base(path)
		}
		file = ingest.NewFileSource(ffs, path, common...)
	}
	if cfg.ScanModules {
		opts := append(common,
			ingest.WithIncludeModules(cfg.IncludeModules...),
			ingest.WithExcludeModules(cfg.ExcludeModules...),
		)
		scan = ingest.NewReflectiveSource(fs, opts...)
	}
	switch {
	case file != nil && scan != nil:
		return ingest.NewAggregateSource(cfg.Name, file, scan)
	case file != nil:
		return file
	default:
		return scan
	}
}

func (a *App) registerProviders(fs billy.Filesystem) error {
	for _, c := range a.Config.SQL {
		c.DSN = a.resolveDSN(c.DSN)
		p, err := sqlprovider.New(c)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, p)
		a.Registry.Dynamic.Register(c.Name, p)
	}
	for _, c := range a.Config.JSON {
		p, err := jsonprovider.New(fs, c)
		if err != nil {
			return err
		}
		a.Registry.Dynamic.Register(c.Name, p)
	}
	return nil
}

// resolveDSN makes plain relative database paths relative to Root.
func (a *App) resolveDSN(dsn string) string {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") || filepath.IsAbs(dsn) {
		return dsn
	}
	return filepath.Join(a.Config.Root, dsn)
}

// Close releases provider resources.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
