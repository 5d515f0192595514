package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/check"
	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/siteconfig"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Snapshot is the site as read from disk: configuration plus every article.
type Snapshot struct {
	ConfigPath  string
	Config      *siteconfig.Config
	UnknownKeys []string
	Documents   []*content.Document
	LoadErrors  []*content.ParseError
}

// LoadSnapshot reads the site configuration and the content tree. Articles
// that fail to parse end up in LoadErrors rather than failing the load.
func LoadSnapshot(ctx context.Context, cfg runtimeconfig.Config, logger interfaces.Logger) (*Snapshot, error) {
	configPath := cfg.Path(cfg.ConfigFile)
	site, unknown, err := siteconfig.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL != "" {
		site.BaseURL = cfg.BaseURL
	}

	contentDir := cfg.Path(cfg.ContentDir)
	if info, err := os.Stat(contentDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("content directory %s not found", contentDir)
	}
	loader := content.NewLoader(os.DirFS(contentDir), content.LoaderConfig{
		Pattern: cfg.Pattern,
		Logger:  logger,
	})
	docs, err := loader.Load(ctx)
	parseErrs := content.ParseErrors(err)
	if err != nil && len(parseErrs) == 0 {
		return nil, err
	}

	return &Snapshot{
		ConfigPath:  filepath.ToSlash(cfg.ConfigFile),
		Config:      site,
		UnknownKeys: unknown,
		Documents:   docs,
		LoadErrors:  parseErrs,
	}, nil
}

// SiteChecker runs the hygiene rules against the configured site.
type SiteChecker struct {
	cfg     runtimeconfig.Config
	checker *check.Checker
	logger  interfaces.Logger
	now     func() time.Time
}

// Check loads the site and runs rules (all of them when empty).
func (s *SiteChecker) Check(ctx context.Context, rules []string) (*check.Report, error) {
	snapshot, err := LoadSnapshot(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	// An unusable baseURL is reported by the config rule.
	router, _ := routes.New(snapshot.Config.BaseURL)
	staticFiles, err := staticRoutes(s.cfg.Path(s.cfg.StaticDir))
	if err != nil {
		return nil, err
	}
	return s.checker.Run(ctx, check.Input{
		ConfigPath:  snapshot.ConfigPath,
		Config:      snapshot.Config,
		UnknownKeys: snapshot.UnknownKeys,
		Documents:   snapshot.Documents,
		LoadErrors:  snapshot.LoadErrors,
		Router:      router,
		StaticFiles: staticFiles,
		Now:         s.now(),
	}, rules...)
}

// staticRoutes lists the files under dir as site-relative paths.
func staticRoutes(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		out = append(out, "/"+strings.TrimPrefix(filepath.ToSlash(rel), "/"))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}
