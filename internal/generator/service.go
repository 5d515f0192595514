package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/siteconfig"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator feature is disabled.
	ErrServiceDisabled   = errors.New("generator: service disabled")
	ErrSiteConfigMissing = errors.New("generator: site configuration is required")
	ErrContentDirMissing = errors.New("generator: content directory not found")
	errTemplateMissing   = errors.New("generator: no layout found")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Clean(ctx context.Context) error
}

// Config captures resolved paths and runtime toggles for the generator.
type Config struct {
	SiteConfigPath string
	ContentDir     string
	LayoutsDir     string
	StaticDir      string
	ThemesDir      string
	OutputDir      string
	// RootDir is protected from Clean.
	RootDir string
	Pattern string
	// BaseURL overrides the site configuration when set.
	BaseURL       string
	Workers       int
	CleanBuild    bool
	RenderTimeout time.Duration
	Markdown      interfaces.ParseOptions
	Theming       ThemingConfig
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	DryRun      bool
	BuildDrafts bool
	BuildFuture bool
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	PagesBuilt    int
	Feeds         int
	Assets        int
	SkippedDraft  int
	SkippedFuture int
	Duration      time.Duration
	Rendered      []RenderedPage
	Diagnostics   []RenderDiagnostic
	Errors        []error
	DryRun        bool
}

// Page returns the rendered page for a site-relative route.
func (r *BuildResult) Page(route string) (RenderedPage, bool) {
	for _, page := range r.Rendered {
		if page.Route == route {
			return page, true
		}
	}
	return RenderedPage{}, false
}

// Dependencies lists the collaborators the generator needs.
type Dependencies struct {
	Markdown  interfaces.MarkdownParser
	Logger    interfaces.Logger
	Manifests manifestSource
	Now       func() time.Time
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if deps.Markdown == nil {
		deps.Markdown = markdown.NewGoldmarkParser(cfg.Markdown)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NoOp()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		now:    now,
		themes: newThemeCatalog(cfg.Theming, deps.Manifests),
	}
}

// NewDisabledService returns a Service that fails all operations with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type service struct {
	cfg    Config
	deps   Dependencies
	logger interfaces.Logger
	now    func() time.Time
	themes *themeCatalog
}

type disabledService struct{}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	buildCtx, err := s.loadContext(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{
		DryRun:        opts.DryRun,
		SkippedDraft:  buildCtx.SkippedDraft,
		SkippedFuture: buildCtx.SkippedFuture,
		Errors:        slices.Clone(buildCtx.LoadErrors),
	}

	renderer, err := s.loadTemplates(buildCtx)
	if err != nil {
		return nil, err
	}

	writer := newArtifactWriter(s.cfg.OutputDir, opts.DryRun)
	if s.cfg.CleanBuild && !opts.DryRun {
		if err := s.Clean(ctx); err != nil {
			return nil, err
		}
	}

	var (
		mu       sync.Mutex
		rendered = make([]RenderedPage, 0, len(buildCtx.Jobs))
	)
	collect := func(outcome renderOutcome) {
		mu.Lock()
		defer mu.Unlock()
		result.Diagnostics = append(result.Diagnostics, outcome.diagnostic)
		if outcome.err != nil {
			result.Errors = append(result.Errors, outcome.err)
			return
		}
		result.PagesBuilt++
		rendered = append(rendered, outcome.page)
	}

	if err := s.renderConcurrently(ctx, renderer, writer, buildCtx, collect); err != nil {
		return result, err
	}
	slices.SortFunc(rendered, func(a, b RenderedPage) int { return strings.Compare(a.Route, b.Route) })
	slices.SortFunc(result.Diagnostics, func(a, b RenderDiagnostic) int { return strings.Compare(a.Route, b.Route) })
	result.Rendered = rendered

	feeds, err := s.writeFeeds(ctx, writer, buildCtx)
	result.Feeds = feeds
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	if buildCtx.Site.HasOutput(siteconfig.KindHome, siteconfig.FormatJSON) {
		if err := s.writeSearchIndex(ctx, writer, buildCtx); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	if err := s.writeSitemap(ctx, writer, buildCtx, rendered); err != nil {
		result.Errors = append(result.Errors, err)
	}
	if buildCtx.Site.EnableRobotsTXT {
		if err := s.writeRobots(ctx, writer, buildCtx); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	assets, err := s.copyAssets(ctx, writer, buildCtx)
	result.Assets = assets
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	result.Duration = time.Since(start)
	s.logger.Info("generator.build.completed",
		"pages", result.PagesBuilt,
		"feeds", result.Feeds,
		"assets", result.Assets,
		"skipped_draft", result.SkippedDraft,
		"skipped_future", result.SkippedFuture,
		"errors", len(result.Errors),
		"dry_run", opts.DryRun,
		"duration", result.Duration,
	)
	if len(result.Errors) > 0 {
		return result, errors.Join(result.Errors...)
	}
	return result, nil
}

// renderConcurrently executes every render job on a bounded worker pool.
// Page failures are collected; only cancellation stops the pool.
func (s *service) renderConcurrently(
	ctx context.Context,
	renderer interfaces.TemplateRenderer,
	writer artifactWriter,
	buildCtx *BuildContext,
	collect func(renderOutcome),
) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.effectiveWorkerCount(len(buildCtx.Jobs)))

	for _, job := range buildCtx.Jobs {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcome := s.renderPage(groupCtx, renderer, buildCtx, job)
			if outcome.err == nil {
				if err := writer.WriteFile(groupCtx, writeFileRequest{
					Path:        outcome.page.Output,
					Content:     bytes.NewReader(outcome.page.HTML),
					Category:    categoryPage,
					ContentType: "text/html; charset=utf-8",
				}); err != nil {
					outcome.err = fmt.Errorf("generator: write %s: %w", outcome.page.Output, err)
					outcome.diagnostic.Err = outcome.err
				}
			}
			collect(outcome)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *service) renderPage(ctx context.Context, renderer interfaces.TemplateRenderer, buildCtx *BuildContext, job *renderJob) renderOutcome {
	outcome := renderOutcome{
		diagnostic: RenderDiagnostic{
			Kind:  job.Page.Kind,
			Route: job.Page.RelPermalink,
		},
	}

	templateName, ok := resolveLayout(renderer, job.Layouts)
	if !ok {
		err := fmt.Errorf("%w for %s (tried %v)", errTemplateMissing, job.Page.RelPermalink, job.Layouts)
		outcome.err = err
		outcome.diagnostic.Err = err
		return outcome
	}
	outcome.diagnostic.Template = templateName

	templateCtx := TemplateContext{
		Site:  buildCtx.SiteMeta,
		Page:  job.Page,
		Build: buildCtx.BuildMeta,
		Theme: buildCtx.Theme,
	}

	start := time.Now()
	html, err := s.execute(ctx, renderer, templateName, templateCtx)
	duration := time.Since(start)
	outcome.diagnostic.Duration = duration
	if err != nil {
		wrapped := fmt.Errorf("generator: render %q for %s: %w", templateName, job.Page.RelPermalink, err)
		outcome.err = wrapped
		outcome.diagnostic.Err = wrapped
		return outcome
	}

	outcome.page = RenderedPage{
		Kind:         job.Page.Kind,
		Route:        job.Page.RelPermalink,
		Output:       job.Output,
		Template:     templateName,
		HTML:         html,
		Source:       job.Page.File,
		LastModified: job.Page.Lastmod,
		Duration:     duration,
		Checksum:     computeHash(html),
	}
	s.logger.Debug("generator.page.rendered", "route", outcome.page.Route, "template", templateName, "duration", duration)
	return outcome
}

// execute renders a template, bounded by RenderTimeout when configured.
func (s *service) execute(ctx context.Context, renderer interfaces.TemplateRenderer, name string, data TemplateContext) ([]byte, error) {
	if s.cfg.RenderTimeout <= 0 {
		var buf bytes.Buffer
		if err := renderer.Render(name, data, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RenderTimeout)
	defer cancel()

	type rendered struct {
		html []byte
		err  error
	}
	done := make(chan rendered, 1)
	go func() {
		var buf bytes.Buffer
		err := renderer.Render(name, data, &buf)
		done <- rendered{html: buf.Bytes(), err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.html, out.err
	}
}

func (s *service) effectiveWorkerCount(jobs int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	if jobs > 0 && workers > jobs {
		return jobs
	}
	return workers
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (disabledService) Build(context.Context, BuildOptions) (*BuildResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Clean(context.Context) error {
	return ErrServiceDisabled
}
