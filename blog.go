// Package blog is the toolchain for a Markdown blog: it builds the static
// site, checks the article corpus and scaffolds new posts.
package blog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/goliatone/go-blog/internal/check"
	contentcmd "github.com/goliatone/go-blog/internal/commands/content"
	sitecmd "github.com/goliatone/go-blog/internal/commands/site"
	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/taxonomy"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// BuildResult exports the generator result.
type BuildResult = generator.BuildResult

// Report exports the corpus check report.
type Report = check.Report

// Issue exports a single check finding.
type Issue = check.Issue

// Document exports the parsed article record.
type Document = content.Document

// Option customises the module wiring.
type Option = di.Option

var (
	WithLoggerProvider = di.WithLoggerProvider
	WithClock          = di.WithClock
	WithMarkdownParser = di.WithMarkdownParser
)

// Module is the top level toolchain façade.
type Module struct {
	container *di.Container
}

// New constructs a module from the runtime configuration.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Logger returns a module-scoped logger from the configured provider.
func (m *Module) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(m.container.LoggerProvider(), module)
}

// BuildOptions selects what a build includes.
type BuildOptions struct {
	DryRun bool
	Drafts bool
	Future bool
	// Clean removes the output directory first.
	Clean bool
}

// Build renders the site. A failed build may still return a partial result.
func (m *Module) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	var result *BuildResult
	err := m.container.BuildSiteHandler().Execute(ctx, sitecmd.BuildSiteCommand{
		DryRun: opts.DryRun,
		Drafts: opts.Drafts,
		Future: opts.Future,
		Clean:  opts.Clean,
		ResultCallback: func(env sitecmd.ResultEnvelope) {
			result = env.Result
		},
	})
	return result, err
}

// CheckOptions selects rules and strictness for Check.
type CheckOptions struct {
	Rules  []string
	Strict bool
}

// Check runs the hygiene rules. The report is returned even when the
// verdict is an error, so callers can print every finding.
func (m *Module) Check(ctx context.Context, opts CheckOptions) (*Report, error) {
	var report *Report
	err := m.container.CheckSiteHandler().Execute(ctx, sitecmd.CheckSiteCommand{
		Rules:  opts.Rules,
		Strict: opts.Strict,
		ReportCallback: func(r *check.Report) {
			report = r
		},
	})
	return report, err
}

// RuleNames lists the built-in check rules.
func RuleNames() []string {
	return check.DefaultRuleNames()
}

// NewPostOptions describes an article to scaffold.
type NewPostOptions struct {
	Path       string
	Title      string
	Tags       []string
	Categories []string
	Format     string
	Draft      bool
	Force      bool
}

// NewPost scaffolds an article and returns the file it wrote.
func (m *Module) NewPost(ctx context.Context, opts NewPostOptions) (string, error) {
	var file string
	err := m.container.NewDocumentHandler().Execute(ctx, contentcmd.NewDocumentCommand{
		Path:       opts.Path,
		Title:      opts.Title,
		Tags:       opts.Tags,
		Categories: opts.Categories,
		Format:     opts.Format,
		Draft:      opts.Draft,
		Force:      opts.Force,
		Callback: func(env contentcmd.DocumentEnvelope) {
			file = env.File
		},
	})
	return file, err
}

// ListOptions filters Documents.
type ListOptions struct {
	Drafts bool
	Future bool
}

// Documents loads the articles a build with the same options would publish,
// newest first. Section index pages are left out.
func (m *Module) Documents(ctx context.Context, opts ListOptions) ([]*Document, error) {
	snapshot, err := di.LoadSnapshot(ctx, m.container.Config, m.Logger("blog.content"))
	if err != nil {
		return nil, err
	}
	drafts := opts.Drafts || snapshot.Config.BuildDrafts
	future := opts.Future || snapshot.Config.BuildFuture
	now := m.container.Now()

	var out []*Document
	for _, doc := range snapshot.Documents {
		if doc.IsSectionIndex || !doc.Published(now, drafts, future) {
			continue
		}
		out = append(out, doc)
	}
	slices.SortFunc(out, taxonomy.ComparePages)

	var loadErrs []error
	for _, perr := range snapshot.LoadErrors {
		loadErrs = append(loadErrs, perr)
	}
	return out, errors.Join(loadErrs...)
}

// Watch builds once, then rebuilds on every source change until ctx is
// done. onBuild observes each outcome and may be nil.
func (m *Module) Watch(ctx context.Context, opts BuildOptions, onBuild func(*BuildResult, error)) error {
	notify := func(result *BuildResult, err error) {
		if onBuild != nil {
			onBuild(result, err)
		}
	}
	notify(m.Build(ctx, opts))

	watcher, err := m.container.NewWatcher(func(ctx context.Context, changed []string) error {
		result, err := m.Build(ctx, opts)
		notify(result, err)
		return err
	})
	if err != nil {
		return fmt.Errorf("blog: watch: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("blog: watch: %w", err)
	}
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}
