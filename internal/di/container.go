package di

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/check"
	"github.com/goliatone/go-blog/internal/commands"
	contentcmd "github.com/goliatone/go-blog/internal/commands/content"
	sitecmd "github.com/goliatone/go-blog/internal/commands/site"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/internal/watch"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// Container wires the toolchain services from the runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	markdown       interfaces.MarkdownParser
	now            func() time.Time

	generatorSvc generator.Service
	checker      *check.Checker
	siteChecker  *SiteChecker

	buildHandler  *sitecmd.BuildSiteHandler
	checkHandler  *sitecmd.CheckSiteHandler
	newDocHandler *contentcmd.NewDocumentHandler
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from the logging configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithMarkdownParser overrides the default goldmark parser.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		if parser != nil {
			c.markdown = parser
		}
	}
}

// WithClock overrides the clock used for publication checks and scaffolds.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		if now != nil {
			c.now = now
		}
	}
}

// WithGeneratorService overrides the generator wired by default.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		if svc != nil {
			c.generatorSvc = svc
		}
	}
}

// NewContainer validates cfg and wires every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if c.markdown == nil {
		c.markdown = markdown.NewGoldmarkParser(c.parseOptions())
	}
	if c.generatorSvc == nil {
		c.generatorSvc = generator.NewService(c.generatorConfig(), generator.Dependencies{
			Markdown: c.markdown,
			Logger:   logging.GeneratorLogger(c.loggerProvider),
			Now:      c.now,
		})
	}

	c.checker = check.New(check.WithLogger(logging.CheckLogger(c.loggerProvider)))
	c.siteChecker = &SiteChecker{
		cfg:     cfg,
		checker: c.checker,
		logger:  logging.CheckLogger(c.loggerProvider),
		now:     c.now,
	}

	c.buildHandler = sitecmd.NewBuildSiteHandler(c.generatorSvc, commands.CommandLogger(c.loggerProvider, "site"))
	c.checkHandler = sitecmd.NewCheckSiteHandler(c.siteChecker, commands.CommandLogger(c.loggerProvider, "site"))
	c.newDocHandler = contentcmd.NewNewDocumentHandler(cfg.Path(cfg.ContentDir), c.now, commands.CommandLogger(c.loggerProvider, "content"))

	logging.ModuleLogger(c.loggerProvider, "blog").Debug("container.configured",
		"root", cfg.RootDir,
		"logging_provider", providerName(cfg.Logging.Provider),
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch providerName(c.Config.Logging.Provider) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) parseOptions() interfaces.ParseOptions {
	return interfaces.ParseOptions{
		Extensions: c.Config.Markdown.Extensions,
		HardWraps:  c.Config.Markdown.HardWraps,
		SafeMode:   c.Config.Markdown.SafeMode,
	}
}

func (c *Container) generatorConfig() generator.Config {
	cfg := c.Config
	return generator.Config{
		SiteConfigPath: cfg.Path(cfg.ConfigFile),
		ContentDir:     cfg.Path(cfg.ContentDir),
		LayoutsDir:     cfg.Path(cfg.LayoutsDir),
		StaticDir:      cfg.Path(cfg.StaticDir),
		ThemesDir:      cfg.Path(cfg.ThemesDir),
		OutputDir:      cfg.Path(cfg.OutputDir),
		RootDir:        cfg.RootDir,
		Pattern:        cfg.Pattern,
		BaseURL:        cfg.BaseURL,
		Workers:        cfg.Workers,
		CleanBuild:     cfg.CleanBuild,
		RenderTimeout:  cfg.RenderTimeout,
		Markdown:       c.parseOptions(),
	}
}

// NewWatcher returns a watcher over the site sources that calls rebuild after
// each debounced batch of changes. The output directory is ignored.
func (c *Container) NewWatcher(rebuild watch.RebuildFunc) (*watch.Watcher, error) {
	cfg := c.Config
	return watch.New(watch.Config{
		Paths: []string{
			cfg.Path(cfg.ConfigFile),
			cfg.Path(cfg.ContentDir),
			cfg.Path(cfg.LayoutsDir),
			cfg.Path(cfg.StaticDir),
			cfg.Path(cfg.ThemesDir),
		},
		Ignore:   []string{cfg.Path(cfg.OutputDir)},
		Debounce: cfg.Watch.Debounce,
	}, rebuild, watch.WithLogger(logging.WatchLogger(c.loggerProvider)))
}

// LoggerProvider returns the provider shared by every module.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module-scoped logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// GeneratorService returns the static site generator.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// SiteChecker returns the checker bound to the configured site.
func (c *Container) SiteChecker() *SiteChecker {
	return c.siteChecker
}

// BuildSiteHandler returns the build command handler.
func (c *Container) BuildSiteHandler() *sitecmd.BuildSiteHandler {
	return c.buildHandler
}

// CheckSiteHandler returns the check command handler.
func (c *Container) CheckSiteHandler() *sitecmd.CheckSiteHandler {
	return c.checkHandler
}

// NewDocumentHandler returns the scaffold command handler.
func (c *Container) NewDocumentHandler() *contentcmd.NewDocumentHandler {
	return c.newDocHandler
}

// Now returns the container clock.
func (c *Container) Now() time.Time {
	return c.now()
}

func providerName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
