package bootstrap

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultEnvFile is read from the site root when no env file is given.
const DefaultEnvFile = ".env"

// Options captures the global CLI flags. Empty values keep the defaults or
// the BLOG_* environment overrides.
type Options struct {
	RootDir     string
	ConfigFile  string
	OutputDir   string
	EnvFile     string
	LogLevel    string
	LogFormat   string
	LogProvider string

	LoggerProvider interfaces.LoggerProvider
}

// ResolveConfig layers defaults, the env file, the process environment and
// finally explicit flags.
func ResolveConfig(opts Options) (blog.Config, error) {
	cfg := blog.DefaultConfig()
	if root := strings.TrimSpace(opts.RootDir); root != "" {
		cfg.RootDir = root
	}

	envFile := strings.TrimSpace(opts.EnvFile)
	if envFile == "" {
		envFile = filepath.Join(cfg.RootDir, DefaultEnvFile)
	}
	if err := cfg.ApplyEnv(envFile); err != nil {
		return cfg, err
	}

	set := func(value string, dst *string) {
		if v := strings.TrimSpace(value); v != "" {
			*dst = v
		}
	}
	set(opts.RootDir, &cfg.RootDir)
	set(opts.ConfigFile, &cfg.ConfigFile)
	set(opts.OutputDir, &cfg.OutputDir)
	set(opts.LogLevel, &cfg.Logging.Level)
	set(opts.LogFormat, &cfg.Logging.Format)
	set(opts.LogProvider, &cfg.Logging.Provider)
	return cfg, nil
}

// BuildModule resolves the configuration and constructs the blog module.
func BuildModule(opts Options) (*blog.Module, error) {
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, err
	}

	var moduleOpts []blog.Option
	if opts.LoggerProvider != nil {
		moduleOpts = append(moduleOpts, blog.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := blog.New(cfg, moduleOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise blog module: %w", err)
	}
	return module, nil
}
