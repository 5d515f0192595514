package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/cmd/blog/internal/bootstrap"
)

// site is the slice of *blog.Module the commands use.
type site interface {
	Build(ctx context.Context, opts blog.BuildOptions) (*blog.BuildResult, error)
	Watch(ctx context.Context, opts blog.BuildOptions, onBuild func(*blog.BuildResult, error)) error
	Check(ctx context.Context, opts blog.CheckOptions) (*blog.Report, error)
	NewPost(ctx context.Context, opts blog.NewPostOptions) (string, error)
	Documents(ctx context.Context, opts blog.ListOptions) ([]*blog.Document, error)
}

var moduleBuilder = func(opts bootstrap.Options) (site, error) {
	module, err := bootstrap.BuildModule(opts)
	if err != nil {
		return nil, err
	}
	return module, nil
}

type app struct {
	opts bootstrap.Options
	site site
	out  io.Writer
}

func newRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "blog",
		Short:         "Build and check a Markdown blog",
		Long:          "blog renders a directory of Markdown articles and a TOML site configuration into a static site.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := moduleBuilder(a.opts)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			a.site = s
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.RootDir, "root", "", "site root directory (default \".\")")
	flags.StringVar(&a.opts.ConfigFile, "config", "", "site configuration file relative to the root (default \"config.toml\")")
	flags.StringVar(&a.opts.OutputDir, "output", "", "output directory relative to the root (default \"public\")")
	flags.StringVar(&a.opts.EnvFile, "env-file", "", "dotenv file with BLOG_* overrides (default \"<root>/.env\")")
	flags.StringVar(&a.opts.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.StringVar(&a.opts.LogFormat, "log-format", "", "log format for the gologger provider: json, console, pretty")
	flags.StringVar(&a.opts.LogProvider, "log-provider", "", "logger provider: console or gologger")

	root.AddCommand(
		newBuildCommand(a),
		newCheckCommand(a),
		newNewCommand(a),
		newListCommand(a),
	)
	return root
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
