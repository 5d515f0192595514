package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
)

func newBuildCommand(a *app) *cobra.Command {
	var (
		opts  blog.BuildOptions
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the site into the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && opts.DryRun {
				return errors.New("--watch and --dry-run cannot be combined")
			}
			if watch {
				return a.site.Watch(cmd.Context(), opts, func(result *blog.BuildResult, err error) {
					a.reportBuild(result, err)
				})
			}
			result, err := a.site.Build(cmd.Context(), opts)
			a.reportBuild(result, nil)
			if err != nil {
				return fmt.Errorf("build: %w", err)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.BoolVarP(&opts.Drafts, "drafts", "D", false, "include content marked as draft")
	flags.BoolVarP(&opts.Future, "future", "F", false, "include content dated in the future")
	flags.BoolVar(&opts.DryRun, "dry-run", false, "render without writing files")
	flags.BoolVar(&opts.Clean, "clean", false, "remove the output directory before building")
	flags.BoolVarP(&watch, "watch", "w", false, "rebuild when sources change")
	return cmd
}

func (a *app) reportBuild(result *blog.BuildResult, err error) {
	if result != nil {
		mode := "built"
		if result.DryRun {
			mode = "rendered (dry run)"
		}
		a.printf("%s %d pages, %d feeds, %d assets in %s\n", mode, result.PagesBuilt, result.Feeds, result.Assets, result.Duration.Round(time.Millisecond))
		if result.SkippedDraft > 0 || result.SkippedFuture > 0 {
			a.printf("skipped %d drafts, %d future\n", result.SkippedDraft, result.SkippedFuture)
		}
		for _, perr := range result.Errors {
			a.printf("error: %v\n", perr)
		}
	}
	if err != nil {
		a.printf("build failed: %v\n", err)
	}
}
