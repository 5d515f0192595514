package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
)

func newNewCommand(a *app) *cobra.Command {
	opts := blog.NewPostOptions{Draft: true}
	cmd := &cobra.Command{
		Use:     "new <section/name.md>",
		Short:   "Scaffold an article under the content directory",
		Example: "  blog new posts/context-cancellation.md --tag GoLang",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			file, err := a.site.NewPost(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("new: %w", err)
			}
			a.printf("created %s\n", file)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.Title, "title", "", "article title (default derived from the file name)")
	flags.StringSliceVarP(&opts.Tags, "tag", "t", nil, "tag, repeatable")
	flags.StringSliceVarP(&opts.Categories, "category", "c", nil, "category, repeatable")
	flags.StringVar(&opts.Format, "format", "yaml", "front matter format: yaml, toml or json")
	flags.BoolVar(&opts.Draft, "draft", true, "mark the article as a draft")
	flags.BoolVar(&opts.Force, "force", false, "overwrite an existing file")
	return cmd
}
