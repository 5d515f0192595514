package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
)

func newCheckCommand(a *app) *cobra.Command {
	var opts blog.CheckOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the content hygiene checks",
		Long:  "check validates front matter, duplicate articles, taxonomy reachability, menu links, round-tripping and the site configuration.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.site.Check(cmd.Context(), opts)
			if report != nil {
				for _, issue := range report.Issues {
					a.printf("%s\n", issue)
				}
				a.printf("checked %d documents with %s: %d errors, %d warnings\n",
					report.Documents, strings.Join(report.Rules, ", "), len(report.Errors()), len(report.Warnings()))
			}
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&opts.Rules, "rule", "r", nil, "rule to run, repeatable ("+strings.Join(blog.RuleNames(), ", ")+")")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as failures")
	return cmd
}
