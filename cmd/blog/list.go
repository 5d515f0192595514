package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-blog"
)

func newListCommand(a *app) *cobra.Command {
	var opts blog.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the articles a build would publish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := a.site.Documents(cmd.Context(), opts)
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTITLE\tPATH\tTAGS\tDRAFT")
			for _, doc := range docs {
				date := ""
				if !doc.Date.IsZero() {
					date = doc.Date.Format("2006-01-02")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", date, doc.Title, doc.Path, strings.Join(doc.Tags, ","), doc.Draft)
			}
			if ferr := tw.Flush(); ferr != nil && err == nil {
				err = ferr
			}
			if err != nil {
				return fmt.Errorf("list: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.Drafts, "drafts", "D", false, "include drafts")
	cmd.Flags().BoolVarP(&opts.Future, "future", "F", false, "include future-dated articles")
	return cmd
}
