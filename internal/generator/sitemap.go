package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

type sitemapEntry struct {
	Location string
	LastMod  time.Time
}

func buildSitemap(buildCtx *BuildContext, pages []RenderedPage) string {
	router := buildCtx.Router
	entries := make([]sitemapEntry, 0, len(pages))
	seen := map[string]struct{}{}
	for _, page := range pages {
		location := router.Permalink(strings.TrimPrefix(page.Route, router.URL("/")))
		if _, ok := seen[location]; ok {
			continue
		}
		seen[location] = struct{}{}
		entries = append(entries, sitemapEntry{
			Location: location,
			LastMod:  page.LastModified,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location < entries[j].Location
	})

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range entries {
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", escapeXML(entry.Location)))
		if !entry.LastMod.IsZero() {
			builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", entry.LastMod.UTC().Format(time.RFC3339)))
		}
		builder.WriteString("  </url>\n")
	}
	builder.WriteString(`</urlset>` + "\n")
	return builder.String()
}

func buildRobots(sitemapURL string) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if sitemapURL != "" {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Sitemap: %s\n", sitemapURL))
	}
	return builder.String()
}

func (s *service) writeSitemap(ctx context.Context, writer artifactWriter, buildCtx *BuildContext, pages []RenderedPage) error {
	content := buildSitemap(buildCtx, pages)
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:        "sitemap.xml",
		Content:     strings.NewReader(content),
		Category:    categorySitemap,
		ContentType: "application/xml",
	}); err != nil {
		return fmt.Errorf("generator: write sitemap: %w", err)
	}
	return nil
}

func (s *service) writeRobots(ctx context.Context, writer artifactWriter, buildCtx *BuildContext) error {
	content := buildRobots(buildCtx.Router.Permalink("/sitemap.xml"))
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:        "robots.txt",
		Content:     strings.NewReader(content),
		Category:    categoryRobots,
		ContentType: "text/plain; charset=utf-8",
	}); err != nil {
		return fmt.Errorf("generator: write robots.txt: %w", err)
	}
	return nil
}
