package generator

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/routes"
)

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	Categories  []string
	PublishedAt time.Time
}

type feedDocument struct {
	Title string
	Link  string
	Self  string
	Items []feedItem
}

func (s *service) buildFeedDocument(buildCtx *BuildContext, src feedSource) feedDocument {
	router := buildCtx.Router
	doc := feedDocument{
		Title: feedTitle(buildCtx, src),
		Link:  router.Permalink(src.Rel),
		Self:  router.Permalink(routes.OutputFile(src.Rel, "index.xml")),
	}

	limit := buildCtx.Site.RSSLimit
	for _, page := range src.Pages {
		if limit > 0 && len(doc.Items) >= limit {
			break
		}
		published := firstNonZeroTime(page.Date, page.Lastmod, buildCtx.GeneratedAt)
		item := feedItem{
			Title:       page.Title,
			Summary:     normalizeWhitespace(page.Summary),
			Link:        page.Permalink,
			GUID:        identity.GUID(identity.DocumentUUID(page.File)),
			PublishedAt: published,
		}
		for _, link := range page.Tags {
			item.Categories = append(item.Categories, link.Name)
		}
		doc.Items = append(doc.Items, item)
	}
	return doc
}

// writeFeeds renders index.xml next to every list whose outputs include RSS.
func (s *service) writeFeeds(ctx context.Context, writer artifactWriter, buildCtx *BuildContext) (int, error) {
	total := 0
	for _, src := range buildCtx.Feeds {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		doc := s.buildFeedDocument(buildCtx, src)
		rss := buildRSSFeed(buildCtx, doc)
		target := routes.OutputFile(src.Rel, "index.xml")
		if err := writer.WriteFile(ctx, writeFileRequest{
			Path:        target,
			Content:     strings.NewReader(rss),
			Category:    categoryFeed,
			ContentType: "application/rss+xml",
		}); err != nil {
			return total, fmt.Errorf("generator: write feed %s: %w", target, err)
		}
		s.logger.Debug("generator.feed.written", "path", target, "kind", src.Kind, "items", len(doc.Items))
		total++
	}
	return total, nil
}

func buildRSSFeed(buildCtx *BuildContext, doc feedDocument) string {
	site := buildCtx.Site
	generatedAt := buildCtx.GeneratedAt

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(doc.Title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(doc.Link)))
	builder.WriteString(fmt.Sprintf("    <description>Recent content on %s</description>\n", escapeXML(doc.Title)))
	if site.LanguageCode != "" {
		builder.WriteString(fmt.Sprintf("    <language>%s</language>\n", escapeXML(site.LanguageCode)))
	}
	if site.Copyright != "" {
		builder.WriteString(fmt.Sprintf("    <copyright>%s</copyright>\n", escapeXML(site.Copyright)))
	}
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", lastBuildDate(doc, generatedAt).UTC().Format(time.RFC1123Z)))
	builder.WriteString(fmt.Sprintf(`    <atom:link href="%s" rel="self" type="application/rss+xml" />`+"\n", escapeXMLAttr(doc.Self)))
	for _, item := range doc.Items {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid isPermaLink=\"false\">%s</guid>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z)))
		for _, category := range item.Categories {
			builder.WriteString(fmt.Sprintf("      <category>%s</category>\n", escapeXML(category)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func feedTitle(buildCtx *BuildContext, src feedSource) string {
	site := strings.TrimSpace(buildCtx.Site.Title)
	if site == "" {
		site = buildCtx.Router.BaseURL()
	}
	if src.Kind == KindHome || strings.TrimSpace(src.Title) == "" {
		return site
	}
	return fmt.Sprintf("%s on %s", src.Title, site)
}

// lastBuildDate is the newest item date, so unchanged content yields an unchanged feed.
func lastBuildDate(doc feedDocument, fallback time.Time) time.Time {
	var latest time.Time
	for _, item := range doc.Items {
		if item.PublishedAt.After(latest) {
			latest = item.PublishedAt
		}
	}
	if latest.IsZero() {
		return fallback
	}
	return latest
}

func firstNonZeroTime(instants ...time.Time) time.Time {
	for _, ts := range instants {
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
