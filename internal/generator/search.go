package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const searchIndexFile = "index.json"

// searchEntry is one article in the client-side search index.
type searchEntry struct {
	Title      string    `json:"title"`
	Permalink  string    `json:"permalink"`
	Summary    string    `json:"summary,omitempty"`
	Content    string    `json:"content"`
	Section    string    `json:"section,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Date       time.Time `json:"date,omitzero"`
}

func buildSearchIndex(pages []*Page) ([]byte, error) {
	entries := make([]searchEntry, 0, len(pages))
	for _, page := range pages {
		if page.Kind != KindPage {
			continue
		}
		entry := searchEntry{
			Title:     page.Title,
			Permalink: page.Permalink,
			Summary:   normalizeWhitespace(page.Summary),
			Content:   page.plain,
			Section:   page.Section,
			Date:      page.Date,
		}
		for _, link := range page.Tags {
			entry.Tags = append(entry.Tags, link.Name)
		}
		for _, link := range page.Categories {
			entry.Categories = append(entry.Categories, link.Name)
		}
		entries = append(entries, entry)
	}
	return json.MarshalIndent(entries, "", "  ")
}

func (s *service) writeSearchIndex(ctx context.Context, writer artifactWriter, buildCtx *BuildContext) error {
	data, err := buildSearchIndex(buildCtx.Pages)
	if err != nil {
		return fmt.Errorf("generator: encode search index: %w", err)
	}
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:        searchIndexFile,
		Content:     bytes.NewReader(data),
		Category:    categorySearch,
		ContentType: "application/json",
	}); err != nil {
		return fmt.Errorf("generator: write search index: %w", err)
	}
	return nil
}
