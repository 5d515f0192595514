package content

import (
	"errors"
	"path"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrScaffoldPath = errors.New("content: new document path must be a relative .md file")

// NewDocument describes an article to scaffold.
type NewDocument struct {
	Path       string
	Title      string
	Tags       []string
	Categories []string
	Format     Format
	Draft      bool
	Date       time.Time
}

// Scaffold builds a new document. The title defaults to the file name in
// title case and the date to now.
func Scaffold(in NewDocument, now time.Time) (*Document, error) {
	p := path.Clean(strings.ReplaceAll(strings.TrimSpace(in.Path), "\\", "/"))
	if p == "." || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "../") || path.Ext(p) != ".md" {
		return nil, ErrScaffoldPath
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = TitleFromPath(p)
	}
	date := in.Date
	if date.IsZero() {
		date = now
	}
	format := in.Format
	if format == FormatNone {
		format = FormatYAML
	}

	raw := map[string]any{
		"title": title,
		"date":  date.Truncate(time.Second),
		"draft": in.Draft,
	}
	raw["tags"] = nonNilStrings(in.Tags)
	if len(in.Categories) > 0 {
		raw["categories"] = in.Categories
	}

	doc := &Document{
		Path:   p,
		Format: format,
		Raw:    raw,
		Body:   []byte("\n"),
	}
	doc.derive()
	return doc, nil
}

// TitleFromPath turns "posts/go-error-handling.md" into "Go Error Handling".
func TitleFromPath(p string) string {
	name := path.Base(p)
	stem := strings.TrimSuffix(name, path.Ext(name))
	if stem == "index" || stem == "_index" {
		stem = path.Base(path.Dir(p))
	}
	words := strings.FieldsFunc(stem, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
