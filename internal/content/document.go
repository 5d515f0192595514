// Package content parses, encodes and loads blog articles: a delimited
// metadata block (YAML, TOML or JSON) followed by a Markdown body.
package content

import (
	"path"
	"slices"
	"strings"
	"time"
)

// Format identifies the metadata block syntax of a document.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// ParseFormat maps a user supplied name onto a Format.
func ParseFormat(name string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "yaml", "yml", "":
		return FormatYAML, true
	case "toml":
		return FormatTOML, true
	case "json":
		return FormatJSON, true
	}
	return FormatNone, false
}

const sectionIndexName = "_index.md"

// Document is one article. Typed fields are derived from Raw, which holds the
// metadata block exactly as decoded; Set keeps both in sync.
type Document struct {
	Path           string
	Section        string
	Slug           string
	Title          string
	Date           time.Time
	LastMod        time.Time
	Draft          bool
	Tags           []string
	Categories     []string
	Summary        string
	Description    string
	Layout         string
	Type           string
	Weight         int
	Params         map[string]any
	Body           []byte
	Format         Format
	Raw            map[string]any
	Checksum       []byte
	ModTime        time.Time
	IsSectionIndex bool
}

// knownKeys are metadata keys mapped onto typed fields; everything else lands in Params.
var knownKeys = []string{
	"title", "date", "publishdate", "lastmod", "draft", "tags", "categories",
	"slug", "summary", "description", "layout", "type", "weight",
}

// Set assigns a metadata key and refreshes the derived fields.
func (d *Document) Set(key string, value any) {
	if d.Raw == nil {
		d.Raw = map[string]any{}
	}
	if existing, ok := findKey(d.Raw, key); ok {
		key = existing
	}
	d.Raw[key] = value
	d.derive()
}

// Get returns a metadata value, matching the key case-insensitively.
func (d *Document) Get(key string) (any, bool) {
	k, ok := findKey(d.Raw, key)
	if !ok {
		return nil, false
	}
	return d.Raw[k], true
}

// Terms returns the values listed under a taxonomy key such as "tags".
func (d *Document) Terms(plural string) []string {
	v, ok := d.Get(plural)
	if !ok {
		return nil
	}
	terms, _ := toStrings(v)
	return terms
}

// Published reports whether the document is part of a build at now.
func (d *Document) Published(now time.Time, buildDrafts, buildFuture bool) bool {
	if d.Draft && !buildDrafts {
		return false
	}
	if !buildFuture && !d.Date.IsZero() && d.Date.After(now) {
		return false
	}
	return true
}

// IsFuture reports whether the document is dated after now.
func (d *Document) IsFuture(now time.Time) bool {
	return !d.Date.IsZero() && d.Date.After(now)
}

// Kind reports "section" for _index.md files and "page" otherwise.
func (d *Document) Kind() string {
	if d.IsSectionIndex {
		return "section"
	}
	return "page"
}

// Dir returns the directory of the document relative to the content root.
func (d *Document) Dir() string {
	dir := path.Dir(d.Path)
	if dir == "." {
		return ""
	}
	return dir
}

// derive recomputes the typed fields from Path and Raw.
func (d *Document) derive() {
	d.Path = path.Clean(strings.TrimPrefix(filepathToSlash(d.Path), "/"))
	d.IsSectionIndex = path.Base(d.Path) == sectionIndexName
	d.Section = sectionOf(d.Path)

	get := func(key string) any {
		v, _ := d.Get(key)
		return v
	}

	d.Title, _ = get("title").(string)
	d.Date, _ = toTime(get("date"))
	if d.Date.IsZero() {
		d.Date, _ = toTime(get("publishdate"))
	}
	d.LastMod, _ = toTime(get("lastmod"))
	d.Draft, _ = toBool(get("draft"))
	d.Tags = d.Terms("tags")
	d.Categories = d.Terms("categories")
	d.Summary, _ = get("summary").(string)
	d.Description, _ = get("description").(string)
	d.Layout, _ = get("layout").(string)
	d.Type, _ = get("type").(string)
	d.Weight, _ = toInt(get("weight"))

	raw, _ := get("slug").(string)
	d.Slug = slugFor(d.Path, raw)

	d.Params = map[string]any{}
	for key, value := range d.Raw {
		if !slices.Contains(knownKeys, strings.ToLower(key)) {
			d.Params[strings.ToLower(key)] = normalizeValue(value)
		}
	}
}

// normalizeValue rewrites arrays of tables ([]map[string]any) as []any so
// documents decoded from inline and block TOML arrays compare equal.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}

// sectionOf returns the first directory of p, or "" for root-level files.
func sectionOf(p string) string {
	first, _, found := strings.Cut(p, "/")
	if !found {
		return ""
	}
	return first
}

func findKey(m map[string]any, key string) (string, bool) {
	if _, ok := m[key]; ok {
		return key, true
	}
	for k := range m {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
