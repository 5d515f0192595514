package generator

import (
	"html/template"
	"strings"
	"time"

	gotheme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-blog/internal/content"
)

// Page kinds as exposed to templates.
const (
	KindHome     = "home"
	KindSection  = "section"
	KindPage     = "page"
	KindTaxonomy = "taxonomy"
	KindTerm     = "term"
)

// TemplateContext captures the data contract passed to layouts.
type TemplateContext struct {
	Site  SiteMetadata
	Page  *Page
	Build BuildMetadata
	Theme ThemeContext
}

// SiteMetadata exposes site-wide information required by templates.
type SiteMetadata struct {
	Title        string
	BaseURL      string
	LanguageCode string
	Copyright    string
	Params       map[string]any
	Menus        map[string][]MenuItem
	Taxonomies   []string
	Sections     []Link
	RSSLink      string
}

// MenuItem is a resolved menu entry. URL is ready for an href; Rel is the
// site-relative path for internal links and empty for external ones.
type MenuItem struct {
	Identifier string
	Name       string
	URL        string
	Rel        string
	Weight     int
	Pre        template.HTML
	Post       template.HTML
}

// BuildMetadata surfaces high level build information to templates.
type BuildMetadata struct {
	GeneratedAt time.Time
	Drafts      bool
	Future      bool
	DryRun      bool
}

// Link names a page and where to find it.
type Link struct {
	Name string
	Slug string
	URL  string
}

// TermEntry is a term listed on a taxonomy page.
type TermEntry struct {
	Link
	Count int
	Pages []*Page
}

// Pager describes one page of a paginated list.
type Pager struct {
	Number     int
	TotalPages int
	TotalItems int
	First      string
	Last       string
	Prev       string
	Next       string
}

// HasPrev reports whether a previous page exists.
func (p *Pager) HasPrev() bool { return p != nil && p.Prev != "" }

// HasNext reports whether a next page exists.
func (p *Pager) HasNext() bool { return p != nil && p.Next != "" }

// Page is the view of a rendered page: an article, or a list of articles.
type Page struct {
	ID           string
	Kind         string
	Title        string
	Section      string
	Slug         string
	File         string
	RelPermalink string
	Permalink    string
	Date         time.Time
	Lastmod      time.Time
	Draft        bool
	Description  string
	Summary      string
	Truncated    bool
	Content      template.HTML
	WordCount    int
	ReadingTime  int
	Weight       int
	Layout       string
	Params       map[string]any
	Tags         []Link
	Categories   []Link
	Terms        map[string][]Link

	// List pages only.
	Taxonomy  string
	Pages     []*Page
	Paginator *Pager
	TermList  []TermEntry
	RSSLink   string

	doc   *content.Document
	plain string
}

// IsPage reports whether p is a single article.
func (p *Page) IsPage() bool { return p.Kind == KindPage }

// IsHome reports whether p is the home page.
func (p *Page) IsHome() bool { return p.Kind == KindHome }

// Param looks up a front matter parameter case-insensitively.
func (p *Page) Param(key string) any {
	return p.Params[strings.ToLower(key)]
}

// ThemeContext surfaces the resolved theme manifest to templates. Mode keeps
// the raw defaultTheme param ("auto", "dark") for client-side switching, while
// Variant names the manifest variant whose tokens were applied.
type ThemeContext struct {
	Name      string
	Mode      string
	Variant   string
	Tokens    map[string]string
	CSSVars   map[string]string
	Partials  map[string]string
	AssetURL  func(string) string
	Template  func(string, string) string
	Selection *gotheme.Selection
}

func buildThemeContext(selection *gotheme.Selection, mode string, cfg ThemingConfig) ThemeContext {
	if selection == nil {
		return ThemeContext{
			Mode:     mode,
			Tokens:   map[string]string{},
			CSSVars:  map[string]string{},
			Partials: map[string]string{},
			AssetURL: func(string) string { return "" },
			Template: func(_ string, fallback string) string { return fallback },
		}
	}
	return ThemeContext{
		Name:      selection.Theme,
		Mode:      mode,
		Variant:   selection.Variant,
		Tokens:    selection.Tokens(),
		CSSVars:   selection.CSSVariables(cfg.VarPrefix),
		Partials:  selection.Partials(cfg.Partials),
		AssetURL:  func(key string) string { url, _ := selection.Asset(key); return url },
		Template:  selection.Template,
		Selection: selection,
	}
}

// RenderedPage captures the rendered HTML output for a page.
type RenderedPage struct {
	Kind         string
	Route        string
	Output       string
	Template     string
	Source       string
	HTML         []byte
	LastModified time.Time
	Duration     time.Duration
	Checksum     string
}

// RenderDiagnostic records rendering timing and errors for individual pages.
type RenderDiagnostic struct {
	Kind     string
	Route    string
	Template string
	Duration time.Duration
	Err      error
}

type renderOutcome struct {
	page       RenderedPage
	diagnostic RenderDiagnostic
	err        error
}

// renderJob is one output page: the view, the layouts to try in order and the
// output file relative to the output directory.
type renderJob struct {
	Page    *Page
	Layouts []string
	Output  string
}
