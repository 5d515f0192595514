// Package siteconfig models the blog's TOML site configuration: metadata,
// taxonomies, output formats, per-language menus and theme parameters.
package siteconfig

import (
	"cmp"
	"slices"
	"strings"
)

const (
	KindHome     = "home"
	KindSection  = "section"
	KindPage     = "page"
	KindTaxonomy = "taxonomy"
	KindTerm     = "term"
)

const (
	FormatHTML = "HTML"
	FormatRSS  = "RSS"
	FormatJSON = "JSON"
)

const (
	DefaultLanguage      = "en"
	DefaultSummaryLength = 70
	DefaultPaginate      = 10
)

// Config is the singleton site configuration record. Field names follow the
// keys used in config.toml; keys match case-insensitively on decode.
type Config struct {
	BaseURL                string                 `toml:"baseURL"`
	LanguageCode           string                 `toml:"languageCode,omitempty"`
	DefaultContentLanguage string                 `toml:"defaultContentLanguage,omitempty"`
	Title                  string                 `toml:"title"`
	Copyright              string                 `toml:"copyright,omitempty"`
	Theme                  string                 `toml:"theme,omitempty"`
	BuildDrafts            bool                   `toml:"buildDrafts,omitempty"`
	BuildFuture            bool                   `toml:"buildFuture,omitempty"`
	EnableRobotsTXT        bool                   `toml:"enableRobotsTXT,omitempty"`
	SummaryLength          int                    `toml:"summaryLength,omitempty"`
	Paginate               int                    `toml:"paginate,omitempty"`
	RSSLimit               int                    `toml:"rssLimit,omitempty"`
	Taxonomies             map[string]string      `toml:"taxonomies,omitempty"`
	Outputs                map[string][]string    `toml:"outputs,omitempty"`
	Menus                  map[string][]MenuEntry `toml:"menu,omitempty"`
	Languages              map[string]Language    `toml:"languages,omitempty"`
	Params                 map[string]any         `toml:"params,omitempty"`

	// Extra holds top-level keys the model does not know so they survive a
	// decode/encode cycle.
	Extra map[string]any `toml:"-"`
}

// MenuEntry is a single navigation link.
type MenuEntry struct {
	Identifier string `toml:"identifier,omitempty"`
	Name       string `toml:"name"`
	URL        string `toml:"url"`
	Weight     int    `toml:"weight,omitempty"`
	Pre        string `toml:"pre,omitempty"`
	Post       string `toml:"post,omitempty"`
}

// Language carries per-language overrides.
type Language struct {
	LanguageName string                 `toml:"languageName,omitempty"`
	Weight       int                    `toml:"weight,omitempty"`
	Title        string                 `toml:"title,omitempty"`
	Menus        map[string][]MenuEntry `toml:"menu,omitempty"`
	Params       map[string]any         `toml:"params,omitempty"`
}

var defaultTaxonomies = map[string]string{
	"tag":      "tags",
	"category": "categories",
}

var defaultOutputs = map[string][]string{
	KindHome:     {FormatHTML, FormatRSS},
	KindSection:  {FormatHTML, FormatRSS},
	KindTaxonomy: {FormatHTML, FormatRSS},
	KindTerm:     {FormatHTML, FormatRSS},
	KindPage:     {FormatHTML},
}

// TaxonomyMap returns singular to plural taxonomy names, falling back to
// tag/category when none are configured.
func (c *Config) TaxonomyMap() map[string]string {
	src := c.Taxonomies
	if len(src) == 0 {
		src = defaultTaxonomies
	}
	out := make(map[string]string, len(src))
	for singular, plural := range src {
		if p := strings.TrimSpace(plural); p != "" {
			out[strings.TrimSpace(singular)] = p
		}
	}
	return out
}

// TaxonomyPlurals returns the configured taxonomy plurals sorted by name.
func (c *Config) TaxonomyPlurals() []string {
	m := c.TaxonomyMap()
	out := make([]string, 0, len(m))
	for _, plural := range m {
		out = append(out, plural)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// HasTaxonomy reports whether plural names a configured taxonomy.
func (c *Config) HasTaxonomy(plural string) bool {
	return slices.Contains(c.TaxonomyPlurals(), plural)
}

// OutputsFor returns the upper-cased output formats for a page kind.
func (c *Config) OutputsFor(kind string) []string {
	for k, formats := range c.Outputs {
		if strings.EqualFold(k, kind) {
			out := make([]string, 0, len(formats))
			for _, f := range formats {
				out = append(out, strings.ToUpper(strings.TrimSpace(f)))
			}
			return out
		}
	}
	return slices.Clone(defaultOutputs[kind])
}

// HasOutput reports whether kind renders format.
func (c *Config) HasOutput(kind, format string) bool {
	return slices.Contains(c.OutputsFor(kind), strings.ToUpper(format))
}

// ContentLanguage returns defaultContentLanguage or "en".
func (c *Config) ContentLanguage() string {
	if lang := strings.TrimSpace(c.DefaultContentLanguage); lang != "" {
		return lang
	}
	return DefaultLanguage
}

// Summary returns the summary length in words.
func (c *Config) Summary() int {
	if c.SummaryLength > 0 {
		return c.SummaryLength
	}
	return DefaultSummaryLength
}

// PageSize returns the number of pages per list page.
func (c *Config) PageSize() int {
	if c.Paginate > 0 {
		return c.Paginate
	}
	return DefaultPaginate
}

// LanguageCodes returns configured language codes ordered by weight, then code.
// The default content language is returned when no languages are declared.
func (c *Config) LanguageCodes() []string {
	if len(c.Languages) == 0 {
		return []string{c.ContentLanguage()}
	}
	codes := make([]string, 0, len(c.Languages))
	for code := range c.Languages {
		codes = append(codes, code)
	}
	slices.SortFunc(codes, func(a, b string) int {
		if n := cmp.Compare(c.Languages[a].Weight, c.Languages[b].Weight); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})
	return codes
}

// Menu returns the entries of menu name for lang. Language menus take
// precedence; the top-level menu is used when the language does not declare
// one. Entries are ordered by weight (unweighted entries last), then name,
// then declaration order.
func (c *Config) Menu(lang, name string) []MenuEntry {
	var entries []MenuEntry
	if l, ok := c.Languages[lang]; ok {
		entries = lookupMenu(l.Menus, name)
	}
	if entries == nil {
		entries = lookupMenu(c.Menus, name)
	}
	out := slices.Clone(entries)
	slices.SortStableFunc(out, compareEntries)
	return out
}

// AllMenus returns every menu entry declared anywhere in the configuration,
// keyed by a location label such as "menu.main" or "languages.en.menu.main".
func (c *Config) AllMenus() map[string][]MenuEntry {
	out := map[string][]MenuEntry{}
	for name, entries := range c.Menus {
		out["menu."+name] = entries
	}
	for code, lang := range c.Languages {
		for name, entries := range lang.Menus {
			out["languages."+code+".menu."+name] = entries
		}
	}
	return out
}

// Param looks up a top-level params key case-insensitively.
func (c *Config) Param(key string) (any, bool) {
	if v, ok := c.Params[key]; ok {
		return v, true
	}
	for k, v := range c.Params {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// ParamString returns a params value when it is a string.
func (c *Config) ParamString(key string) string {
	v, _ := c.Param(key)
	s, _ := v.(string)
	return s
}

func lookupMenu(menus map[string][]MenuEntry, name string) []MenuEntry {
	if entries, ok := menus[name]; ok {
		return entries
	}
	for k, entries := range menus {
		if strings.EqualFold(k, name) {
			return entries
		}
	}
	return nil
}

func compareEntries(a, b MenuEntry) int {
	switch {
	case a.Weight == b.Weight:
		return cmp.Compare(a.Name, b.Name)
	case a.Weight == 0:
		return 1
	case b.Weight == 0:
		return -1
	}
	return cmp.Compare(a.Weight, b.Weight)
}
