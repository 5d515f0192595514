package markdown

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// GoldmarkParser implements interfaces.MarkdownParser. Engines are built once
// per distinct option set and reused; goldmark engines are safe for concurrent
// use.
type GoldmarkParser struct {
	defaults interfaces.ParseOptions
	engines  sync.Map // engineKey -> goldmark.Markdown
}

var _ interfaces.MarkdownParser = (*GoldmarkParser)(nil)

// NewGoldmarkParser constructs a parser. Empty extension lists enable GFM,
// linkify and task lists.
func NewGoldmarkParser(defaults interfaces.ParseOptions) *GoldmarkParser {
	return &GoldmarkParser{defaults: defaults}
}

// Parse renders markdown with the parser defaults.
func (p *GoldmarkParser) Parse(markdown []byte) ([]byte, error) {
	return p.ParseWithOptions(markdown, p.defaults)
}

// ParseWithOptions renders markdown with opts.
func (p *GoldmarkParser) ParseWithOptions(markdown []byte, opts interfaces.ParseOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine(opts).Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *GoldmarkParser) engine(opts interfaces.ParseOptions) goldmark.Markdown {
	key := engineKey(opts)
	if cached, ok := p.engines.Load(key); ok {
		return cached.(goldmark.Markdown)
	}
	engine, _ := p.engines.LoadOrStore(key, newGoldmarkEngine(opts))
	return engine.(goldmark.Markdown)
}

func engineKey(opts interfaces.ParseOptions) string {
	names := extensionNames(opts.Extensions)
	return fmt.Sprintf("%s|%t|%t", strings.Join(names, ","), opts.HardWraps, opts.SafeMode)
}

func newGoldmarkEngine(opts interfaces.ParseOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	if exts := collectExtensions(opts.Extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}
	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

var defaultExtensions = []string{"gfm", "linkify", "tasklist"}

// extensionNames returns the known, de-duplicated extension names in a stable order.
func extensionNames(names []string) []string {
	if len(names) == 0 {
		return defaultExtensions
	}
	var out []string
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := extensionRegistry[key]; ok && !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}

func collectExtensions(names []string) []goldmark.Extender {
	var extenders []goldmark.Extender
	for _, name := range extensionNames(names) {
		extenders = append(extenders, extensionRegistry[name])
	}
	return extenders
}
