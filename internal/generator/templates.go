package generator

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

//go:embed layouts
var defaultLayouts embed.FS

// templateSet is an html/template set assembled from several layout roots.
// Later roots override templates of the same name.
type templateSet struct {
	root *template.Template
}

var _ interfaces.TemplateRenderer = (*templateSet)(nil)

func (t *templateSet) Has(name string) bool {
	return t.root.Lookup(name) != nil
}

func (t *templateSet) Render(name string, data any, out io.Writer) error {
	return t.root.ExecuteTemplate(out, name, data)
}

type layoutSource struct {
	name string
	fsys fs.FS
}

// loadTemplates parses the embedded layouts, then the theme's, then the
// site's own layouts directory.
func (s *service) loadTemplates(buildCtx *BuildContext) (*templateSet, error) {
	root := template.New("blog").Funcs(templateFuncs(buildCtx.Router))

	embedded, err := fs.Sub(defaultLayouts, "layouts")
	if err != nil {
		return nil, err
	}
	sources := []layoutSource{{name: "embedded", fsys: embedded}}
	if buildCtx.ThemeDir != "" {
		if dir := filepath.Join(buildCtx.ThemeDir, "layouts"); isDir(dir) {
			sources = append(sources, layoutSource{name: dir, fsys: os.DirFS(dir)})
		}
	}
	if s.cfg.LayoutsDir != "" && isDir(s.cfg.LayoutsDir) {
		sources = append(sources, layoutSource{name: s.cfg.LayoutsDir, fsys: os.DirFS(s.cfg.LayoutsDir)})
	}

	for _, src := range sources {
		count := 0
		err := fs.WalkDir(src.fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || path.Ext(p) != ".html" {
				return nil
			}
			data, err := fs.ReadFile(src.fsys, p)
			if err != nil {
				return err
			}
			if _, err := root.New(p).Parse(string(data)); err != nil {
				return fmt.Errorf("parse layout %s: %w", p, err)
			}
			count++
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("generator: layouts %s: %w", src.name, err)
		}
		s.logger.Debug("generator.layouts.loaded", "source", src.name, "templates", count)
	}
	return &templateSet{root: root}, nil
}

// resolveLayout returns the first layout the renderer knows.
func resolveLayout(renderer interfaces.TemplateRenderer, candidates []string) (string, bool) {
	for _, name := range candidates {
		if renderer.Has(name) {
			return name, true
		}
	}
	return "", false
}

func templateFuncs(router *routes.Router) template.FuncMap {
	return template.FuncMap{
		"absURL": router.Absolute,
		"relURL": func(link string) string {
			if routes.IsExternal(link) {
				return link
			}
			return router.URL(link)
		},
		"urlize": content.Slugify,
		"dateFormat": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"iso8601":  func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"safeCSS":  func(s string) template.CSS { return template.CSS(s) },
		"lower":    strings.ToLower,
		"upper":    strings.ToUpper,
		"join":     strings.Join,
		"first": func(n int, pages []*Page) []*Page {
			if n < len(pages) {
				return pages[:n]
			}
			return pages
		},
		"isCurrent": func(page *Page, item MenuItem) bool {
			return page != nil && item.Rel != "" && page.RelPermalink == item.Rel
		},
		"year": func(t time.Time) int { return t.Year() },
	}
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
