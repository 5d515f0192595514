package generator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

// ThemingConfig tunes how a theme manifest becomes template data.
type ThemingConfig struct {
	// FallbackVariant is used when the site asks for a variant the manifest
	// does not declare, such as PaperMod's "auto".
	FallbackVariant string
	VarPrefix       string
	Partials        map[string]string
}

// manifestNames are tried in order inside a theme directory.
var manifestNames = []string{"theme.yaml", "theme.yml", "theme.json"}

// errNoManifest marks themes that ship layouts and static files only.
var errNoManifest = fmt.Errorf("theme manifest: %w", fs.ErrNotExist)

// manifestSource reads the go-theme manifest of a theme directory.
type manifestSource interface {
	Manifest(themeDir string) (*gotheme.Manifest, error)
}

type dirManifestSource struct{}

func (dirManifestSource) Manifest(themeDir string) (*gotheme.Manifest, error) {
	fsys := os.DirFS(filepath.Clean(themeDir))
	for _, name := range manifestNames {
		if info, err := fs.Stat(fsys, name); err != nil || info.IsDir() {
			continue
		}
		return gotheme.LoadFile(fsys, name)
	}
	return nil, errNoManifest
}

// themeCatalog registers each theme manifest once per process and resolves
// the variant a site asks for through its defaultTheme param.
type themeCatalog struct {
	cfg      ThemingConfig
	source   manifestSource
	registry *gotheme.MemoryRegistry

	mu     sync.Mutex
	loaded map[string]string
}

func newThemeCatalog(cfg ThemingConfig, source manifestSource) *themeCatalog {
	if source == nil {
		source = dirManifestSource{}
	}
	return &themeCatalog{
		cfg:      cfg,
		source:   source,
		registry: gotheme.NewRegistry(),
		loaded:   map[string]string{},
	}
}

// Resolve selects theme name from dir. A requested variant the manifest does
// not declare resolves to the fallback variant, and to the base tokens when
// that one is missing too.
func (c *themeCatalog) Resolve(name, dir, requested string) (*gotheme.Selection, error) {
	registered, err := c.register(name, dir)
	if err != nil {
		return nil, err
	}
	selection, err := gotheme.Selector{Registry: c.registry, DefaultTheme: registered}.Select(registered, "")
	if err != nil {
		return nil, fmt.Errorf("select theme %s: %w", name, err)
	}
	selection.Variant = c.variant(selection.Manifest, requested)
	return selection, nil
}

func (c *themeCatalog) variant(manifest *gotheme.Manifest, requested string) string {
	if manifest == nil {
		return ""
	}
	for _, want := range []string{requested, c.cfg.FallbackVariant} {
		want = strings.TrimSpace(want)
		if want == "" {
			continue
		}
		for declared := range manifest.Variants {
			if strings.EqualFold(declared, want) {
				return declared
			}
		}
	}
	return ""
}

// register loads the manifest stored in dir under the theme's directory name
// so a manifest copied from another theme cannot shadow it.
func (c *themeCatalog) register(name, dir string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if registered, ok := c.loaded[dir]; ok {
		return registered, nil
	}
	manifest, err := c.source.Manifest(dir)
	if err != nil {
		return "", fmt.Errorf("load theme %s: %w", name, err)
	}
	named := *manifest
	named.Name = strings.TrimSpace(name)
	if named.Name == "" {
		return "", fmt.Errorf("theme directory %s has no name", dir)
	}
	if err := c.registry.Register(&named); err != nil {
		return "", fmt.Errorf("register theme %s: %w", name, err)
	}
	c.loaded[dir] = named.Name
	return named.Name, nil
}
