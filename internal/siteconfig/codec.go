package siteconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var (
	ErrMalformed = errors.New("siteconfig: malformed configuration")
	ErrNotFound  = errors.New("siteconfig: configuration file not found")
)

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("siteconfig: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses a TOML configuration. Keys the model does not recognise are
// returned as dotted paths; unknown top-level keys are also kept in Extra.
func Decode(r io.Reader) (*Config, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("siteconfig: read: %w", err)
	}

	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var (
		unknown []string
		raw     map[string]any
	)
	for _, key := range md.Undecoded() {
		if freeForm(key) {
			continue
		}
		top := key[0]
		if knownKeys[strings.ToLower(top)] {
			if name := key.String(); !coveredBy(unknown, name) {
				unknown = append(unknown, name)
			}
			continue
		}
		if slices.Contains(unknown, top) {
			continue
		}
		unknown = append(unknown, top)
		if raw == nil {
			if _, err := toml.Decode(string(data), &raw); err != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
		}
		if cfg.Extra == nil {
			cfg.Extra = map[string]any{}
		}
		cfg.Extra[top] = raw[top]
	}
	return cfg, unknown, nil
}

// Encode writes cfg as TOML. Extra keys are merged back at the top level.
func Encode(w io.Writer, cfg *Config) error {
	if cfg == nil {
		return errors.New("siteconfig: nil configuration")
	}
	if len(cfg.Extra) == 0 {
		enc := toml.NewEncoder(w)
		enc.Indent = "  "
		return enc.Encode(cfg)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	merged := map[string]any{}
	if _, err := toml.Decode(buf.String(), &merged); err != nil {
		return fmt.Errorf("siteconfig: re-read encoded configuration: %w", err)
	}
	for key, value := range cfg.Extra {
		if _, taken := merged[key]; !taken {
			merged[key] = value
		}
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "  "
	return enc.Encode(merged)
}

// knownKeys lists the lower-cased top-level keys decoded into Config.
var knownKeys = map[string]bool{
	"baseurl": true, "languagecode": true, "defaultcontentlanguage": true,
	"title": true, "copyright": true, "theme": true, "builddrafts": true,
	"buildfuture": true, "enablerobotstxt": true, "summarylength": true,
	"paginate": true, "rsslimit": true, "taxonomies": true, "outputs": true,
	"menu": true, "languages": true, "params": true,
}

// freeForm reports keys that land in a map[string]any (params blocks). The
// TOML decoder lists their nested tables as undecoded even though the map
// holds them.
func freeForm(key toml.Key) bool {
	switch {
	case len(key) > 0 && strings.EqualFold(key[0], "params"):
		return true
	case len(key) > 2 && strings.EqualFold(key[0], "languages") && strings.EqualFold(key[2], "params"):
		return true
	}
	return false
}

var equalOpts = cmp.Options{cmpopts.EquateEmpty()}

// normalized copies the free-form maps of c. TOML arrays of tables decode to
// []map[string]any while inline arrays decode to []any; both become []any.
func normalized(c *Config) *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.Params = normalizeMap(c.Params)
	out.Extra = normalizeMap(c.Extra)
	if c.Languages != nil {
		out.Languages = make(map[string]Language, len(c.Languages))
		for code, lang := range c.Languages {
			lang.Params = normalizeMap(lang.Params)
			out.Languages[code] = lang
		}
	}
	return &out
}

func normalizeMap(in map[string]any) map[string]any {
	out, _ := normalizeValue(in).(map[string]any)
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		if val == nil {
			return val
		}
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

// Equal reports whether two configurations describe the same record. Nil and
// empty collections compare equal.
func Equal(a, b *Config) bool {
	return cmp.Equal(normalized(a), normalized(b), equalOpts)
}

// Diff returns a human readable difference between a and b.
func Diff(a, b *Config) string {
	return cmp.Diff(normalized(a), normalized(b), equalOpts)
}

func coveredBy(parents []string, key string) bool {
	return slices.ContainsFunc(parents, func(p string) bool {
		return strings.HasPrefix(key, p+".")
	})
}
