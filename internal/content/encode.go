package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gopkg.in/yaml.v3"
)

// keyOrder puts the common keys first when a metadata block is written.
var keyOrder = []string{"title", "date", "lastmod", "draft", "slug", "tags", "categories", "summary", "description", "layout", "type", "weight"}

// Encode writes the metadata block in the document's format followed by the
// body. Documents without a format are written as YAML when they carry
// metadata, and as a bare body otherwise.
func Encode(w io.Writer, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("content: encode nil document")
	}
	format := doc.Format
	if format == FormatNone && len(doc.Raw) > 0 {
		format = FormatYAML
	}

	var buf bytes.Buffer
	switch format {
	case FormatNone:
	case FormatYAML:
		block, err := encodeYAML(doc.Raw)
		if err != nil {
			return err
		}
		buf.WriteString("---\n")
		buf.Write(block)
		buf.WriteString("---\n")
	case FormatTOML:
		block, err := encodeTOML(doc.Raw)
		if err != nil {
			return err
		}
		buf.WriteString("+++\n")
		buf.Write(block)
		buf.WriteString("+++\n")
	case FormatJSON:
		block, err := json.MarshalIndent(nonNil(doc.Raw), "", "  ")
		if err != nil {
			return fmt.Errorf("content: encode json front matter: %w", err)
		}
		buf.Write(block)
		buf.WriteString("\n\n")
	default:
		return fmt.Errorf("content: unknown format %q", doc.Format)
	}
	buf.Write(doc.Body)

	_, err := w.Write(buf.Bytes())
	return err
}

// Marshal returns the encoded document.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orderedKeys(m map[string]any) []string {
	keys := slices.Collect(maps.Keys(m))
	rank := func(k string) int {
		if i := slices.Index(keyOrder, strings.ToLower(k)); i >= 0 {
			return i
		}
		return len(keyOrder)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return strings.Compare(a, b)
	})
	return keys
}

func encodeYAML(raw map[string]any) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range orderedKeys(raw) {
		var value yaml.Node
		if err := value.Encode(raw[key]); err != nil {
			return nil, fmt.Errorf("content: encode yaml key %s: %w", key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("content: encode yaml front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeTOML writes plain keys in keyOrder one by one and tables last, since
// TOML assigns every key after a table header to that table.
func encodeTOML(raw map[string]any) ([]byte, error) {
	var (
		buf    bytes.Buffer
		tables = map[string]any{}
	)
	for _, key := range orderedKeys(raw) {
		value := raw[key]
		if isTable(value) {
			tables[key] = value
			continue
		}
		if err := toml.NewEncoder(&buf).Encode(map[string]any{key: value}); err != nil {
			return nil, fmt.Errorf("content: encode toml key %s: %w", key, err)
		}
	}
	if len(tables) > 0 {
		if err := toml.NewEncoder(&buf).Encode(tables); err != nil {
			return nil, fmt.Errorf("content: encode toml tables: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func isTable(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		return true
	case []map[string]any:
		return len(v) > 0
	case []any:
		if len(v) == 0 {
			return false
		}
		for _, item := range v {
			if _, ok := item.(map[string]any); !ok {
				return false
			}
		}
		return true
	}
	return false
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

var equalOpts = cmp.Options{
	cmpopts.EquateEmpty(),
	cmpopts.IgnoreFields(Document{}, "Raw", "Checksum", "ModTime", "Format"),
}

// Equal reports whether a and b describe the same article: the derived
// metadata, the params and the body. Source bytes and file state are ignored.
func Equal(a, b *Document) bool {
	return cmp.Equal(a, b, equalOpts)
}

// Diff describes how a and b differ, using the same rules as Equal.
func Diff(a, b *Document) string {
	return cmp.Diff(a, b, equalOpts)
}
