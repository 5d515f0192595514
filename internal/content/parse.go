package content

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var (
	ErrMalformedFrontMatter = errors.New("content: malformed front matter")
	ErrUnterminated         = errors.New("content: front matter is not terminated")
)

// ParseError ties a parse failure to the document path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
	frontmatter.NewFormat(";;;", ";;;", json.Unmarshal),
	{Start: "{", End: "}", Unmarshal: json.Unmarshal, UnmarshalDelims: true, RequiresNewLine: true},
}

// Parse decodes a document from its source bytes. A document without a
// metadata block yields an empty Raw map and FormatNone.
func Parse(path string, source []byte) (*Document, error) {
	format := detectFormat(source)

	var (
		raw  = map[string]any{}
		body []byte
		err  error
	)
	if format == FormatJSON && inlineJSON(source) {
		body, err = parseInlineJSON(source, &raw)
	} else {
		body, err = frontmatter.Parse(bytes.NewReader(source), &raw, formats...)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("%w: %w", ErrMalformedFrontMatter, err)}
	}
	if format != FormatNone && len(raw) == 0 && bytes.Equal(body, source) {
		return nil, &ParseError{Path: path, Err: ErrUnterminated}
	}

	sum := sha256.Sum256(source)
	doc := &Document{
		Path:     path,
		Body:     body,
		Format:   format,
		Raw:      raw,
		Checksum: sum[:],
	}
	doc.derive()
	return doc, nil
}

// detectFormat inspects the first non-blank line of source.
func detectFormat(source []byte) Format {
	for line := range strings.Lines(string(source)) {
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "---":
			return FormatYAML
		case "+++":
			return FormatTOML
		case ";;;", "{":
			return FormatJSON
		}
		if opensJSONObject(line) {
			return FormatJSON
		}
		return FormatNone
	}
	return FormatNone
}

// opensJSONObject reports a line such as `{"title": "Go"}` that starts a JSON
// object on the same line as its first key.
func opensJSONObject(line string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "{")
	if !ok {
		return false
	}
	rest = strings.TrimSpace(rest)
	return strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, "}")
}

// inlineJSON reports a JSON block whose opening brace is not on a line of its
// own. The frontmatter delimiters need "{" alone on the first line.
func inlineJSON(source []byte) bool {
	for line := range strings.Lines(string(source)) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return opensJSONObject(line)
	}
	return false
}

// parseInlineJSON decodes the leading JSON object and returns the body after
// it, without the blank lines that separate the two.
func parseInlineJSON(source []byte, raw *map[string]any) ([]byte, error) {
	trimmed := bytes.TrimLeft(source, " \t\r\n")
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	rest := trimmed[dec.InputOffset():]
	rest = bytes.TrimLeft(rest, " \t")
	return bytes.TrimLeft(rest, "\r\n"), nil
}
