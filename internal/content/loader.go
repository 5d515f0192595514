package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// LoaderConfig configures document discovery.
type LoaderConfig struct {
	// Pattern limits discovered files to those matching the glob (defaults to "*.md").
	Pattern string
	// Logger receives per-file diagnostics. Optional.
	Logger interfaces.Logger
}

// Loader walks a content tree and parses every matching file.
type Loader struct {
	fs      fs.FS
	pattern string
	logger  interfaces.Logger
}

// NewLoader constructs a Loader rooted at filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	pattern := strings.TrimSpace(cfg.Pattern)
	if pattern == "" {
		pattern = "*.md"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Loader{fs: filesystem, pattern: pattern, logger: logger}
}

// LoadFile reads and parses a single document at a slash path.
func (l *Loader) LoadFile(ctx context.Context, name string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = path.Clean(strings.TrimPrefix(name, "/"))

	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("content loader read %s: %w", name, err)
	}
	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("content loader stat %s: %w", name, err)
	}

	doc, err := Parse(name, data)
	if err != nil {
		return nil, err
	}
	doc.ModTime = info.ModTime()
	return doc, nil
}

// Load walks the whole tree and returns documents sorted by path. Files that
// fail to parse are skipped and reported through the joined error, so callers
// can still use the documents that loaded.
func (l *Loader) Load(ctx context.Context) ([]*Document, error) {
	var (
		docs     []*Document
		failures []error
	)

	walkErr := fs.WalkDir(l.fs, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if p != "." && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if ok, _ := path.Match(l.pattern, d.Name()); !ok {
			return nil
		}

		doc, err := l.LoadFile(ctx, p)
		if err != nil {
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				l.logger.Warn("content.load.parse_failed", "path", p, "error", err)
				failures = append(failures, err)
				return nil
			}
			return err
		}
		l.logger.Trace("content.load.document", "path", p, "draft", doc.Draft)
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("content loader walk: %w", walkErr)
	}

	slices.SortFunc(docs, func(a, b *Document) int {
		return strings.Compare(a.Path, b.Path)
	})
	l.logger.Debug("content.load.completed", "documents", len(docs), "failures", len(failures))
	return docs, errors.Join(failures...)
}

// ParseErrors extracts the per-file failures from an error returned by Load.
func ParseErrors(err error) []*ParseError {
	if err == nil {
		return nil
	}
	var out []*ParseError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, ParseErrors(e)...)
		}
		return out
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		out = append(out, parseErr)
	}
	return out
}
