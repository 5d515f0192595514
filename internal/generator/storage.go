package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type writeCategory string

const (
	categoryPage    writeCategory = "page"
	categoryFeed    writeCategory = "feed"
	categoryAsset   writeCategory = "asset"
	categorySearch  writeCategory = "search"
	categorySitemap writeCategory = "sitemap"
	categoryRobots  writeCategory = "robots"
)

// writeFileRequest describes a file write routed through the artifact writer.
// Path is a slash path relative to the output directory.
type writeFileRequest struct {
	Path        string
	Content     io.Reader
	Category    writeCategory
	ContentType string
}

// artifactWriter abstracts where generator outputs go.
type artifactWriter interface {
	WriteFile(ctx context.Context, req writeFileRequest) error
}

func newArtifactWriter(outputDir string, dryRun bool) artifactWriter {
	if dryRun || strings.TrimSpace(outputDir) == "" {
		return noopWriter{}
	}
	return &dirWriter{root: outputDir}
}

// dirWriter writes artifacts below root, creating parent directories.
type dirWriter struct {
	root string
}

func (w *dirWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	target, err := w.resolve(req.Path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	f, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, req.Content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// resolve maps a relative artifact path into root, rejecting escapes.
func (w *dirWriter) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errors.New("generator: write requires path")
	}
	clean := path.Clean("/" + filepath.ToSlash(rel))
	if clean == "/" {
		return "", fmt.Errorf("generator: invalid artifact path %q", rel)
	}
	return filepath.Join(w.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

type noopWriter struct{}

func (noopWriter) WriteFile(context.Context, writeFileRequest) error { return nil }
