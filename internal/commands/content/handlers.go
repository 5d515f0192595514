package contentcmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	textCodeDocumentExists = "CONTENT_DOCUMENT_EXISTS"
	textCodeInvalidPath    = "CONTENT_INVALID_PATH"
)

// NewDocumentHandler scaffolds new articles on disk.
type NewDocumentHandler struct {
	inner *commands.Handler[NewDocumentCommand]
}

// NewNewDocumentHandler constructs a handler writing under contentDir. now
// defaults to time.Now.
func NewNewDocumentHandler(contentDir string, now func() time.Time, logger interfaces.Logger, opts ...commands.HandlerOption[NewDocumentCommand]) *NewDocumentHandler {
	baseLogger := commands.EnsureLogger(logger)
	if now == nil {
		now = time.Now
	}

	exec := func(ctx context.Context, msg NewDocumentCommand) error {
		format, _ := content.ParseFormat(msg.Format)
		doc, err := content.Scaffold(content.NewDocument{
			Path:       msg.Path,
			Title:      msg.Title,
			Tags:       trimAll(msg.Tags),
			Categories: trimAll(msg.Categories),
			Format:     format,
			Draft:      msg.Draft,
		}, now())
		if err != nil {
			if errors.Is(err, content.ErrScaffoldPath) {
				return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid document path").
					WithTextCode(textCodeInvalidPath).
					WithMetadata(map[string]any{"path": msg.Path})
			}
			return err
		}

		target := filepath.Join(contentDir, filepath.FromSlash(doc.Path))
		if !msg.Force {
			if _, err := os.Stat(target); err == nil {
				return goerrors.New("document already exists", goerrors.CategoryConflict).
					WithTextCode(textCodeDocumentExists).
					WithMetadata(map[string]any{"path": doc.Path})
			} else if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("stat %s: %w", target, err)
			}
		}

		data, err := content.Marshal(doc)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		baseLogger.Info("content.document.created", "path", doc.Path, "format", string(doc.Format), "draft", doc.Draft)

		if msg.Callback != nil {
			msg.Callback(DocumentEnvelope{Document: doc, File: target})
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[NewDocumentCommand]{
		commands.WithLogger[NewDocumentCommand](baseLogger),
		commands.WithOperation[NewDocumentCommand]("content.new"),
		commands.WithMessageFields(func(msg NewDocumentCommand) map[string]any {
			return map[string]any{"path": msg.Path, "force": msg.Force}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[NewDocumentCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &NewDocumentHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[NewDocumentCommand].
func (h *NewDocumentHandler) Execute(ctx context.Context, msg NewDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

func trimAll(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.TrimSpace(v))
	}
	return out
}
