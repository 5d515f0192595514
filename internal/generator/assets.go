package generator

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// copyAssets copies the theme's static directory and then the site's, so
// site files override theme files of the same name. It returns the number of
// files copied (or that would be copied in a dry run).
func (s *service) copyAssets(ctx context.Context, writer artifactWriter, buildCtx *BuildContext) (int, error) {
	var roots []string
	if buildCtx.ThemeDir != "" {
		roots = append(roots, filepath.Join(buildCtx.ThemeDir, "static"))
	}
	if s.cfg.StaticDir != "" {
		roots = append(roots, s.cfg.StaticDir)
	}

	copied := 0
	for _, root := range roots {
		if !isDir(root) {
			continue
		}
		fsys := os.DirFS(root)
		err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			f, err := fsys.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := writer.WriteFile(ctx, writeFileRequest{
				Path:        p,
				Content:     f,
				Category:    categoryAsset,
				ContentType: detectAssetContentType(p),
			}); err != nil {
				return err
			}
			copied++
			return nil
		})
		if err != nil {
			return copied, fmt.Errorf("generator: copy static %s: %w", root, err)
		}
		s.logger.Debug("generator.assets.copied", "source", root, "total", copied)
	}
	return copied, nil
}

func detectAssetContentType(asset string) string {
	switch filepath.Ext(asset) {
	case ".css":
		return "text/css"
	case ".js":
		return "application/javascript"
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
