package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsafeOutputDir = errors.New("generator: refusing to remove output directory")

// Clean removes the output directory. It refuses paths that are empty, a
// filesystem root, the user's home, or that contain the site root.
func (s *service) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := safeOutputDir(s.cfg.OutputDir, s.cfg.RootDir)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("generator: clean %s: %w", target, err)
	}
	s.logger.Info("generator.clean.completed", "output", target)
	return nil
}

func safeOutputDir(outputDir, rootDir string) (string, error) {
	if strings.TrimSpace(outputDir) == "" {
		return "", fmt.Errorf("%w: output directory is empty", ErrUnsafeOutputDir)
	}
	target, err := filepath.Abs(outputDir)
	if err != nil {
		return "", err
	}
	if filepath.Dir(target) == target {
		return "", fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeOutputDir, target)
	}
	if home, err := os.UserHomeDir(); err == nil && filepath.Clean(home) == target {
		return "", fmt.Errorf("%w: %s is the home directory", ErrUnsafeOutputDir, target)
	}
	if strings.TrimSpace(rootDir) != "" {
		root, err := filepath.Abs(rootDir)
		if err != nil {
			return "", err
		}
		if rel, err := filepath.Rel(target, root); err == nil && !strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("%w: %s contains the site root %s", ErrUnsafeOutputDir, target, root)
		}
	}
	return target, nil
}
