package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/storage"
)

// LocalStorage serves documents from the filesystem.
//
// Reads accept any path as given. Writes land under root and may not escape it.
type LocalStorage struct {
	root   string
	logger logger.Logger
}

func NewLocalStorage(root string, log logger.Logger) *LocalStorage {
	return &LocalStorage{root: root, logger: log}
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := os.Stat(key); err != nil {
		if isMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return true, nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(key)
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	target, err := s.within(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		s.logger.Error("Failed to store file",
			logger.String("path", target),
			logger.Error(err),
		)
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return target, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	target, err := s.within(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if isMissing(err) {
			return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// within maps key below root. Keys already under root are accepted as-is.
func (s *LocalStorage) within(key string) (string, error) {
	root := filepath.Clean(s.root)
	target := filepath.Clean(key)
	if !isBelow(root, target) {
		target = filepath.Join(root, target)
	}
	if !isBelow(root, target) {
		return "", fmt.Errorf("%w: %s escapes storage root", storage.ErrInvalidLocation, key)
	}
	return target, nil
}

func isBelow(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) || errors.Is(err, syscall.ELOOP)
}

var _ storage.Storage = (*LocalStorage)(nil)
