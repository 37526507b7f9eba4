package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/donmikel/lanshare/applications/server/domain"
	"github.com/donmikel/lanshare/applications/server/interfaces"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// tempPrefix followed by a UUID names an in-flight write; such files are never listed.
	tempPrefix = ".upload-"
)

func isTempName(name string) bool {
	id := strings.TrimPrefix(name, tempPrefix)
	if id == name || len(id) != len(uuid.Nil.String()) {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

type registry struct {
	dir string
	log log.Logger
}

// NewRegistry returns a registry rooted at dir. The directory is created on first use.
func NewRegistry(dir string, logger log.Logger) interfaces.FileRegistry {
	return &registry{
		dir: dir,
		log: logger,
	}
}

func (r *registry) ensureDir() error {
	if err := os.MkdirAll(r.dir, dirPerm); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}

	return nil
}

func (r *registry) ListFiles(ctx context.Context) ([]string, error) {
	if err := r.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDirectoryUnavailable, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if isTempName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

// StoreFile writes content to a temp file next to the target and renames it into place,
// so a failed write never leaves a partial file under name.
func (r *registry) StoreFile(ctx context.Context, name string, content []byte) error {
	if err := r.ensureDir(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}

	tmpPath := filepath.Join(r.dir, tempPrefix+uuid.NewString())
	if err := os.WriteFile(tmpPath, content, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}

	if err := os.Rename(tmpPath, filepath.Join(r.dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", domain.ErrWriteFailure, err)
	}

	level.Info(r.log).Log("msg", "file stored",
		"name", name,
		"dir", r.dir,
		"size", humanize.Bytes(uint64(len(content))),
	)

	return nil
}

func (r *registry) ReadFile(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrNotFound, name)
	}

	return f, nil
}

func (r *registry) DeleteFile(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(r.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailure, err)
	}

	level.Info(r.log).Log("msg", "file deleted",
		"name", name,
		"dir", r.dir,
	)

	return nil
}
