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

	"github.com/taskforge/attachment-service/internal/domain/storage"
	"go.uber.org/zap"
)

// tempPrefix marks in-flight commit files inside the root. Names with this
// prefix are never valid storage names and are skipped by List.
const tempPrefix = ".upload-"

// Store implements storage.BlobStore on a single flat local directory.
//
// Commit is atomic as observed externally: the destination name is either
// fully absent or fully present with complete content. Bytes are first copied
// into a temp file inside the root, fsynced, then hard-linked to the final
// name. The link fails with EEXIST instead of replacing an existing file,
// which is what gives collisions their fail-closed semantics; a plain rename
// would silently overwrite. The copy step makes the protocol independent of
// whether scratch storage shares a volume with the root.
type Store struct {
	root   string
	logger *zap.Logger
}

// New initialises a disk-backed blob store rooted at root.
func New(root string, logger *zap.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("disk: root path required")
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("disk: prepare root %q: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Commit copies the scratch file into the root and links it under
// storageName. On any failure the destination stays absent.
func (s *Store) Commit(ctx context.Context, scratchPath string, storageName string) (int64, error) {
	if err := checkName(storageName); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	src, err := os.Open(scratchPath)
	if err != nil {
		return 0, fmt.Errorf("disk: open scratch %q: %w", scratchPath, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return 0, fmt.Errorf("disk: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	size, err := io.Copy(tmp, src)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("disk: copy scratch into root: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("disk: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("disk: close temp file: %w", err)
	}

	dst := filepath.Join(s.root, storageName)
	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			s.logger.Warn("Storage name collision at commit", zap.String("storage_name", storageName))
			return 0, storage.ErrExists
		}
		return 0, fmt.Errorf("disk: link %q into place: %w", storageName, err)
	}

	if err := syncDir(s.root); err != nil {
		s.logger.Warn("Failed to sync storage root after commit", zap.Error(err))
	}

	return size, nil
}

// Open returns a reader over the blob stored under storageName.
func (s *Store) Open(ctx context.Context, storageName string) (io.ReadCloser, error) {
	if err := checkName(storageName); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, storageName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("disk: open %q: %w", storageName, err)
	}
	return f, nil
}

// Remove deletes the blob stored under storageName.
func (s *Store) Remove(ctx context.Context, storageName string) error {
	if err := checkName(storageName); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, storageName)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("disk: remove %q: %w", storageName, err)
	}
	return nil
}

// List returns all committed storage names, skipping in-flight temp files.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("disk: read root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// checkName rejects anything that is not a plain opaque file name. Storage
// names are server-generated, so a failure here means a caller bug, but the
// path boundary is enforced regardless.
func checkName(name string) error {
	if name == "" ||
		strings.ContainsAny(name, "/\\") ||
		strings.HasPrefix(name, ".") ||
		name != filepath.Base(name) {
		return storage.ErrInvalidName
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
