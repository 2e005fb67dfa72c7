package media

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrUnsupportedType is returned for uploads that are not images.
	ErrUnsupportedType = errors.New("unsupported media type")

	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("media file too large")

	// ErrNotFound is returned when a URL does not name a stored file.
	ErrNotFound = errors.New("media file not found")
)

// allowedTypes maps sniffed content types to stored file extensions.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store persists media files and returns their public URLs.
type Store interface {
	Save(ctx context.Context, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
	FS() fs.FS
}

// LocalStore keeps media files in a local directory.
type LocalStore struct {
	dir     string
	baseURL string
	maxSize int64
	logger  *slog.Logger
}

// NewLocalStore creates dir if needed and returns a store whose URLs start
// with baseURL.
func NewLocalStore(dir, baseURL string, maxSize int64, logger *slog.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("media: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create dir: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxSize: maxSize,
		logger:  logger,
	}, nil
}

// Save sniffs the content type, writes the file under a fresh name and
// returns its URL.
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("media: read: %w", err)
	}
	head = head[:n]

	ext, ok := allowedTypes[http.DetectContentType(head)]
	if !ok {
		return "", ErrUnsupportedType
	}

	name := strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()) + ext

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("media: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	body := io.MultiReader(bytes.NewReader(head), r)
	limit := s.maxSize
	if limit <= 0 {
		limit = 1<<63 - 1
	}
	written, err := io.Copy(tmp, io.LimitReader(body, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("media: write: %w", err)
	}
	if written > limit {
		return "", ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("media: rename: %w", err)
	}

	s.logger.Debug("media stored", "name", name, "bytes", written)
	return s.baseURL + "/" + name, nil
}

// Delete removes the file behind a URL returned by Save.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return ErrNotFound
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("media: delete: %w", err)
	}
	return nil
}

// FS exposes the stored files for serving.
func (s *LocalStore) FS() fs.FS {
	return os.DirFS(s.dir)
}

// BaseURL returns the URL prefix of stored files.
func (s *LocalStore) BaseURL() string {
	return s.baseURL
}
