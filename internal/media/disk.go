package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how much of an upload is inspected to detect its type.
const sniffLen = 3072

// DiskStore keeps media on the local filesystem below Dir and serves it
// under BaseURL (the HTTP layer mounts Dir there).
type DiskStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewDiskStore(dir, baseURL string, maxBytes int64) (*DiskStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	return &DiskStore{dir: abs, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

// Dir is the directory files are written to.
func (s *DiskStore) Dir() string { return s.dir }

func folderFor(kind Kind) string {
	if kind == KindVideo {
		return "listings/videos"
	}
	return "listings/images"
}

// Save sniffs the upload, rejects content that is not of kind, and writes
// it under a fresh public id.
func (s *DiskStore) Save(ctx context.Context, kind Kind, up Upload) (Object, error) {
	if up.Body == nil {
		return Object{}, fmt.Errorf("%w: empty upload", ErrUnsupportedType)
	}
	if s.maxBytes > 0 && up.Size > s.maxBytes {
		return Object{}, ErrTooLarge
	}
	body := ctxReader{ctx: ctx, r: up.Body}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Object{}, err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), string(kind)+"/") {
		return Object{}, fmt.Errorf("%w: got %s, want %s/*", ErrUnsupportedType, mt.String(), kind)
	}

	publicID := path.Join(folderFor(kind), uuid.NewString()+mt.Extension())
	dst := filepath.Join(s.dir, filepath.FromSlash(publicID))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return Object{}, err
	}
	cleanup := func() { _ = tmp.Close(); _ = os.Remove(tmp.Name()) }

	src := io.MultiReader(bytes.NewReader(head), body)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return Object{}, err
	}
	if s.maxBytes > 0 && written > s.maxBytes {
		cleanup()
		return Object{}, ErrTooLarge
	}

	var duration float64
	if kind == KindVideo {
		if _, err := tmp.Seek(0, io.SeekStart); err == nil {
			duration, _ = ProbeDuration(tmp)
		}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Object{}, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return Object{}, err
	}

	return Object{
		URL:         s.baseURL + "/" + publicID,
		PublicID:    publicID,
		ContentType: mt.String(),
		Size:        written,
		Duration:    duration,
	}, nil
}

// Delete removes the object addressed by publicID.
func (s *DiskStore) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps a public id to a path, refusing anything outside dir.
func (s *DiskStore) resolve(publicID string) (string, error) {
	if publicID == "" || strings.Contains(publicID, "\\") {
		return "", ErrInvalidID
	}
	clean := path.Clean("/" + publicID)
	if !strings.HasPrefix(clean, "/listings/") {
		return "", ErrInvalidID
	}
	return filepath.Join(s.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
