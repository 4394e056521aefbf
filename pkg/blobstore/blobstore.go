// Package blobstore is the content-addressed object uploader referenced by
// spec as "the core only sees a final object key string." Images are hashed
// and stored keyed by that hash, so uploading identical bytes twice yields
// the same key and the append protocol's UniquenessConflict on object_key
// becomes a natural idempotency check.
package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	cqerrors "github.com/shifthive/capturequeue/pkg/errors"
)

// Uploader stores content and returns its content-addressed object key.
type Uploader interface {
	Upload(ctx context.Context, content io.Reader, contentType string) (objectKey string, err error)
}

func hashKey(data []byte, contentType string) string {
	sum := sha256.Sum256(data)
	ext := extensionFor(contentType)
	return hex.EncodeToString(sum[:]) + ext
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}

// LocalUploader is the blobstore.local-dir fallback: it writes objects to a
// flat directory on disk, keyed the same way the S3 uploader keys them, for
// local development and tests that should not require AWS credentials.
type LocalUploader struct {
	dir string
}

// NewLocalUploader builds a LocalUploader rooted at dir, creating it if
// absent.
func NewLocalUploader(dir string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cqerrors.NewInternal("blobstore: create local dir", err)
	}
	return &LocalUploader{dir: dir}, nil
}

// Upload writes content to disk under its content hash. Re-uploading
// identical bytes overwrites the same path with identical content, which is
// harmless and keeps the operation idempotent.
func (u *LocalUploader) Upload(_ context.Context, content io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", cqerrors.NewInternal("blobstore: read content", err)
	}
	key := hashKey(data, contentType)
	path := filepath.Join(u.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", cqerrors.NewInternal("blobstore: write object", err)
	}
	return key, nil
}

// Get reads back a previously uploaded object. Missing keys are NotFound.
func (u *LocalUploader) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(u.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cqerrors.NewNotFound(fmt.Sprintf("object %s", key), err)
		}
		return nil, cqerrors.NewInternal("blobstore: read object", err)
	}
	return data, nil
}

var _ Uploader = (*LocalUploader)(nil)
