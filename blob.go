package canchannels

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ContentImageNamespace is the path marker identifying blobs owned by the
// managed content-image store. Deletion compensation only runs for image
// URLs containing this marker.
const ContentImageNamespace = "content-images"

// BlobStore is the externally-stored binary surface the core consumes.
type BlobStore interface {
	// Upload stores bytes under key and returns the public URL.
	Upload(key string, data []byte) (string, error)
	// Delete removes the blob stored under key.
	Delete(key string) error
	// List returns stored keys starting with prefix.
	List(prefix string) ([]string, error)
	// PublicURL returns the public URL a stored key is served under.
	PublicURL(key string) string
}

// LocalBlobStore keeps blobs on the local filesystem under
// <staticDir>/content-images and serves them from <baseURL>/public/content-images.
type LocalBlobStore struct {
	dir     string
	baseURL string
}

// NewLocalBlobStore creates the backing directory if needed.
func NewLocalBlobStore(staticDir, baseURL string) (*LocalBlobStore, error) {
	dir := filepath.Join(staticDir, ContentImageNamespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &LocalBlobStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes data under key and returns the public URL.
func (b *LocalBlobStore) Upload(key string, data []byte) (string, error) {
	if err := validBlobKey(key); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(b.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return b.PublicURL(key), nil
}

// Delete removes the blob stored under key. Deleting an absent key is not
// an error.
func (b *LocalBlobStore) Delete(key string) error {
	if err := validBlobKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(b.dir, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// List returns stored keys starting with prefix, sorted.
func (b *LocalBlobStore) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// PublicURL returns the URL a stored key is served under.
func (b *LocalBlobStore) PublicURL(key string) string {
	return b.baseURL + "/public/" + ContentImageNamespace + "/" + key
}

func validBlobKey(key string) error {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: invalid blob key %q", ErrValidation, key)
	}
	return nil
}

// ManagedBlobKey extracts the blob key from an image URL that points into
// the managed content-image namespace. The second return is false for
// external URLs, which must never trigger blob deletion.
func ManagedBlobKey(imageURL string) (string, bool) {
	marker := "/" + ContentImageNamespace + "/"
	i := strings.Index(imageURL, marker)
	if i < 0 {
		return "", false
	}
	key := imageURL[i+len(marker):]
	if j := strings.IndexAny(key, "?#"); j >= 0 {
		key = key[:j]
	}
	if key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}
