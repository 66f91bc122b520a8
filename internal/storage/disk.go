package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps blobs on the local filesystem under root/bucket/path and
// serves them from a public base URL.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskStore) Upload(_ context.Context, bucket, path string, data []byte) (string, error) {
	clean := filepath.Clean(path)
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid object path %q", path)
	}

	full := filepath.Join(s.root, bucket, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing object: %w", err)
	}
	return clean, nil
}

func (s *DiskStore) PublicURL(bucket, path string) string {
	return s.baseURL + "/" + bucket + "/" + filepath.ToSlash(filepath.Clean(path))
}
