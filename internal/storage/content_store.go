// Package storage persists uploaded receipt files on disk, addressed by the
// SHA-256 of their content, with an optional mirror to S3-compatible object
// storage.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// StorageError represents an error that occurred within the storage layer
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ContentStore writes uploaded files under a root directory. Identical bytes
// always hash to the identical digest, which is what duplicate detection keys
// on; the on-disk name additionally carries a timestamp so a retried upload
// never collides on path.
type ContentStore struct {
	root string
}

// NewContentStore creates the store, creating the root directory as needed.
func NewContentStore(root string) (*ContentStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &StorageError{
			Op:  "create_storage_root",
			Err: fmt.Errorf("failed to create storage directory %s: %w", root, err),
		}
	}
	return &ContentStore{root: root}, nil
}

// HashBytes returns the lowercase hex SHA-256 digest of data.
func HashBytes(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// Save writes data to disk and returns the storage path and content hash.
// Disk write errors are fatal I/O errors and are not retried.
func (s *ContentStore) Save(data []byte, declaredName string) (string, string, error) {
	hash := HashBytes(data)

	timestamp := time.Now().UTC().Format("20060102150405")
	fileName := fmt.Sprintf("%s_%s%s", timestamp, hash[:8], filepath.Ext(declaredName))
	path := filepath.Join(s.root, fileName)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", "", &StorageError{
			Op:  "write_file",
			Err: fmt.Errorf("failed to write %s: %w", path, err),
		}
	}

	return path, hash, nil
}

// Read returns the stored bytes at path.
func (s *ContentStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{
			Op:  "read_file",
			Err: fmt.Errorf("failed to read %s: %w", path, err),
		}
	}
	return data, nil
}
