package artifact

import (
	"context"
	"os"
	"path/filepath"
)

// FileStore writes artifacts into a local directory.
type FileStore struct {
	Dir string
}

// NewFileStore creates a file-backed artifact store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Save writes the artifact to Dir/name, creating the directory as needed.
func (s *FileStore) Save(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, name), data, 0o644)
}
