package action

import (
	"os"
	"path/filepath"

	"goforge/internal/fileutil"
)

// FileSystem is the port through which all file side effects flow. The
// production implementation writes atomically under a project root; tests
// substitute fakes.
type FileSystem interface {
	Read(path string) (string, error)
	Write(path string, content string) error
	Exists(path string) bool
	Remove(path string) error
	List(dir string) ([]string, error)
}

// OSFileSystem implements FileSystem against the real filesystem, with all
// paths resolved relative to Root.
type OSFileSystem struct {
	Root string
}

func NewOSFileSystem(root string) *OSFileSystem {
	return &OSFileSystem{Root: root}
}

func (f *OSFileSystem) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.Root, path)
}

func (f *OSFileSystem) Read(path string) (string, error) {
	data, err := os.ReadFile(f.abs(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Write creates parent directories as needed and writes atomically.
func (f *OSFileSystem) Write(path string, content string) error {
	target := f.abs(path)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	return fileutil.AtomicWriteString(target, content, 0644)
}

func (f *OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(f.abs(path))
	return err == nil
}

func (f *OSFileSystem) Remove(path string) error {
	return os.Remove(f.abs(path))
}

func (f *OSFileSystem) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(f.abs(dir))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	return names, nil
}
