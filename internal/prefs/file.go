package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileStorage keeps preferences in a flat TOML table. Writes go to a
// temporary file that is renamed over the original so a crash never
// leaves a half-written file behind.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

// NewFileStorage creates a FileStorage at path. The file and its parent
// directory are created on first Set.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file path.
func (f *FileStorage) Path() string {
	return f.path
}

// Get implements Storage.
func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements Storage.
func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		// A corrupt file is replaced rather than blocking every future write.
		values = make(map[string]string)
	}
	values[key] = value

	return f.save(values)
}

// ModTime returns when the file was last written. The zero time means the
// file does not exist.
func (f *FileStorage) ModTime() (time.Time, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return info.ModTime(), nil
}

func (f *FileStorage) load() (map[string]string, error) {
	if f.path == "" {
		return nil, fmt.Errorf("%w: no preference file path", ErrUnavailable)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrUnavailable, f.path, err)
	}

	values := make(map[string]string)
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrUnavailable, f.path, err)
	}
	return values, nil
}

func (f *FileStorage) save(values map[string]string) error {
	if f.path == "" {
		return fmt.Errorf("%w: no preference file path", ErrUnavailable)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrUnavailable, dir, err)
	}

	data, err := toml.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
