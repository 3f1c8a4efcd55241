// Package loadfile reads the files a nodegraph run needs (the editor state, and optionally the configuration and the
// global values) relative to a context directory.
package loadfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Well-known file keys.
const (
	KeyGraph   = "graph"
	KeyConfig  = "config"
	KeyGlobals = "globals"
)

// File is a file referenced by key, with its absolute path and last loaded content.
type File struct {
	Key          string
	AbsolutePath string
	Content      []byte
}

// FileCache holds the files of a run. Paths without an absolute file path are resolved against RootDir.
type FileCache interface {
	RootDir() string
	// Load reads the content of every file.
	Load() error
	// Reload re-reads a single file and reports whether its content changed.
	Reload(key string) (bool, error)
	Get(key string) (File, bool)
	// Content returns the content of the file with the given key, or nil.
	Content(key string) []byte
	// KeyOfPath returns the key of the file with the given path, if any.
	KeyOfPath(path string) (string, bool)
	// Keys returns the file keys in sorted order.
	Keys() []string
}

type fileCache struct {
	rootDir string
	files   map[string]File
}

// NewFileCache creates a file cache for the given key to path mapping. Nothing is read until Load is called.
func NewFileCache(rootDir string, paths map[string]string) (FileCache, error) {
	absDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("error determining context directory absolute path %s (%w)", rootDir, err)
	}
	files := make(map[string]File, len(paths))
	for key, path := range paths {
		if path == "" {
			continue
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(absDir, path)
		}
		files[key] = File{Key: key, AbsolutePath: filepath.Clean(path)}
	}
	return &fileCache{rootDir: absDir, files: files}, nil
}

// NewMemoryFileCache creates a file cache from contents already in memory. The keys double as paths.
func NewMemoryFileCache(rootDir string, contents map[string][]byte) FileCache {
	files := make(map[string]File, len(contents))
	for key, content := range contents {
		files[key] = File{Key: key, AbsolutePath: key, Content: content}
	}
	return &fileCache{rootDir: rootDir, files: files}
}

func (fc *fileCache) RootDir() string {
	return fc.rootDir
}

func (fc *fileCache) Load() error {
	for _, key := range fc.Keys() {
		if _, err := fc.Reload(key); err != nil {
			return err
		}
	}
	return nil
}

func (fc *fileCache) Reload(key string) (bool, error) {
	f, ok := fc.files[key]
	if !ok {
		return false, fmt.Errorf("no file with key %s", key)
	}
	content, err := os.ReadFile(f.AbsolutePath)
	if err != nil {
		return false, fmt.Errorf("error reading file %s (%w)", f.AbsolutePath, err)
	}
	changed := !bytes.Equal(content, f.Content)
	f.Content = content
	fc.files[key] = f
	return changed, nil
}

func (fc *fileCache) Get(key string) (File, bool) {
	f, ok := fc.files[key]
	return f, ok
}

func (fc *fileCache) Content(key string) []byte {
	return fc.files[key].Content
}

func (fc *fileCache) KeyOfPath(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(fc.rootDir, path)
	}
	path = filepath.Clean(path)
	for key, f := range fc.files {
		if f.AbsolutePath == path {
			return key, true
		}
	}
	return "", false
}

func (fc *fileCache) Keys() []string {
	keys := make([]string, 0, len(fc.files))
	for key := range fc.files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
