// Package source discovers submission files from a folder or a zip archive
// and presents them to the rest of the pipeline through one interface, so the
// classifier never branches on where a file came from.
package source

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is a single discovered file: a name, a size, and a way to open its
// contents. Entries are read-only; nothing in the pipeline mutates the source.
type Entry interface {
	// Name returns the base filename, without any directory components.
	Name() string

	// Size returns the file length in bytes.
	Size() int64

	// Open returns a reader for the file contents. The caller must close it.
	Open() (io.ReadCloser, error)
}

// Source enumerates discovered files in a stable order.
type Source interface {
	// Entries returns all discovered files. The order is deterministic for a
	// given source (lexicographic by path within a directory, archive order
	// within a zip).
	Entries() ([]Entry, error)
}

// fileEntry is an Entry backed by a file on disk.
type fileEntry struct {
	name string
	path string
	size int64
}

func (e *fileEntry) Name() string { return e.name }
func (e *fileEntry) Size() int64  { return e.size }
func (e *fileEntry) Open() (io.ReadCloser, error) {
	return os.Open(e.path)
}

// DirSource enumerates regular files under a directory, recursively.
type DirSource struct {
	root string
}

// NewDirSource creates a Source over the given directory.
func NewDirSource(root string) *DirSource {
	return &DirSource{root: root}
}

// Entries walks the directory and returns every regular file. filepath.WalkDir
// visits entries in lexical order, which keeps discovery deterministic.
func (s *DirSource) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, &fileEntry{
			name: d.Name(),
			path: path,
			size: info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", s.root, err)
	}
	return entries, nil
}

// zipEntry is an Entry backed by a member of an open zip archive.
type zipEntry struct {
	file *zip.File
}

func (e *zipEntry) Name() string { return filepath.Base(e.file.Name) }
func (e *zipEntry) Size() int64  { return int64(e.file.UncompressedSize64) }
func (e *zipEntry) Open() (io.ReadCloser, error) {
	return e.file.Open()
}

// ZipSource enumerates the members of a zip archive. The archive stays open
// for the lifetime of the source so entries can be streamed on demand.
type ZipSource struct {
	reader *zip.ReadCloser
}

// OpenZip opens the archive at path as a Source.
func OpenZip(path string) (*ZipSource, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	return &ZipSource{reader: r}, nil
}

// Entries returns the archive members in archive order, skipping directories.
func (s *ZipSource) Entries() ([]Entry, error) {
	var entries []Entry
	for _, f := range s.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entries = append(entries, &zipEntry{file: f})
	}
	return entries, nil
}

// Close releases the underlying archive.
func (s *ZipSource) Close() error {
	return s.reader.Close()
}

// merged is a Source combining several sources, earlier sources winning on
// duplicate names (compared case-insensitively).
type merged struct {
	sources []Source
}

// Merge combines sources into one. When the same filename appears in more
// than one source, the entry from the earlier source is kept. This is how the
// submission archive takes precedence over loose copies in the folder.
func Merge(sources ...Source) Source {
	return &merged{sources: sources}
}

func (m *merged) Entries() ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry
	for _, s := range m.sources {
		es, err := s.Entries()
		if err != nil {
			return nil, err
		}
		for _, e := range es {
			key := strings.ToLower(e.Name())
			if seen[key] {
				continue
			}
			seen[key] = true
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// memEntry is an in-memory Entry, used by tests and for synthesized inputs.
type memEntry struct {
	name string
	data []byte
}

// NewMemEntry creates an Entry holding the given bytes.
func NewMemEntry(name string, data []byte) Entry {
	return &memEntry{name: name, data: data}
}

func (e *memEntry) Name() string { return e.name }
func (e *memEntry) Size() int64  { return int64(len(e.data)) }
func (e *memEntry) Open() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(string(e.data))), nil
}

// SortByName orders entries lexicographically by name. Callers that need a
// canonical order independent of source layout use this before classifying.
func SortByName(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
}
