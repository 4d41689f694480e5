package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
)

// FS is an archive mounted as a read-only file system, used to look for
// archives nested inside WAR and EAR files.
type FS struct {
	path string
	zr   *zip.ReadCloser
}

// Mount opens the archive at path as a file system.
func Mount(path string) (*FS, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot mount archive %s: %w", path, err)
	}
	return &FS{path: path, zr: zr}, nil
}

// Walk calls fn for every regular file of the archive, at any depth, with its
// slash-separated path relative to the archive root. An error returned by fn
// stops the walk. A directory that cannot be read is reported through onErr
// and skipped.
func (m *FS) Walk(fn func(name string) error, onErr func(name string, err error)) error {
	return fs.WalkDir(m.zr, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			if onErr != nil {
				onErr(name, err)
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(name)
	})
}

// Open opens a file of the archive by the name Walk reported.
func (m *FS) Open(name string) (io.ReadCloser, error) {
	f, err := m.zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s in %s: %w", name, m.path, err)
	}
	return f, nil
}

// Close unmounts the archive.
func (m *FS) Close() error {
	return m.zr.Close()
}
