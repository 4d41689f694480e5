// Package archive reads Java archives: entries, manifest, multi-release
// views and module descriptors. It is built on archive/zip.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

const (
	// ManifestName is the path of the manifest inside an archive.
	ManifestName = "META-INF/MANIFEST.MF"
	// VersionsDirectory holds the per-feature overlays of multi-release archives.
	VersionsDirectory = "META-INF/versions/"
)

var versionedEntry = regexp.MustCompile(`^META-INF/versions/(\d+)/`)

// Entry is one file of an archive, named by its logical name.
type Entry struct {
	Name string
	file *zip.File
}

// Archive is an open archive, either in its raw view (every entry under its
// stored name) or in the view of one feature version of a multi-release
// archive.
type Archive struct {
	path    string
	feature int
	zr      *zip.ReadCloser
	entries []Entry
	byName  map[string]Entry

	manifest    Manifest
	manifestErr error
	manifestSet bool
}

// Open opens the raw view of the archive at path.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive %s: %w", path, err)
	}
	a := &Archive{path: path, zr: zr, byName: make(map[string]Entry, len(zr.File))}
	for _, f := range zr.File {
		if isDirectory(f) {
			continue
		}
		e := Entry{Name: f.Name, file: f}
		a.entries = append(a.entries, e)
		a.byName[f.Name] = e
	}
	return a, nil
}

// OpenVersion opens the view of the archive at path for a feature version.
// Entries under META-INF/versions/<n>/ with n <= feature replace the base
// entry of the same logical name, the highest n winning.
func OpenVersion(path string, feature int) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive %s for feature %d: %w", path, feature, err)
	}
	a := &Archive{path: path, feature: feature, zr: zr, byName: make(map[string]Entry, len(zr.File))}

	winner := map[string]int{}
	var names []string
	for _, f := range zr.File {
		if isDirectory(f) {
			continue
		}
		name, version := logicalName(f.Name)
		if version > feature {
			continue
		}
		if prev, seen := winner[name]; seen {
			if prev > version {
				continue
			}
		} else {
			names = append(names, name)
		}
		winner[name] = version
		a.byName[name] = Entry{Name: name, file: f}
	}
	for _, name := range names {
		a.entries = append(a.entries, a.byName[name])
	}
	return a, nil
}

// logicalName strips the versions prefix. Base entries have version 0.
func logicalName(name string) (string, int) {
	m := versionedEntry.FindStringSubmatch(name)
	if m == nil {
		return name, 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return name, 0
	}
	return name[len(m[0]):], n
}

func isDirectory(f *zip.File) bool {
	return strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir()
}

// Path returns the file the archive was opened from.
func (a *Archive) Path() string { return a.path }

// Feature returns the feature version of the view, 0 for the raw view.
func (a *Archive) Feature() int { return a.feature }

// Entries returns the entries of the view in archive order.
func (a *Archive) Entries() []Entry { return a.entries }

// Entry looks up an entry by logical name.
func (a *Archive) Entry(name string) (Entry, bool) {
	e, ok := a.byName[name]
	return e, ok
}

// Open returns a reader over the uncompressed bytes of e.
func (a *Archive) Open(e Entry) (io.ReadCloser, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot read entry %s: %w", e.Name, err)
	}
	return rc, nil
}

// ReadEntry reads the whole content of e.
func (a *Archive) ReadEntry(e Entry) ([]byte, error) {
	rc, err := a.Open(e)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("cannot read entry %s: %w", e.Name, err)
	}
	return data, nil
}

// Manifest returns the main attributes of the manifest. An archive without
// manifest returns a nil Manifest and no error.
func (a *Archive) Manifest() (Manifest, error) {
	if a.manifestSet {
		return a.manifest, a.manifestErr
	}
	a.manifestSet = true

	e, ok := a.byName[ManifestName]
	if !ok {
		return nil, nil
	}
	rc, err := a.Open(e)
	if err != nil {
		a.manifestErr = err
		return nil, err
	}
	defer rc.Close()

	a.manifest, a.manifestErr = ParseManifest(rc)
	return a.manifest, a.manifestErr
}

// ManifestAttribute returns a main attribute of the manifest.
func (a *Archive) ManifestAttribute(name string) (string, bool) {
	m, err := a.Manifest()
	if err != nil || m == nil {
		return "", false
	}
	return m.Get(name)
}

// IsMultiRelease reports whether the manifest declares Multi-Release: true.
func (a *Archive) IsMultiRelease() bool {
	v, ok := a.ManifestAttribute("Multi-Release")
	return ok && strings.EqualFold(strings.TrimSpace(v), "true")
}

// Features returns the distinct feature versions present under
// META-INF/versions/, in ascending order.
func (a *Archive) Features() []int {
	var features []int
	for _, f := range a.zr.File {
		if _, n := logicalName(f.Name); n > 0 && !slices.Contains(features, n) {
			features = append(features, n)
		}
	}
	slices.Sort(features)
	return features
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	return a.zr.Close()
}
