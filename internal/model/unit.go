// Package model defines the internal data structures used by the archive
// inspection engine.
package model

import (
	"cmp"
	"path"
	"path/filepath"
	"slices"
	"strconv"
)

// ArchiveUnit identifies one analyzable view of an archive: a top-level file,
// an archive nested inside a WAR/EAR, or a feature version of a multi-release
// archive.
//
// Maps are keyed by Key(), which drops MaterializedPath: the same logical
// unit may be looked up with or without the path its bytes were copied to.
type ArchiveUnit struct {
	ArchivePath      string // Top-level archive on the real file system
	PathInArchive    string // Nested entry path inside ArchivePath, "" for top-level archives
	MaterializedPath string // Bytes to open; differs from ArchivePath after extraction
	MultiRelease     bool   // true for every view of a multi-release archive
	Feature          int    // Feature version of the view, 0 for the base view
}

// NewArchiveUnit returns the unit of a top-level archive.
func NewArchiveUnit(archivePath string) ArchiveUnit {
	return ArchiveUnit{
		ArchivePath:      archivePath,
		MaterializedPath: archivePath,
	}
}

// NewNestedArchiveUnit returns the unit of an archive stored at pathInArchive
// inside container, whose bytes were copied to materialized.
func NewNestedArchiveUnit(container, pathInArchive, materialized string) ArchiveUnit {
	return ArchiveUnit{
		ArchivePath:      container,
		PathInArchive:    pathInArchive,
		MaterializedPath: materialized,
	}
}

// Nested reports whether the unit lives inside another archive.
func (u ArchiveUnit) Nested() bool {
	return u.PathInArchive != ""
}

// AsMultiRelease returns the base view of a multi-release archive.
func (u ArchiveUnit) AsMultiRelease() ArchiveUnit {
	u.MultiRelease = true
	u.Feature = 0
	return u
}

// AsFeature returns the view of a multi-release archive for a feature version.
func (u ArchiveUnit) AsFeature(feature int) ArchiveUnit {
	u.MultiRelease = true
	u.Feature = feature
	return u
}

// FileName returns the file name of the archive itself: the last element of
// the nested path, or of the archive path for top-level archives.
func (u ArchiveUnit) FileName() string {
	if u.Nested() {
		return path.Base(u.PathInArchive)
	}
	return filepath.Base(u.ArchivePath)
}

// Key returns the identity of u, usable as a map key: u without its
// MaterializedPath.
func (u ArchiveUnit) Key() ArchiveUnit {
	u.MaterializedPath = ""
	return u
}

// Equal compares the identity tuple of two units.
func (u ArchiveUnit) Equal(o ArchiveUnit) bool {
	return Compare(u, o) == 0
}

func (u ArchiveUnit) String() string {
	s := u.ArchivePath
	if u.Nested() {
		s += "!/" + u.PathInArchive
	}
	if u.MultiRelease {
		if u.Feature == 0 {
			s += "@base"
		} else {
			s += "@" + strconv.Itoa(u.Feature)
		}
	}
	return s
}

// Compare orders units by archive path, nested path, multi-release flag and
// feature version. Reports are written in this order, so two runs over the
// same files produce the same output whatever order the file system
// enumerated them in.
func Compare(a, b ArchiveUnit) int {
	if n := cmp.Compare(a.ArchivePath, b.ArchivePath); n != 0 {
		return n
	}
	if n := cmp.Compare(a.PathInArchive, b.PathInArchive); n != 0 {
		return n
	}
	if a.MultiRelease != b.MultiRelease {
		if a.MultiRelease {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.Feature, b.Feature)
}

// SortUnits sorts units in place in Compare order.
func SortUnits(units []ArchiveUnit) {
	slices.SortFunc(units, Compare)
}

// SortedKeys returns the keys of a unit-keyed map in Compare order.
func SortedKeys[V any](m map[ArchiveUnit]V) []ArchiveUnit {
	units := make([]ArchiveUnit, 0, len(m))
	for u := range m {
		units = append(units, u)
	}
	SortUnits(units)
	return units
}
