// Package locator discovers the archives to analyse: explicit files, JAR files
// found by walking directories, and archives nested inside WAR and EAR files.
package locator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/pathfilter"
)

// Options configures a Locator.
type Options struct {
	Mode DeepMode
	// Includes and Excludes filter the files met while walking directories.
	Includes []string
	Excludes []string
	// DeepIncludes filters the entries of containers, by in-archive path.
	DeepIncludes []string
	// TempDir receives extracted nested archives; empty means os.TempDir().
	TempDir string
	Errors  *model.ErrorSink
	Logger  *log.Logger
}

// Locator collects archive units. It owns the temporary files holding
// extracted nested archives until Close.
type Locator struct {
	mode        DeepMode
	filter      *pathfilter.Filter
	deepInclude *pathfilter.Filter
	tempDir     string
	errors      *model.ErrorSink
	logger      *log.Logger

	units     map[model.ArchiveUnit]model.ArchiveUnit // by Key()
	tempFiles []string
}

// New compiles the filters of opts. Invalid patterns are returned before any
// file is touched.
func New(opts Options) (*Locator, error) {
	compiler := pathfilter.NewCompiler()
	filter, err := compiler.Compile(opts.Includes, opts.Excludes)
	if err != nil {
		return nil, err
	}
	deepInclude, err := compiler.Compile(opts.DeepIncludes, nil)
	if err != nil {
		return nil, fmt.Errorf("deep filter: %w", err)
	}

	sink := opts.Errors
	if sink == nil {
		sink = model.NewErrorSink()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Locator{
		mode:        opts.Mode,
		filter:      filter,
		deepInclude: deepInclude,
		tempDir:     opts.TempDir,
		errors:      sink,
		logger:      logger,
		units:       make(map[model.ArchiveUnit]model.ArchiveUnit),
	}, nil
}

// AddFileset registers regular files as given and walks directories for
// candidate archives. Failures are recorded and the remaining paths are
// still processed.
func (l *Locator) AddFileset(paths []string) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			l.errors.AddError(model.NewArchiveUnit(p), err)
			continue
		}
		switch {
		case info.Mode().IsRegular():
			l.addFile(p)
		case info.IsDir():
			l.addDirectory(p)
		default:
			l.errors.Add(model.NewArchiveUnit(p), "not a regular file or directory")
		}
	}
}

func (l *Locator) addFile(p string) {
	resolved, err := realPath(p)
	if err != nil {
		l.errors.AddError(model.NewArchiveUnit(p), err)
		return
	}
	l.register(resolved)
}

func (l *Locator) addDirectory(dir string) {
	root, err := realPath(dir)
	if err != nil {
		l.errors.AddError(model.NewArchiveUnit(dir), err)
		return
	}
	l.logger.Debug("walking directory", "dir", root)

	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			l.errors.AddError(model.NewArchiveUnit(p), err)
			if d != nil && d.IsDir() && p != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := realPath(p)
			if err != nil {
				l.errors.AddError(model.NewArchiveUnit(p), err)
				return nil
			}
			info, err := os.Stat(resolved)
			if err != nil {
				l.errors.AddError(model.NewArchiveUnit(p), err)
				return nil
			}
			if !info.Mode().IsRegular() {
				return nil
			}
			p = resolved
		} else if !d.Type().IsRegular() {
			return nil
		}
		if !IsCandidateFile(l.mode, p) || !l.filter.Match(pathfilter.NewPath(p)) {
			return nil
		}
		l.register(p)
		return nil
	})
	if err != nil {
		l.errors.AddError(model.NewArchiveUnit(root), err)
	}
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func (l *Locator) register(p string) {
	unit := model.NewArchiveUnit(p)
	if _, seen := l.units[unit.Key()]; seen {
		return
	}
	l.units[unit.Key()] = unit
	l.logger.Debug("registered archive", "unit", unit)

	if ShouldDescend(l.mode, p) {
		l.descend(p)
	}
}

// descend registers the archives nested in container. Nested archives are
// not descended into.
func (l *Locator) descend(container string) {
	fsys, err := archive.Mount(container)
	if err != nil {
		l.errors.AddError(model.NewArchiveUnit(container), err)
		return
	}
	defer fsys.Close()

	walkErr := fsys.Walk(func(name string) error {
		if !isJar(name) || !IsArchivePath(l.mode, name) || !l.deepInclude.Match(pathfilter.NewEntryPath(container, name)) {
			return nil
		}
		unit := model.NewNestedArchiveUnit(container, name, "")
		tmp, err := l.extract(fsys, name)
		if err != nil {
			l.errors.AddError(unit, err)
			return nil
		}
		unit.MaterializedPath = tmp
		l.units[unit.Key()] = unit
		l.logger.Debug("registered nested archive", "unit", unit, "temp", tmp)
		return nil
	}, func(name string, err error) {
		l.errors.AddError(model.NewNestedArchiveUnit(container, name, ""), err)
	})
	if walkErr != nil {
		l.errors.AddError(model.NewArchiveUnit(container), walkErr)
	}
}

// extract copies a nested entry to a new temporary file. The file is tracked
// as soon as it exists so Close removes it even when the copy fails.
func (l *Locator) extract(fsys *archive.FS, name string) (string, error) {
	src, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(l.tempDir, "jarfile-"+path.Base(name)+"-*.jar")
	if err != nil {
		return "", fmt.Errorf("cannot create temporary file for %s: %w", name, err)
	}
	l.tempFiles = append(l.tempFiles, dst.Name())

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		return "", fmt.Errorf("cannot extract %s: %w", name, err)
	}
	return dst.Name(), nil
}

// Units returns the registered units in deterministic order.
func (l *Locator) Units() []model.ArchiveUnit {
	units := make([]model.ArchiveUnit, 0, len(l.units))
	for _, unit := range l.units {
		units = append(units, unit)
	}
	model.SortUnits(units)
	return units
}

// Errors returns the sink discovery errors are recorded in.
func (l *Locator) Errors() *model.ErrorSink {
	return l.errors
}

// TempFiles returns the temporary files created so far.
func (l *Locator) TempFiles() []string {
	return append([]string(nil), l.tempFiles...)
}

// Close removes every temporary file. Failures are logged and otherwise
// ignored.
func (l *Locator) Close() error {
	for _, f := range l.tempFiles {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("could not remove temporary file", "path", f, "err", err)
		}
	}
	l.tempFiles = nil
	return nil
}
