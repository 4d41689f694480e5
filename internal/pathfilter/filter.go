// Package pathfilter compiles include/exclude pattern lists into a single
// predicate over normalised paths.
//
// A pattern is a regular expression, optionally prefixed by a selector that
// chooses which projection of the path it is matched against:
//
//	name:<regexp>     file name (default when no selector is given)
//	path:<regexp>     full path, forward-slash separated
//	complete:<regexp> container path, "!/" and entry path for nested entries;
//	                  the full path otherwise
//	dir:<regexp>      parent directory
//	ext:<regexp>      extension without the leading dot
//	glob:<pattern>    doublestar glob against the full path
//
// Regular expressions are unanchored, as with a find.
package pathfilter

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Path is the normalised representation a Filter matches against. It does
// not depend on the host path separator.
type Path struct {
	Native   string // Path as given
	Full     string // Forward-slash form of Native
	Dir      string // Parent of Full
	Name     string // Last element of Full
	Ext      string // Extension of Name without the dot
	Complete string // Container!/Full for archive entries, Full otherwise
}

// NewPath normalises p.
func NewPath(p string) Path {
	full := filepath.ToSlash(p)
	name := path.Base(full)
	if name == "." || name == "/" {
		name = ""
	}
	return Path{
		Native:   p,
		Full:     full,
		Dir:      path.Dir(full),
		Name:     name,
		Ext:      strings.TrimPrefix(path.Ext(name), "."),
		Complete: full,
	}
}

// NewEntryPath normalises the path of an entry of the archive container.
// Every projection but Complete sees the entry path alone.
func NewEntryPath(container, entry string) Path {
	p := NewPath(strings.TrimPrefix(entry, "/"))
	p.Complete = filepath.ToSlash(container) + "!/" + p.Full
	return p
}

type selector struct {
	prefix  string
	project func(Path) string
}

var selectors = []selector{
	{prefix: "name:", project: func(p Path) string { return p.Name }},
	{prefix: "path:", project: func(p Path) string { return p.Full }},
	{prefix: "complete:", project: func(p Path) string { return p.Complete }},
	{prefix: "dir:", project: func(p Path) string { return p.Dir }},
	{prefix: "ext:", project: func(p Path) string { return p.Ext }},
}

const globPrefix = "glob:"

type predicate func(Path) bool

// Filter is a compiled include/exclude pair.
type Filter struct {
	includes []predicate
	excludes []predicate
}

// Match reports whether p is matched by at least one include (or there are no
// includes) and by no exclude.
func (f *Filter) Match(p Path) bool {
	if f == nil {
		return true
	}
	return anyOf(f.includes, p, true) && !anyOf(f.excludes, p, false)
}

// MatchString normalises s and matches it.
func (f *Filter) MatchString(s string) bool {
	return f.Match(NewPath(s))
}

func anyOf(preds []predicate, p Path, whenEmpty bool) bool {
	if len(preds) == 0 {
		return whenEmpty
	}
	for _, pred := range preds {
		if pred(p) {
			return true
		}
	}
	return false
}

// Compiler compiles patterns into predicates, caching regular expressions by
// their raw string so identical patterns are compiled once.
type Compiler struct {
	cache map[string]*regexp.Regexp
}

// NewCompiler returns a Compiler with an empty cache.
func NewCompiler() *Compiler {
	return &Compiler{cache: map[string]*regexp.Regexp{}}
}

// Compile builds a Filter with a fresh Compiler.
func Compile(includes, excludes []string) (*Filter, error) {
	return NewCompiler().Compile(includes, excludes)
}

// Compile builds a Filter. Any invalid pattern is reported immediately.
func (c *Compiler) Compile(includes, excludes []string) (*Filter, error) {
	inc, err := c.compileAll(includes)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	exc, err := c.compileAll(excludes)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return &Filter{includes: inc, excludes: exc}, nil
}

func (c *Compiler) compileAll(patterns []string) ([]predicate, error) {
	preds := make([]predicate, 0, len(patterns))
	for _, pattern := range patterns {
		pred, err := c.compile(pattern)
		if err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}

func (c *Compiler) compile(pattern string) (predicate, error) {
	if glob, ok := strings.CutPrefix(pattern, globPrefix); ok {
		if !doublestar.ValidatePattern(glob) {
			return nil, fmt.Errorf("%q: malformed glob", pattern)
		}
		return func(p Path) bool {
			matched, err := doublestar.Match(glob, p.Full)
			return err == nil && matched
		}, nil
	}

	project := selectors[0].project
	expr := pattern
	for _, s := range selectors {
		if rest, ok := strings.CutPrefix(pattern, s.prefix); ok {
			project, expr = s.project, rest
			break
		}
	}

	re, err := c.regexp(expr)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", pattern, err)
	}
	return func(p Path) bool {
		return re.MatchString(project(p))
	}, nil
}

func (c *Compiler) regexp(expr string) (*regexp.Regexp, error) {
	if re, ok := c.cache[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	c.cache[expr] = re
	return re, nil
}
