package locator

import (
	"fmt"
	"path"
	"strings"
)

// DeepMode decides which archives are opened to look for nested archives,
// and which of their entries qualify.
type DeepMode struct {
	name       string
	descend    []string // container extensions, lower-case with dot
	prefix     string   // nested entries must start with it
	anyEntry   bool
	noneNested bool
}

var (
	// Disabled never descends into containers.
	Disabled = DeepMode{name: "DISABLED", noneNested: true}
	// Std descends into WAR and EAR files and only considers META-INF/lib/.
	Std = DeepMode{name: "STD", descend: []string{".war", ".ear"}, prefix: "META-INF/lib/"}
	// All descends into WAR and EAR files and considers every entry.
	All = DeepMode{name: "ALL", descend: []string{".war", ".ear"}, anyEntry: true}
)

// Modes lists every deep scan mode.
var Modes = []DeepMode{Disabled, Std, All}

// ParseDeepMode resolves a mode by name, ignoring case.
func ParseDeepMode(s string) (DeepMode, error) {
	for _, m := range Modes {
		if strings.EqualFold(s, m.name) {
			return m, nil
		}
	}
	return DeepMode{}, fmt.Errorf("unknown deep scan mode %q (expected one of DISABLED, STD, ALL)", s)
}

// String returns the mode name. The zero DeepMode prints as DISABLED.
func (m DeepMode) String() string {
	if m.name == "" {
		return Disabled.name
	}
	return m.name
}

// Set implements pflag.Value.
func (m *DeepMode) Set(s string) error {
	parsed, err := ParseDeepMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Type implements pflag.Value.
func (m *DeepMode) Type() string {
	return "mode"
}

// ShouldDescend reports whether the archive at p is opened to look for nested
// archives.
func ShouldDescend(mode DeepMode, p string) bool {
	lower := strings.ToLower(p)
	for _, ext := range mode.descend {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// IsArchivePath reports whether the slash-separated entry path inside a
// container qualifies as a nested archive location.
func IsArchivePath(mode DeepMode, inner string) bool {
	inner = strings.TrimPrefix(inner, "/")
	switch {
	case mode.noneNested || mode.name == "":
		return false
	case mode.anyEntry:
		return true
	default:
		return strings.HasPrefix(inner, mode.prefix)
	}
}

// IsCandidateFile reports whether a file met while walking a directory is
// analysed: JAR files except source archives, plus the containers the mode
// descends into.
func IsCandidateFile(mode DeepMode, p string) bool {
	return ShouldDescend(mode, p) || isJar(p)
}

func isJar(p string) bool {
	lower := strings.ToLower(path.Base(strings.ReplaceAll(p, "\\", "/")))
	return strings.HasSuffix(lower, ".jar") && !strings.HasSuffix(lower, "-sources.jar")
}
