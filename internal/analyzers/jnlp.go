package analyzers

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// JNLPPermissions are the Java Web Start security attributes of a manifest.
type JNLPPermissions struct {
	Permissions             string
	Codebase                string
	CallerAllowableCodebase string
	Missing                 bool // no manifest at all
}

// validPermissions are the attributes of a fully signed-off archive, not
// reported.
var validPermissions = JNLPPermissions{Permissions: "all-permissions", Codebase: "*", CallerAllowableCodebase: "*"}

var missingPermissions = JNLPPermissions{Missing: true}

func (p JNLPPermissions) column(v string) string {
	switch {
	case p.Missing:
		return "<missing>"
	case v == "":
		return "<empty>"
	}
	return v
}

func compareJNLP(a, b JNLPPermissions) int {
	if a.Missing != b.Missing {
		if a.Missing {
			return -1
		}
		return 1
	}
	return cmp.Or(
		strings.Compare(a.Permissions, b.Permissions),
		strings.Compare(a.Codebase, b.Codebase),
		strings.Compare(a.CallerAllowableCodebase, b.CallerAllowableCodebase),
	)
}

// JNLPAnalyzer groups archives by the JNLP permissions of their manifest.
type JNLPAnalyzer struct {
	reportSink
	permissions map[model.ArchiveUnit]JNLPPermissions
}

// NewJNLP returns a JNLP permissions analyzer.
func NewJNLP(report *output.Report) *JNLPAnalyzer {
	return &JNLPAnalyzer{
		reportSink:  reportSink{report: report},
		permissions: map[model.ArchiveUnit]JNLPPermissions{},
	}
}

func (a *JNLPAnalyzer) Name() string { return "jnlp-permissions" }

func (a *JNLPAnalyzer) Init() {
	clear(a.permissions)
}

func (a *JNLPAnalyzer) Process(ctx Context, ar *archive.Archive) {
	m, err := ar.Manifest()
	if err != nil {
		ctx.AddErr(err)
		a.permissions[ctx.Unit.Key()] = missingPermissions
		return
	}
	if m == nil {
		a.permissions[ctx.Unit.Key()] = missingPermissions
		return
	}
	get := func(name string) string {
		v, _ := m.Get(name)
		return strings.TrimSpace(v)
	}
	p := JNLPPermissions{
		Permissions:             get("Permissions"),
		Codebase:                get("Codebase"),
		CallerAllowableCodebase: get("Caller-Allowable-Codebase"),
	}
	if p == validPermissions {
		return
	}
	a.permissions[ctx.Unit.Key()] = p
}

// Permissions returns the permissions recorded for unit. Archives with valid
// permissions are not recorded.
func (a *JNLPAnalyzer) Permissions(unit model.ArchiveUnit) (JNLPPermissions, bool) {
	p, ok := a.permissions[unit.Key()]
	return p, ok
}

func (a *JNLPAnalyzer) Finish() error {
	units := model.SortedKeys(a.permissions)
	slices.SortStableFunc(units, func(x, y model.ArchiveUnit) int {
		return compareJNLP(a.permissions[x], a.permissions[y])
	})

	return a.write(func(r *rows) {
		r.add("Permissions", "Codebase", "Caller-Allowable-Codebase", "Parent", "Child", "Release")
		for _, unit := range units {
			p := a.permissions[unit]
			r.add(p.column(p.Permissions), p.column(p.Codebase), p.column(p.CallerAllowableCodebase),
				unit.ArchivePath, unit.PathInArchive, release(unit))
		}
	})
}

// release names the multi-release view of unit, "" for plain archives.
func release(unit model.ArchiveUnit) string {
	switch {
	case !unit.MultiRelease:
		return ""
	case unit.Feature == 0:
		return "base"
	default:
		return strconv.Itoa(unit.Feature)
	}
}
