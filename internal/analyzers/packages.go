package analyzers

import (
	"slices"
	"strconv"
	"strings"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// emptyPackage is shown for classes of the default package.
const emptyPackage = "<EMPTY>"

// isClassFileEntry reports whether an entry holds a Java class. Descriptors
// and classes under META-INF/ and WEB-INF/ are not part of the archive
// packages.
func isClassFileEntry(name string) bool {
	return strings.HasSuffix(name, ".class") &&
		name != archive.ModuleInfoName &&
		!strings.HasPrefix(name, "META-INF/") &&
		!strings.HasPrefix(name, "WEB-INF/")
}

func packageOf(name string) string {
	i := strings.LastIndexByte(name, '/')
	if i < 0 {
		return ""
	}
	return strings.ReplaceAll(name[:i], "/", ".")
}

// PackagesAnalyzer lists the packages of every archive and how many archives
// share each of them.
type PackagesAnalyzer struct {
	reportSink
	maven          *MavenAnalyzer
	module         *ModuleAnalyzer
	duplicatesOnly bool
	packages       map[model.ArchiveUnit]map[string]struct{}
}

// NewPackages returns a packages analyzer. With duplicatesOnly, only packages
// found in more than one archive are reported.
func NewPackages(report *output.Report, duplicatesOnly bool, maven *MavenAnalyzer, module *ModuleAnalyzer) *PackagesAnalyzer {
	return &PackagesAnalyzer{
		reportSink:     reportSink{report: report},
		maven:          maven,
		module:         module,
		duplicatesOnly: duplicatesOnly,
		packages:       map[model.ArchiveUnit]map[string]struct{}{},
	}
}

func (a *PackagesAnalyzer) Name() string { return "package" }

func (a *PackagesAnalyzer) Init() {
	clear(a.packages)
}

func (a *PackagesAnalyzer) Process(ctx Context, ar *archive.Archive) {
	packages := map[string]struct{}{}
	for _, e := range ar.Entries() {
		if isClassFileEntry(e.Name) {
			packages[packageOf(e.Name)] = struct{}{}
		}
	}
	a.packages[ctx.Unit.Key()] = packages
}

// References returns the number of archives containing pkg.
func (a *PackagesAnalyzer) References(pkg string) int {
	n := 0
	for _, packages := range a.packages {
		if _, ok := packages[pkg]; ok {
			n++
		}
	}
	return n
}

func (a *PackagesAnalyzer) Finish() error {
	counts := map[string]int{}
	for _, packages := range a.packages {
		for pkg := range packages {
			counts[pkg]++
		}
	}

	return a.write(func(r *rows) {
		r.add("JAR", "GAV", "Module", "Package", "Number of package references in all JARs")
		for _, unit := range model.SortedKeys(a.packages) {
			names := make([]string, 0, len(a.packages[unit]))
			for pkg := range a.packages[unit] {
				names = append(names, pkg)
			}
			slices.Sort(names)
			for _, pkg := range names {
				if a.duplicatesOnly && counts[pkg] < 2 {
					continue
				}
				shown := pkg
				if shown == "" {
					shown = emptyPackage
				}
				r.add(unit.String(), a.maven.GAVString(unit), a.module.DescriptorString(unit), shown,
					strconv.Itoa(counts[pkg]))
			}
		}
	})
}
