package analyzers

import (
	"slices"
	"strconv"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// ClassesAnalyzer maps every class file to the archives containing it.
type ClassesAnalyzer struct {
	reportSink
	maven          *MavenAnalyzer
	module         *ModuleAnalyzer
	duplicatesOnly bool
	classes        map[string]map[model.ArchiveUnit]struct{}
}

// NewClasses returns a classes analyzer. With duplicatesOnly, only classes
// found in more than one archive are reported.
func NewClasses(report *output.Report, duplicatesOnly bool, maven *MavenAnalyzer, module *ModuleAnalyzer) *ClassesAnalyzer {
	return &ClassesAnalyzer{
		reportSink:     reportSink{report: report},
		maven:          maven,
		module:         module,
		duplicatesOnly: duplicatesOnly,
		classes:        map[string]map[model.ArchiveUnit]struct{}{},
	}
}

func (a *ClassesAnalyzer) Name() string { return "class" }

func (a *ClassesAnalyzer) Init() {
	clear(a.classes)
}

func (a *ClassesAnalyzer) Process(ctx Context, ar *archive.Archive) {
	for _, e := range ar.Entries() {
		if !isClassFileEntry(e.Name) {
			continue
		}
		units := a.classes[e.Name]
		if units == nil {
			units = map[model.ArchiveUnit]struct{}{}
			a.classes[e.Name] = units
		}
		units[ctx.Unit.Key()] = struct{}{}
	}
}

// Owners returns the archives containing the class file name, in order.
func (a *ClassesAnalyzer) Owners(name string) []model.ArchiveUnit {
	return model.SortedKeys(a.classes[name])
}

func (a *ClassesAnalyzer) Finish() error {
	names := make([]string, 0, len(a.classes))
	for name := range a.classes {
		names = append(names, name)
	}
	slices.Sort(names)

	return a.write(func(r *rows) {
		r.add("JAR", "GAV", "Module", "Class", "Number of classes references in all JARs")
		for _, name := range names {
			owners := model.SortedKeys(a.classes[name])
			if a.duplicatesOnly && len(owners) < 2 {
				continue
			}
			for _, unit := range owners {
				r.add(unit.String(), a.maven.GAVString(unit), a.module.DescriptorString(unit), name,
					strconv.Itoa(len(owners)))
			}
		}
	})
}
