package analyzers

import (
	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// ModuleAnalyzer finds the Java module of each archive: the compiled
// module-info.class, else the Automatic-Module-Name manifest attribute.
type ModuleAnalyzer struct {
	reportSink
	maven       *MavenAnalyzer
	descriptors map[model.ArchiveUnit]*archive.ModuleDescriptor
}

// NewModule returns a module analyzer. report may be nil when only other
// analyzers consume the descriptors.
func NewModule(report *output.Report, maven *MavenAnalyzer) *ModuleAnalyzer {
	return &ModuleAnalyzer{
		reportSink:  reportSink{report: report},
		maven:       maven,
		descriptors: map[model.ArchiveUnit]*archive.ModuleDescriptor{},
	}
}

func (a *ModuleAnalyzer) Name() string { return "module" }

func (a *ModuleAnalyzer) Init() {
	clear(a.descriptors)
}

func (a *ModuleAnalyzer) Process(ctx Context, ar *archive.Archive) {
	if e, ok := ar.Entry(archive.ModuleInfoName); ok {
		rc, err := ar.Open(e)
		if err != nil {
			ctx.AddErrorf("Failed to read module-info definition: %v", err)
			return
		}
		defer rc.Close()
		d, err := archive.ReadModuleDescriptor(rc)
		if err != nil {
			ctx.AddErrorf("Failed to read module-info definition: %v", err)
			return
		}
		a.descriptors[ctx.Unit.Key()] = d
		return
	}

	m, err := ar.Manifest()
	if err != nil {
		ctx.AddErr(err)
		return
	}
	name, ok := m.Get("Automatic-Module-Name")
	if !ok {
		return
	}
	d, err := archive.NewAutomaticModule(name)
	if err != nil {
		ctx.AddErr(err)
		return
	}
	a.descriptors[ctx.Unit.Key()] = d
}

// Descriptor returns the module of unit.
func (a *ModuleAnalyzer) Descriptor(unit model.ArchiveUnit) (*archive.ModuleDescriptor, bool) {
	if a == nil {
		return nil, false
	}
	d, ok := a.descriptors[unit.Key()]
	return d, ok
}

// DescriptorString returns "name@version", suffixed with " (automatic)" for
// automatic modules, or "" when unit has no module.
func (a *ModuleAnalyzer) DescriptorString(unit model.ArchiveUnit) string {
	d, ok := a.Descriptor(unit)
	if !ok {
		return ""
	}
	if d.Automatic {
		return d.NameAndVersion() + " (automatic)"
	}
	return d.NameAndVersion()
}

// GAVString returns the coordinates of unit, when a Maven analyzer is wired.
func (a *ModuleAnalyzer) GAVString(unit model.ArchiveUnit) string {
	if a == nil {
		return ""
	}
	return a.maven.GAVString(unit)
}

func (a *ModuleAnalyzer) Finish() error {
	return a.write(func(r *rows) {
		r.add("Module and Version", "Automatic", "Maven GAV", "File")
		for _, unit := range model.SortedKeys(a.descriptors) {
			d := a.descriptors[unit]
			automatic := "No"
			if d.Automatic {
				automatic = "Yes"
			}
			r.add(d.NameAndVersion(), automatic, a.maven.GAVString(unit), unit.String())
		}
	})
}
