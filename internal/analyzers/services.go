package analyzers

import (
	"bufio"
	"bytes"
	"slices"
	"strconv"
	"strings"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

const servicesDirectory = "META-INF/services/"

// Provider sources.
const (
	SourceFile   = "file"
	SourceModule = "module"
)

// Provider is one implementation of a service declared by an archive.
type Provider struct {
	Class   string
	Sources []string
}

// ServicesOptions configures the services analyzer.
type ServicesOptions struct {
	// Services restricts the analysis to these interfaces. Interfaces
	// without providers are reported with a "(none)" row.
	Services []string
	// ModuleOnly ignores META-INF/services files.
	ModuleOnly bool
}

// ServicesAnalyzer aggregates the service providers declared by every
// archive, from META-INF/services files and module descriptors.
type ServicesAnalyzer struct {
	reportSink
	module     *ModuleAnalyzer
	services   []string
	moduleOnly bool
	providers  map[string]map[model.ArchiveUnit][]*Provider
}

// NewServices returns a services analyzer. module provides the descriptors
// read for the "provides" clauses.
func NewServices(report *output.Report, module *ModuleAnalyzer, opts ServicesOptions) *ServicesAnalyzer {
	var services []string
	for _, s := range opts.Services {
		s = strings.TrimSpace(s)
		if s != "" && !slices.Contains(services, s) {
			services = append(services, s)
		}
	}
	return &ServicesAnalyzer{
		reportSink: reportSink{report: report},
		module:     module,
		services:   services,
		moduleOnly: opts.ModuleOnly,
		providers:  map[string]map[model.ArchiveUnit][]*Provider{},
	}
}

func (a *ServicesAnalyzer) Name() string { return "services" }

func (a *ServicesAnalyzer) Init() {
	clear(a.providers)
}

func (a *ServicesAnalyzer) requested(service string) bool {
	return len(a.services) == 0 || slices.Contains(a.services, service)
}

func (a *ServicesAnalyzer) Process(ctx Context, ar *archive.Archive) {
	if !a.moduleOnly {
		for _, e := range ar.Entries() {
			service, ok := serviceOf(e.Name)
			if !ok || !a.requested(service) {
				continue
			}
			classes, err := readServiceFile(ar, e)
			if err != nil {
				ctx.AddErrorf("Failed to read services definition [%s]: %v", service, err)
				continue
			}
			for _, class := range classes {
				a.add(service, ctx.Unit, class, SourceFile)
			}
		}
	}

	d, ok := a.module.Descriptor(ctx.Unit)
	if !ok {
		return
	}
	for _, p := range d.Provides {
		if !a.requested(p.Service) {
			continue
		}
		for _, class := range p.Providers {
			a.add(p.Service, ctx.Unit, class, SourceModule)
		}
	}
}

// serviceOf returns the interface declared by a file directly under
// META-INF/services/.
func serviceOf(name string) (string, bool) {
	service, ok := strings.CutPrefix(name, servicesDirectory)
	if !ok || service == "" || strings.Contains(service, "/") {
		return "", false
	}
	return service, true
}

// readServiceFile returns the provider classes of a services file: one per
// line, '#' starting a comment.
func readServiceFile(ar *archive.Archive, e archive.Entry) ([]string, error) {
	data, err := ar.ReadEntry(e)
	if err != nil {
		return nil, err
	}
	var classes []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			classes = append(classes, line)
		}
	}
	return classes, sc.Err()
}

func (a *ServicesAnalyzer) add(service string, unit model.ArchiveUnit, class, source string) {
	unit = unit.Key()
	units := a.providers[service]
	if units == nil {
		units = map[model.ArchiveUnit][]*Provider{}
		a.providers[service] = units
	}
	for _, p := range units[unit] {
		if p.Class == class {
			if !slices.Contains(p.Sources, source) {
				p.Sources = append(p.Sources, source)
			}
			return
		}
	}
	units[unit] = append(units[unit], &Provider{Class: class, Sources: []string{source}})
}

// Providers returns the providers of service declared by unit.
func (a *ServicesAnalyzer) Providers(service string, unit model.ArchiveUnit) []Provider {
	var out []Provider
	for _, p := range a.providers[service][unit.Key()] {
		out = append(out, Provider{Class: p.Class, Sources: slices.Clone(p.Sources)})
	}
	return out
}

func (a *ServicesAnalyzer) reportedServices() []string {
	if len(a.services) > 0 {
		return a.services
	}
	services := make([]string, 0, len(a.providers))
	for s := range a.providers {
		services = append(services, s)
	}
	slices.Sort(services)
	return services
}

func (a *ServicesAnalyzer) Finish() error {
	return a.write(func(r *rows) {
		r.add("Interface", "Implementation count (Fileset)", "Implementation count (JAR)", "Implementation",
			"Source", "Maven", "Java Module", "JAR")
		for _, service := range a.reportedServices() {
			units := a.providers[service]
			if len(units) == 0 {
				r.add(service, "0", "0", "(none)", "", "", "", "")
				continue
			}
			total := 0
			for _, providers := range units {
				total += len(providers)
			}
			for _, unit := range model.SortedKeys(units) {
				providers := units[unit]
				for _, p := range providers {
					r.add(service, strconv.Itoa(total), strconv.Itoa(len(providers)), p.Class,
						strings.Join(p.Sources, "+"), a.module.GAVString(unit), a.module.DescriptorString(unit),
						unit.String())
				}
			}
		}
	})
}
