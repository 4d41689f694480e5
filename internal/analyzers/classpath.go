package analyzers

import (
	"strings"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// Class-Path status of an archive.
const (
	ClassPathAbsent  = "Absent"
	ClassPathEmpty   = "Empty"
	ClassPathPresent = "Present"
)

// ClassPathAnalyzer reports the Class-Path manifest attribute of every archive.
type ClassPathAnalyzer struct {
	reportSink
	entries map[model.ArchiveUnit][]string
	present map[model.ArchiveUnit]bool
}

// NewClassPath returns a Class-Path analyzer.
func NewClassPath(report *output.Report) *ClassPathAnalyzer {
	return &ClassPathAnalyzer{
		reportSink: reportSink{report: report},
		entries:    map[model.ArchiveUnit][]string{},
		present:    map[model.ArchiveUnit]bool{},
	}
}

func (a *ClassPathAnalyzer) Name() string { return "class-path" }

func (a *ClassPathAnalyzer) Init() {
	clear(a.entries)
	clear(a.present)
}

func (a *ClassPathAnalyzer) Process(ctx Context, ar *archive.Archive) {
	a.present[ctx.Unit.Key()] = false
	m, err := ar.Manifest()
	if err != nil {
		ctx.AddErr(err)
		return
	}
	cp, ok := m.Get("Class-Path")
	if !ok {
		return
	}
	a.present[ctx.Unit.Key()] = true
	a.entries[ctx.Unit.Key()] = strings.Fields(cp)
}

// Status returns the Class-Path status of unit and its entries.
func (a *ClassPathAnalyzer) Status(unit model.ArchiveUnit) (string, []string) {
	switch {
	case !a.present[unit.Key()]:
		return ClassPathAbsent, nil
	case len(a.entries[unit.Key()]) == 0:
		return ClassPathEmpty, nil
	default:
		return ClassPathPresent, a.entries[unit.Key()]
	}
}

func (a *ClassPathAnalyzer) Finish() error {
	return a.write(func(r *rows) {
		r.add("File", "Class-Path Status", "Entry")
		for _, unit := range model.SortedKeys(a.present) {
			status, entries := a.Status(unit)
			if status != ClassPathPresent {
				r.add(unit.String(), status, "")
				continue
			}
			for _, e := range entries {
				r.add(unit.String(), status, e)
			}
		}
	})
}
