// Package scanner drives the analyzer pipeline over the discovered archive
// units, expanding multi-release archives into one view per feature version.
package scanner

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/StinkyLord/jarinspect/internal/analyzers"
	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
)

// Result holds the units the pipeline processed, multi-release views
// included, and the errors recorded for them.
type Result struct {
	Units  []model.ArchiveUnit
	Errors *model.ErrorSink
}

// Scanner runs a pipeline over archive units.
type Scanner struct {
	Pipeline *analyzers.Pipeline
	Errors   *model.ErrorSink
	Logger   *log.Logger
}

// New creates a Scanner. Errors are recorded in sink.
func New(pipeline *analyzers.Pipeline, sink *model.ErrorSink, logger *log.Logger) *Scanner {
	if sink == nil {
		sink = model.NewErrorSink()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scanner{Pipeline: pipeline, Errors: sink, Logger: logger}
}

// Scan initialises the pipeline, processes units in order and finishes the
// pipeline. The returned error only reports report-writing failures; archive
// failures are recorded in the result errors.
func (s *Scanner) Scan(units []model.ArchiveUnit) (*Result, error) {
	result := &Result{Errors: s.Errors}

	s.Pipeline.Init()
	for i, unit := range units {
		s.Logger.Info("processing file", "file", unit, "progress", progress(i+1, len(units)))
		result.Units = append(result.Units, s.process(unit)...)
	}
	if err := s.Pipeline.Finish(); err != nil {
		return result, err
	}
	return result, nil
}

func progress(done, total int) string {
	if total == 0 {
		return "100%"
	}
	return fmt.Sprintf("%d%%", done*100/total)
}

// process analyses one unit. A multi-release archive is analysed once in its
// base view, then once per feature version found under META-INF/versions/.
func (s *Scanner) process(unit model.ArchiveUnit) []model.ArchiveUnit {
	ar, err := archive.Open(unit.MaterializedPath)
	if err != nil {
		s.Errors.AddError(unit, err)
		return nil
	}
	if !ar.IsMultiRelease() {
		s.Pipeline.Process(analyzers.NewContext(unit, s.Errors), ar)
		ar.Close()
		return []model.ArchiveUnit{unit}
	}

	base := unit.AsMultiRelease()
	features := ar.Features()
	s.Logger.Debug("multi-release archive", "file", unit, "features", features)
	s.Pipeline.Process(analyzers.NewContext(base, s.Errors), ar)
	ar.Close()

	processed := []model.ArchiveUnit{base}
	for _, feature := range features {
		view := unit.AsFeature(feature)
		versioned, err := archive.OpenVersion(unit.MaterializedPath, feature)
		if err != nil {
			s.Errors.AddError(view, err)
			continue
		}
		s.Pipeline.Process(analyzers.NewContext(view, s.Errors), versioned)
		versioned.Close()
		processed = append(processed, view)
	}
	return processed
}
