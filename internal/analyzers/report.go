package analyzers

import (
	"fmt"

	"github.com/StinkyLord/jarinspect/internal/output"
)

// reportSink is embedded by analyzers producing a report. A nil report means
// the analyzer only serves other analyzers.
type reportSink struct {
	report *output.Report
}

// Report returns the report file, nil when none is written.
func (s reportSink) Report() *output.Report {
	return s.report
}

// rows writes report rows, keeping the first error.
type rows struct {
	w   output.Writer
	err error
}

func (r *rows) add(fields ...string) {
	if r.err == nil {
		r.err = r.w.WriteRow(fields...)
	}
}

func (s reportSink) write(fill func(r *rows)) error {
	if s.report == nil {
		return nil
	}
	w, err := s.report.Open()
	if err != nil {
		return s.failed(err)
	}
	r := &rows{w: w}
	fill(r)
	if err := w.Close(); r.err == nil {
		r.err = err
	}
	if r.err != nil {
		return s.failed(r.err)
	}
	return nil
}

func (s reportSink) failed(err error) error {
	return fmt.Errorf("could not write report [%s] to [%s]: %w", s.report.Name, s.report.Path, err)
}
