// Package analyzers holds the analyzers run over every archive unit and the
// pipeline driving them.
package analyzers

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// Analyzer is the interface every analyzer must implement.
//
// Init resets the accumulated state before a run. Process is called once per
// unit and reports recoverable problems through ctx instead of failing.
// Finish is called once after every unit and writes the report, if any.
type Analyzer interface {
	Name() string
	Init()
	Process(ctx Context, ar *archive.Archive)
	Finish() error
}

// Reporter is implemented by analyzers writing a report file.
type Reporter interface {
	Report() *output.Report
}

// Context identifies the unit being processed and collects its errors.
type Context struct {
	Unit   model.ArchiveUnit
	errors *model.ErrorSink
}

// NewContext returns the context of unit. Errors go to sink.
func NewContext(unit model.ArchiveUnit, sink *model.ErrorSink) Context {
	return Context{Unit: unit, errors: sink}
}

// AddError records a message for the unit.
func (c Context) AddError(message string) {
	if c.errors != nil {
		c.errors.Add(c.Unit, message)
	}
}

// AddErrorf records a formatted message for the unit.
func (c Context) AddErrorf(format string, args ...any) {
	c.AddError(fmt.Sprintf(format, args...))
}

// AddErr records err for the unit. A nil error is ignored.
func (c Context) AddErr(err error) {
	if err != nil {
		c.AddError(err.Error())
	}
}

// Pipeline runs analyzers in order.
type Pipeline struct {
	analyzers []Analyzer
	logger    *log.Logger
}

// NewPipeline returns a pipeline running analyzers in the given order.
func NewPipeline(logger *log.Logger, analyzers ...Analyzer) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pipeline{analyzers: analyzers, logger: logger}
}

// Add appends an analyzer.
func (p *Pipeline) Add(a Analyzer) {
	p.analyzers = append(p.analyzers, a)
}

// Len returns the number of analyzers.
func (p *Pipeline) Len() int { return len(p.analyzers) }

// Names returns the analyzer names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.analyzers))
	for _, a := range p.analyzers {
		names = append(names, a.Name())
	}
	return names
}

// Init resets every analyzer.
func (p *Pipeline) Init() {
	p.logger.Debug("initialising analyzers", "analyzers", p.Names())
	for _, a := range p.analyzers {
		a.Init()
	}
}

// Process runs every analyzer over ar. A panicking analyzer is recorded as an
// error for the unit and the next analyzers still run.
func (p *Pipeline) Process(ctx Context, ar *archive.Archive) {
	for _, a := range p.analyzers {
		p.processOne(a, ctx, ar)
	}
}

func (p *Pipeline) processOne(a Analyzer, ctx Context, ar *archive.Archive) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Debug("analyzer panicked", "analyzer", a.Name(), "unit", ctx.Unit, "panic", r)
			ctx.AddErrorf("analyzer %s failed: %v", a.Name(), r)
		}
	}()
	a.Process(ctx, ar)
}

// Finish finishes every analyzer, even after a failure, and returns the
// joined report errors.
func (p *Pipeline) Finish() error {
	var errs []error
	for _, a := range p.analyzers {
		if err := a.Finish(); err != nil {
			errs = append(errs, err)
			continue
		}
		if r, ok := a.(Reporter); ok && r.Report() != nil {
			p.logger.Info("wrote report", "name", r.Report().Name, "path", r.Report().Path)
		}
	}
	return errors.Join(errs...)
}
