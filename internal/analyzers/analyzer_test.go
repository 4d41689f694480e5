package analyzers

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
	"github.com/StinkyLord/jarinspect/internal/testutil"
)

// fixture is an opened archive and its unit.
type fixture struct {
	unit model.ArchiveUnit
	ar   *archive.Archive
}

func openJar(t *testing.T, name string, files ...testutil.File) fixture {
	t.Helper()
	path := testutil.WriteZip(t, filepath.Join(t.TempDir(), name), files...)
	ar, err := archive.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { ar.Close() })
	return fixture{unit: model.NewArchiveUnit(path), ar: ar}
}

// run drives analyzers over fixtures the way the scanner does.
func run(t *testing.T, sink *model.ErrorSink, analyzers []Analyzer, fixtures ...fixture) error {
	t.Helper()
	p := NewPipeline(nil, analyzers...)
	p.Init()
	for _, f := range fixtures {
		p.Process(NewContext(f.unit, sink), f.ar)
	}
	return p.Finish()
}

func readCSV(t *testing.T, r *output.Report) [][]string {
	t.Helper()
	f, err := os.Open(r.Path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func csvReport(t *testing.T, name string) *output.Report {
	return output.NewReport(t.TempDir(), name, output.FormatCSV, ',')
}

type recorder struct {
	name     string
	inits    int
	seen     []model.ArchiveUnit
	finished bool
	err      error
	panics   bool
}

func (r *recorder) Name() string { return r.name }
func (r *recorder) Init() { r.inits++ }
func (r *recorder) Process(ctx Context, _ *archive.Archive) {
	if r.panics {
		panic("boom")
	}
	r.seen = append(r.seen, ctx.Unit)
}
func (r *recorder) Finish() error {
	r.finished = true
	return r.err
}

func TestPipeline_IsolatesPanics(t *testing.T) {
	f := openJar(t, "a.jar", testutil.Class("A.class", 52, 0))
	bad := &recorder{name: "bad", panics: true}
	good := &recorder{name: "good"}
	sink := model.NewErrorSink()

	require.NoError(t, run(t, sink, []Analyzer{bad, good}, f))

	assert.Equal(t, 1, good.inits)
	assert.Equal(t, []model.ArchiveUnit{f.unit}, good.seen)
	assert.Equal(t, []string{"analyzer bad failed: boom"}, sink.Messages(f.unit))
}

func TestPipeline_FinishJoinsErrors(t *testing.T) {
	first := &recorder{name: "first", err: errors.New("disk full")}
	second := &recorder{name: "second"}
	third := &recorder{name: "third", err: errors.New("read-only")}

	err := run(t, model.NewErrorSink(), []Analyzer{first, second, third})
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.ErrorContains(t, err, "read-only")
	assert.True(t, second.finished, "a failing analyzer must not prevent the others from finishing")
}

func TestPipeline_Names(t *testing.T) {
	p := NewPipeline(nil, NewMaven(MavenSilent, nil, nil))
	p.Add(NewClassPath(nil))
	assert.Equal(t, []string{"maven", "class-path"}, p.Names())
	assert.Equal(t, 2, p.Len())
}

func TestReportSink_WrapsWriteFailures(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	report := output.NewReport(filepath.Join(blocker, "sub"), "class-path", output.FormatCSV, ',')

	err := run(t, model.NewErrorSink(), []Analyzer{NewClassPath(report)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not write report [class-path] to [")
}

func TestContext_AddErr(t *testing.T) {
	sink := model.NewErrorSink()
	unit := model.NewArchiveUnit("/x/a.jar")
	ctx := NewContext(unit, sink)
	ctx.AddErr(nil)
	ctx.AddErr(errors.New("bad"))
	ctx.AddErrorf("entry %s", "x")
	assert.Equal(t, []string{"bad", "entry x"}, sink.Messages(unit))
}
