package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/jarinspect/internal/fingerprints"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/testutil"
)

func TestJavaVersion_Classification(t *testing.T) {
	f := openJar(t, "mixed.jar",
		testutil.Class("a/A.class", 52, 0),
		testutil.Class("a/B.class", 52, 0),
		testutil.Class("a/C.class", 61, 0),
		testutil.Class("a/D.class", 52, 7),
		testutil.File{Name: "a/E.class", Data: []byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 52}},
		testutil.File{Name: "a/F.class", Data: []byte{0xCA, 0xFE}},
		testutil.Text("a/readme.txt", "not a class"),
	)
	a := NewJavaVersion(nil, nil)
	sink := model.NewErrorSink()

	require.NoError(t, run(t, sink, []Analyzer{a}, f))

	assert.Equal(t, 2, a.Count(f.unit, fingerprints.MatchRelease(52, 0)))
	assert.Equal(t, "Java 8", fingerprints.MatchRelease(52, 0).Name)
	assert.Equal(t, 1, a.Count(f.unit, fingerprints.MatchRelease(61, 0)))
	assert.Equal(t, 1, a.Count(f.unit, fingerprints.Unrecognized))
	assert.Equal(t, 2, a.Count(f.unit, fingerprints.ParseError), "bad magic and short header are parse errors")
	assert.Len(t, sink.Messages(f.unit), 2)
}

func TestJavaVersion_Report(t *testing.T) {
	f := openJar(t, "lib-1.0.jar",
		testutil.PomProperties("com.x", "lib", "1.0"),
		testutil.Class("a/C.class", 61, 0),
		testutil.Class("a/A.class", 52, 0),
	)
	maven := NewMaven(MavenSilent, nil, nil)
	report := csvReport(t, "java-version")

	require.NoError(t, run(t, model.NewErrorSink(), []Analyzer{maven, NewJavaVersion(report, maven)}, f))

	assert.Equal(t, [][]string{
		{"JAR", "Maven GAV", "Java Version", "Files in JAR"},
		{f.unit.String(), "com.x:lib:1.0", "Java 8", "1"},
		{f.unit.String(), "com.x:lib:1.0", "Java 17", "1"},
	}, readCSV(t, report))
}
