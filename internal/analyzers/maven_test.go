package analyzers

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/testutil"
)

func TestMaven_SingleGAV(t *testing.T) {
	f := openJar(t, "whatever.jar", testutil.PomProperties("com.x", "lib", "1.0"))
	maven := NewMaven(MavenSilent, nil, nil)
	sink := model.NewErrorSink()

	require.NoError(t, run(t, sink, []Analyzer{maven}, f))

	gav, ok := maven.GAV(f.unit)
	require.True(t, ok)
	assert.Equal(t, model.GAV{GroupID: "com.x", ArtifactID: "lib", Version: "1.0"}, gav)
	assert.Equal(t, "com.x:lib:1.0", maven.GAVString(f.unit))
	assert.True(t, sink.Empty())
}

func TestMaven_LookupIgnoresMaterializedPath(t *testing.T) {
	f := openJar(t, "jarfile-lib-1.0.jar-123.jar", testutil.PomProperties("com.x", "lib", "1.0"))
	f.unit = model.NewNestedArchiveUnit("/srv/app.war", "META-INF/lib/lib-1.0.jar", f.ar.Path())
	maven := NewMaven(MavenSilent, nil, nil)
	module := NewModule(nil, maven)

	require.NoError(t, run(t, model.NewErrorSink(), []Analyzer{maven, module}, f))

	bare := model.NewNestedArchiveUnit("/srv/app.war", "META-INF/lib/lib-1.0.jar", "")
	gav, ok := maven.GAV(bare)
	require.True(t, ok)
	assert.Equal(t, "com.x:lib:1.0", gav.String())
	assert.Equal(t, "com.x:lib:1.0", module.GAVString(bare))
}

func TestMaven_DisambiguatesByFileName(t *testing.T) {
	f := openJar(t, "lib-1.0.jar",
		testutil.PomProperties("com.x", "lib", "1.0"),
		testutil.PomProperties("com.y", "shaded", "2.3"),
	)
	maven := NewMaven(MavenSilent, nil, nil)
	sink := model.NewErrorSink()

	require.NoError(t, run(t, sink, []Analyzer{maven}, f))

	assert.Equal(t, "com.x:lib:1.0", maven.GAVString(f.unit))
	assert.True(t, sink.Empty())
}

func TestMaven_Ambiguous(t *testing.T) {
	cases := map[string]string{
		"both match":    "lib-1.0-lib-2.0.jar",
		"neither match": "bundle.jar",
	}
	for name, file := range cases {
		t.Run(name, func(t *testing.T) {
			f := openJar(t, file,
				testutil.PomProperties("com.x", "lib", "1.0"),
				testutil.PomProperties("com.y", "lib", "2.0"),
			)
			maven := NewMaven(MavenSilent, nil, nil)
			sink := model.NewErrorSink()

			require.NoError(t, run(t, sink, []Analyzer{maven}, f))

			_, ok := maven.GAV(f.unit)
			assert.False(t, ok)
			assert.Equal(t, []string{errAmbiguousGAV}, sink.Messages(f.unit))
		})
	}
}

func TestMaven_IdenticalGAVsCollapse(t *testing.T) {
	f := openJar(t, "fat.jar",
		testutil.PomProperties("com.x", "lib", "1.0"),
		testutil.Text("META-INF/maven/copy/lib/pom.properties", "groupId=com.x\nartifactId=lib\nversion=1.0\n"),
	)
	maven := NewMaven(MavenSilent, nil, nil)
	sink := model.NewErrorSink()

	require.NoError(t, run(t, sink, []Analyzer{maven}, f))
	assert.Equal(t, "com.x:lib:1.0", maven.GAVString(f.unit))
	assert.True(t, sink.Empty())
}

func TestMaven_MissingField(t *testing.T) {
	f := openJar(t, "a.jar", testutil.Text("META-INF/maven/g/a/pom.properties", "groupId=g\nartifactId=a\n"))
	maven := NewMaven(MavenSilent, nil, nil)
	sink := model.NewErrorSink()

	require.NoError(t, run(t, sink, []Analyzer{maven}, f))

	_, ok := maven.GAV(f.unit)
	assert.False(t, ok)
	require.Len(t, sink.Messages(f.unit), 1)
	assert.Contains(t, sink.Messages(f.unit)[0], "missing fields: version")
}

func TestMaven_CSVReport(t *testing.T) {
	a := openJar(t, "a.jar", testutil.PomProperties("com.x", "lib", "1.0"))
	b := openJar(t, "b.jar", testutil.PomProperties("com.x", "lib", "2.0"))
	c := openJar(t, "c.jar", testutil.PomProperties("com.x", "lib", "2.0"))
	report := csvReport(t, "maven")

	require.NoError(t, run(t, model.NewErrorSink(), []Analyzer{NewMaven(MavenCSV, report, nil)}, c, a, b))

	records := readCSV(t, report)
	require.Len(t, records, 4)
	assert.Equal(t, "GAV", records[0][0])

	byFile := map[string][]string{}
	for _, rec := range records[1:] {
		byFile[rec[5]] = rec
	}
	assert.Equal(t, []string{"com.x:lib:1.0", "com.x:lib", "1.0", "3", "1", a.unit.String()}, byFile[a.unit.String()])
	assert.Equal(t, []string{"com.x:lib:2.0", "com.x:lib", "2.0", "3", "2", c.unit.String()}, byFile[c.unit.String()])
}

func TestMaven_Script(t *testing.T) {
	f := openJar(t, "a.jar", testutil.PomProperties("com.x", "lib", "1.0"))
	var out bytes.Buffer

	require.NoError(t, run(t, model.NewErrorSink(), []Analyzer{NewMaven(MavenScript, nil, &out)}, f))

	script := out.String()
	assert.Contains(t, script, "#!/bin/bash\n")
	assert.Contains(t, script, "# 1 artifacts found\n")
	assert.Contains(t, script, "_mvn 'com.x' 'lib' '1.0' '"+f.unit.String()+"'\n")
}
