package archive_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/jarinspect/internal/archive"
	"github.com/StinkyLord/jarinspect/internal/testutil"
)

func entryNames(a *archive.Archive) []string {
	var names []string
	for _, e := range a.Entries() {
		names = append(names, e.Name)
	}
	return names
}

func multiReleaseJar(t *testing.T) string {
	return testutil.WriteZip(t, filepath.Join(t.TempDir(), "mr.jar"),
		testutil.Manifest("Multi-Release", "true"),
		testutil.Class("a/A.class", 52, 0),
		testutil.Class("a/B.class", 52, 0),
		testutil.Text("META-INF/versions/9/", ""),
		testutil.Class("META-INF/versions/9/a/A.class", 53, 0),
		testutil.Class("META-INF/versions/11/a/A.class", 55, 0),
		testutil.Class("META-INF/versions/11/a/C.class", 55, 0),
	)
}

func TestOpen_RawView(t *testing.T) {
	a, err := archive.Open(multiReleaseJar(t))
	require.NoError(t, err)
	defer a.Close()

	assert.True(t, a.IsMultiRelease())
	assert.Equal(t, 0, a.Feature())
	assert.Equal(t, []int{9, 11}, a.Features())
	assert.Contains(t, entryNames(a), "META-INF/versions/11/a/C.class")
	assert.NotContains(t, entryNames(a), "META-INF/versions/9/")
}

func TestOpenVersion_OverlaysUpToFeature(t *testing.T) {
	path := multiReleaseJar(t)

	v9, err := archive.OpenVersion(path, 9)
	require.NoError(t, err)
	defer v9.Close()
	assert.ElementsMatch(t, []string{"META-INF/MANIFEST.MF", "a/A.class", "a/B.class"}, entryNames(v9))
	assertMajor(t, v9, "a/A.class", 53)

	v17, err := archive.OpenVersion(path, 17)
	require.NoError(t, err)
	defer v17.Close()
	assert.ElementsMatch(t, []string{"META-INF/MANIFEST.MF", "a/A.class", "a/B.class", "a/C.class"}, entryNames(v17))
	assertMajor(t, v17, "a/A.class", 55)
	assertMajor(t, v17, "a/B.class", 52)
}

func assertMajor(t *testing.T, a *archive.Archive, name string, major byte) {
	t.Helper()
	e, ok := a.Entry(name)
	require.True(t, ok, name)
	data, err := a.ReadEntry(e)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), 8)
	assert.Equal(t, major, data[7], name)
}

func TestOpen_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jar")
	testutil.WriteZip(t, path)
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := archive.Open(path)
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	m, err := archive.ParseManifest(strings.NewReader(
		"Manifest-Version: 1.0\r\n" +
			"Class-Path: lib/a.jar lib/b.j\r\n" +
			" ar\r\n" +
			"automatic-module-name: com.example.lib\r\n" +
			"\r\n" +
			"Name: com/example/\r\n" +
			"Sealed: true\r\n"))
	require.NoError(t, err)

	cp, ok := m.Get("Class-Path")
	assert.True(t, ok)
	assert.Equal(t, "lib/a.jar lib/b.jar", cp)

	name, ok := m.Get("Automatic-Module-Name")
	assert.True(t, ok)
	assert.Equal(t, "com.example.lib", name)

	_, ok = m.Get("Sealed")
	assert.False(t, ok, "per-entry sections are not main attributes")
}

func TestManifest_Invalid(t *testing.T) {
	_, err := archive.ParseManifest(strings.NewReader(" orphan continuation\n"))
	assert.Error(t, err)
	_, err = archive.ParseManifest(strings.NewReader("no colon here\n"))
	assert.Error(t, err)
}

func TestArchive_NoManifest(t *testing.T) {
	path := testutil.WriteZip(t, filepath.Join(t.TempDir(), "plain.jar"), testutil.Class("A.class", 52, 0))
	a, err := archive.Open(path)
	require.NoError(t, err)
	defer a.Close()

	m, err := a.Manifest()
	assert.NoError(t, err)
	assert.Nil(t, m)
	assert.False(t, a.IsMultiRelease())
	assert.Empty(t, a.Features())
}

func TestReadModuleDescriptor(t *testing.T) {
	info := testutil.ModuleInfo{
		Name:     "com.example.app",
		Version:  "2.1",
		Requires: []string{"java.base", "java.sql"},
		Exports:  []string{"com.example.app.api"},
		Uses:     []string{"com.example.spi.Plugin"},
		Provides: []testutil.Provide{{
			Service:   "java.sql.Driver",
			Providers: []string{"com.example.app.DriverImpl", "com.example.app.OtherDriver"},
		}},
	}

	d, err := archive.ReadModuleDescriptor(bytes.NewReader(info.Bytes()))
	require.NoError(t, err)

	assert.Equal(t, "com.example.app", d.Name)
	assert.Equal(t, "com.example.app@2.1", d.NameAndVersion())
	assert.False(t, d.Automatic)
	assert.Equal(t, []string{"java.base", "java.sql"}, d.Requires)
	assert.Equal(t, []string{"com.example.app.api"}, d.Exports)
	assert.Equal(t, []string{"com.example.spi.Plugin"}, d.Uses)
	require.Len(t, d.Provides, 1)
	assert.Equal(t, "java.sql.Driver", d.Provides[0].Service)
	assert.Equal(t, []string{"com.example.app.DriverImpl", "com.example.app.OtherDriver"}, d.Provides[0].Providers)
}

func TestReadModuleDescriptor_Invalid(t *testing.T) {
	valid := testutil.ModuleInfo{Name: "m"}.Bytes()
	cases := map[string][]byte{
		"empty":       nil,
		"bad magic":   append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, valid[4:]...),
		"truncated":   valid[:len(valid)-3],
		"plain class": testutil.ClassHeader(52, 0),
	}
	for name, data := range cases {
		_, err := archive.ReadModuleDescriptor(bytes.NewReader(data))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, archive.ErrInvalidDescriptor), "%s: %v", name, err)
	}
}

func TestNewAutomaticModule(t *testing.T) {
	d, err := archive.NewAutomaticModule("org.apache.commons.lang3")
	require.NoError(t, err)
	assert.True(t, d.Automatic)
	assert.Equal(t, "org.apache.commons.lang3", d.NameAndVersion())

	for _, bad := range []string{"", "org..x", "1abc", "com.example.class", "with-dash"} {
		_, err := archive.NewAutomaticModule(bad)
		assert.Error(t, err, bad)
	}
}

func TestMount_Walk(t *testing.T) {
	path := testutil.WriteZip(t, filepath.Join(t.TempDir(), "app.ear"),
		testutil.Text("META-INF/application.xml", "<application/>"),
		testutil.Nested(t, "META-INF/lib/a.jar", testutil.Class("A.class", 52, 0)),
		testutil.Nested(t, "web.war", testutil.Class("WEB-INF/classes/B.class", 52, 0)),
	)

	fsys, err := archive.Mount(path)
	require.NoError(t, err)
	defer fsys.Close()

	var names []string
	err = fsys.Walk(func(name string) error {
		names = append(names, name)
		return nil
	}, nil)
	require.NoError(t, err)
	slices.Sort(names)
	assert.Equal(t, []string{"META-INF/application.xml", "META-INF/lib/a.jar", "web.war"}, names)

	rc, err := fsys.Open("META-INF/application.xml")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "<application/>", string(data))
}
