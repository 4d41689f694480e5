package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StinkyLord/jarinspect/internal/locator"
	"github.com/StinkyLord/jarinspect/internal/output"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String(KeyFormat, "csv", "")
	fs.String(KeyCSVSeparator, ",", "")
	fs.StringArray(KeyInclude, nil, "")
	fs.Bool(KeyMaven, false, "")
	mode := locator.Disabled
	fs.VarP(&mode, KeyDeepScan, "D", "")
	fs.String("config", "", "")
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestDefaultSeparator(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want rune
	}{
		{"unset", nil, ','},
		{"english", map[string]string{"LANG": "en_US.UTF-8"}, ','},
		{"french", map[string]string{"LANG": "fr_FR.UTF-8"}, ';'},
		{"german", map[string]string{"LC_ALL": "de_DE"}, ';'},
		{"lc_all wins", map[string]string{"LC_ALL": "en_GB", "LANG": "de_DE"}, ','},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultSeparator(env(tt.env)))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(LoadOptions{Getenv: env(nil)})
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.OutputDirectory)
	assert.Equal(t, ',', cfg.Separator())
	assert.Equal(t, output.FormatCSV, cfg.ReportFormat())
	assert.Equal(t, locator.Disabled, cfg.DeepMode())
	assert.False(t, cfg.AnyProcessor())
	assert.Empty(t, cfg.Includes)
}

func TestLoad_LocaleSeparator(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(LoadOptions{Getenv: env(map[string]string{"LANG": "fr_FR.UTF-8"})})
	require.NoError(t, err)
	assert.Equal(t, ';', cfg.Separator())
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JARINSPECT_FORMAT", "json")
	t.Setenv("JARINSPECT_JAVA_VERSION", "true")
	t.Setenv("JARINSPECT_DEEP_SCAN", "all")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, output.FormatJSON, cfg.ReportFormat())
	assert.True(t, cfg.JavaVersion)
	assert.True(t, cfg.AnyProcessor())
	assert.Equal(t, locator.All, cfg.DeepMode())
}

func TestLoad_LocalConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	content := "format: yaml\nmaven: true\ninclude:\n  - \"*.jar\"\n  - \"path:lib/\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, LocalConfigFile), []byte(content), 0o644))

	cfg, err := Load(LoadOptions{Getenv: env(nil)})
	require.NoError(t, err)

	assert.Equal(t, output.FormatYAML, cfg.ReportFormat())
	assert.True(t, cfg.Maven)
	assert.Equal(t, []string{"*.jar", "path:lib/"}, cfg.Includes)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("format: yaml\ncsv-separator: \"|\"\n"), 0o644))

	flags := testFlags(t, "--format", "json", "-D", "std", "--include", "a.jar", "--include", "b.jar", "--maven")
	cfg, err := Load(LoadOptions{ConfigFile: file, Flags: flags, Getenv: env(nil)})
	require.NoError(t, err)

	assert.Equal(t, output.FormatJSON, cfg.ReportFormat())
	assert.Equal(t, '|', cfg.Separator(), "unchanged flags do not mask the file")
	assert.Equal(t, locator.Std, cfg.DeepMode())
	assert.Equal(t, []string{"a.jar", "b.jar"}, cfg.Includes)
	assert.True(t, cfg.Maven)
}

func TestLoad_PatternsKeepCommas(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := testFlags(t, "-D", "std", "--include", `^[a-z]{1,3}\.jar$`, "--include", "path:lib/")
	cfg, err := Load(LoadOptions{Flags: flags, Getenv: env(nil)})
	require.NoError(t, err)

	assert.Equal(t, []string{`^[a-z]{1,3}\.jar$`, "path:lib/"}, cfg.Includes)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Format = "xml" }},
		{"deep scan", func(c *Config) { c.DeepScan = "deeper" }},
		{"empty separator", func(c *Config) { c.CSVSeparator = "" }},
		{"long separator", func(c *Config) { c.CSVSeparator = ";;" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(env(nil))
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
