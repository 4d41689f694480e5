// Package config resolves the jarinspect settings from defaults, environment
// variables, an optional config file and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/StinkyLord/jarinspect/internal/locator"
	"github.com/StinkyLord/jarinspect/internal/output"
)

const (
	// EnvPrefix prefixes every environment variable read by jarinspect.
	EnvPrefix = "JARINSPECT"
	// LocalConfigFile is read from the working directory when no config file
	// is given explicitly.
	LocalConfigFile = ".jarinspect.yaml"
)

// Setting keys. Flags carry the same names.
const (
	KeyOutputDirectory  = "output-directory"
	KeyCSVSeparator     = "csv-separator"
	KeyFormat           = "format"
	KeyInclude          = "include"
	KeyExclude          = "exclude"
	KeyDeepScan         = "deep-scan"
	KeyDeepFilter       = "deep-filter"
	KeyTempDir          = "temp-dir"
	KeyAll              = "all"
	KeyMaven            = "maven"
	KeyMavenBash        = "maven-bash"
	KeyJNLPPermissions  = "jnlp-permissions"
	KeyServices         = "services"
	KeyServiceModule    = "service-module"
	KeyServiceFilter    = "service-filter"
	KeyClassPath        = "class-path"
	KeyJavaVersion      = "java-version"
	KeyModule           = "module"
	KeyPackage          = "package"
	KeyDuplicatePackage = "duplicate-package"
	KeyClass            = "class"
	KeyDuplicateClass   = "duplicate-class"
	KeyVerbose          = "verbose"
)

// Config is the resolved configuration of a scan.
type Config struct {
	OutputDirectory string   `mapstructure:"output-directory"`
	CSVSeparator    string   `mapstructure:"csv-separator"`
	Format          string   `mapstructure:"format"`
	Includes        []string `mapstructure:"include"`
	Excludes        []string `mapstructure:"exclude"`
	DeepScan        string   `mapstructure:"deep-scan"`
	DeepFilter      []string `mapstructure:"deep-filter"`
	TempDir         string   `mapstructure:"temp-dir"`

	All              bool     `mapstructure:"all"`
	Maven            bool     `mapstructure:"maven"`
	MavenBash        bool     `mapstructure:"maven-bash"`
	JNLPPermissions  bool     `mapstructure:"jnlp-permissions"`
	Services         bool     `mapstructure:"services"`
	ServiceModule    bool     `mapstructure:"service-module"`
	ServiceFilter    []string `mapstructure:"service-filter"`
	ClassPath        bool     `mapstructure:"class-path"`
	JavaVersion      bool     `mapstructure:"java-version"`
	Module           bool     `mapstructure:"module"`
	Package          bool     `mapstructure:"package"`
	DuplicatePackage bool     `mapstructure:"duplicate-package"`
	Class            bool     `mapstructure:"class"`
	DuplicateClass   bool     `mapstructure:"duplicate-class"`

	Verbose bool `mapstructure:"verbose"`
}

// LoadOptions tells Load where to look besides defaults and environment.
type LoadOptions struct {
	// ConfigFile is an explicit config file; it must exist.
	ConfigFile string
	// Flags are bound on top of every other source when set.
	Flags *pflag.FlagSet
	// Getenv overrides os.Getenv for the locale lookup.
	Getenv func(string) string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return defaultConfig(os.Getenv)
}

func defaultConfig(getenv func(string) string) *Config {
	return &Config{
		OutputDirectory: ".",
		CSVSeparator:    string(DefaultSeparator(getenv)),
		Format:          string(output.FormatCSV),
		DeepScan:        locator.Disabled.String(),
	}
}

// DefaultSeparator returns ';' for locales whose spreadsheets use a decimal
// comma, ',' otherwise.
func DefaultSeparator(getenv func(string) string) rune {
	locale := getenv("LC_ALL")
	if locale == "" {
		locale = getenv("LANG")
	}
	for _, prefix := range []string{"fr_FR", "de_DE"} {
		if strings.HasPrefix(locale, prefix) {
			return ';'
		}
	}
	return ','
}

// Load resolves the configuration. Precedence, highest first: changed flags,
// environment, config file, defaults.
func Load(opts LoadOptions) (*Config, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	v := viper.New()

	defaults := defaultConfig(getenv)
	v.SetDefault(KeyOutputDirectory, defaults.OutputDirectory)
	v.SetDefault(KeyCSVSeparator, defaults.CSVSeparator)
	v.SetDefault(KeyFormat, defaults.Format)
	v.SetDefault(KeyInclude, []string{})
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyDeepScan, defaults.DeepScan)
	v.SetDefault(KeyDeepFilter, []string{})
	v.SetDefault(KeyTempDir, "")
	v.SetDefault(KeyServiceFilter, []string{})
	for _, key := range []string{
		KeyAll, KeyMaven, KeyMavenBash, KeyJNLPPermissions, KeyServices, KeyServiceModule,
		KeyClassPath, KeyJavaVersion, KeyModule, KeyPackage, KeyDuplicatePackage, KeyClass,
		KeyDuplicateClass, KeyVerbose,
	} {
		v.SetDefault(key, false)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	configFile := opts.ConfigFile
	if configFile != "" {
		if !fileExists(configFile) {
			return nil, fmt.Errorf("config file not found: %s", configFile)
		}
	} else if fileExists(LocalConfigFile) {
		configFile = LocalConfigFile
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			if !isKey(f.Name) {
				return
			}
			if err := v.BindPFlag(f.Name, f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isKey(name string) bool {
	_, ok := keys[name]
	return ok
}

var keys = map[string]struct{}{
	KeyOutputDirectory: {}, KeyCSVSeparator: {}, KeyFormat: {}, KeyInclude: {}, KeyExclude: {},
	KeyDeepScan: {}, KeyDeepFilter: {}, KeyTempDir: {}, KeyAll: {}, KeyMaven: {}, KeyMavenBash: {},
	KeyJNLPPermissions: {}, KeyServices: {}, KeyServiceModule: {}, KeyServiceFilter: {},
	KeyClassPath: {}, KeyJavaVersion: {}, KeyModule: {}, KeyPackage: {}, KeyDuplicatePackage: {},
	KeyClass: {}, KeyDuplicateClass: {}, KeyVerbose: {},
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Validate checks the values that cannot be expressed by their type.
func (c *Config) Validate() error {
	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := locator.ParseDeepMode(c.DeepScan); err != nil {
		return err
	}
	if utf8.RuneCountInString(c.CSVSeparator) != 1 {
		return fmt.Errorf("csv separator must be a single character, got %q", c.CSVSeparator)
	}
	return nil
}

// Separator returns the CSV separator. The configuration must be valid.
func (c *Config) Separator() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVSeparator)
	return r
}

// ReportFormat returns the parsed report format. The configuration must be
// valid.
func (c *Config) ReportFormat() output.Format {
	f, _ := output.ParseFormat(c.Format)
	return f
}

// DeepMode returns the parsed deep scan mode. The configuration must be valid.
func (c *Config) DeepMode() locator.DeepMode {
	m, _ := locator.ParseDeepMode(c.DeepScan)
	return m
}

// AnyProcessor reports whether at least one analyzer was requested.
func (c *Config) AnyProcessor() bool {
	return c.All || c.Maven || c.MavenBash || c.JNLPPermissions || c.Services || c.ServiceModule ||
		c.ClassPath || c.JavaVersion || c.Module || c.Package || c.DuplicatePackage || c.Class ||
		c.DuplicateClass
}
