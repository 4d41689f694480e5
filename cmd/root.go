package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/StinkyLord/jarinspect/internal/config"
	"github.com/StinkyLord/jarinspect/internal/locator"
	"github.com/StinkyLord/jarinspect/internal/output"
)

const toolVersion = "1.0.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jarinspect",
		Short: "Java archive inspection tools",
		Long: `jarinspect analyses sets of Java archives (JAR, WAR, EAR) and writes one
report per selected processor:
  • maven             Maven coordinates from META-INF/maven/**/pom.properties
  • module            Java module descriptors and automatic module names
  • services          service providers from META-INF/services and module-info
  • jnlp-permissions  JNLP manifest permissions
  • class-path        manifest Class-Path entries
  • java-version      class file versions per archive
  • package / class   package and class inventories, duplicates across archives`,
		Version:       toolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScanCmd())
	return root
}

func newScanCmd() *cobra.Command {
	scan := &cobra.Command{
		Use:   "scan [flags] <files or directories>...",
		Short: "Analyse Java archives and write reports",
		Long: `Scan the given files and directories for Java archives, run the selected
processors over every archive and write their reports to the output directory.

Examples:
  jarinspect scan --maven --java-version libs/
  jarinspect scan --all -D -O reports app.war
  jarinspect scan --class --deep-scan=ALL app.ear
  jarinspect scan --services --service-filter java.sql.Driver -i 'glob:**/*.jar' .`,
		RunE: runScan,
	}

	defaults := config.DefaultConfig()
	f := scan.Flags()
	f.StringP(config.KeyOutputDirectory, "O", defaults.OutputDirectory, "Directory receiving the reports")
	f.String(config.KeyCSVSeparator, defaults.CSVSeparator, "CSV column separator")
	f.String(config.KeyFormat, defaults.Format, "Report format: "+joinFormats())
	f.StringArrayP(config.KeyInclude, "i", nil,
		"Include pattern for files found in directories (name:, path:, dir:, ext:, glob: selectors)")
	f.StringArrayP(config.KeyExclude, "x", nil, "Exclude pattern for files found in directories")
	mode := defaults.DeepMode()
	f.VarP(&mode, config.KeyDeepScan, "D",
		"Look for archives nested in WAR/EAR files: "+joinModes()+" (STD when given without a value)")
	f.Lookup(config.KeyDeepScan).NoOptDefVal = locator.Std.String()
	f.StringArrayP(config.KeyDeepFilter, "f", nil, "Include pattern for nested archives, matched on their in-archive path")
	f.String(config.KeyTempDir, "", "Directory receiving extracted nested archives")

	f.Bool(config.KeyAll, false, "Enable every processor (duplicate package and class variants)")
	f.Bool(config.KeyMaven, false, "Report Maven coordinates")
	f.Bool(config.KeyMavenBash, false, "Print a bash script deploying every archive with Maven coordinates")
	f.Bool(config.KeyJNLPPermissions, false, "Report JNLP manifest permissions")
	f.Bool(config.KeyServices, false, "Report service providers")
	f.Bool(config.KeyServiceModule, false, "Report service providers declared in module descriptors only")
	f.StringSlice(config.KeyServiceFilter, nil, "Only report these service interfaces")
	f.Bool(config.KeyClassPath, false, "Report manifest Class-Path entries")
	f.Bool(config.KeyJavaVersion, false, "Report class file versions")
	f.Bool(config.KeyModule, false, "Report Java modules")
	f.Bool(config.KeyPackage, false, "Report every package")
	f.Bool(config.KeyDuplicatePackage, false, "Report packages found in more than one archive")
	f.Bool(config.KeyClass, false, "Report every class")
	f.Bool(config.KeyDuplicateClass, false, "Report classes found in more than one archive")

	f.BoolP(config.KeyVerbose, "v", false, "Enable verbose output")
	f.String("config", "", "Config file (default "+config.LocalConfigFile+" when present)")
	return scan
}

func joinFormats() string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func joinModes() string {
	names := make([]string, len(locator.Modes))
	for i, m := range locator.Modes {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

// Execute runs the root command and exits with status 1 on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
