package cmd

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/StinkyLord/jarinspect/internal/analyzers"
	"github.com/StinkyLord/jarinspect/internal/config"
	"github.com/StinkyLord/jarinspect/internal/output"
)

// Report names, without extension.
const (
	reportMaven             = "maven"
	reportModules           = "java-modules"
	reportServices          = "services"
	reportServicesModule    = "services-module-only"
	reportJNLP              = "jnlp-permissions"
	reportClassPath         = "class-path"
	reportJavaVersion       = "java-version"
	reportPackages          = "package"
	reportDuplicatePackages = "duplicate-package"
	reportClasses           = "class"
	reportDuplicateClasses  = "duplicate-class"
)

// selection lists the processors a configuration asks for, with --all
// expanded.
type selection struct {
	maven, mavenBash, module     bool
	services, serviceModule      bool
	jnlp, classPath, javaVersion bool
	packages, duplicatePackages  bool
	classes, duplicateClasses    bool
}

func selectProcessors(cfg *config.Config) selection {
	return selection{
		maven:             cfg.Maven || cfg.All,
		mavenBash:         cfg.MavenBash,
		module:            cfg.Module || cfg.All,
		services:          cfg.Services || cfg.All,
		serviceModule:     cfg.ServiceModule,
		jnlp:              cfg.JNLPPermissions || cfg.All,
		classPath:         cfg.ClassPath || cfg.All,
		javaVersion:       cfg.JavaVersion || cfg.All,
		packages:          cfg.Package,
		duplicatePackages: cfg.DuplicatePackage || (cfg.All && !cfg.Package),
		classes:           cfg.Class,
		duplicateClasses:  cfg.DuplicateClass || (cfg.All && !cfg.Class),
	}
}

func (s selection) needsMaven() bool {
	return s.maven || s.mavenBash || s.module || s.javaVersion || s.needsModule()
}

func (s selection) needsModule() bool {
	return s.module || s.services || s.serviceModule ||
		s.packages || s.duplicatePackages || s.classes || s.duplicateClasses
}

// buildPipeline assembles the analyzers of cfg, producers before consumers.
// Maven and module analyzers are added without a report when only other
// analyzers need their data. Script output goes to out.
func buildPipeline(cfg *config.Config, out io.Writer, logger *log.Logger) *analyzers.Pipeline {
	sel := selectProcessors(cfg)
	report := func(name string) *output.Report {
		return output.NewReport(cfg.OutputDirectory, name, cfg.ReportFormat(), cfg.Separator())
	}
	pipeline := analyzers.NewPipeline(logger)

	var maven *analyzers.MavenAnalyzer
	switch {
	case sel.maven:
		maven = analyzers.NewMaven(analyzers.MavenCSV, report(reportMaven), out)
	case sel.mavenBash:
		maven = analyzers.NewMaven(analyzers.MavenScript, nil, out)
	case sel.needsMaven():
		maven = analyzers.NewMaven(analyzers.MavenSilent, nil, out)
	}
	if maven != nil {
		pipeline.Add(maven)
	}
	if sel.maven && sel.mavenBash {
		pipeline.Add(analyzers.NewMaven(analyzers.MavenScript, nil, out))
	}

	var module *analyzers.ModuleAnalyzer
	switch {
	case sel.module:
		module = analyzers.NewModule(report(reportModules), maven)
	case sel.needsModule():
		module = analyzers.NewModule(nil, maven)
	}
	if module != nil {
		pipeline.Add(module)
	}

	if sel.services {
		pipeline.Add(analyzers.NewServices(report(reportServices), module,
			analyzers.ServicesOptions{Services: cfg.ServiceFilter}))
	}
	if sel.serviceModule {
		pipeline.Add(analyzers.NewServices(report(reportServicesModule), module,
			analyzers.ServicesOptions{Services: cfg.ServiceFilter, ModuleOnly: true}))
	}
	if sel.jnlp {
		pipeline.Add(analyzers.NewJNLP(report(reportJNLP)))
	}
	if sel.classPath {
		pipeline.Add(analyzers.NewClassPath(report(reportClassPath)))
	}
	if sel.javaVersion {
		pipeline.Add(analyzers.NewJavaVersion(report(reportJavaVersion), maven))
	}
	if sel.packages {
		pipeline.Add(analyzers.NewPackages(report(reportPackages), false, maven, module))
	}
	if sel.duplicatePackages {
		pipeline.Add(analyzers.NewPackages(report(reportDuplicatePackages), true, maven, module))
	}
	if sel.classes {
		pipeline.Add(analyzers.NewClasses(report(reportClasses), false, maven, module))
	}
	if sel.duplicateClasses {
		pipeline.Add(analyzers.NewClasses(report(reportDuplicateClasses), true, maven, module))
	}
	return pipeline
}
