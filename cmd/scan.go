package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/StinkyLord/jarinspect/internal/config"
	"github.com/StinkyLord/jarinspect/internal/locator"
	"github.com/StinkyLord/jarinspect/internal/model"
	"github.com/StinkyLord/jarinspect/internal/output"
	"github.com/StinkyLord/jarinspect/internal/scanner"
)

var errNothingToDo = errors.New("no processors registered and no files registered; use --help for usage")

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: "jarinspect", Level: level})
}

func runScan(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}

	if !cfg.AnyProcessor() || len(args) == 0 {
		return errNothingToDo
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	logger.Debug("jarinspect", "version", toolVersion)

	pipeline := buildPipeline(cfg, cmd.OutOrStdout(), logger)
	logger.Debug("processors", "names", pipeline.Names())

	sink := model.NewErrorSink()
	loc, err := locator.New(locator.Options{
		Mode:         cfg.DeepMode(),
		Includes:     cfg.Includes,
		Excludes:     cfg.Excludes,
		DeepIncludes: cfg.DeepFilter,
		TempDir:      cfg.TempDir,
		Errors:       sink,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}
	defer loc.Close()

	loc.AddFileset(args)
	units := loc.Units()
	logger.Info("found archives", "count", len(units), "mode", cfg.DeepMode())

	result, scanErr := scanner.New(pipeline, sink, logger).Scan(units)
	logger.Info("scan complete", "processed", len(result.Units), "errors", sink.Len())

	if !sink.Empty() {
		if err := output.WriteErrors(cmd.ErrOrStderr(), sink); err != nil {
			logger.Warn("could not print errors", "err", err)
		}
	}
	if scanErr != nil {
		return fmt.Errorf("report failed: %w", scanErr)
	}
	return nil
}
