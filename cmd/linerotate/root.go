package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gounknown/linerotate"
	"github.com/gounknown/linerotate/internal/config"
)

const usageTemplate = `Usage: <some_binary> 2>&1 | {{.CommandPath}} [OPTION]...
       {{.CommandPath}} [OPTION]...
Chop log into smaller logs.

{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
`

// reportedError is an error already written to stderr.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// run executes the command line and returns the process exit status.
func run(args []string, stdin io.Reader, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var (
		flagCfg     config.Config
		configPath  string
		metricsFile string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:           "linerotate",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return usageError(cmd, err)
			}
			config.FromEnv(&cfg)
			overlayFlags(cmd.Flags(), &cfg, flagCfg)
			if err := cfg.Validate(); err != nil {
				return usageError(cmd, err)
			}

			logger := newLogger(cmd.ErrOrStderr(), verbose).With(zap.String("run", uuid.NewString()))
			defer func() { _ = logger.Sync() }()

			if err := execute(cfg, logger, cmd.InOrStdin(), metricsFile); err != nil {
				logger.Error("linerotate failed", zap.Error(err))
				return reportedError{err}
			}
			return nil
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.SortFlags = false
	f.BoolVarP(&flagCfg.Append, "append", "a", false, "append existing log output")
	f.BoolVarP(&flagCfg.Datetime, "datetime", "d", false, "add local datetime stamp at the start of each line")
	f.StringVarP(&flagCfg.Filename, "file", "f", d.Filename, "filename to use")
	f.StringVarP(&flagCfg.Input, "input", "i", "", "read input from provided filename instead of stdin")
	f.IntVarP(&flagCfg.MaxLines, "lines", "l", d.MaxLines, "maximum number of lines per file")
	f.IntVarP(&flagCfg.MaxFiles, "files", "n", d.MaxFiles, "maximum number of files to maintain")
	f.BoolVarP(&flagCfg.Epoch, "epoch", "t", false, "add epoch timestamp at the start of each line")
	f.StringVarP(&configPath, "config", "c", "", "read settings from a YAML file")
	f.StringVar(&metricsFile, "metrics-file", "", "write counters in Prometheus text format to this file on exit")
	f.BoolVarP(&verbose, "verbose", "v", false, "log rotations and other debug events")

	cmd.SetUsageTemplate(usageTemplate)
	cmd.SetFlagErrorFunc(usageError)
	return cmd
}

// overlayFlags copies the flags set on the command line onto cfg.
func overlayFlags(fs *pflag.FlagSet, cfg *config.Config, flagCfg config.Config) {
	if fs.Changed("file") {
		cfg.Filename = flagCfg.Filename
	}
	if fs.Changed("lines") {
		cfg.MaxLines = flagCfg.MaxLines
	}
	if fs.Changed("files") {
		cfg.MaxFiles = flagCfg.MaxFiles
	}
	if fs.Changed("append") {
		cfg.Append = flagCfg.Append
	}
	if fs.Changed("datetime") {
		cfg.Datetime = flagCfg.Datetime
	}
	if fs.Changed("epoch") {
		cfg.Epoch = flagCfg.Epoch
	}
	if fs.Changed("input") {
		cfg.Input = flagCfg.Input
	}
}

func usageError(cmd *cobra.Command, err error) error {
	cmd.PrintErrln("Error:", err)
	_ = cmd.Usage()
	return reportedError{err}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		level,
	)
	return zap.New(core)
}

// execute copies the input into the log set described by cfg.
func execute(cfg config.Config, logger *zap.Logger, stdin io.Reader, metricsFile string) error {
	in := stdin
	if cfg.Input != "" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return fmt.Errorf("failed to open input file for reading: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn("failed to close input while exiting", zap.Error(err))
			}
		}()
		in = f
	}

	reg := prometheus.NewRegistry()
	opts := append(cfg.Options(),
		linerotate.WithLogger(logger),
		linerotate.WithRegisterer(reg),
	)
	w, err := linerotate.New(cfg.Filename, opts...)
	if err != nil {
		return err
	}

	_, err = w.ReadFrom(in)
	if cerr := w.Close(); cerr != nil {
		logger.Warn("failed to close output while exiting", zap.Error(cerr))
	}
	if metricsFile != "" {
		if merr := prometheus.WriteToTextfile(metricsFile, reg); merr != nil {
			logger.Warn("failed to write metrics", zap.String("path", metricsFile), zap.Error(merr))
		}
	}
	return err
}
