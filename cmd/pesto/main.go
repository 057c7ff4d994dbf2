package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/config"
	logpkg "github.com/kailas-cloud/pesto/internal/logger"
	"github.com/kailas-cloud/pesto/internal/metrics"
)

// app carries what every subcommand needs once the root has initialized.
type app struct {
	configPath string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
	runID  string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pesto",
		Short: "Query, filter and render Pesto database dumps",
		Long: `pesto downloads document dumps from a Pesto server, filters them with a
compact expression language and renders every surviving document to a file
through a template.

Filter expressions:
  status=published     views__gte=100     tags__in=launch     title
Operators: exact iexact ne gt gte lt lte in exists`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file (default config/$ENV.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newDownloadCmd(a),
		newFilterCmd(a),
		newBuildCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init(context.Context) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath, false)
	} else {
		a.cfg, err = config.Load(config.GetEnv())
	}
	if err != nil {
		return err
	}

	level := a.cfg.Logging.Level
	if a.verbose {
		level = "debug"
	}
	if a.logger == nil {
		l, err := logpkg.NewLogger(loggerEnv(), level)
		if err != nil {
			return err
		}
		a.logger = l
	}
	a.logger, a.runID = logpkg.WithRunID(a.logger)

	metrics.RegisterPipelineMetrics()
	return nil
}

func loggerEnv() string {
	switch env := config.GetEnv(); env {
	case "prod", "dev", "docker":
		return env
	default:
		return "local"
	}
}

// exportMetrics writes the textfile configured for batch runs, if any.
func (a *app) exportMetrics() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("Failed to export metrics", zap.Error(err))
	}
}
