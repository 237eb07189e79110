// Hybrid Image Generator - command line interface
// Builds hybrid images from two pictures, multi-scale morph composites and
// ad-hoc filter chains.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hybrid-image-generator/internal/config"
	"hybrid-image-generator/internal/pipeline"
)

const (
	AppName    = "hybridgen"
	AppVersion = "1.0.0"
)

// app carries state shared by every subcommand once flags are parsed.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *logrus.Logger
	debugger   *pipeline.Debugger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newApp() *app {
	return &app{cfg: config.Default(), logger: logrus.New()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           AppName,
		Short:         "Generate hybrid images and multi-scale morph composites",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	a.cfg.BindGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		newHybridCmd(a),
		newMorphCmd(a),
		newFilterCmd(a),
		newOpsCmd(),
	)
	return root
}

// setup merges the configuration file under explicit flags and builds the
// logger and debugger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		file, err := config.Load(a.configPath)
		if err != nil {
			return a.fail(err)
		}
		a.cfg.MergeFile(file, cmd.Flags())
	}
	if err := a.cfg.Validate(); err != nil {
		return a.fail(err)
	}

	a.logger = initLogger(a.cfg.Debug)
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.debugger = pipeline.NewDebugger(a.logger, a.cfg.Debug)

	a.logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"command":    cmd.Name(),
		"debug_mode": a.cfg.Debug,
	}).Debug("Starting Hybrid Image Generator")
	return nil
}

// fail logs err and returns it, since cobra error printing is silenced.
func (a *app) fail(err error) error {
	a.logger.WithError(err).Error("Command failed")
	return err
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
