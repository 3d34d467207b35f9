package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/config"
	"github.com/yourname/upload_lite/internal/logger"
)

// rootOptions — флаги, общие для всех подкоманд.
type rootOptions struct {
	configPath string
	log        logger.Options
}

func main() {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:           "uploadd",
		Short:         "Chunked upload server with atomic commit",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the YAML config (default $CONFIG_PATH or ./config.yaml)")
	opts.log.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		serveCmd(&opts),
		sweepCmd(&opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// setup читает конфигурацию и строит логгер. Явно заданные флаги логгера
// перекрывают значения из конфигурации.
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath, true)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	logOpts := logger.Options{LogEncoding: cfg.LogEncoding, LogLevel: cfg.LogLevel}
	if cmd.Flags().Changed("log-encoding") {
		logOpts.LogEncoding = o.log.LogEncoding
	}
	if cmd.Flags().Changed("log-level") {
		logOpts.LogLevel = o.log.LogLevel
	}

	log, err := logger.NewLogger(logOpts)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
