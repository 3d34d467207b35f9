package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
)

func sweepCmd(opts *rootOptions) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale partial uploads once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			age := cfg.MaxPartialAge
			if cmd.Flags().Changed("max-age") {
				age = maxAge
			}

			removed, err := uploadsvc.NewJanitor(log.Named("janitor")).Sweep(cfg.TmpDir, age)
			for _, p := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			log.Info("sweep finished", zap.String("dir", cfg.TmpDir), zap.Int("removed", len(removed)))
			return err
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", uploadsvc.DefaultMaxPartialAge, "remove partial uploads older than this")

	return cmd
}
