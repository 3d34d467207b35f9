package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourname/upload_lite/internal/app/uploadhttp"
	"github.com/yourname/upload_lite/internal/repo/meta"
	"github.com/yourname/upload_lite/internal/usecase/uploadsvc"
)

const shutdownTimeout = 15 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload HTTP server and the periodic janitor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			for _, dir := range []string{cfg.TargetDir, cfg.TmpDir} {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := meta.Open(ctx, cfg.MetaDSN)
			if err != nil {
				return err
			}
			defer store.Close()

			handler, srv, err := uploadhttp.NewServer(cfg, uploadhttp.Deps{
				Uploads: uploadsvc.New(uploadsvc.Deps{Logger: log.Named("uploadsvc")}),
				Store:   store,
				Logger:  log.Named("uploadhttp"),
			})
			if err != nil {
				return err
			}

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           handler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening",
					zap.String("addr", cfg.ListenAddr),
					zap.String("target_dir", cfg.TargetDir),
					zap.String("tmp_dir", cfg.TmpDir),
					zap.Duration("max_partial_age", cfg.MaxPartialAge),
					zap.Duration("gc_interval", cfg.GCInterval),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return srv.StartGC(gctx)
			})
			// Сценарий graceful shutdown при получении SIGTERM/SIGINT или падении соседа.
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Warn("shutdown error", zap.Error(err))
				}
				return nil
			})

			err = g.Wait()
			log.Info("stopped")
			return err
		},
	}
}
