package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/shifthive/capturequeue/pkg/blobstore"
	"github.com/shifthive/capturequeue/pkg/chatclient"
	"github.com/shifthive/capturequeue/pkg/config"
	"github.com/shifthive/capturequeue/pkg/db"
	"github.com/shifthive/capturequeue/pkg/image"
	"github.com/shifthive/capturequeue/pkg/ingress"
	"github.com/shifthive/capturequeue/pkg/logger"
	"github.com/shifthive/capturequeue/pkg/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the chat ingress webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.CoreDisabled() {
				return fmt.Errorf("database-url is not set, refusing to start")
			}

			ctx := cmd.Context()
			if err := db.EnsureSchema(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}

			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			uploader, err := newUploader(ctx, cfg)
			if err != nil {
				return fmt.Errorf("build blobstore uploader: %w", err)
			}

			adapter := ingress.NewAdapter(
				session.New(pool),
				image.New(pool),
				uploader,
				chatclient.NewHTTPFetcher(cfg.ChatClientBaseURL, nil),
			)

			srv := &http.Server{
				Addr:    cfg.IngressListenAddr,
				Handler: ingress.Router(adapter),
			}

			logger.Infow("starting ingress server", "addr", cfg.IngressListenAddr)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case <-ctx.Done():
				logger.Info("shutting down ingress server")
				return srv.Shutdown(context.Background())
			case err := <-errCh:
				if err != nil && err != http.ErrServerClosed {
					return fmt.Errorf("ingress server: %w", err)
				}
				return nil
			}
		},
	}
}

func newUploader(ctx context.Context, cfg *config.Config) (blobstore.Uploader, error) {
	if cfg.BlobstoreBucket != "" {
		return blobstore.NewS3Uploader(ctx, cfg.BlobstoreBucket, cfg.BlobstoreEndpoint)
	}
	dir := cfg.BlobstoreLocalDir
	if dir == "" {
		dir = "./capturequeue-blobs"
	}
	return blobstore.NewLocalUploader(dir)
}
