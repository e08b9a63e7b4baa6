package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ybj/termfolio/internal/contact"
	"github.com/ybj/termfolio/internal/store"
	"github.com/ybj/termfolio/internal/web"
)

// visitPruneInterval is how often the retention window is applied while serving.
const visitPruneInterval = 6 * time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the portfolio site",
	Long: `Serve the portfolio over HTTP.

Alongside the server this runs the fixture watcher (content.watch), the
contact redelivery loop (contact.retry_interval_seconds) and the visit
retention cleanup (tracking.retention_days). SIGINT or SIGTERM shuts
everything down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pages, err := loadContent()
	if err != nil {
		return err
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	contactSvc := newContactService(repo)

	srv, err := web.New(web.Options{
		Config:  cfg,
		Content: pages,
		Contact: contactSvc,
		Repo:    repo,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	logger.Info("Admin access available at: /admin/login")
	if cfg.Admin.Password == "admin123" {
		logger.Warn("Using default admin password. Set ADMIN_PASSWORD or TERMFOLIO_ADMIN_PASSWORD.")
	}
	if cfg.Tracking.Enabled {
		logger.Info("Privacy: visitor tracking enabled with hashed IP addresses",
			zap.Int("retention_days", cfg.Tracking.RetentionDays))
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(ctx)
	})

	if cfg.Content.Watch {
		g.Go(func() error {
			return pages.Watch(ctx)
		})
	}

	retrier := contact.NewRetrier(contactSvc, cfg.Contact.RetryInterval(), cfg.Contact.Timeout(), logger)
	g.Go(func() error {
		return retrier.Run(ctx)
	})

	if cfg.Tracking.Enabled {
		g.Go(func() error {
			return pruneVisitsLoop(ctx, repo)
		})
	}

	return g.Wait()
}

// pruneVisitsLoop applies the retention window at startup and then
// periodically until ctx is done.
func pruneVisitsLoop(ctx context.Context, repo *store.Repository) error {
	ticker := time.NewTicker(visitPruneInterval)
	defer ticker.Stop()

	for {
		if _, err := pruneVisits(ctx, repo); err != nil {
			logger.Error("Error cleaning up old visitor data", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pruneVisits deletes visits older than the retention window.
func pruneVisits(ctx context.Context, repo *store.Repository) (int64, error) {
	cutoff := time.Now().Add(-cfg.Tracking.Retention())
	removed, err := repo.PruneVisits(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logger.Info("Privacy cleanup: removed expired visitor records",
			zap.Int64("removed", removed),
			zap.Int("retention_days", cfg.Tracking.RetentionDays))
	}
	return removed, nil
}
