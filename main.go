package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/config"
	"github.com/ybj/termfolio/internal/contact"
	"github.com/ybj/termfolio/internal/content"
	"github.com/ybj/termfolio/internal/logging"
	"github.com/ybj/termfolio/internal/store"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "termfolio",
	Short: "Terminal-themed portfolio site",
	Long: `termfolio serves a single-page, retro terminal styled portfolio rendered
from a JSONC or YAML fixture, with an HTMX contact form and a small
privacy-conscious admin dashboard.

Run "termfolio serve" to start the site.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.New(), cfgFile)
		if err != nil {
			return err
		}
		if errs := cfg.Validate(); len(errs) > 0 {
			return fmt.Errorf("invalid configuration: %w", errs)
		}

		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if cfg.Server.Mode == gin.DebugMode {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(visitsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRepository opens the configured database and applies migrations.
func openRepository() (*store.Repository, error) {
	repo, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return repo, nil
}

// newContactService wires the configured transport to the outbox.
func newContactService(outbox contact.Outbox) *contact.Service {
	cc := cfg.Contact
	notifier := contact.NewNotifier(cc.Transport, cc.WebhookURL, cc.Timeout(), contact.SMTP{
		Host:     cc.SMTP.Host,
		Port:     cc.SMTP.Port,
		Username: cc.SMTP.Username,
		Password: cc.SMTP.Password,
		To:       cc.SMTP.To,
	})
	if notifier == nil {
		logger.Warn("Contact delivery not configured; submissions will be stored only",
			zap.String("transport", cc.Transport))
	} else {
		logger.Info("Contact delivery configured", zap.String("transport", notifier.Name()))
	}
	return contact.NewService(outbox, notifier, cc.MaxAttempts, logger)
}

// loadContent loads and validates the fixture.
func loadContent() (*content.Store, error) {
	s, err := content.NewStore(cfg.Content.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("loading content: %w", err)
	}
	return s, nil
}
