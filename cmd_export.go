package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yosssi/gohtml"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/web"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render the portfolio to static files",
	Long: `Render the portfolio page to a static index.html with its stylesheets.

The output works on any static host. The contact form, HTMX fragments and
admin pages need the running server and are not exported.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "dist", "Output directory")
}

// exportFiles maps server paths to output files.
var exportFiles = []struct {
	path string
	file string
	html bool
}{
	{"/", "index.html", true},
	{"/static/site.css", "static/site.css", false},
	{"/static/animations.css", "static/animations.css", false},
}

func runExport(cmd *cobra.Command, args []string) error {
	pages, err := loadContent()
	if err != nil {
		return err
	}

	// Rendering must not record visits or compress output.
	exportCfg := *cfg
	exportCfg.Tracking.Enabled = false
	exportCfg.Server.Compress = false

	srv, err := web.New(web.Options{
		Config:  &exportCfg,
		Content: pages,
		Contact: newContactService(nil),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	for _, f := range exportFiles {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, f.path, nil))
		if rec.Code != http.StatusOK {
			return fmt.Errorf("rendering %s: status %d", f.path, rec.Code)
		}

		body := rec.Body.Bytes()
		if f.html {
			body = gohtml.FormatBytes(body)
		}

		dst := filepath.Join(exportOut, filepath.FromSlash(f.file))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, body, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		logger.Info("Exported", zap.String("path", f.path), zap.String("file", dst), zap.Int("bytes", len(body)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %d files to %s\n", len(exportFiles), exportOut)
	return nil
}
