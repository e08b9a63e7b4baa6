// Package web serves the portfolio page, its HTMX fragments, the contact
// endpoints and the admin dashboard.
package web

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/config"
	"github.com/ybj/termfolio/internal/contact"
	"github.com/ybj/termfolio/internal/content"
	"github.com/ybj/termfolio/internal/store"
)

// Repository is the persistence the web layer reads and writes.
type Repository interface {
	RecordVisit(ctx context.Context, v store.Visit) error
	VisitStats(ctx context.Context, now time.Time, recent int) (*store.VisitStats, error)
	RecentVisits(ctx context.Context, limit int) ([]store.Visit, error)
	PruneVisits(ctx context.Context, cutoff time.Time) (int64, error)
	RecentSubmissions(ctx context.Context, limit int) ([]store.Submission, error)
	CountSubmissions(ctx context.Context) (map[store.SubmissionStatus]int64, error)
	DeleteSubmission(ctx context.Context, id uuid.UUID) error
}

// Options wires a Server.
type Options struct {
	Config  *config.Config
	Content *content.Store
	Contact *contact.Service
	Repo    Repository
	Logger  *zap.Logger
	// Rand seeds background orb layout; nil uses a time-seeded source.
	Rand *rand.Rand
}

// Server owns the gin engine and its background work.
type Server struct {
	cfg     *config.Config
	content *content.Store
	contact *contact.Service
	repo    Repository
	logger  *zap.Logger

	engine *gin.Engine

	adminToken  string
	hashingSalt string

	rngMu sync.Mutex
	rng   *rand.Rand

	bg sync.WaitGroup
}

// New builds a Server with every route registered.
func New(opts Options) (*Server, error) {
	s := &Server{
		cfg:     opts.Config,
		content: opts.Content,
		contact: opts.Contact,
		repo:    opts.Repo,
		logger:  opts.Logger,
		rng:     opts.Rand,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.rng == nil {
		seed := uint64(time.Now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}

	var err error
	if s.adminToken, err = generateToken(); err != nil {
		return nil, err
	}
	if s.hashingSalt, err = generateToken(); err != nil {
		return nil, err
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	s.engine = gin.New()
	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(s.requestLogger(), gin.CustomRecovery(s.recoverPanic))
	if s.cfg.Server.Compress {
		s.engine.Use(compress())
	}
	if s.cfg.Tracking.Enabled {
		s.engine.Use(s.visitTracking())
	}

	s.routes()
	return s, nil
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Wait blocks until background visit recording has finished.
func (s *Server) Wait() {
	s.bg.Wait()
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http: %w", err)
	}
	s.Wait()
	s.logger.Info("Server stopped")
	return nil
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/", s.handleIndex)
	r.HEAD("/", s.handleIndex)
	r.GET("/menu", s.handleMenu)
	r.GET("/multimedia/:slug", s.handleMediaPreview)
	r.GET("/multimedia/"+content.MediaCloseSlug, s.handleModalClose)
	r.GET("/resume", s.handleResume)
	r.GET("/documents/resume.pdf", s.handleResumeFile)
	r.HEAD("/documents/resume.pdf", s.handleResumeFile)
	r.GET("/static/*filepath", s.handleStatic)
	r.HEAD("/static/*filepath", s.handleStatic)
	r.Static("/images", s.cfg.Content.ImagesDir)

	r.GET("/contact-form", s.handleContactForm)
	r.POST("/contact", s.handleContactSubmit)

	api := r.Group("/api")
	api.GET("/portfolio", s.handlePortfolioJSON)
	api.POST("/contact", s.handleContactAPI)

	r.GET("/healthz", s.handleHealth)
	r.HEAD("/healthz", s.handleHealth)

	s.setupAdminRoutes(r)
}

func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("Handler panicked",
		zap.String("path", c.Request.URL.Path),
		zap.Any("panic", recovered))
	c.AbortWithStatus(http.StatusInternalServerError)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := crand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

var templateFuncs = template.FuncMap{
	"slug":  content.Slug,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"fmtTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"fmtTimePtr": func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.Format("2006-01-02 15:04")
	},
	"short": func(id uuid.UUID) string {
		return id.String()[:8]
	},
	"menuState": func(nav []content.NavItem, open bool) menuData {
		return menuData{Nav: nav, Open: open}
	},
	"contactState": func(ready bool) gin.H {
		return gin.H{"ready": ready}
	},
}

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

func staticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
