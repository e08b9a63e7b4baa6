package web

import (
	"errors"
	"html/template"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/content"
	"github.com/ybj/termfolio/internal/effects"
)

// pageData feeds index.html.
type pageData struct {
	P               *content.Portfolio
	Bio             template.HTML
	MenuOpen        bool
	Orbs            []effects.Orb
	ContactReady    bool
	ResumeAvailable bool
	Year            int
}

// menuData feeds the mobile menu fragment.
type menuData struct {
	Nav  []content.NavItem
	Open bool
}

func (s *Server) orbs() []effects.Orb {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return effects.Orbs(s.rng, effects.DefaultOrbCount)
}

// queryFlag reads a boolean UI flag. "open" and "true"-like values are on.
func queryFlag(c *gin.Context, key string) bool {
	v := c.Query(key)
	if v == "open" {
		return true
	}
	on, err := strconv.ParseBool(v)
	return err == nil && on
}

// Home page route
func (s *Server) handleIndex(c *gin.Context) {
	p := s.content.Current()

	bio, err := content.RenderMarkdown(p.Hero.Bio)
	if err != nil {
		s.logger.Warn("Rendering bio failed", zap.Error(err))
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		P:               p,
		Bio:             bio,
		MenuOpen:        queryFlag(c, "menu"),
		Orbs:            s.orbs(),
		ContactReady:    s.contact.Configured(),
		ResumeAvailable: s.resumeAvailable(),
		Year:            time.Now().Year(),
	})
}

// HTMX mobile menu toggle
func (s *Server) handleMenu(c *gin.Context) {
	c.HTML(http.StatusOK, "menu.html", menuData{
		Nav:  s.content.Current().Nav,
		Open: queryFlag(c, "open"),
	})
}

// HTMX image preview modal
func (s *Server) handleMediaPreview(c *gin.Context) {
	media, err := s.content.Current().MediaBySlug(c.Param("slug"))
	if errors.Is(err, content.ErrNotFound) {
		c.HTML(http.StatusNotFound, "modal.html", gin.H{"missing": true})
		return
	}
	c.HTML(http.StatusOK, "modal.html", gin.H{"media": media})
}

func (s *Server) handleModalClose(c *gin.Context) {
	c.HTML(http.StatusOK, "modal.html", gin.H{})
}

// resumeAvailable reports whether the configured resume exists and is a PDF.
func (s *Server) resumeAvailable() bool {
	path := s.cfg.Content.ResumePath
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		s.logger.Warn("Sniffing resume failed", zap.String("path", path), zap.Error(err))
		return false
	}
	return mtype.Is("application/pdf")
}

// HTMX resume viewer
func (s *Server) handleResume(c *gin.Context) {
	c.HTML(http.StatusOK, "resume.html", gin.H{
		"available": s.resumeAvailable(),
		"title":     s.content.Current().Resume.Title,
	})
}

func (s *Server) handleResumeFile(c *gin.Context) {
	if !s.resumeAvailable() {
		c.String(http.StatusNotFound, "resume unavailable")
		return
	}
	c.Header("Content-Type", "application/pdf")
	c.File(s.cfg.Content.ResumePath)
}

// handleStatic serves the embedded stylesheet plus the generated keyframes.
func (s *Server) handleStatic(c *gin.Context) {
	if c.Param("filepath") == "/animations.css" {
		c.Header("Cache-Control", "public, max-age=3600")
		c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(effects.Stylesheet()))
		return
	}
	c.FileFromFS(c.Param("filepath"), http.FS(staticFS()))
}

func (s *Server) handlePortfolioJSON(c *gin.Context) {
	c.JSON(http.StatusOK, s.content.Current())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"content_loaded_at": s.content.LoadedAt().UTC().Format(time.RFC3339),
		"contact_ready":     s.contact.Configured(),
	})
}
