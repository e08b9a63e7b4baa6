package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/contact"
	"github.com/ybj/termfolio/internal/store"
)

const adminCookie = "admin_token"

// AdminStats is the dashboard summary, also served as JSON.
type AdminStats struct {
	*store.VisitStats
	// Submissions counts the outbox by status.
	Submissions       map[string]int64   `json:"submissions"`
	RecentSubmissions []store.Submission `json:"recent_submissions"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// Middleware to check admin authentication
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) adminStats(c *gin.Context) (*AdminStats, error) {
	ctx := c.Request.Context()
	now := time.Now()

	visits, err := s.repo.VisitStats(ctx, now, 50)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.CountSubmissions(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentSubmissions(ctx, 10)
	if err != nil {
		return nil, err
	}
	byStatus := map[string]int64{
		string(store.StatusPending):   0,
		string(store.StatusDelivered): 0,
		string(store.StatusFailed):    0,
	}
	for status, n := range counts {
		byStatus[string(status)] = n
	}
	return &AdminStats{
		VisitStats:        visits,
		Submissions:       byStatus,
		RecentSubmissions: recent,
		GeneratedAt:       now.UTC(),
	}, nil
}

func credentialsMatch(gotUser, gotPass, wantUser, wantPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(gotUser), []byte(wantUser))
	passOK := subtle.ConstantTimeCompare([]byte(gotPass), []byte(wantPass))
	return userOK&passOK == 1
}

// Setup all admin routes
func (s *Server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title":     "Privacy Policy",
			"retention": s.cfg.Tracking.RetentionDays,
			"tracking":  s.cfg.Tracking.Enabled,
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		if !credentialsMatch(username, password, s.cfg.Admin.Username, s.cfg.Admin.Password) {
			s.logger.Warn("Failed admin login attempt", zap.String("client", s.hashIP(c.ClientIP())))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}

		// 24 hours
		c.SetCookie(adminCookie, s.adminToken, 3600*24, "/admin", "", c.Request.TLS != nil, true)
		s.logger.Info("Admin login successful", zap.String("client", s.hashIP(c.ClientIP())))
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", c.Request.TLS != nil, true)
		s.logger.Info("Admin logout", zap.String("client", s.hashIP(c.ClientIP())))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(s.adminAuth())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.adminStats(c)
		if err != nil {
			s.logger.Error("Error loading admin stats", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats":        stats,
			"contactReady": s.contact.Configured(),
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.repo.RecentVisits(c.Request.Context(), 200)
		if err != nil {
			s.logger.Error("Error loading visitors", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	adminGroup.GET("/submissions", func(c *gin.Context) {
		subs, err := s.repo.RecentSubmissions(c.Request.Context(), 200)
		if err != nil {
			s.logger.Error("Error loading submissions", zap.Error(err))
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load submissions",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-submissions.html", gin.H{
			"submissions":  subs,
			"contactReady": s.contact.Configured(),
		})
	})

	adminGroup.POST("/submissions/:id/retry", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
			return
		}

		sub, err := s.contact.Redeliver(c.Request.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
		case errors.Is(err, contact.ErrInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "Submission is already being delivered", "submission": sub})
		case errors.Is(err, contact.ErrNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Contact delivery is not configured"})
		case errors.Is(err, contact.ErrDelivery):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "submission": sub})
		case err != nil:
			s.logger.Error("Error redelivering submission", zap.String("id", id.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeliver submission"})
		default:
			s.logger.Info("Submission redelivered by admin",
				zap.String("id", id.String()),
				zap.String("client", s.hashIP(c.ClientIP())))
			c.JSON(http.StatusOK, gin.H{"submission": sub})
		}
	})

	adminGroup.DELETE("/submissions/:id", func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
			return
		}

		err = s.repo.DeleteSubmission(c.Request.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
			return
		}
		if err != nil {
			s.logger.Error("Error deleting submission", zap.String("id", id.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete submission"})
			return
		}

		s.logger.Info("Submission deleted by admin",
			zap.String("id", id.String()),
			zap.String("client", s.hashIP(c.ClientIP())))
		c.JSON(http.StatusOK, gin.H{"message": "Submission deleted successfully"})
	})

	// Applies the retention window immediately.
	adminGroup.POST("/privacy/cleanup", func(c *gin.Context) {
		cutoff := time.Now().Add(-s.cfg.Tracking.Retention())
		removed, err := s.repo.PruneVisits(c.Request.Context(), cutoff)
		if err != nil {
			s.logger.Error("Error cleaning up visitor data", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Privacy cleanup failed"})
			return
		}
		s.logger.Info("Privacy cleanup", zap.Int64("removed", removed))
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
	})

	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		s.logger.Info("Admin stats exported", zap.String("client", s.hashIP(c.ClientIP())))
		c.JSON(http.StatusOK, stats)
	})
}
