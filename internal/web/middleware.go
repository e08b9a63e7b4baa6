package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/store"
)

// requestLogger logs one line per request. Client addresses are hashed.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", s.hashIP(c.ClientIP())),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			s.logger.Error("Request", fields...)
		case c.Writer.Status() >= 400:
			s.logger.Warn("Request", fields...)
		default:
			s.logger.Debug("Request", fields...)
		}
	}
}

// hashIP hashes an address with the per-process salt (consistent per IP).
func (s *Server) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.hashingSalt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

var untrackedPrefixes = []string{
	"/static/",
	"/images/",
	"/documents/",
	"/admin/",
	"/api/",
	"/favicon",
	"/privacy",
	"/healthz",
}

// visitTracking records successful GET page views with a hashed address.
// Requests carrying DNT: 1 are never recorded.
func (s *Server) visitTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		if c.GetHeader("DNT") == "1" || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		visit := store.Visit{
			HashedIP:  s.hashIP(c.ClientIP()),
			UserAgent: c.Request.UserAgent(),
			Path:      path,
			VisitedAt: time.Now(),
		}

		s.bg.Add(1)
		go func() {
			defer s.bg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.repo.RecordVisit(ctx, visit); err != nil {
				s.logger.Warn("Error recording visit", zap.Error(err))
			}
		}()
	}
}

// compressWriter encodes the body lazily so empty responses stay empty.
type compressWriter struct {
	gin.ResponseWriter
	encoding string
	enc      io.WriteCloser
}

func (w *compressWriter) Write(b []byte) (int, error) {
	if w.enc == nil {
		// Content-Range describes the identity bytes.
		if w.Status() == http.StatusPartialContent {
			return w.ResponseWriter.Write(b)
		}
		h := w.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", w.encoding)
		switch w.encoding {
		case "br":
			w.enc = brotli.NewWriterLevel(w.ResponseWriter, brotli.DefaultCompression)
		default:
			gz, _ := gzip.NewWriterLevel(w.ResponseWriter, gzip.DefaultCompression)
			w.enc = gz
		}
	}
	return w.enc.Write(b)
}

func (w *compressWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *compressWriter) close() error {
	if w.enc == nil {
		return nil
	}
	return w.enc.Close()
}

// negotiateEncoding prefers brotli over gzip and honors q=0 refusals.
func negotiateEncoding(header string) string {
	var gz bool
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				continue
			}
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "br":
			return "br"
		case "gzip":
			gz = true
		}
	}
	if gz {
		return "gzip"
	}
	return ""
}

// compress encodes responses with brotli or gzip when the client accepts it.
// Images, documents, HEAD and Range requests are passed through untouched.
func compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method == http.MethodHead ||
			c.GetHeader("Range") != "" ||
			strings.HasPrefix(path, "/images/") ||
			strings.HasPrefix(path, "/documents/") {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")
		encoding := negotiateEncoding(c.GetHeader("Accept-Encoding"))
		if encoding == "" {
			c.Next()
			return
		}

		cw := &compressWriter{ResponseWriter: c.Writer, encoding: encoding}
		c.Writer = cw
		defer func() {
			cw.close()
			c.Writer = cw.ResponseWriter
		}()
		c.Next()
	}
}
