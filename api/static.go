package api

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// ServeStaticFiles configures routes for serving the PWA bundle. Everything
// outside /api and /metrics falls through to the static assets.
func (s *Server) ServeStaticFiles() {
	staticDir := s.config.StaticDir

	s.router.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(staticDir, "index.html"))
	})

	s.router.StaticFS("/static", http.Dir(staticDir))

	// Unmatched paths fall back to the app shell so client-side routes resolve.
	s.router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	})
}
