package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheConfig represents cache control configuration
type CacheConfig struct {
	MaxAge               time.Duration
	Private              bool
	NoStore              bool
	StaleWhileRevalidate time.Duration
	Vary                 []string
}

// PublicCacheConfig lets browsers and CDNs reuse catalog reads for as long
// as the server-side query cache would.
func PublicCacheConfig(staleTime time.Duration) CacheConfig {
	return CacheConfig{
		MaxAge:               staleTime,
		StaleWhileRevalidate: staleTime,
		Vary:                 []string{"Accept"},
	}
}

// PrivateCacheConfig is for per-user and admin responses.
func PrivateCacheConfig() CacheConfig {
	return CacheConfig{
		Private: true,
		NoStore: true,
		Vary:    []string{"Authorization"},
	}
}

// Cache adds cache control headers to responses
func Cache(config CacheConfig) gin.HandlerFunc {
	value := cacheControl(config)
	vary := strings.Join(config.Vary, ", ")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.Header("Cache-Control", "no-store")
			c.Next()
			return
		}

		c.Header("Cache-Control", value)
		if vary != "" {
			c.Header("Vary", vary)
		}
		if !config.NoStore {
			c.Writer = &successOnlyWriter{ResponseWriter: c.Writer}
		}
		c.Next()
	}
}

// successOnlyWriter downgrades a shared cache policy to no-store when the
// response is not a 2xx, so a missing slug is never cached publicly.
type successOnlyWriter struct {
	gin.ResponseWriter
}

func (w *successOnlyWriter) WriteHeader(code int) {
	if code < 200 || code > 299 {
		w.Header().Set("Cache-Control", "no-store")
	}
	w.ResponseWriter.WriteHeader(code)
}

func cacheControl(config CacheConfig) string {
	var directives []string
	if config.Private {
		directives = append(directives, "private")
	} else {
		directives = append(directives, "public")
	}
	if config.NoStore {
		return strings.Join(append(directives, "no-store"), ", ")
	}
	if config.MaxAge > 0 {
		directives = append(directives, "max-age="+strconv.Itoa(int(config.MaxAge.Seconds())))
	}
	if config.StaleWhileRevalidate > 0 {
		directives = append(directives, "stale-while-revalidate="+strconv.Itoa(int(config.StaleWhileRevalidate.Seconds())))
	}
	return strings.Join(directives, ", ")
}
