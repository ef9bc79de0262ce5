package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/restocatalog/go-services/pkg/metrics"
	"github.com/stretchr/testify/require"
)

func serve(r *gin.Engine, path, ip string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ip != "" {
		req.RemoteAddr = ip + ":1234"
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "/ok", ""))
	require.Equal(t, http.StatusOK, serve(r, "/ok", ""))
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "/limited", ""))
	require.Equal(t, http.StatusTooManyRequests, serve(r, "/limited", ""))

	// one token is back after half a second
	time.Sleep(600 * time.Millisecond)
	require.Equal(t, http.StatusOK, serve(r, "/limited", ""))
}

func TestRateLimitMiddleware_SeparatesClients(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	require.Equal(t, http.StatusOK, serve(r, "/u", "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, serve(r, "/u", "10.0.0.1"))
	require.Equal(t, http.StatusOK, serve(r, "/u", "10.0.0.2"))
}

func TestRateLimitByKey(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitByKey(0.5, 1, func(c *gin.Context) string { return c.FullPath() }))
	r.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/b", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, serve(r, "/a", "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, serve(r, "/a", "10.0.0.2"))
	require.Equal(t, http.StatusOK, serve(r, "/b", "10.0.0.1"))
}
