package cache

import (
	"bytes"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

var detailPath = regexp.MustCompile(`^/campgrounds/(\d+)$`)

// Middleware serves campground detail pages from the file cache and
// captures fresh renders on a miss. Anything that is not a GET on a detail
// page passes straight through.
func Middleware(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		match := detailPath.FindStringSubmatch(c.Request.URL.Path)
		if match == nil {
			c.Next()
			return
		}
		campgroundID := match[1]

		// flash messages must not be frozen into a cached page
		if c.Request.Header.Get("Cookie") != "" {
			c.Next()
			return
		}

		if cached, found := ReadCache(campgroundID, maxAge); found {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		c.Header("X-Cache", "MISS")

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() == http.StatusOK &&
			c.Writer.Header().Get("Content-Type") == "text/html; charset=utf-8" {
			WriteCache(campgroundID, writer.body.String())
		}
	}
}
