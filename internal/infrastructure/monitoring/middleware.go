package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Route template keeps session ids out of label values
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures plugin hook duration
type Timer struct {
	start   time.Time
	metrics *Metrics
	hook    string
}

// NewTimer creates a new timer for hook
func NewTimer(metrics *Metrics, hook string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		hook:    hook,
	}
}

// Stop records the elapsed duration
func (t *Timer) Stop() {
	if t.metrics == nil {
		return
	}
	t.metrics.HookDuration.WithLabelValues(t.hook).Observe(time.Since(t.start).Seconds())
}
