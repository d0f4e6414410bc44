package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaStartKey = "response_meta_start"
	metaKey      = "response_meta"
)

// ResponseMeta starts the per-request metadata handlers attach to the
// response envelope.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(metaStartKey, time.Now())
		c.Set(metaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetMeta records a metadata value for the current response.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, ok := c.Get(metaKey)
	if !ok {
		meta = map[string]interface{}{}
		c.Set(metaKey, meta)
	}
	meta.(map[string]interface{})[key] = value
}

// SetCacheHit marks whether the response came from the shared cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// Meta returns a copy of the recorded metadata with processing_time_ms
// filled in, or nil when nothing was recorded.
func Meta(c *gin.Context) map[string]interface{} {
	recorded, _ := c.Get(metaKey)
	typed, _ := recorded.(map[string]interface{})

	out := make(map[string]interface{}, len(typed)+1)
	for k, v := range typed {
		out[k] = v
	}
	if start, ok := c.Get(metaStartKey); ok {
		out["processing_time_ms"] = time.Since(start.(time.Time)).Milliseconds()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
