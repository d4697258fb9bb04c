package httptransport

import (
	"math"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// DecodeObject reads an optional JSON object body. Empty or malformed bodies
// yield an empty map.
func DecodeObject(c *gin.Context) map[string]any {
	body := map[string]any{}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return body
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return map[string]any{}
	}
	return body
}

// Present reports whether key holds a non-null, non-blank value.
func Present(body map[string]any, key string) bool {
	v, ok := body[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Number converts a JSON number or numeric string to a finite float.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
