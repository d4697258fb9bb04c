package httptransport

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"adventure-server-go/internal/platform/config"
	"adventure-server-go/internal/platform/observability"
	"adventure-server-go/internal/utils"
)

// multipartOverhead leaves room for form fields and part headers next to
// the largest accepted image.
const multipartOverhead = 1 << 20

// Options configures the HTTP router builder.
type Options struct {
	Config     *config.Config
	Logger     *utils.Logger
	StaticRoot string
}

// Router bundles together the gin engine and the /api group.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
}

// Build constructs a gin engine with recovery, logging, observability, CORS,
// static front-end serving and, when enabled, per-client rate limiting on /api.
func Build(opts Options) (*Router, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("http router requires config")
	}
	logger := opts.Logger

	if opts.Config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(logger))
	engine.Use(observabilityMiddleware())

	if maxFile := opts.Config.Uploads.Security.MaxFileSize; maxFile > 0 {
		engine.MaxMultipartMemory = maxFile + multipartOverhead
		engine.Use(limitMultipartBody(engine.MaxMultipartMemory))
	}

	if err := engine.SetTrustedProxies(opts.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	staticRoot := opts.StaticRoot
	if staticRoot == "" {
		staticRoot = opts.Config.Web.StaticDir
	}
	if staticRoot == "" {
		staticRoot = "./web"
	}
	engine.Use(static.Serve("/", static.LocalFile(staticRoot, false)))

	index := filepath.Join(staticRoot, "index.html")
	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			RespondError(c, http.StatusNotFound, "API endpoint not found", nil)
			return
		}
		if _, err := os.Stat(index); err == nil && c.Request.Method == http.MethodGet {
			c.File(index)
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	if m := opts.Config.Metrics; m.Enabled && m.Path != "" {
		engine.GET(m.Path, gin.WrapH(observability.Handler()))
	}
	registerDocs(engine, logger)

	api := engine.Group("/api")
	if rl := opts.Config.RateLimit; rl.Enabled && rl.RPS > 0 {
		api.Use(NewIPLimiter(rl.RPS, rl.Burst).Middleware())
	}

	return &Router{
		Engine: engine,
		API:    api,
	}, nil
}

func loggingMiddleware(logger *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		if status >= http.StatusInternalServerError {
			logger.WarnTag("HTTP", "%s %s -> %d (%s) %s", c.Request.Method, c.Request.URL.Path, status, duration, c.Errors.String())
			return
		}
		logger.InfoTag("HTTP", "%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, duration)
	}
}

func observabilityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		reqCtx, spanEnd := observability.StartSpan(c.Request.Context(), "http.server", route)
		c.Request = c.Request.WithContext(reqCtx)

		start := time.Now()
		c.Next()

		var spanErr error
		if len(c.Errors) > 0 {
			spanErr = c.Errors.Last().Err
		} else if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			spanErr = fmt.Errorf("status %d", status)
		}
		spanEnd(spanErr)

		observability.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// limitMultipartBody caps multipart bodies at the in-memory parse limit, so a
// form is rejected before the parser would spill a part to a temp file.
func limitMultipartBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}
