package handler

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leaveportal/internal/auth"
	"leaveportal/internal/httpmiddleware"
	"leaveportal/internal/leave"
	"leaveportal/internal/uploads"
)

//go:embed templates/*.html
var templateFS embed.FS

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) bool

// Options wires the router to its dependencies.
type Options struct {
	Service *leave.Service
	Uploads *uploads.Dir
	Cookie  auth.CookieConfig
	Logger  *slog.Logger

	// Limiter guards the login and register posts; nil disables it.
	Limiter httpmiddleware.Limiter
	// MaxUploadBytes caps the apply_leave request body; zero means no cap.
	MaxUploadBytes int64
	// Metrics serves /metrics; nil uses the default prometheus registry.
	Metrics http.Handler
	// Checks are reported by /healthz. Any failing check makes it 503.
	Checks map[string]Check
}

// NewRouter builds the gin engine with every portal route.
func NewRouter(opt Options) *gin.Engine {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		svc:       opt.Service,
		uploads:   opt.Uploads,
		cookie:    opt.Cookie,
		log:       logger,
		maxUpload: opt.MaxUploadBytes,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.SecurityHeaders())
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templateFS, "templates/*.html")))
	if opt.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opt.MaxUploadBytes
	}

	metricsHandler := opt.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metricsHandler))
	r.GET("/healthz", healthz(opt.Checks))

	limit := func(c *gin.Context) { c.Next() }
	if opt.Limiter != nil {
		limit = httpmiddleware.RateLimit(opt.Limiter, logger)
	}

	pages := r.Group("/", auth.LoadSession(opt.Cookie))
	pages.GET("/", h.Index)
	pages.GET("/login", h.LoginPage)
	pages.POST("/login", limit, h.Login)
	pages.GET("/register", h.RegisterPage)
	pages.POST("/register", limit, h.Register)
	pages.GET("/logout", h.Logout)

	student := pages.Group("/student", auth.RequireRole(leave.RoleStudent))
	student.GET("/dashboard", h.StudentDashboard)
	student.GET("/apply_leave", h.ApplyLeavePage)
	student.POST("/apply_leave", h.ApplyLeave)
	student.GET("/leave_status", h.LeaveStatus)

	hod := pages.Group("/hod", auth.RequireRole(leave.RoleHOD))
	hod.GET("/dashboard", h.HODDashboard)
	hod.POST("/review_leave", h.ReviewLeave)
	hod.GET("/download_file/:name", h.DownloadFile)

	return r
}

func healthz(checks map[string]Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "ok"}
		for name, check := range checks {
			ok := check(c.Request.Context())
			body[name] = ok
			if !ok {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}
