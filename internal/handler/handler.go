// Package handler serves the portal's HTML pages and form posts.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"leaveportal/internal/auth"
	"leaveportal/internal/leave"
	"leaveportal/internal/uploads"
)

const msgInvalidCredentials = "Invalid credentials."

// Handler holds what the route handlers share.
type Handler struct {
	svc       *leave.Service
	uploads   *uploads.Dir
	cookie    auth.CookieConfig
	log       *slog.Logger
	maxUpload int64
}

// Missing credential fields bind as empty and are rejected by the service.
type credentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
	Role     string `form:"role"`
}

type applyForm struct {
	Reason   string `form:"leave_reason" binding:"required"`
	FromDate string `form:"from_date" binding:"required"`
	TillDate string `form:"till_date" binding:"required"`
	Year     string `form:"year" binding:"required"`
}

type reviewForm struct {
	ApplicationID string `form:"application_id" binding:"required"`
	Decision      string `form:"decision" binding:"required"`
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	h.log.Error(msg, "err", err, "path", c.FullPath())
	c.String(http.StatusInternalServerError, "Internal Server Error")
}

func badRequest(c *gin.Context, msg string) {
	c.String(http.StatusBadRequest, msg)
}

// Index sends everyone to the login page.
func (h *Handler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, "/login")
}

// LoginPage renders the login form.
func (h *Handler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// Login checks the posted credentials against the chosen role's store and
// starts a session on success.
func (h *Handler) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "Bad Request")
		return
	}
	role, err := leave.ParseRole(form.Role)
	if err != nil {
		c.HTML(http.StatusOK, "login.html", gin.H{"Error": msgInvalidCredentials})
		return
	}
	ok, err := h.svc.Login(c.Request.Context(), form.Username, form.Password, role)
	if err != nil {
		h.internalError(c, "login lookup failed", err)
		return
	}
	if !ok {
		h.log.Info("login rejected", "username", form.Username, "role", role)
		c.HTML(http.StatusOK, "login.html", gin.H{"Error": msgInvalidCredentials})
		return
	}
	if err := auth.SetCookie(c, h.cookie, auth.Session{Username: form.Username, Role: role}); err != nil {
		h.internalError(c, "issue session", err)
		return
	}
	c.Redirect(http.StatusFound, "/"+string(role)+"/dashboard")
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

// Register stores a new credential. The user always lands on the login
// page; rejected input is only logged.
func (h *Handler) Register(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "Bad Request")
		return
	}
	role, err := leave.ParseRole(form.Role)
	if err != nil {
		h.log.Warn("register with unknown role", "role", form.Role)
		c.Redirect(http.StatusFound, "/login")
		return
	}
	err = h.svc.Register(c.Request.Context(), form.Username, form.Password, role)
	switch {
	case errors.Is(err, leave.ErrFieldDelimiter), errors.Is(err, leave.ErrEmptyCredentials):
		h.log.Warn("register rejected", "username", form.Username, "err", err)
	case err != nil:
		h.internalError(c, "register failed", err)
		return
	default:
		h.log.Info("registered", "username", form.Username, "role", role)
	}
	c.Redirect(http.StatusFound, "/login")
}

// Logout clears the session.
func (h *Handler) Logout(c *gin.Context) {
	auth.ClearCookie(c, h.cookie)
	c.Redirect(http.StatusFound, "/login")
}

// StudentDashboard renders the student landing page.
func (h *Handler) StudentDashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "student.html", gin.H{"Username": auth.FromContext(c).Username})
}

// ApplyLeavePage renders the application form.
func (h *Handler) ApplyLeavePage(c *gin.Context) {
	c.HTML(http.StatusOK, "apply_leave.html", gin.H{"Username": auth.FromContext(c).Username})
}

// ApplyLeave records an application for the session user. The attachment
// is staged first and only replaces a stored file once the application
// has been saved.
func (h *Handler) ApplyLeave(c *gin.Context) {
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}
	var form applyForm
	if err := c.ShouldBind(&form); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.String(http.StatusRequestEntityTooLarge, "File too large.")
			return
		}
		badRequest(c, "Bad Request")
		return
	}

	staged, err := h.stageAttachment(c)
	if err != nil {
		h.internalError(c, "store attachment", err)
		return
	}
	var filename string
	if staged != nil {
		defer func() {
			if err := staged.Discard(); err != nil {
				h.log.Warn("discard staged upload", "err", err)
			}
		}()
		filename = staged.Name()
	}

	username := auth.FromContext(c).Username
	saved, err := h.svc.Apply(c.Request.Context(), leave.Application{
		Username: username,
		Reason:   form.Reason,
		FromDate: form.FromDate,
		TillDate: form.TillDate,
		Year:     form.Year,
		Filename: filename,
	})
	if errors.Is(err, leave.ErrFieldDelimiter) {
		badRequest(c, "Fields may not contain ':' or line breaks.")
		return
	}
	if err != nil {
		h.internalError(c, "save application", err)
		return
	}
	if staged != nil {
		if err := staged.Commit(); err != nil {
			h.internalError(c, "store attachment", err)
			return
		}
	}
	h.log.Info("leave applied", "username", username, "attachment", saved.Filename)
	c.Redirect(http.StatusFound, "/student/leave_status")
}

// stageAttachment writes the "file" part to a temp file if one was sent.
// A missing part or a name that sanitizes to nothing means no attachment
// and a nil result.
func (h *Handler) stageAttachment(c *gin.Context) (*uploads.Staged, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Filename == "" {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	staged, err := h.uploads.Stage(fh.Filename, f)
	if errors.Is(err, uploads.ErrEmptyName) {
		h.log.Warn("attachment name unusable", "filename", fh.Filename)
		return nil, nil
	}
	return staged, err
}

// LeaveStatus lists the session user's own applications.
func (h *Handler) LeaveStatus(c *gin.Context) {
	username := auth.FromContext(c).Username
	apps, err := h.svc.ListFor(c.Request.Context(), username)
	if err != nil {
		h.internalError(c, "list applications", err)
		return
	}
	c.HTML(http.StatusOK, "leave_status.html", gin.H{"Username": username, "Applications": apps})
}

// HODDashboard lists every application with the index used to review it.
func (h *Handler) HODDashboard(c *gin.Context) {
	apps, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		h.internalError(c, "list applications", err)
		return
	}
	c.HTML(http.StatusOK, "hod_dashboard.html", gin.H{"Username": auth.FromContext(c).Username, "Applications": apps})
}

// ReviewLeave sets the decision on the application at application_id.
func (h *Handler) ReviewLeave(c *gin.Context) {
	var form reviewForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "Bad Request")
		return
	}
	index, err := strconv.Atoi(form.ApplicationID)
	if err != nil {
		badRequest(c, "Invalid application ID.")
		return
	}
	decision, err := leave.ParseDecision(form.Decision)
	if err != nil {
		badRequest(c, "Invalid decision.")
		return
	}
	err = h.svc.Review(c.Request.Context(), index, decision)
	if errors.Is(err, leave.ErrInvalidIndex) {
		badRequest(c, "Invalid application ID.")
		return
	}
	if err != nil {
		h.internalError(c, "review application", err)
		return
	}
	h.log.Info("leave reviewed", "index", index, "decision", decision, "reviewer", auth.FromContext(c).Username)
	c.Redirect(http.StatusFound, "/hod/dashboard")
}

// DownloadFile streams an uploaded document as an attachment.
func (h *Handler) DownloadFile(c *gin.Context) {
	name := c.Param("name")
	path, err := h.uploads.Resolve(name)
	if errors.Is(err, uploads.ErrNotFound) {
		c.String(http.StatusNotFound, "File not found.")
		return
	}
	if err != nil {
		h.internalError(c, "resolve upload", err)
		return
	}
	c.FileAttachment(path, name)
}
