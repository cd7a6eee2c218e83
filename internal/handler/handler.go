package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventpass/internal/auth"
	"eventpass/internal/catalog"
	"eventpass/internal/cloudinary"
	"eventpass/internal/config"
	"eventpass/internal/dashboard"
	"eventpass/internal/directory"
	"eventpass/internal/ledger"
	"eventpass/internal/metrics"
	"eventpass/internal/model"
	"eventpass/internal/queue"
	"eventpass/internal/session"
)

// Handler exposes the record-keeping services over HTTP. It extracts
// inputs, dispatches to a service, and shapes the response; it adds no
// logic of its own.
type Handler struct {
	directory *directory.Service
	catalog   *catalog.Service
	ledger    *ledger.Service
	dashboard *dashboard.Service
	sessions  *session.Registry
	queue     queue.Queue
	cloud     *cloudinary.Client // nil when not configured
	cfg       config.App
	log       zerolog.Logger
}

// New wires the facade.
func New(
	dir *directory.Service,
	cat *catalog.Service,
	led *ledger.Service,
	dash *dashboard.Service,
	sessions *session.Registry,
	q queue.Queue,
	cloud *cloudinary.Client,
	cfg config.App,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		directory: dir,
		catalog:   cat,
		ledger:    led,
		dashboard: dash,
		sessions:  sessions,
		queue:     q,
		cloud:     cloud,
		cfg:       cfg,
		log:       log,
	}
}

// Register mounts all API routes on the given router.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.POST("/auth/login", h.Login)
	api.POST("/auth/signup", h.Signup)

	authed := api.Group("", auth.Bearer(h.cfg.JWTSigningKey, h.cfg.JWTIssuer, h.sessions))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/users", h.ListUsers)
	authed.GET("/users/:id", h.GetUser)
	authed.PUT("/users/:id", h.UpdateUser)
	authed.POST("/uploads", h.Upload)
	authed.GET("/events", h.ListEvents)
	authed.GET("/attendance", h.ListAttendance)
	authed.POST("/attendance", h.RecordAttendance)

	admin := authed.Group("", auth.RequireRole(model.RoleAdmin))
	admin.DELETE("/users/:id", h.DeleteUser)
	admin.POST("/users/:id/verify", h.VerifyUser)
	admin.PUT("/users/:id/role", h.SetUserRole)
	admin.POST("/events", h.CreateEvent)
	admin.PUT("/events/:id", h.UpdateEvent)
	admin.DELETE("/events/:id", h.DeleteEvent)
	admin.DELETE("/attendance/:id", h.DeleteAttendance)
	admin.GET("/stats/dashboard", h.Dashboard)
}

// fail translates service error kinds to transport status. Store failures
// are logged in full but answered with the bare kind; internal detail never
// reaches the caller.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, model.ErrStoreUnavailable) {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("store failure")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": model.ErrStoreUnavailable.Error()})
		return
	}
	st := statusFor(err)
	if st == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(st, gin.H{"error": "internal error"})
		return
	}
	c.JSON(st, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation),
		errors.Is(err, model.ErrIncorrectPassword),
		errors.Is(err, model.ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotVerified):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrStudentNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateEmail),
		errors.Is(err, model.ErrDuplicateStudentID),
		errors.Is(err, model.ErrDuplicateAttendance):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ---------- Auth ----------

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	user, err := h.directory.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	tokens, err := auth.Issue(user.ID, user.Role, h.cfg.JWTIssuer, h.cfg.JWTSigningKey, h.cfg.AccessTTL, h.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

func (h *Handler) Signup(c *gin.Context) {
	var req struct {
		StudentID string `json:"student_id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.directory.Signup(c.Request.Context(), req.StudentID, req.FirstName, req.LastName, req.Email, req.Password); err != nil {
		h.fail(c, err)
		return
	}
	metrics.Signups.Inc()
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful"})
}

func (h *Handler) Logout(c *gin.Context) {
	if claims, ok := auth.ClaimsFrom(c); ok && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := h.sessions.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
			h.log.Warn().Err(err).Msg("session revoke failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// ---------- Users ----------

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.directory.GetAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.directory.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	var patch directory.UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.directory.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if err := h.directory.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func (h *Handler) VerifyUser(c *gin.Context) {
	var req struct {
		QRCode string `json:"qrCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.directory.Verify(c.Request.Context(), c.Param("id"), req.QRCode)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.Verifications.Inc()
	h.publishVerified(c, user)
	c.JSON(http.StatusOK, user)
}

// publishVerified hands the verification off to the notification worker.
// Delivery is best-effort; a queue failure never fails the request.
func (h *Handler) publishVerified(c *gin.Context, user model.User) {
	if h.queue == nil {
		return
	}
	body, err := json.Marshal(queue.VerifiedPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.FullName(),
		QRCode: user.QRCode,
	})
	if err != nil {
		return
	}
	if err := h.queue.Publish(c.Request.Context(), queue.Message{Type: queue.TypeUserVerified, Body: body}); err != nil {
		h.log.Warn().Err(err).Str("user", user.ID).Msg("queue publish failed")
	}
}

func (h *Handler) SetUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.directory.SetRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ---------- Events ----------

func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	c.JSON(http.StatusOK, events)
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var params catalog.CreateParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	evt, err := h.catalog.Create(c.Request.Context(), params)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, evt)
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	var patch catalog.UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	evt, err := h.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, evt)
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted"})
}

// ---------- Attendance ----------

func (h *Handler) ListAttendance(c *gin.Context) {
	records, err := h.ledger.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) RecordAttendance(c *gin.Context) {
	var req struct {
		EventID   string `json:"eventId"`
		StudentID string `json:"studentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	rec, err := h.ledger.Record(c.Request.Context(), req.EventID, req.StudentID)
	if err != nil {
		h.fail(c, err)
		return
	}
	metrics.Checkins.Inc()
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) DeleteAttendance(c *gin.Context) {
	if err := h.ledger.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance deleted"})
}

// ---------- Dashboard ----------

func (h *Handler) Dashboard(c *gin.Context) {
	sum, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ---------- Uploads ----------

// Upload stores a profile photo and returns its public URL; callers place
// that URL in the profilePhoto field of a user update. Accepts a multipart
// file or a JSON body with a base64 data URL.
func (h *Handler) Upload(c *gin.Context) {
	if h.cloud == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	var result *cloudinary.UploadResult
	var err error

	switch {
	case strings.Contains(c.ContentType(), "multipart/form-data"):
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(file)
		if ferr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read file failed"})
			return
		}
		result, err = h.cloud.UploadBytes(data, header.Filename)

	default:
		var body struct {
			Data string `json:"data"`
		}
		if berr := c.ShouldBindJSON(&body); berr != nil || body.Data == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide {\"data\": \"<base64 data URL>\"}"})
			return
		}
		result, err = h.cloud.UploadBase64(body.Data)
	}

	if err != nil {
		h.log.Error().Err(err).Msg("photo upload failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "image upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":       result.SecureURL,
		"public_id": result.PublicID,
		"width":     result.Width,
		"height":    result.Height,
		"bytes":     result.Bytes,
	})
}
