// Package handler exposes the HTTP surface: operator login, credential
// distribution, scan lookups, collection marking, attendee management, and
// the audit log.
package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"festpass/internal/attendee"
	"festpass/internal/auth"
	"festpass/internal/credential"
	"festpass/internal/distribution"
	"festpass/internal/ledger"
	"festpass/internal/queue"
	"festpass/internal/realtime"
)

// Ledger is the collection surface the handlers need.
type Ledger interface {
	MarkCollected(ctx context.Context, kind attendee.Kind, id int64, res ledger.Resource, op attendee.Organizer) error
	GetStatus(ctx context.Context, kind attendee.Kind, id int64) (ledger.Status, error)
}

// Distributor is the credential delivery surface.
type Distributor interface {
	InitiateSend(ctx context.Context, op attendee.Organizer, kind attendee.Kind, id int64) error
	SendAll(ctx context.Context, op attendee.Organizer, kind attendee.Kind) (int, error)
}

// Directory is the attendee/organizer persistence surface used directly by
// handlers. *attendee.Repository satisfies it.
type Directory interface {
	List(ctx context.Context, kind attendee.Kind) ([]attendee.Attendee, error)
	Insert(ctx context.Context, att attendee.Attendee) error
	AppendLog(ctx context.Context, e attendee.LogEntry) error
	ListLogs(ctx context.Context, action string, since time.Time, limit int) ([]attendee.LogEntry, error)
	GetOrganizer(ctx context.Context, email string) (*attendee.Organizer, string, error)
}

// Handler wires HTTP routes to the domain services.
type Handler struct {
	ledger  Ledger
	dist    Distributor
	dir     Directory
	jobs    queue.Queue
	revoker auth.Revoker
	redis   *redis.Client

	signingKey  string
	issuer      string
	operatorTTL time.Duration
}

// New creates a handler. jobs, revoker, and redisClient may be nil in tests.
func New(l Ledger, d Distributor, dir Directory, jobs queue.Queue, revoker auth.Revoker, redisClient *redis.Client, signingKey, issuer string, operatorTTL time.Duration) *Handler {
	return &Handler{
		ledger:      l,
		dist:        d,
		dir:         dir,
		jobs:        jobs,
		revoker:     revoker,
		redis:       redisClient,
		signingKey:  signingKey,
		issuer:      issuer,
		operatorTTL: operatorTTL,
	}
}

// ---------- Operator sessions ----------

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	AccessCode string `json:"access_code" binding:"required"`
}

// Login verifies an organizer's access code and issues a session token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	org, hash, err := h.dir.GetOrganizer(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if org == nil || !auth.VerifyAccessCode(req.AccessCode, hash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or access code"})
		return
	}
	session, err := auth.Issue(*org, h.issuer, h.signingKey, h.operatorTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": session.Token,
		"expires_at":   session.ExpiresAt.Unix(),
		"operator":     org,
	})
}

// Logout revokes the current session server-side.
func (h *Handler) Logout(c *gin.Context) {
	claimsAny, _ := c.Get("claims")
	claims, ok := claimsAny.(auth.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	if h.revoker != nil && claims.ExpiresAt != nil {
		if err := h.revoker.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// ---------- Distribution ----------

type sendEmailRequest struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	UserID string `json:"userid"`
}

// SendEmail runs the delivery pipeline for one attendee.
// POST /api/sendEmails
func (h *Handler) SendEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ID == 0 || req.Type == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and type are required"})
		return
	}
	kind, err := attendee.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op := auth.CurrentOperator(c)
	switch err := h.dist.InitiateSend(c.Request.Context(), op, kind, req.ID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully!"})
	case errors.Is(err, distribution.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, distribution.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "attendee not found"})
	default:
		// Failed sends already carry status=failed with a reason on the row.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type sendAllRequest struct {
	Type string `json:"type" binding:"required"`
}

// SendAll enqueues a batch send job for the worker.
// POST /v1/send-all
func (h *Handler) SendAll(c *gin.Context) {
	var req sendAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := attendee.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op := auth.CurrentOperator(c)
	if !op.IsGod {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
		return
	}
	if h.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch sending not configured"})
		return
	}
	msg := queue.Message{Type: "send_batch", Body: []byte(string(kind) + "|" + op.Email)}
	if err := h.jobs.Publish(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "batch send queued", "type": kind})
}

// ---------- Scanning & collection ----------

type scanRequest struct {
	Text string `json:"text" binding:"required"`
}

// Scan decodes raw QR text and returns the live ledger view for the
// attendee it identifies.
// POST /v1/scans
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := credential.Decode(req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": err.Error(),
			"hint":  "try scanning again",
		})
		return
	}
	status, err := h.ledger.GetStatus(c.Request.Context(), payload.Kind(), payload.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "attendee not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payload": payload, "status": status})
}

type collectRequest struct {
	Type     string `json:"type" binding:"required"`
	ID       int64  `json:"id" binding:"required"`
	Resource string `json:"resource" binding:"required"`
}

// Collect commits one collection transition.
// POST /v1/collections
func (h *Handler) Collect(c *gin.Context) {
	var req collectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := attendee.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := ledger.ParseResource(req.Resource)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op := auth.CurrentOperator(c)
	switch err := h.ledger.MarkCollected(c.Request.Context(), kind, req.ID, res, op); {
	case err == nil:
	case errors.Is(err, ledger.ErrAlreadyCollected):
		c.JSON(http.StatusConflict, gin.H{"error": "already collected"})
		return
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "attendee not found"})
		return
	case errors.Is(err, ledger.ErrNoSuchResource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status, err := h.ledger.GetStatus(c.Request.Context(), kind, req.ID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "collected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "collected", "status": status})
}

// ---------- Attendees & logs ----------

type createAttendeeRequest struct {
	Type       string `json:"type" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Phone      string `json:"phone"`
	Roll       string `json:"college_roll"`
	Dept       string `json:"dept" binding:"required"`
	VegNonveg  string `json:"veg_nonveg" binding:"required,oneof=veg nonveg"`
	TshirtSize string `json:"tshirt_size"`
	Team       string `json:"team"`
}

// CreateAttendee registers a new attendee row and logs the action.
// POST /v1/attendees
func (h *Handler) CreateAttendee(c *gin.Context) {
	var req createAttendeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, err := attendee.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if kind.RollRequired() && req.Roll == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "college_roll is required"})
		return
	}

	att := attendee.Attendee{
		ID:        time.Now().UnixMilli(),
		Kind:      kind,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Roll:      req.Roll,
		Dept:      req.Dept,
		VegNonveg: req.VegNonveg,
		Status:    attendee.StatusPending,
	}
	if kind.HasTshirt() {
		att.TshirtSize = req.TshirtSize
	}
	if kind.HasTeam() {
		att.Team = req.Team
	}
	if err := h.dir.Insert(c.Request.Context(), att); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	op := auth.CurrentOperator(c)
	entry := attendee.LogEntry{
		OrganizerName: op.Name,
		Email:         op.Email,
		ActionType:    kind.CreatedAction(),
		FresherRoll:   req.Roll,
	}
	if err := h.dir.AppendLog(c.Request.Context(), entry); err != nil {
		log.Printf("handler: append creation log failed: %v", err)
	}
	c.JSON(http.StatusCreated, att)
}

// ListAttendees returns all rows of a kind for the dashboard tables.
// GET /v1/attendees?type=
func (h *Handler) ListAttendees(c *gin.Context) {
	kind, err := attendee.ParseKind(c.DefaultQuery("type", string(attendee.KindStudent)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.dir.List(c.Request.Context(), kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []attendee.Attendee{}
	}
	c.JSON(http.StatusOK, gin.H{"attendees": list})
}

// ListLogs returns audit entries with optional action and time filters.
// GET /v1/logs?action=&since=&limit=
func (h *Handler) ListLogs(c *gin.Context) {
	var since time.Time
	if v := c.Query("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = parsed
	}
	limit := 200
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}
	entries, err := h.dir.ListLogs(c.Request.Context(), c.Query("action"), since, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if entries == nil {
		entries = []attendee.LogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}

// ---------- Realtime ----------

// Stream fans the change feed out to the client as server-sent events.
// GET /v1/stream
func (h *Handler) Stream(c *gin.Context) {
	if h.redis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "change feed not configured"})
		return
	}
	changes, err := realtime.Subscribe(c.Request.Context(), h.redis)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		change, ok := <-changes
		if !ok {
			return false
		}
		c.SSEvent("change", change)
		return true
	})
}
