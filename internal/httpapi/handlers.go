package httpapi

import (
	"errors"
	"net/http"
	"time"

	"ipstamp/internal/audit"
	"ipstamp/internal/auth"
	"ipstamp/internal/rbac"
	"ipstamp/internal/record"
	"ipstamp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth    *auth.Manager
	Records *record.Service
	// Audit is optional; failures are logged and never fail the request.
	Audit *audit.Service
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, role required"})
		return
	}
	if !rbac.IsKnownRole(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Records ---

// CreateRecord inserts a record; the client IP is stamped by the record service.
func (h Handlers) CreateRecord(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "records not configured"})
		return
	}
	var attrs map[string]any
	if err := c.ShouldBindJSON(&attrs); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx := c.Request.Context()
	rec, err := h.Records.Create(ctx, c.Param("table"), attrs)
	if err != nil {
		h.abortWithRecordError(c, "record create failed", err)
		return
	}

	if h.Audit != nil {
		userID, _ := auth.UserID(ctx)
		role, _ := auth.Role(ctx)
		if err := h.Audit.LogRecordCreated(ctx, userID, role, rec.Table, rec.ID); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusCreated, rec)
}

func (h Handlers) GetRecord(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "records not configured"})
		return
	}
	rec, err := h.Records.Find(c.Request.Context(), c.Param("table"), c.Param("id"))
	if err != nil {
		h.abortWithRecordError(c, "record lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type touchRequest struct {
	Attributes []string `json:"attributes"`
}

// TouchRecord re-stamps IP attributes of a stored record with one partial update.
// An empty body touches the configured IP attribute.
func (h Handlers) TouchRecord(c *gin.Context) {
	if h.Records == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "records not configured"})
		return
	}
	var req touchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	names := req.Attributes
	if len(names) == 0 {
		names = []string{h.Records.IPAttribute()}
	}

	ctx := c.Request.Context()
	rec, err := h.Records.Touch(ctx, c.Param("table"), c.Param("id"), names...)
	if err != nil {
		h.abortWithRecordError(c, "record touch failed", err)
		return
	}

	if h.Audit != nil {
		userID, _ := auth.UserID(ctx)
		role, _ := auth.Role(ctx)
		if err := h.Audit.LogTouch(ctx, userID, role, rec.Table, rec.ID, names); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) abortWithRecordError(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, record.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, record.ErrUnknownTable):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown table"})
	case errors.Is(err, record.ErrUnknownAttribute):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown attribute"})
	case errors.Is(err, record.ErrDuplicate):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "record exists"})
	default:
		logger.FromGin(c).Error(msg, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
