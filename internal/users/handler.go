package users

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pitstop-trips/backend/internal/middleware"
	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/response"
	"github.com/pitstop-trips/backend/pkg/storage"
)

const searchLimit = 10

// TokenIssuer issues session tokens for saved users.
type TokenIssuer interface {
	Generate(userID int64, firebaseUID, email string) (string, error)
}

// PictureStore holds uploaded profile pictures.
type PictureStore interface {
	UploadProfilePic(ctx context.Context, userID int64, contentType string, body io.Reader, size int64) (string, error)
	ObjectURL(key string) string
	PresignedURL(ctx context.Context, key string) (string, error)
}

// SaveUserRequest is the body for POST /users.
type SaveUserRequest struct {
	UID         string `json:"uid" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"displayName"`
}

// Handler handles user HTTP endpoints.
type Handler struct {
	repo     *Repository
	tokens   TokenIssuer
	pictures PictureStore
	logger   *zap.Logger
}

// NewHandler creates a users handler. pictures may be nil when S3 is not configured.
func NewHandler(repo *Repository, tokens TokenIssuer, pictures PictureStore, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, tokens: tokens, pictures: pictures, logger: logger}
}

// Save POST /users
func (h *Handler) Save(c *gin.Context) {
	var req SaveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "missing required fields")
		return
	}
	u, err := h.repo.Save(c.Request.Context(), req.UID, req.Email, strings.TrimSpace(req.DisplayName))
	if err != nil {
		h.logger.Error("save user", zap.Error(err))
		response.Internal(c, "failed to save user")
		return
	}
	token, err := h.tokens.Generate(u.ID, u.FirebaseUID, u.Email)
	if err != nil {
		h.logger.Error("issue token", zap.Error(err), zap.Int64("user_id", u.ID))
		response.Internal(c, "failed to issue token")
		return
	}
	response.Created(c, "User saved successfully", gin.H{"id": u.ID, "token": token, "user": u})
}

// Search GET /users/search?q=&currentUserId=
func (h *Handler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		response.BadRequest(c, "search query is required")
		return
	}
	var exclude int64
	if v := c.Query("currentUserId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			response.BadRequest(c, "invalid currentUserId")
			return
		}
		exclude = id
	}
	list, err := h.repo.Search(c.Request.Context(), term, exclude, searchLimit)
	if err != nil {
		h.logger.Error("search users", zap.Error(err))
		response.Internal(c, "failed to search users")
		return
	}
	response.OK(c, list)
}

// GetByFirebaseUID GET /users/firebase/:uid
func (h *Handler) GetByFirebaseUID(c *gin.Context) {
	uid := c.Param("uid")
	u, err := h.repo.GetByFirebaseUID(c.Request.Context(), uid)
	if err != nil {
		h.notFoundOr500(c, err, "get user by firebase uid")
		return
	}
	response.OK(c, gin.H{"id": u.ID})
}

// GetByID GET /users/sql/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	u, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.notFoundOr500(c, err, "get user")
		return
	}
	response.OK(c, models.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic})
}

// UploadProfilePic POST /users/:id/profile-pic (multipart field "file")
func (h *Handler) UploadProfilePic(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok || !middleware.ActingAs(c, id) {
		return
	}
	if h.pictures == nil {
		response.ServiceUnavailable(c, "profile pictures are not configured")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxProfilePicSize+1<<20)
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fh.Size > storage.MaxProfilePicSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType, err := storage.ImageContentType(fh.Header.Get("Content-Type"), fh.Filename)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer f.Close()

	ctx := c.Request.Context()
	key, err := h.pictures.UploadProfilePic(ctx, id, contentType, f, fh.Size)
	if err != nil {
		h.logger.Error("upload profile pic", zap.Error(err), zap.Int64("user_id", id))
		response.BadGateway(c, "failed to upload picture", nil)
		return
	}
	url := h.pictures.ObjectURL(key)
	if err := h.repo.SetProfilePic(ctx, id, url); err != nil {
		h.notFoundOr500(c, err, "set profile pic")
		return
	}
	data := gin.H{"profile_pic": url}
	if signed, err := h.pictures.PresignedURL(ctx, key); err == nil {
		data["signed_url"] = signed
	} else {
		h.logger.Warn("presign profile pic", zap.Error(err), zap.Int64("user_id", id))
	}
	response.Updated(c, "Profile picture updated", data)
}

func (h *Handler) notFoundOr500(c *gin.Context, err error, op string) {
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	h.logger.Error(op, zap.Error(err))
	response.Internal(c, "internal server error")
}

func userIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid user id")
		return 0, false
	}
	return id, true
}
