package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/userdesk/internal/domain/user"
	"github.com/geocoder89/userdesk/internal/security"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// UsersStore is implemented by the memory and postgres users repositories.
type UsersStore interface {
	Create(ctx context.Context, req user.CreateRequest, passwordHash string) (user.User, error)
	List(ctx context.Context, offset, limit int) ([]user.User, int, error)
	GetByID(ctx context.Context, id int64) (user.User, error)
	Update(ctx context.Context, id int64, req user.UpdateRequest) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

type UsersHandler struct {
	repo UsersStore
}

func NewUsersHandler(repo UsersStore) *UsersHandler {
	return &UsersHandler{repo: repo}
}

// ListUsers serves GET /users?page=&limit= with a zero-based page.
func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	page, ok := queryInt(ctx, "page", 0, 0, -1)
	if !ok {
		return
	}
	limit, ok := queryInt(ctx, "limit", defaultPageLimit, 1, maxPageLimit)
	if !ok {
		return
	}
	if page > math.MaxInt/limit {
		RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": "page"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	users, total, err := h.repo.List(cctx, page*limit, limit)
	if errors.Is(err, user.ErrBadWindow) {
		RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": "page"})
		return
	}
	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, user.Page{Users: users, Total: total})
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	u, err := h.repo.GetByID(ctx.Request.Context(), id)
	if err != nil {
		h.respondRepoErr(ctx, err, "Could not fetch user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	var req user.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	var hash string
	if req.Password != "" {
		var err error
		if hash, err = security.HashPassword(req.Password); err != nil {
			RespondInternal(ctx, "Could not create user")
			return
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.repo.Create(cctx, req, hash)
	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	ctx.Header("Location", ctx.FullPath()+"/"+strconv.FormatInt(u.ID, 10))
	ctx.JSON(http.StatusCreated, u)
}

// UpdateUser applies a partial update; fields absent from the body are kept.
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req user.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.repo.Update(cctx, id, req)
	if err != nil {
		h.respondRepoErr(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		h.respondRepoErr(ctx, err, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, user.DeleteResult{Deleted: true, ID: id})
}

func (h *UsersHandler) respondRepoErr(ctx *gin.Context, err error, msg string) {
	if errors.Is(err, user.ErrNotFound) {
		RespondNotFound(ctx, "User not found")
		return
	}
	RespondInternal(ctx, msg)
}

func pathID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"field": "id"})
		return 0, false
	}
	return id, true
}

// queryInt reads a non-negative integer query parameter. max < 0 means no
// upper bound.
func queryInt(ctx *gin.Context, name string, def, min, max int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < min || (max >= 0 && n > max) {
		RespondBadRequest(ctx, "Invalid query parameter", gin.H{"field": name})
		return 0, false
	}
	return n, true
}
