package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/promohub/internal/domain/user"
	"github.com/geocoder89/promohub/internal/query"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	List(ctx context.Context, p query.Params) (query.Page[user.View], error)
	Get(ctx context.Context, id string) (user.View, error)
	Create(ctx context.Context, req user.CreateRequest) (user.View, error)
	Update(ctx context.Context, id string, req user.UpdateRequest) (user.View, error)
	Delete(ctx context.Context, id string) error
}

type UsersHandler struct {
	svc     UserService
	resp    Responder
	timeout time.Duration
}

func NewUsersHandler(svc UserService, resp Responder, timeout time.Duration) *UsersHandler {
	return &UsersHandler{svc: svc, resp: resp, timeout: timeout}
}

const userNotFound = "User not found"

func (h *UsersHandler) List(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	page, err := h.svc.List(c, listParams(ctx))
	if err != nil {
		h.resp.Fail(ctx, err, nil, "", "Failed to retrieve users")
		return
	}

	h.resp.OK(ctx, "Users retrieved successfully", gin.H{
		"users":      page.Items,
		"pagination": page.Pagination,
	})
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	u, err := h.svc.Get(c, ctx.Param("id"))
	if err != nil {
		h.resp.Fail(ctx, err, user.ErrNotFound, userNotFound, "Failed to retrieve user")
		return
	}

	h.resp.OKWithETag(ctx, "User retrieved successfully", u)
}

func (h *UsersHandler) Create(ctx *gin.Context) {
	var req user.CreateRequest
	if !h.resp.BindJSON(ctx, &req, "Failed to create user") {
		return
	}

	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	u, err := h.svc.Create(c, req)
	if err != nil {
		h.resp.Fail(ctx, err, nil, "", "Failed to create user")
		return
	}

	h.resp.Created(ctx, "User created successfully", u)
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	var req user.UpdateRequest
	if !h.resp.BindJSON(ctx, &req, "Failed to update user") {
		return
	}

	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	u, err := h.svc.Update(c, ctx.Param("id"), req)
	if err != nil {
		h.resp.Fail(ctx, err, user.ErrNotFound, userNotFound, "Failed to update user")
		return
	}

	h.resp.OK(ctx, "User updated successfully", u)
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	if err := h.svc.Delete(c, ctx.Param("id")); err != nil {
		h.resp.Fail(ctx, err, user.ErrNotFound, userNotFound, "Failed to delete user")
		return
	}

	h.resp.OK(ctx, "User deleted successfully", nil)
}
