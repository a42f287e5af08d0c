package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/promohub/internal/config"
	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/validation"
	"github.com/gin-gonic/gin"
)

type PromotionService interface {
	List(ctx context.Context, p query.Params, f promotion.ListFilter) (query.Page[promotion.View], error)
	ListByUser(ctx context.Context, userID string, p query.Params) (query.Page[promotion.View], error)
	Active(ctx context.Context) ([]promotion.View, error)
	Get(ctx context.Context, id string) (promotion.View, error)
	Create(ctx context.Context, req promotion.CreateRequest) (promotion.View, error)
	Update(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error)
	UpdateStatus(ctx context.Context, id string, req promotion.StatusUpdateRequest) (promotion.View, error)
	Delete(ctx context.Context, id string) error
}

type PromotionsHandler struct {
	svc     PromotionService
	resp    Responder
	timeout time.Duration
}

func NewPromotionsHandler(svc PromotionService, resp Responder, timeout time.Duration) *PromotionsHandler {
	return &PromotionsHandler{svc: svc, resp: resp, timeout: timeout}
}

const promotionNotFound = "Promotion not found"

func listParams(ctx *gin.Context) query.Params {
	return query.NewParams(ctx.Query("page"), ctx.Query("limit"), ctx.Query("sortBy"), ctx.Query("sortOrder"))
}

// requestContext bounds the store call by the configured timeout and by the
// client staying connected.
func requestContext(ctx *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx.Request.Context())
	}

	return config.WithTimeout(ctx.Request.Context(), timeout)
}

func (h *PromotionsHandler) List(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	page, err := h.svc.List(c, listParams(ctx), promotion.ListFilter{
		Status:      ctx.Query("status"),
		SubmittedBy: ctx.Query("submittedBy"),
	})
	if err != nil {
		h.resp.Fail(ctx, err, nil, "", "Failed to retrieve promotions")
		return
	}

	h.resp.OK(ctx, "Promotions retrieved successfully", gin.H{
		"promotions": page.Items,
		"pagination": page.Pagination,
	})
}

func (h *PromotionsHandler) Active(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	items, err := h.svc.Active(c)
	if err != nil {
		h.resp.Fail(ctx, err, nil, "", "Failed to retrieve active promotions")
		return
	}

	h.resp.OK(ctx, "Active promotions retrieved successfully", items)
}

func (h *PromotionsHandler) Get(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	p, err := h.svc.Get(c, ctx.Param("id"))
	if err != nil {
		h.resp.Fail(ctx, err, promotion.ErrNotFound, promotionNotFound, "Failed to retrieve promotion")
		return
	}

	h.resp.OKWithETag(ctx, "Promotion retrieved successfully", p)
}

func (h *PromotionsHandler) Create(ctx *gin.Context) {
	var req promotion.CreateRequest
	if !h.resp.BindJSON(ctx, &req, "Failed to create promotion") {
		return
	}

	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	p, err := h.svc.Create(c, req)
	if err != nil {
		h.resp.Fail(ctx, err, nil, "", "Failed to create promotion")
		return
	}

	h.resp.Created(ctx, "Promotion created successfully", p)
}

func (h *PromotionsHandler) Update(ctx *gin.Context) {
	var req promotion.UpdateRequest
	if !h.resp.BindJSON(ctx, &req, "Failed to update promotion") {
		return
	}

	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	p, err := h.svc.Update(c, ctx.Param("id"), req)
	if err != nil {
		h.resp.Fail(ctx, err, promotion.ErrNotFound, promotionNotFound, "Failed to update promotion")
		return
	}

	h.resp.OK(ctx, "Promotion updated successfully", p)
}

func (h *PromotionsHandler) Delete(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	if err := h.svc.Delete(c, ctx.Param("id")); err != nil {
		h.resp.Fail(ctx, err, promotion.ErrNotFound, promotionNotFound, "Failed to delete promotion")
		return
	}

	h.resp.OK(ctx, "Promotion deleted successfully", nil)
}

func (h *PromotionsHandler) UpdateStatus(ctx *gin.Context) {
	var req promotion.StatusUpdateRequest
	if !h.resp.BindJSON(ctx, &req, "Failed to update promotion status") {
		return
	}

	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	p, err := h.svc.UpdateStatus(c, ctx.Param("id"), req)
	if err != nil {
		if verr, ok := validation.As(err); ok && verr.Has("status", "") {
			h.resp.BadRequest(ctx, "Invalid status provided", verr.Error(), verr.Violations)
			return
		}
		h.resp.Fail(ctx, err, promotion.ErrNotFound, promotionNotFound, "Failed to update promotion status")
		return
	}

	h.resp.OK(ctx, "Promotion status updated successfully", p)
}

func (h *PromotionsHandler) ListByUser(ctx *gin.Context) {
	c, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	page, err := h.svc.ListByUser(c, ctx.Param("userId"), listParams(ctx))
	if err != nil {
		h.resp.Fail(ctx, err, nil, "", "Failed to retrieve user promotions")
		return
	}

	h.resp.OK(ctx, "User promotions retrieved successfully", gin.H{
		"promotions": page.Items,
		"pagination": page.Pagination,
	})
}
