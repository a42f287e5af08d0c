package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/promohub/internal/domain/promotion"
	"github.com/geocoder89/promohub/internal/http/handlers"
	"github.com/geocoder89/promohub/internal/query"
	"github.com/geocoder89/promohub/internal/validation"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePromotionService struct {
	listFn         func(ctx context.Context, p query.Params, f promotion.ListFilter) (query.Page[promotion.View], error)
	listByUserFn   func(ctx context.Context, userID string, p query.Params) (query.Page[promotion.View], error)
	activeFn       func(ctx context.Context) ([]promotion.View, error)
	getFn          func(ctx context.Context, id string) (promotion.View, error)
	createFn       func(ctx context.Context, req promotion.CreateRequest) (promotion.View, error)
	updateFn       func(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error)
	updateStatusFn func(ctx context.Context, id string, req promotion.StatusUpdateRequest) (promotion.View, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (f *fakePromotionService) List(ctx context.Context, p query.Params, filter promotion.ListFilter) (query.Page[promotion.View], error) {
	if f.listFn != nil {
		return f.listFn(ctx, p, filter)
	}
	return query.NewPage[promotion.View](nil, p, 0), nil
}

func (f *fakePromotionService) ListByUser(ctx context.Context, userID string, p query.Params) (query.Page[promotion.View], error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID, p)
	}
	return query.NewPage[promotion.View](nil, p, 0), nil
}

func (f *fakePromotionService) Active(ctx context.Context) ([]promotion.View, error) {
	if f.activeFn != nil {
		return f.activeFn(ctx)
	}
	return []promotion.View{}, nil
}

func (f *fakePromotionService) Get(ctx context.Context, id string) (promotion.View, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return promotion.View{}, nil
}

func (f *fakePromotionService) Create(ctx context.Context, req promotion.CreateRequest) (promotion.View, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return promotion.View{}, nil
}

func (f *fakePromotionService) Update(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return promotion.View{}, nil
}

func (f *fakePromotionService) UpdateStatus(ctx context.Context, id string, req promotion.StatusUpdateRequest) (promotion.View, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, req)
	}
	return promotion.View{}, nil
}

func (f *fakePromotionService) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	if body != "" {
		return serve(r, method, path, body)
	}

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func samplePromotion(now time.Time) promotion.Promotion {
	return promotion.Promotion{
		ID:          "p-1",
		ProductName: "Coffee",
		Price:       promotion.MustPrice("19.99"),
		Currency:    promotion.USD,
		StartDate:   now.Add(-time.Hour),
		EndDate:     now.Add(time.Hour),
		Status:      promotion.StatusApproved,
		SubmittedBy: "u-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreatePromotionHandler(t *testing.T) {
	now := time.Now().UTC()
	validBody := `{
		"productName": "Coffee",
		"price": 19.99,
		"currency": 1,
		"startDate": "` + now.Format(time.RFC3339) + `",
		"endDate": "` + now.Add(24*time.Hour).Format(time.RFC3339) + `",
		"submittedBy": "u-1"
	}`

	tests := []struct {
		name           string
		body           string
		svcSetUp       func(*fakePromotionService)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name: "success",
			body: validBody,
			svcSetUp: func(f *fakePromotionService) {
				f.createFn = func(ctx context.Context, req promotion.CreateRequest) (promotion.View, error) {
					if req.ProductName != "Coffee" || req.Price == nil || req.Price.String() != "19.99" {
						return promotion.View{}, errors.New("request not decoded")
					}
					p := req.ToPromotion()
					p.ID = "p-1"
					return p.ToView(now), nil
				}
			},
			wantStatusCode: http.StatusCreated,
			wantMessage:    "Promotion created successfully",
		},
		{
			name: "validation_error",
			body: `{"productName": ""}`,
			svcSetUp: func(f *fakePromotionService) {
				f.createFn = func(ctx context.Context, req promotion.CreateRequest) (promotion.View, error) {
					return promotion.View{}, validation.New(validation.Violation{
						Field: "productName", Rule: "required", Message: "Product name is required",
					})
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Failed to create promotion",
		},
		{
			name: "store_error",
			body: validBody,
			svcSetUp: func(f *fakePromotionService) {
				f.createFn = func(ctx context.Context, req promotion.CreateRequest) (promotion.View, error) {
					return promotion.View{}, errors.New("connection reset")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantMessage:    "Failed to create promotion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakePromotionService{}
			if tt.svcSetUp != nil {
				tt.svcSetUp(svc)
			}

			h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
			r := setupRouter(http.MethodPost, "/promotions", h.Create)

			w := serve(r, http.MethodPost, "/promotions", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			resp := decodeEnvelope(t, w)
			if resp.Message != tt.wantMessage {
				t.Fatalf("got message %q, want %q", resp.Message, tt.wantMessage)
			}
			if resp.Success != (tt.wantStatusCode < 400) {
				t.Fatalf("unexpected success flag %v", resp.Success)
			}
		})
	}
}

func TestCreatePromotionHandler_RedactsInternalErrors(t *testing.T) {
	svc := &fakePromotionService{
		createFn: func(ctx context.Context, req promotion.CreateRequest) (promotion.View, error) {
			return promotion.View{}, errors.New("dial tcp 10.0.0.1:27017: refused")
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{Redact: true}, time.Second)
	r := setupRouter(http.MethodPost, "/promotions", h.Create)

	w := serve(r, http.MethodPost, "/promotions", `{"productName":"Coffee"}`)

	resp := decodeEnvelope(t, w)
	if resp.Error != "Something went wrong" {
		t.Fatalf("internal error text leaked: %q", resp.Error)
	}
}

func TestGetPromotionHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		getFn          func(ctx context.Context, id string) (promotion.View, error)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name: "found",
			getFn: func(ctx context.Context, id string) (promotion.View, error) {
				return samplePromotion(now).ToView(now), nil
			},
			wantStatusCode: http.StatusOK,
			wantMessage:    "Promotion retrieved successfully",
		},
		{
			name: "not_found",
			getFn: func(ctx context.Context, id string) (promotion.View, error) {
				return promotion.View{}, promotion.ErrNotFound
			},
			wantStatusCode: http.StatusNotFound,
			wantMessage:    "Promotion not found",
		},
		{
			name: "store_error",
			getFn: func(ctx context.Context, id string) (promotion.View, error) {
				return promotion.View{}, errors.New("timeout")
			},
			wantStatusCode: http.StatusInternalServerError,
			wantMessage:    "Failed to retrieve promotion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewPromotionsHandler(&fakePromotionService{getFn: tt.getFn}, handlers.Responder{}, time.Second)
			r := setupRouter(http.MethodGet, "/promotions/:id", h.Get)

			w := doRequest(r, http.MethodGet, "/promotions/p-1", "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if resp := decodeEnvelope(t, w); resp.Message != tt.wantMessage {
				t.Fatalf("got message %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestGetPromotionHandler_ShapeAndETag(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakePromotionService{
		getFn: func(ctx context.Context, id string) (promotion.View, error) {
			p := samplePromotion(now)
			p.ID = id
			return p.ToView(now), nil
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodGet, "/promotions/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/promotions/p-9", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	var data map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if data["id"] != "p-9" {
		t.Fatalf("unexpected id %v", data["id"])
	}
	if data["isActive"] != true {
		t.Fatalf("expected isActive=true, got %v", data["isActive"])
	}
	if data["price"] != 19.99 {
		t.Fatalf("expected numeric price 19.99, got %v", data["price"])
	}
	ref, ok := data["submittedBy"].(map[string]any)
	if !ok || ref["id"] != "u-1" {
		t.Fatalf("expected submittedBy reference, got %v", data["submittedBy"])
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag header")
	}

	req := httptest.NewRequest(http.MethodGet, "/promotions/p-9", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)

	if w2.Code != http.StatusNotModified {
		t.Fatalf("got status %d, want %d", w2.Code, http.StatusNotModified)
	}
}

func TestListPromotionsHandler_PassesParamsAndFilters(t *testing.T) {
	var (
		gotParams query.Params
		gotFilter promotion.ListFilter
	)

	svc := &fakePromotionService{
		listFn: func(ctx context.Context, p query.Params, f promotion.ListFilter) (query.Page[promotion.View], error) {
			gotParams, gotFilter = p, f
			return query.NewPage([]promotion.View{{}}, p, 21), nil
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodGet, "/promotions", h.List)

	w := doRequest(r, http.MethodGet, "/promotions?page=2&limit=500&sortBy=price&sortOrder=asc&status=approved&submittedBy=u-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}

	want := query.Params{Page: 2, Limit: query.MaxLimit, SortBy: "price", SortOrder: "asc"}
	if gotParams != want {
		t.Fatalf("got params %+v, want %+v", gotParams, want)
	}
	if gotFilter.Status != "approved" || gotFilter.SubmittedBy != "u-1" {
		t.Fatalf("unexpected filter %+v", gotFilter)
	}

	var data struct {
		Promotions []json.RawMessage `json:"promotions"`
		Pagination query.Pagination  `json:"pagination"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if len(data.Promotions) != 1 {
		t.Fatalf("got %d promotions, want 1", len(data.Promotions))
	}
	if data.Pagination != (query.Pagination{Page: 2, Limit: 100, Total: 21, Pages: 1}) {
		t.Fatalf("unexpected pagination %+v", data.Pagination)
	}
}

func TestListPromotionsHandler_EmptyListIsArray(t *testing.T) {
	h := handlers.NewPromotionsHandler(&fakePromotionService{}, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodGet, "/promotions", h.List)

	w := doRequest(r, http.MethodGet, "/promotions", "")

	var data map[string]json.RawMessage
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if string(data["promotions"]) != "[]" {
		t.Fatalf("expected empty array, got %s", data["promotions"])
	}
}

func TestListPromotionsHandler_BadSortIs400(t *testing.T) {
	svc := &fakePromotionService{
		listFn: func(ctx context.Context, p query.Params, f promotion.ListFilter) (query.Page[promotion.View], error) {
			_, err := query.Build(p, []string{"createdAt"}, nil)
			return query.Page[promotion.View]{}, err
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodGet, "/promotions", h.List)

	w := doRequest(r, http.MethodGet, "/promotions?sortBy=secret", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}
	if resp := decodeEnvelope(t, w); resp.Message != "Failed to retrieve promotions" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestActivePromotionsHandler(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakePromotionService{
		activeFn: func(ctx context.Context) ([]promotion.View, error) {
			return []promotion.View{samplePromotion(now).ToView(now)}, nil
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodGet, "/promotions/active", h.Active)

	w := doRequest(r, http.MethodGet, "/promotions/active", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}

	resp := decodeEnvelope(t, w)
	if resp.Message != "Active promotions retrieved successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(items) != 1 || items[0]["isActive"] != true {
		t.Fatalf("unexpected items %v", items)
	}
}

func TestUpdatePromotionHandler(t *testing.T) {
	tests := []struct {
		name           string
		updateFn       func(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name: "success",
			updateFn: func(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error) {
				if req.ProductName == nil || *req.ProductName != "Tea" {
					return promotion.View{}, errors.New("request not decoded")
				}
				return promotion.View{Promotion: promotion.Promotion{ID: id, ProductName: *req.ProductName}}, nil
			},
			wantStatusCode: http.StatusOK,
			wantMessage:    "Promotion updated successfully",
		},
		{
			name: "not_found",
			updateFn: func(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error) {
				return promotion.View{}, promotion.ErrNotFound
			},
			wantStatusCode: http.StatusNotFound,
			wantMessage:    "Promotion not found",
		},
		{
			name: "invalid_dates",
			updateFn: func(ctx context.Context, id string, req promotion.UpdateRequest) (promotion.View, error) {
				return promotion.View{}, promotion.CheckDateOrder(time.Now(), time.Now().Add(-time.Hour))
			},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Failed to update promotion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewPromotionsHandler(&fakePromotionService{updateFn: tt.updateFn}, handlers.Responder{}, time.Second)
			r := setupRouter(http.MethodPut, "/promotions/:id", h.Update)

			w := serve(r, http.MethodPut, "/promotions/p-1", `{"productName":"Tea"}`)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if resp := decodeEnvelope(t, w); resp.Message != tt.wantMessage {
				t.Fatalf("got message %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestUpdatePromotionStatusHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantStatusCode int
		wantMessage    string
	}{
		{name: "approve", body: `{"status":"approved","comment":"ok"}`, wantStatusCode: http.StatusOK, wantMessage: "Promotion status updated successfully"},
		{name: "invalid_status", body: `{"status":"archived"}`, wantStatusCode: http.StatusBadRequest, wantMessage: "Invalid status provided"},
		{name: "missing", body: `{"status":"pending"}`, wantStatusCode: http.StatusNotFound, wantMessage: "Promotion not found"},
	}

	svc := &fakePromotionService{
		updateStatusFn: func(ctx context.Context, id string, req promotion.StatusUpdateRequest) (promotion.View, error) {
			if err := req.Validate(); err != nil {
				return promotion.View{}, err
			}
			if req.Status == promotion.StatusPending {
				return promotion.View{}, promotion.ErrNotFound
			}
			return promotion.View{Promotion: promotion.Promotion{ID: id, Status: req.Status, Comment: req.Comment}}, nil
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodPatch, "/promotions/:id/status", h.UpdateStatus)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodPatch, "/promotions/p-1/status", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
			if resp := decodeEnvelope(t, w); resp.Message != tt.wantMessage {
				t.Fatalf("got message %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestDeletePromotionHandler(t *testing.T) {
	svc := &fakePromotionService{
		deleteFn: func(ctx context.Context, id string) error {
			if id == "p-1" {
				return nil
			}
			return promotion.ErrNotFound
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodDelete, "/promotions/:id", h.Delete)

	w := doRequest(r, http.MethodDelete, "/promotions/p-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	resp := decodeEnvelope(t, w)
	if resp.Message != "Promotion deleted successfully" || len(resp.Data) != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}

	w = doRequest(r, http.MethodDelete, "/promotions/p-2", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", w.Code)
	}
}

func TestListUserPromotionsHandler(t *testing.T) {
	var gotUser string

	svc := &fakePromotionService{
		listByUserFn: func(ctx context.Context, userID string, p query.Params) (query.Page[promotion.View], error) {
			gotUser = userID
			return query.NewPage[promotion.View](nil, p, 0), nil
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, time.Second)
	r := setupRouter(http.MethodGet, "/promotions/user/:userId", h.ListByUser)

	w := doRequest(r, http.MethodGet, "/promotions/user/u-7?page=1&limit=5", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", w.Code)
	}
	if gotUser != "u-7" {
		t.Fatalf("got user %q, want u-7", gotUser)
	}
	if resp := decodeEnvelope(t, w); resp.Message != "User promotions retrieved successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestHandler_RequestContextHasDeadline(t *testing.T) {
	svc := &fakePromotionService{
		activeFn: func(ctx context.Context) ([]promotion.View, error) {
			if _, ok := ctx.Deadline(); !ok {
				return nil, errors.New("no deadline")
			}
			return nil, nil
		},
	}

	h := handlers.NewPromotionsHandler(svc, handlers.Responder{}, 50*time.Millisecond)
	r := setupRouter(http.MethodGet, "/promotions/active", h.Active)

	if w := doRequest(r, http.MethodGet, "/promotions/active", ""); w.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200, body=%s", w.Code, w.Body.String())
	}
}
