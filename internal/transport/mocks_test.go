package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"petshop/internal/domain"
	"petshop/internal/middleware"
	"petshop/internal/review"
	"petshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Mocks embed the service interface; calling a method a test did not stub panics.

type mockProductService struct {
	service.ProductService
	create      func(ctx context.Context, input service.ProductInput) (*domain.Product, bool, error)
	update      func(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error)
	delete      func(ctx context.Context, id uuid.UUID) error
	get         func(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	list        func(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
	categories  func(ctx context.Context) ([]string, error)
	adjustStock func(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error)
}

func (m *mockProductService) Create(ctx context.Context, input service.ProductInput) (*domain.Product, bool, error) {
	return m.create(ctx, input)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, patch domain.ProductPatch) (*domain.Product, error) {
	return m.update(ctx, id, patch)
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}

func (m *mockProductService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return m.get(ctx, id)
}

func (m *mockProductService) List(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	return m.list(ctx, filter)
}

func (m *mockProductService) Categories(ctx context.Context) ([]string, error) {
	return m.categories(ctx)
}

func (m *mockProductService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*domain.Product, error) {
	return m.adjustStock(ctx, id, delta)
}

type mockCartService struct {
	service.CartService
	add         func(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error)
	setQuantity func(ctx context.Context, lineID uuid.UUID, quantity int) (*domain.CartLine, error)
	remove      func(ctx context.Context, lineID uuid.UUID) error
	lines       func(ctx context.Context, sessionID string) ([]*domain.CartLine, error)
	clear       func(ctx context.Context, sessionID string) error
}

func (m *mockCartService) Add(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartLine, error) {
	return m.add(ctx, sessionID, productID, quantity)
}

func (m *mockCartService) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int) (*domain.CartLine, error) {
	return m.setQuantity(ctx, lineID, quantity)
}

func (m *mockCartService) Remove(ctx context.Context, lineID uuid.UUID) error {
	return m.remove(ctx, lineID)
}

func (m *mockCartService) Lines(ctx context.Context, sessionID string) ([]*domain.CartLine, error) {
	return m.lines(ctx, sessionID)
}

func (m *mockCartService) Clear(ctx context.Context, sessionID string) error {
	return m.clear(ctx, sessionID)
}

type mockOrderService struct {
	service.OrderService
	checkout      func(ctx context.Context, sessionID, shippingAddress, buyerName string) (*domain.Order, error)
	listBySession func(ctx context.Context, sessionID string) ([]*domain.Order, error)
	get           func(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

func (m *mockOrderService) Checkout(ctx context.Context, sessionID, shippingAddress, buyerName string) (*domain.Order, error) {
	return m.checkout(ctx, sessionID, shippingAddress, buyerName)
}

func (m *mockOrderService) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	return m.listBySession(ctx, sessionID)
}

func (m *mockOrderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return m.get(ctx, id)
}

type mockReviewService struct {
	service.ReviewService
	rate       func(ctx context.Context, productID uuid.UUID, userName string, rating int) (*domain.Rating, error)
	addComment func(ctx context.Context, productID uuid.UUID, userName, text string) (*domain.Comment, error)
	vote       func(ctx context.Context, commentID uuid.UUID, voter string, direction domain.VoteDirection) (domain.VoteTally, error)
	summary    func(ctx context.Context, productID uuid.UUID) (review.Summary, error)
	dashboard  func(ctx context.Context) ([]service.DashboardEntry, error)
	comments   func(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error)
}

func (m *mockReviewService) Rate(ctx context.Context, productID uuid.UUID, userName string, rating int) (*domain.Rating, error) {
	return m.rate(ctx, productID, userName, rating)
}

func (m *mockReviewService) AddComment(ctx context.Context, productID uuid.UUID, userName, text string) (*domain.Comment, error) {
	return m.addComment(ctx, productID, userName, text)
}

func (m *mockReviewService) Vote(ctx context.Context, commentID uuid.UUID, voter string, direction domain.VoteDirection) (domain.VoteTally, error) {
	return m.vote(ctx, commentID, voter, direction)
}

func (m *mockReviewService) Summary(ctx context.Context, productID uuid.UUID) (review.Summary, error) {
	return m.summary(ctx, productID)
}

func (m *mockReviewService) Dashboard(ctx context.Context) ([]service.DashboardEntry, error) {
	return m.dashboard(ctx)
}

func (m *mockReviewService) Comments(ctx context.Context, productID uuid.UUID) ([]*domain.Comment, error) {
	return m.comments(ctx, productID)
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler)
}

func newTestRouter(handlers ...routeRegistrar) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.SessionMiddleware)
	for _, h := range handlers {
		h.RegisterRoutes(r, nil)
	}
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}
