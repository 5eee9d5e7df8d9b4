package transport

import (
	"net/http"
	"strconv"

	"petshop/internal/domain"
	"petshop/internal/middleware"
	"petshop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest lists an item. Posting a name that already exists
// adds the stock to that product instead.
type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=5000"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	ImageURL    string           `json:"image_url" validate:"max=2048"`
	Category    string           `json:"category" validate:"max=100"`
	Stock       int              `json:"stock" validate:"gte=0"`
	OwnerUID    string           `json:"owner_uid" validate:"max=128"`
}

// UpdateProductRequest is a partial update; absent fields keep their value
type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description" validate:"omitempty,max=5000"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,max=2048"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Stock       *int             `json:"stock"`
}

// AdjustStockRequest adds (positive) or withdraws (negative) stock
type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// CreateProductResponse tells a new listing from a restock
type CreateProductResponse struct {
	Product   *domain.Product `json:"product"`
	Restocked bool            `json:"restocked"`
}

// ProductHandler handles HTTP requests for the catalog
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// RegisterRoutes registers the catalog routes; writeLimit guards mutations
func (h *ProductHandler) RegisterRoutes(r chi.Router, writeLimit func(http.Handler) http.Handler) {
	r.Get("/api/products", h.List)
	r.Get("/api/products/{id}", h.Get)
	r.Get("/api/categories", h.Categories)

	r.Group(func(r chi.Router) {
		r.Use(orPassthrough(writeLimit))
		r.Post("/api/products", h.Create)
		r.Put("/api/products/{id}", h.Update)
		r.Delete("/api/products/{id}", h.Delete)
		r.Post("/api/products/{id}/stock", h.AdjustStock)
	})
}

// List handles paginated catalog listing with optional category and search
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.products.List(r.Context(), domain.ProductFilter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Page:     queryInt(q.Get("page")),
		PerPage:  queryInt(q.Get("per_page")),
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// Create handles listing a product or restocking one with the same name
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, restocked, err := h.products.Create(r.Context(), service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
		OwnerUID:    req.OwnerUID,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "create product")
		return
	}

	status := http.StatusCreated
	if restocked {
		status = http.StatusOK
	}
	middleware.RespondWithJSON(w, status, CreateProductResponse{Product: product, Restocked: restocked})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.products.Update(r.Context(), id, domain.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		Stock:       req.Stock,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product, err := h.products.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		respondServiceError(w, h.logger, err, "adjust stock")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// queryInt parses an optional integer query value; junk reads as unset
func queryInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
