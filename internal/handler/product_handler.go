package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pricewatch/backend/internal/apperror"
)

type ProductHandler struct {
	catalog CatalogServiceInterface
}

func NewProductHandler(catalog CatalogServiceInterface) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List returns the full product catalog with active watcher counts.
// GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// Get returns a single product.
// GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, apperror.BadRequest("invalid product ID"))
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

type updatePriceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// UpdatePrice sets a product's canonical price. The change is recorded
// in price history and, on a drop, pending alerts are evaluated before
// the response is written.
// PUT /api/products/{id}/price
func (h *ProductHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondAppError(w, apperror.BadRequest("invalid product ID"))
		return
	}

	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, apperror.BadRequest("invalid request body"))
		return
	}

	product, err := h.catalog.UpdatePrice(r.Context(), id, req.Price)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}
