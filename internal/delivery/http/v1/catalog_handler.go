package v1

import (
	"errors"
	"net/http"
	"strconv"

	"mhargick-backend/internal/domain"
	"mhargick-backend/internal/usecase"
	"mhargick-backend/pkg/utils"
)

type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(catalogUC *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: catalogUC}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	filter := domain.ProductFilter{
		Page:         page,
		Limit:        limit,
		CategorySlug: r.URL.Query().Get("category"),
		Search:       r.URL.Query().Get("search"),
	}
	if f := r.URL.Query().Get("featured"); f != "" {
		featured, err := strconv.ParseBool(f)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "featured must be a boolean")
			return
		}
		filter.Featured = &featured
	}

	products, total, err := h.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch products")
		return
	}
	utils.WriteJSON(w, http.StatusOK, newPagedResponse(products, page, limit, total))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogUC.GetProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			utils.WriteError(w, http.StatusNotFound, "product not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}
	utils.WriteJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogUC.ListCategories(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}
	utils.WriteJSON(w, http.StatusOK, categories)
}

// --- Reviews ---

func (h *CatalogHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.catalogUC.GetReviews(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			utils.WriteError(w, http.StatusNotFound, "product not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "failed to fetch reviews")
		return
	}
	utils.WriteJSON(w, http.StatusOK, reviews)
}

type createReviewReq struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	user := userFromRequest(r)

	var req createReviewReq
	if err := decodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.catalogUC.CreateReview(r.Context(), user.ID, r.PathValue("id"), req.Rating, req.Comment)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			utils.WriteError(w, http.StatusNotFound, "product not found")
			return
		}
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	utils.WriteJSON(w, http.StatusCreated, review)
}
