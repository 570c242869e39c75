package web

import (
	"net/http"

	"backoffice/internal/app"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.svc.ListCategories(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, cats)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req app.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cat, err := h.svc.CreateCategory(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, cat)
}

// listProducts handles GET /api/products?category_id=&search=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := queryIntPtr(w, r, "category_id")
	if !ok {
		return
	}
	products, err := h.svc.ListProducts(r.Context(), principal(r), app.ProductListRequest{
		CategoryID: categoryID,
		Search:     r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.svc.CreateProduct(r.Context(), principal(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, product)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.svc.GetProduct(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.ProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	product, err := h.svc.UpdateProduct(r.Context(), principal(r), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, product)
}
