package http

import (
	"net/http"
	"strings"

	"shoptracker/internal/domain"
	"shoptracker/internal/inventory"
	"shoptracker/internal/service"

	"github.com/go-chi/chi/v5"
)

const maxImportSize = 32 << 20

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := inventory.ProductQuery{
		Search:   query.Get("search"),
		Category: strings.TrimSpace(query.Get("category")),
		Sort:     strings.TrimSpace(query.Get("sort")),
		Page:     page.Page,
		PerPage:  page.PerPage,
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" && raw != "all" {
		status, ok := domain.ParseStockStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "status must be one of in-stock, low-stock, out-of-stock")
			return
		}
		q.Status = status
	}
	switch dir := inventory.SortDir(strings.ToLower(strings.TrimSpace(query.Get("dir")))); dir {
	case "", inventory.SortAsc, inventory.SortDesc:
		q.Dir = dir
	default:
		writeError(w, http.StatusBadRequest, "dir must be asc or desc")
		return
	}

	result, err := h.svc.QueryProducts(r.Context(), identityOf(r).TenantID, q)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.GetProduct(r.Context(), identityOf(r).TenantID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req service.CreateProductInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity := identityOf(r)
	created, err := h.svc.CreateProduct(r.Context(), identity.TenantID, identity.Actor(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity := identityOf(r)
	updated, err := h.svc.UpdateProduct(r.Context(), identity.TenantID, identity.Actor(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	identity := identityOf(r)
	if err := h.svc.DeleteProduct(r.Context(), identity.TenantID, identity.Actor(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sellRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) SellProduct(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity := identityOf(r)
	result, err := h.svc.SellProduct(r.Context(), identity.TenantID, identity.Actor(), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	identity := identityOf(r)
	result, err := h.svc.ImportProducts(r.Context(), identity.TenantID, identity.Actor(), header.Filename, file)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_name": header.Filename,
		"result":    result,
	})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context(), identityOf(r).TenantID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": categories, "count": len(categories)})
}
