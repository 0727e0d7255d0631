package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if h.admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin console is not configured")
		return
	}
	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.admin.Login(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("admin login rejected", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.svc.LogAdminLogin(r.Context(), session.Email)
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.ListTenants(r.Context(), page.Page, page.PerPage)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.svc.GetTenant(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (h *Handler) ListSupport(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.ListSupportTickets(r.Context(), r.URL.Query().Get("status"), page.Page, page.PerPage)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) SupportStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.SupportStats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type supportStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateSupportStatus(w http.ResponseWriter, r *http.Request) {
	var req supportStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ticket, err := h.svc.UpdateSupportStatus(r.Context(), identityOf(r).Actor(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ticket)
}

// ListActivity shows the whole audit feed, or one tenant's with tenant_id.
func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := r.URL.Query()
	var tenantID *string
	if raw := strings.TrimSpace(query.Get("tenant_id")); raw != "" {
		tenantID = &raw
	}
	result, err := h.svc.ListActivity(r.Context(), tenantID, query.Get("search"), page.Page, page.PerPage)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
