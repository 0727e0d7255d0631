package http

import (
	"net/http"

	"shoptracker/internal/service"
)

func (h *Handler) SubmitSupport(w http.ResponseWriter, r *http.Request) {
	var req service.SupportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	identity := identityOf(r)
	ticket, err := h.svc.SubmitSupportTicket(r.Context(), service.Requester{
		TenantID:    identity.TenantID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	}, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

func (h *Handler) ListOwnSupport(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.svc.ListOwnSupportTickets(r.Context(), identityOf(r).TenantID, page.Page, page.PerPage)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ListOwnActivity(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tenantID := identityOf(r).TenantID
	result, err := h.svc.ListActivity(r.Context(), &tenantID, r.URL.Query().Get("search"), page.Page, page.PerPage)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
