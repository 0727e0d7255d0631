package http

import (
	"net/http"
	"strings"

	"shoptracker/internal/inventory"
)

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := parsePage(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseOptionalTime(query.Get("from"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := parseOptionalTime(query.Get("to"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	result, err := h.svc.QuerySales(r.Context(), identityOf(r).TenantID, inventory.SaleQuery{
		Search:    query.Get("search"),
		ProductID: strings.TrimSpace(query.Get("product_id")),
		From:      from,
		To:        to,
		Page:      page.Page,
		PerPage:   page.PerPage,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) SalesStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.SalesStats(r.Context(), identityOf(r).TenantID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Dashboard(r.Context(), identityOf(r).TenantID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.svc.Alerts(r.Context(), identityOf(r).TenantID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Report(r.Context(), identityOf(r).TenantID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
