package http

import (
	"context"
	"net/http"
	"sync"

	"shoptracker/internal/auth"
	"shoptracker/internal/domain"
	"shoptracker/internal/service"

	"go.uber.org/zap"
)

// EventStream delivers a tenant's change events until ctx ends.
type EventStream interface {
	Stream(ctx context.Context, tenantID string) (<-chan domain.ChangeEvent, error)
}

type HandlerDeps struct {
	Service *service.Service
	Stream  EventStream
	Tokens  *auth.Verifier
	// Admin is nil when no console credentials are configured.
	Admin  *auth.AdminAuthenticator
	Logger *zap.Logger
}

type Handler struct {
	svc     *service.Service
	stream  EventStream
	tokens  *auth.Verifier
	admin   *auth.AdminAuthenticator
	logger  *zap.Logger
	tenants sync.Map
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:    deps.Service,
		stream: deps.Stream,
		tokens: deps.Tokens,
		admin:  deps.Admin,
		logger: logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type sessionRequest struct {
	BusinessName *string `json:"business_name"`
}

// StartSession registers or refreshes the caller's tenant profile.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	identity := identityOf(r)
	var req sessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	tenant, err := h.svc.EnsureTenant(r.Context(), service.TenantProfile{
		ID:           identity.TenantID,
		Email:        identity.Email,
		DisplayName:  identity.DisplayName,
		BusinessName: req.BusinessName,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	h.tenants.Store(tenant.ID, struct{}{})
	writeJSON(w, http.StatusOK, tenant)
}

// ensureTenant registers a tenant the first time this process sees it.
// Failures are logged and retried on the next request.
func (h *Handler) ensureTenant(ctx context.Context, identity auth.Identity) {
	if _, ok := h.tenants.Load(identity.TenantID); ok {
		return
	}
	_, err := h.svc.EnsureTenant(ctx, service.TenantProfile{
		ID:          identity.TenantID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
	})
	if err != nil {
		h.logger.Warn("ensure tenant failed", zap.String("tenant_id", identity.TenantID), zap.Error(err))
		return
	}
	h.tenants.Store(identity.TenantID, struct{}{})
}

func identityOf(r *http.Request) auth.Identity {
	identity, _ := auth.IdentityFrom(r.Context())
	return identity
}
