package http

import (
	"net/http"
	"time"

	"shoptracker/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger             *zap.Logger
	Metrics            *observability.Metrics
	RequestTimeout     time.Duration
	RateLimitPerMinute int
	AdminLoginRate     string
	SSLRedirect        bool
}

func NewRouter(handler *Handler, cfg RouterConfig) (http.Handler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	perMinute := cfg.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 120
	}
	loginRate := cfg.AdminLoginRate
	if loginRate == "" {
		loginRate = "5-M"
	}
	loginLimiter, err := AdminLoginLimiter(loginRate)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(Recoverer(logger))
	r.Use(SecureHeaders(logger, cfg.SSLRedirect))
	r.Use(CORS)
	r.Use(cfg.Metrics.Middleware)

	r.Get("/healthz", handler.Health)
	r.Handle("/metrics", cfg.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(perMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireTenant)
			r.Get("/stream", handler.Stream)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(timeout))

				r.Post("/session", handler.StartSession)

				r.Get("/products", handler.ListProducts)
				r.Post("/products", handler.CreateProduct)
				r.Post("/products/import", handler.ImportProducts)
				r.Get("/products/{id}", handler.GetProduct)
				r.Patch("/products/{id}", handler.PatchProduct)
				r.Delete("/products/{id}", handler.DeleteProduct)
				r.Post("/products/{id}/sell", handler.SellProduct)
				r.Get("/categories", handler.ListCategories)

				r.Get("/sales", handler.ListSales)
				r.Get("/sales/stats", handler.SalesStats)

				r.Get("/dashboard", handler.Dashboard)
				r.Get("/alerts", handler.Alerts)
				r.Get("/reports", handler.Reports)

				r.Post("/support", handler.SubmitSupport)
				r.Get("/support", handler.ListOwnSupport)
				r.Get("/activity", handler.ListOwnActivity)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))
			r.With(loginLimiter).Post("/login", handler.AdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(handler.RequireAdmin)
				r.Get("/tenants", handler.ListTenants)
				r.Get("/tenants/{id}", handler.GetTenant)
				r.Get("/support", handler.ListSupport)
				r.Get("/support/stats", handler.SupportStats)
				r.Patch("/support/{id}", handler.UpdateSupportStatus)
				r.Get("/activity", handler.ListActivity)
			})
		})
	})

	return r, nil
}
