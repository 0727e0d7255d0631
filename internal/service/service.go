package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"shoptracker/internal/domain"
	"shoptracker/internal/inventory"
	"shoptracker/internal/jobs"
	"shoptracker/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Repository is the persistence the service needs; *repository.Repository
// implements it.
type Repository interface {
	ListProducts(ctx context.Context, tenantID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, tenantID, id string) (domain.Product, error)
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, tenantID, id string, patch domain.ProductPatch) (domain.Product, domain.Product, error)
	DeleteProduct(ctx context.Context, tenantID, id string) error
	UpsertProducts(ctx context.Context, tenantID string, rows []domain.ProductImportRow, newID func() string) (repository.UpsertResult, error)

	ListSales(ctx context.Context, tenantID string) ([]domain.Sale, error)
	SellProduct(ctx context.Context, input repository.SellInput) (domain.Product, domain.Sale, error)

	UpsertTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
	ListTenantStats(ctx context.Context, limit, offset int) ([]domain.TenantStats, error)
	GetTenantStats(ctx context.Context, tenantID string) (domain.TenantStats, error)
	CountTenants(ctx context.Context) (int, error)

	CreateSupportTicket(ctx context.Context, ticket domain.SupportTicket) (domain.SupportTicket, error)
	ListSupportTickets(ctx context.Context, filter domain.SupportFilter) ([]domain.SupportTicket, error)
	CountSupportTickets(ctx context.Context, filter domain.SupportFilter) (int, error)
	SupportStatusCounts(ctx context.Context) (map[domain.SupportStatus]int, error)
	UpdateSupportStatus(ctx context.Context, id string, status domain.SupportStatus) (domain.SupportTicket, error)

	LogActivity(ctx context.Context, entry domain.ActivityEntry) error
	ListActivity(ctx context.Context, filter domain.ActivityFilter) ([]domain.ActivityEntry, error)
	CountActivity(ctx context.Context, filter domain.ActivityFilter) (int, error)
}

// Publisher fans change events out to other instances.
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

type Enqueuer interface {
	EnqueueStockAlert(ctx context.Context, payload jobs.StockAlertPayload) error
}

// Snapshots serves the cached tenant collections; *inventory.Hub implements it.
type Snapshots interface {
	Snapshot(ctx context.Context, tenantID string) inventory.Snapshot
	Apply(event domain.ChangeEvent)
}

type Metrics interface {
	SaleRecorded()
	StockConflict()
}

type Deps struct {
	Repo      Repository
	Publisher Publisher
	Jobs      Enqueuer
	Snapshots Snapshots
	Metrics   Metrics
	Logger    *zap.Logger
}

type Options struct {
	DefaultMinStock int
	Now             func() time.Time
	NewID           func() string
}

type Service struct {
	repo      Repository
	publisher Publisher
	jobs      Enqueuer
	snapshots Snapshots
	metrics   Metrics
	logger    *zap.Logger
	validate  *validator.Validate
	opts      Options
}

func New(deps Deps, opts Options) *Service {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.DefaultMinStock < 0 {
		opts.DefaultMinStock = 0
	}
	return &Service{
		repo:      deps.Repo,
		publisher: deps.Publisher,
		jobs:      deps.Jobs,
		snapshots: deps.Snapshots,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		validate:  newValidator(),
		opts:      opts,
	}
}

// snapshot reads the tenant's cached collections, or loads them straight
// from the store when no cache is configured.
func (s *Service) snapshot(ctx context.Context, tenantID string) (inventory.Snapshot, error) {
	if s.snapshots != nil {
		return s.snapshots.Snapshot(ctx, tenantID), nil
	}

	snap := inventory.Snapshot{TenantID: tenantID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		products, err := s.repo.ListProducts(gctx, tenantID)
		snap.Products = products
		return err
	})
	g.Go(func() error {
		sales, err := s.repo.ListSales(gctx, tenantID)
		snap.Sales = sales
		return err
	})
	if err := g.Wait(); err != nil {
		return inventory.Snapshot{}, err
	}
	snap.Loaded = true
	return snap, nil
}

// emit applies events to the local cache and publishes them. The write has
// already committed, so a publish failure is logged rather than returned.
func (s *Service) emit(ctx context.Context, events ...domain.ChangeEvent) {
	for _, event := range events {
		if s.snapshots != nil {
			s.snapshots.Apply(event)
		}
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish change event failed",
				zap.String("tenant_id", event.TenantID),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
	}
}

// alertOnTransition enqueues a stock alert when a product moves into a worse
// stock status than it had before.
func (s *Service) alertOnTransition(ctx context.Context, tenantID string, before, after domain.Product) {
	if s.jobs == nil {
		return
	}
	prev, next := before.StockStatus(), after.StockStatus()
	if next == domain.StockInStock || next == prev {
		return
	}
	if prev == domain.StockOutOfStock && next == domain.StockLow {
		return
	}
	if err := s.jobs.EnqueueStockAlert(ctx, jobs.StockAlertFor(tenantID, after)); err != nil {
		s.logger.Warn("enqueue stock alert failed",
			zap.String("tenant_id", tenantID),
			zap.String("product_id", after.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) recordActivity(ctx context.Context, entry domain.ActivityEntry) {
	if err := s.repo.LogActivity(ctx, entry); err != nil {
		s.logger.Warn("record activity failed", zap.String("action", entry.ActionType), zap.Error(err))
	}
}

func tenantActivity(tenantID, actor, action, title, details string) domain.ActivityEntry {
	return domain.ActivityEntry{
		TenantID:   &tenantID,
		Actor:      actor,
		ActionType: action,
		Title:      title,
		Details:    details,
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

func (s *Service) validateInput(input any) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		messages = append(messages, describeFieldError(fieldErr))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(messages, "; "))
}

func describeFieldError(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fieldErr.Param())
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func requireTenant(tenantID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("tenant is required: %w", domain.ErrUnauthorized)
	}
	return nil
}
