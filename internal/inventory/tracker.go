package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shoptracker/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader reads a tenant's complete data set.
type Loader interface {
	ListProducts(ctx context.Context, tenantID string) ([]domain.Product, error)
	ListSales(ctx context.Context, tenantID string) ([]domain.Sale, error)
}

// ChangeSource streams a tenant's change events until ctx is done.
type ChangeSource interface {
	Stream(ctx context.Context, tenantID string) (<-chan domain.ChangeEvent, error)
}

// Snapshot is a copy of one tenant's cached collections, newest first.
type Snapshot struct {
	TenantID string
	Products []domain.Product
	Sales    []domain.Sale
	Loaded   bool
}

// Tracker keeps one tenant's products and sales in memory and applies
// remote changes as they arrive.
type Tracker struct {
	loader Loader
	source ChangeSource
	logger *zap.Logger

	// switchMu serializes tenant switches and Close.
	switchMu sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}

	mu       sync.RWMutex
	tenantID string
	loaded   bool
	products map[string]domain.Product
	sales    map[string]domain.Sale
	deleted  map[string]struct{}
}

// NewTracker builds a tracker. A nil source leaves the tracker fed only by
// Apply.
func NewTracker(loader Loader, source ChangeSource, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{loader: loader, source: source, logger: logger}
	t.reset("")
	return t
}

// SetTenant switches the tracker to tenantID. The change feed is subscribed
// before the snapshot is loaded so no write between the two is missed. An
// empty tenantID signs out and leaves the cache empty.
func (t *Tracker) SetTenant(ctx context.Context, tenantID string) error {
	t.switchMu.Lock()
	defer t.switchMu.Unlock()

	t.stop()
	t.reset(tenantID)
	if tenantID == "" {
		return nil
	}

	subCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	var events <-chan domain.ChangeEvent
	if t.source != nil {
		stream, err := t.source.Stream(subCtx, tenantID)
		if err != nil {
			t.logger.Error("subscribe to change feed failed",
				zap.String("tenant_id", tenantID),
				zap.Error(err),
			)
		} else {
			events = stream
		}
	}

	var (
		products []domain.Product
		sales    []domain.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := t.loader.ListProducts(gctx, tenantID)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		products = list
		return nil
	})
	g.Go(func() error {
		list, err := t.loader.ListSales(gctx, tenantID)
		if err != nil {
			return fmt.Errorf("load sales: %w", err)
		}
		sales = list
		return nil
	})
	if err := g.Wait(); err != nil {
		t.logger.Error("load tenant snapshot failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err),
		)
		t.stop()
		return err
	}

	t.mu.Lock()
	for _, p := range products {
		t.applyProductLocked(p)
	}
	for _, s := range sales {
		t.sales[s.ID] = s
	}
	t.loaded = true
	t.mu.Unlock()

	if events != nil {
		done := make(chan struct{})
		t.done = done
		go t.pump(events, done)
	}

	t.logger.Debug("tenant snapshot loaded",
		zap.String("tenant_id", tenantID),
		zap.Int("products", len(products)),
		zap.Int("sales", len(sales)),
	)
	return nil
}

func (t *Tracker) pump(events <-chan domain.ChangeEvent, done chan struct{}) {
	defer close(done)
	for event := range events {
		t.Apply(event)
	}
}

// Apply merges one change event. It is idempotent: older product versions
// are ignored, deleted products stay deleted and sales are keyed by id.
func (t *Tracker) Apply(event domain.ChangeEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tenantID == "" || event.TenantID != t.tenantID {
		return
	}
	switch event.Kind {
	case domain.ProductUpserted:
		if event.Product != nil {
			t.applyProductLocked(*event.Product)
		}
	case domain.ProductDeleted:
		if event.ProductID != "" {
			delete(t.products, event.ProductID)
			t.deleted[event.ProductID] = struct{}{}
		}
	case domain.SaleCreated:
		if event.Sale != nil {
			t.sales[event.Sale.ID] = *event.Sale
		}
	default:
		t.logger.Warn("ignoring unknown change kind", zap.String("kind", string(event.Kind)))
	}
}

func (t *Tracker) applyProductLocked(p domain.Product) {
	if _, gone := t.deleted[p.ID]; gone {
		return
	}
	if existing, ok := t.products[p.ID]; ok && !p.Supersedes(existing) {
		return
	}
	t.products[p.ID] = p
}

func (t *Tracker) TenantID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tenantID
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	snap := Snapshot{
		TenantID: t.tenantID,
		Loaded:   t.loaded,
		Products: make([]domain.Product, 0, len(t.products)),
		Sales:    make([]domain.Sale, 0, len(t.sales)),
	}
	for _, p := range t.products {
		snap.Products = append(snap.Products, p)
	}
	for _, s := range t.sales {
		snap.Sales = append(snap.Sales, s)
	}
	t.mu.RUnlock()

	sort.Slice(snap.Products, func(i, j int) bool {
		a, b := snap.Products[i], snap.Products[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	sort.Slice(snap.Sales, func(i, j int) bool {
		a, b := snap.Sales[i], snap.Sales[j]
		if !a.SoldAt.Equal(b.SoldAt) {
			return a.SoldAt.After(b.SoldAt)
		}
		return a.ID > b.ID
	})
	return snap
}

// Close tears down the subscription and empties the cache.
func (t *Tracker) Close() {
	t.switchMu.Lock()
	defer t.switchMu.Unlock()
	t.stop()
	t.reset("")
}

func (t *Tracker) stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	if t.done != nil {
		<-t.done
		t.done = nil
	}
}

func (t *Tracker) reset(tenantID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tenantID = tenantID
	t.loaded = false
	t.products = make(map[string]domain.Product)
	t.sales = make(map[string]domain.Sale)
	t.deleted = make(map[string]struct{})
}
