package inventory

import (
	"context"
	"sync"
	"time"

	"shoptracker/internal/domain"

	"go.uber.org/zap"
)

type hubEntry struct {
	tracker  *Tracker
	ready    chan struct{}
	err      error
	lastUsed time.Time
}

// Hub owns one Tracker per active tenant. Trackers are created on first
// read and evicted after sitting idle for longer than the idle TTL.
type Hub struct {
	loader  Loader
	source  ChangeSource
	logger  *zap.Logger
	idleTTL time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*hubEntry
}

func NewHub(loader Loader, source ChangeSource, logger *zap.Logger, idleTTL time.Duration) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &Hub{
		loader:  loader,
		source:  source,
		logger:  logger,
		idleTTL: idleTTL,
		now:     time.Now,
		entries: make(map[string]*hubEntry),
	}
}

// Snapshot returns the tenant's cached collections, loading them on first
// use. A failed load is logged and yields an empty snapshot; the next call
// retries.
func (h *Hub) Snapshot(ctx context.Context, tenantID string) Snapshot {
	if tenantID == "" {
		return Snapshot{}
	}

	h.mu.Lock()
	entry, ok := h.entries[tenantID]
	if ok {
		entry.lastUsed = h.now()
		h.mu.Unlock()
	} else {
		entry = &hubEntry{
			tracker:  NewTracker(h.loader, h.source, h.logger),
			ready:    make(chan struct{}),
			lastUsed: h.now(),
		}
		h.entries[tenantID] = entry
		h.mu.Unlock()

		entry.err = entry.tracker.SetTenant(ctx, tenantID)
		close(entry.ready)
		if entry.err != nil {
			h.drop(tenantID, entry)
		}
	}

	select {
	case <-entry.ready:
	case <-ctx.Done():
		return Snapshot{TenantID: tenantID}
	}
	if entry.err != nil {
		return Snapshot{TenantID: tenantID}
	}
	return entry.tracker.Snapshot()
}

// Apply merges a locally originated change into the tenant's tracker, if it
// is loaded, so this instance reads its own writes without waiting for the
// feed.
func (h *Hub) Apply(event domain.ChangeEvent) {
	h.mu.Lock()
	entry, ok := h.entries[event.TenantID]
	h.mu.Unlock()
	if !ok {
		return
	}
	select {
	case <-entry.ready:
		if entry.err == nil {
			entry.tracker.Apply(event)
		}
	default:
	}
}

// Run evicts idle trackers until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	interval := h.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.EvictIdle(); n > 0 {
				h.logger.Debug("evicted idle trackers", zap.Int("count", n))
			}
		}
	}
}

// EvictIdle closes trackers unused for longer than the idle TTL and returns
// how many were closed.
func (h *Hub) EvictIdle() int {
	cutoff := h.now().Add(-h.idleTTL)

	h.mu.Lock()
	var stale []*hubEntry
	for tenantID, entry := range h.entries {
		select {
		case <-entry.ready:
		default:
			continue
		}
		if entry.lastUsed.Before(cutoff) {
			stale = append(stale, entry)
			delete(h.entries, tenantID)
		}
	}
	h.mu.Unlock()

	for _, entry := range stale {
		entry.tracker.Close()
	}
	return len(stale)
}

// Active reports how many tenants currently have a tracker.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Close tears down every tracker.
func (h *Hub) Close() {
	h.mu.Lock()
	entries := h.entries
	h.entries = make(map[string]*hubEntry)
	h.mu.Unlock()

	for _, entry := range entries {
		<-entry.ready
		entry.tracker.Close()
	}
}

func (h *Hub) drop(tenantID string, entry *hubEntry) {
	h.mu.Lock()
	if current, ok := h.entries[tenantID]; ok && current == entry {
		delete(h.entries, tenantID)
	}
	h.mu.Unlock()
}
