package domain

import "time"

type ChangeKind string

const (
	ProductUpserted ChangeKind = "product.upserted"
	ProductDeleted  ChangeKind = "product.deleted"
	SaleCreated     ChangeKind = "sale.created"
)

// ChangeEvent describes one write to a tenant's products or sales.
type ChangeEvent struct {
	Kind       ChangeKind `json:"kind"`
	TenantID   string     `json:"tenant_id"`
	Product    *Product   `json:"product,omitempty"`
	Sale       *Sale      `json:"sale,omitempty"`
	ProductID  string     `json:"product_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

func ProductUpsertedEvent(tenantID string, p Product, at time.Time) ChangeEvent {
	return ChangeEvent{Kind: ProductUpserted, TenantID: tenantID, Product: &p, ProductID: p.ID, OccurredAt: at}
}

func ProductDeletedEvent(tenantID, productID string, at time.Time) ChangeEvent {
	return ChangeEvent{Kind: ProductDeleted, TenantID: tenantID, ProductID: productID, OccurredAt: at}
}

func SaleCreatedEvent(tenantID string, s Sale, at time.Time) ChangeEvent {
	return ChangeEvent{Kind: SaleCreated, TenantID: tenantID, Sale: &s, ProductID: s.ProductID, OccurredAt: at}
}
