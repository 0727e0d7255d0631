package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStockStatusOf(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		minStock int
		want     StockStatus
	}{
		{"zero is out of stock", 0, 10, StockOutOfStock},
		{"zero with zero threshold", 0, 0, StockOutOfStock},
		{"below threshold", 2, 10, StockLow},
		{"at threshold", 10, 10, StockLow},
		{"above threshold", 11, 10, StockInStock},
		{"zero threshold positive stock", 1, 0, StockInStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, StockStatusOf(tc.quantity, tc.minStock))
		})
	}
}

func TestProductValues(t *testing.T) {
	p := Product{Quantity: 4, Price: decimal.NewFromInt(25), CostPrice: decimal.RequireFromString("12.50")}
	require.True(t, p.StockValue().Equal(decimal.NewFromInt(50)))
	require.True(t, p.RetailValue().Equal(decimal.NewFromInt(100)))
}

func TestProductApply(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := Product{Name: "Tea", SKU: "T-1", Quantity: 3, MinStock: 5, UpdatedAt: created}
	name := "Green Tea"
	qty := 9
	now := created.Add(time.Hour)

	p.Apply(ProductPatch{Name: &name, Quantity: &qty}, now)

	require.Equal(t, "Green Tea", p.Name)
	require.Equal(t, "T-1", p.SKU)
	require.Equal(t, 9, p.Quantity)
	require.Equal(t, 5, p.MinStock)
	require.Equal(t, now, p.UpdatedAt)
	require.False(t, ProductPatch{Name: &name}.IsEmpty())
	require.True(t, ProductPatch{}.IsEmpty())
}

func TestParseSupportStatus(t *testing.T) {
	status, ok := ParseSupportStatus("in-progress")
	require.True(t, ok)
	require.Equal(t, SupportInProgress, status)

	_, ok = ParseSupportStatus("closed")
	require.False(t, ok)
}

func TestProductSupersedes(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := Product{ID: "p1", Version: 2, UpdatedAt: at.Add(time.Second)}
	newer := Product{ID: "p1", Version: 3, UpdatedAt: at}

	require.True(t, newer.Supersedes(older))
	require.False(t, older.Supersedes(newer))
	require.True(t, newer.Supersedes(newer))

	sameVersion := Product{ID: "p1", Version: 3, UpdatedAt: at.Add(time.Minute)}
	require.True(t, sameVersion.Supersedes(newer))
	require.False(t, newer.Supersedes(sameVersion))
}
