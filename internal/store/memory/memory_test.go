package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"scottys/backend/internal/analytics"
	"scottys/backend/internal/domain"
	"scottys/backend/internal/store"
)

func testDay(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func TestAggregateSalesRequiresRegisteredPair(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.CreateProduct(ctx, domain.Product{
		ItemNumber: 1, Label: "Mystery Snack", Category: "Snacks", Subcategory: "Unregistered", Price: 1.00,
	}); err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := s.InsertSales(ctx, []domain.Sale{
		{ItemNumber: 1, Quantity: 5, Price: 2.00, FromDate: testDay(t, "2024-01-01"), ToDate: testDay(t, "2024-01-07")},
	}); err != nil {
		t.Fatalf("insert sales: %v", err)
	}

	q := analytics.SalesQuery{
		From:   testDay(t, "2024-01-01"),
		To:     testDay(t, "2024-01-07"),
		Filter: analytics.Predicate{Kind: analytics.MatchAll},
	}
	rows, err := s.AggregateSales(ctx, q)
	if err != nil {
		t.Fatalf("aggregate sales: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("unregistered pair produced %d rows", len(rows))
	}

	if _, err := s.CreateCategory(ctx, "Snacks", "Unregistered"); err != nil {
		t.Fatalf("create category: %v", err)
	}
	rows, err = s.AggregateSales(ctx, q)
	if err != nil {
		t.Fatalf("aggregate sales: %v", err)
	}
	if len(rows) != 1 || rows[0].TotalQuantity != 5 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestAggregateSalesWindowIsInclusiveContainment(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	// Item 200 spans 2024-01-01..2024-01-14; a window ending 2024-01-07
	// excludes it because the sale is not fully contained.
	q := analytics.SalesQuery{
		From:   testDay(t, "2024-01-01"),
		To:     testDay(t, "2024-01-07"),
		Filter: analytics.Predicate{Kind: analytics.CategoryIn, Values: []string{"Produce"}},
	}
	rows, err := s.AggregateSales(ctx, q)
	if err != nil {
		t.Fatalf("aggregate sales: %v", err)
	}
	for _, row := range rows {
		if row.ItemNumber == 200 {
			t.Fatal("partially overlapping sale included in aggregate")
		}
	}

	q.To = testDay(t, "2024-01-14")
	rows, err = s.AggregateSales(ctx, q)
	if err != nil {
		t.Fatalf("aggregate sales: %v", err)
	}
	found := false
	for _, row := range rows {
		if row.ItemNumber == 200 {
			found = true
			if row.TotalQuantity != 28 {
				t.Fatalf("item 200 quantity = %d, want 28", row.TotalQuantity)
			}
		}
	}
	if !found {
		t.Fatal("contained sale missing from aggregate")
	}
}

func TestProductCRUDSentinels(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	if _, err := s.GetProduct(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.CreateProduct(ctx, domain.Product{ItemNumber: 100, Label: "Dup", Category: "Snacks"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateProduct(ctx, domain.Product{ItemNumber: 0, Label: "Bad"}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := s.DeleteProduct(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestUpsertProductReportsCreation(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	created, err := s.UpsertProduct(ctx, domain.Product{ItemNumber: 700, Label: "Fresh", Category: "Produce", Subcategory: "Organic"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatal("expected creation for new item number")
	}

	created, err = s.UpsertProduct(ctx, domain.Product{ItemNumber: 700, Label: "Fresh v2", Category: "Produce", Subcategory: "Organic"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created {
		t.Fatal("expected update for existing item number")
	}

	product, err := s.GetProduct(ctx, 700)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if product.Label != "Fresh v2" {
		t.Fatalf("label = %q", product.Label)
	}
}

func TestCreateCategoryIdempotentOnPair(t *testing.T) {
	ctx := context.Background()
	s := NewSeeded()

	first, err := s.CreateCategory(ctx, "Snacks", "Chips")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	second, err := s.CreateCategory(ctx, "Snacks", "Chips")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("registering an existing pair minted a new id: %d vs %d", first.ID, second.ID)
	}
}

func TestInsertSalesSkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	added, err := s.InsertSales(ctx, []domain.Sale{
		{ItemNumber: 1, Quantity: 5, FromDate: testDay(t, "2024-01-01"), ToDate: testDay(t, "2024-01-07")},
		{ItemNumber: 0, Quantity: 5, FromDate: testDay(t, "2024-01-01"), ToDate: testDay(t, "2024-01-07")},
		{ItemNumber: 2, Quantity: 5, FromDate: testDay(t, "2024-01-07"), ToDate: testDay(t, "2024-01-01")},
	})
	if err != nil {
		t.Fatalf("insert sales: %v", err)
	}
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
}
