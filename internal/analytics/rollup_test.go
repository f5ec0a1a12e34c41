package analytics

import (
	"testing"

	"scottys/backend/internal/domain"
)

func TestRollupGroupsAndSubtotals(t *testing.T) {
	rows := []domain.ItemAggregate{
		{ItemNumber: 101, Label: "Potato Chips", Category: "Snacks", Subcategory: "Chips", UnitRetail: 2.50, TotalQuantity: 42, TotalCost: 50.40, TotalRetail: 105.00},
		{ItemNumber: 100, Label: "Corn Chips", Category: "Snacks", Subcategory: "Chips", UnitRetail: 2.00, TotalQuantity: 105, TotalCost: 105.00, TotalRetail: 210.00},
		{ItemNumber: 102, Label: "Gummy Bears", Category: "Snacks", Subcategory: "Candy", UnitRetail: 1.50, TotalQuantity: 120, TotalCost: 96.00, TotalRetail: 180.00},
	}

	report := Rollup(rows, true)
	if len(report) != 5 {
		t.Fatalf("got %d rows, want 5 (3 items + 2 subtotals)", len(report))
	}

	// Groups come out in ascending key order: Candy before Chips.
	if report[0].ItemNumber != 102 {
		t.Fatalf("first row is item %d, want 102", report[0].ItemNumber)
	}
	if !report[1].IsSubtotal() {
		t.Fatal("expected subtotal after Candy group")
	}
	if report[1].TotalQuantity != 120 || report[1].TotalRetail != 180.00 {
		t.Fatalf("candy subtotal = %+v", report[1])
	}

	// Within Chips, item 100 leads on quantity.
	if report[2].ItemNumber != 100 || report[3].ItemNumber != 101 {
		t.Fatalf("chips group order: %d, %d", report[2].ItemNumber, report[3].ItemNumber)
	}

	subtotal := report[4]
	if !subtotal.IsSubtotal() || subtotal.Label != domain.SubtotalLabel {
		t.Fatalf("last row is not a subtotal: %+v", subtotal)
	}
	if subtotal.Category != "Snacks" || subtotal.Subcategory != "Chips" {
		t.Fatalf("subtotal carries pair %s/%s", subtotal.Category, subtotal.Subcategory)
	}
	if subtotal.TotalQuantity != 147 {
		t.Fatalf("subtotal quantity = %d, want 147", subtotal.TotalQuantity)
	}
	if subtotal.TotalCost != 155.40 || subtotal.TotalRetail != 315.00 {
		t.Fatalf("subtotal money = %.2f / %.2f", subtotal.TotalCost, subtotal.TotalRetail)
	}
	if subtotal.UnitCost != 0 || subtotal.UnitRetail != 0 {
		t.Fatal("subtotal rows must carry zero unit prices")
	}
}

func TestRollupByCategoryOnly(t *testing.T) {
	rows := []domain.ItemAggregate{
		{ItemNumber: 100, Label: "Corn Chips", Category: "Snacks", Subcategory: "Chips", TotalQuantity: 10},
		{ItemNumber: 102, Label: "Gummy Bears", Category: "Snacks", Subcategory: "Candy", TotalQuantity: 20},
	}

	report := Rollup(rows, false)
	if len(report) != 3 {
		t.Fatalf("got %d rows, want 3 (one shared group)", len(report))
	}
	if !report[2].IsSubtotal() || report[2].TotalQuantity != 30 {
		t.Fatalf("category subtotal = %+v", report[2])
	}
}

func TestRollupEmptyInput(t *testing.T) {
	report := Rollup(nil, true)
	if len(report) != 0 {
		t.Fatalf("empty input produced %d rows", len(report))
	}
}

func TestRoundMoney(t *testing.T) {
	cases := map[float64]float64{
		2.344:       2.34,
		2.346:       2.35,
		10.0 / 3.0:  3.33,
		-10.0 / 3.0: -3.33,
		0:           0,
	}
	for in, want := range cases {
		if got := RoundMoney(in); got != want {
			t.Fatalf("RoundMoney(%v) = %v, want %v", in, got, want)
		}
	}
}
