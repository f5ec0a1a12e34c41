package csvio

import (
	"strings"
	"testing"

	"scottys/backend/internal/domain"
)

func TestParseProducts(t *testing.T) {
	input := strings.Join([]string{
		`Class,Item,Label,Sub,Tax1,Tax2,Tax3,Price`,
		`Snacks,100,"Corn Chips, 200g",Chips,8%,Not Assigned,Not Assigned,$1.00`,
		`Produce,200,Organic Apples,Not Assigned,8%,8%,8%,2.40`,
		`Snacks,bad,Broken Row,Chips,8%,8%,8%,$1.00`,
		`Snacks,101,Short Row,$1.20`,
	}, "\n")

	products, skipped, err := ParseProducts(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse products: %v", err)
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2", len(products))
	}

	first := products[0]
	if first.ItemNumber != 100 || first.Label != "Corn Chips, 200g" || first.Category != "Snacks" || first.Subcategory != "Chips" {
		t.Fatalf("first product = %+v", first)
	}
	if first.Price != 1.00 {
		t.Fatalf("price = %v, want 1.00 after stripping $", first.Price)
	}
	if first.RecStatus != domain.RecStatusActive {
		t.Fatalf("rec status = %q", first.RecStatus)
	}

	if products[1].Subcategory != "N/A" {
		t.Fatalf("Not Assigned should map to N/A, got %q", products[1].Subcategory)
	}
}

func TestParseSales(t *testing.T) {
	input := strings.Join([]string{
		`Item,Qty,Price,From,To`,
		`100,70,$2.00,1/1/2024,1/7/2024`,
		`101,42,2.50,12/25/2023,12/31/2023`,
		`102,x,1.50,1/1/2024,1/7/2024`,
	}, "\n")

	sales, skipped, err := ParseSales(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse sales: %v", err)
	}
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if len(sales) != 2 {
		t.Fatalf("got %d sales, want 2", len(sales))
	}

	first := sales[0]
	if first.ItemNumber != 100 || first.Quantity != 70 || first.Price != 2.00 {
		t.Fatalf("first sale = %+v", first)
	}
	if first.FromDate.Format(domain.DateFormat) != "2024-01-01" {
		t.Fatalf("from date = %v", first.FromDate)
	}
	if sales[1].ToDate.Format(domain.DateFormat) != "2023-12-31" {
		t.Fatalf("to date = %v", sales[1].ToDate)
	}
}

func TestParseCategories(t *testing.T) {
	input := strings.Join([]string{
		`Category,Subcategory`,
		`Snacks,Chips`,
		`Beverages`,
		``,
	}, "\n")

	categories, skipped, err := ParseCategories(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse categories: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if len(categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(categories))
	}
	if categories[0].Category != "Snacks" || categories[0].Subcategory != "Chips" {
		t.Fatalf("first pair = %+v", categories[0])
	}
	// A lone value registers under both dimensions.
	if categories[1].Category != "Beverages" || categories[1].Subcategory != "Beverages" {
		t.Fatalf("single-column pair = %+v", categories[1])
	}
}

func TestWriteReport(t *testing.T) {
	rows := []domain.AnalyticsRow{
		{ItemNumber: 100, Label: `Corn "Big" Chips`, Category: "Snacks", Subcategory: "Chips", UnitRetail: 2.00, TotalQuantity: 21},
		{ItemNumber: domain.SubtotalItemNumber, Label: domain.SubtotalLabel, Category: "Snacks", Subcategory: "Chips", TotalQuantity: 21},
	}

	var sb strings.Builder
	if err := WriteReport(&sb, rows); err != nil {
		t.Fatalf("write report: %v", err)
	}
	out := sb.String()

	if !strings.HasPrefix(out, "\ufeff") {
		t.Fatal("missing UTF-8 BOM")
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != `"Item Number","Label","Category","Cost","Quantity","Sales"` {
		t.Fatalf("header = %s", lines[0])
	}
	if lines[1] != `"100","Corn ""Big"" Chips","Snacks - Chips","2.00","21","42.00"` {
		t.Fatalf("item row = %s", lines[1])
	}
	if !strings.Contains(lines[2], `"Sub Total"`) {
		t.Fatalf("subtotal row = %s", lines[2])
	}
}

func TestWriteWeeklyReport(t *testing.T) {
	weeks := []string{"2024-01-01 to 2024-01-07", "2024-01-08 to 2024-01-14"}
	rows := []domain.WeeklyRow{
		{
			AnalyticsRow: domain.AnalyticsRow{ItemNumber: 100, Label: "Corn Chips", Category: "Snacks", Subcategory: "Chips", UnitRetail: 2.00},
			WeeklySales:  map[string]int{"2024-01-01 to 2024-01-07": 14},
		},
	}

	var sb strings.Builder
	if err := WriteWeeklyReport(&sb, weeks, rows); err != nil {
		t.Fatalf("write weekly report: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(sb.String(), "\ufeff"), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != `"Item Number","Label","Category","2024-01-01 to 2024-01-07","","","2024-01-08 to 2024-01-14","",""` {
		t.Fatalf("header = %s", lines[0])
	}
	if lines[1] != `"","","","Price","Quantity","Sales","Price","Quantity","Sales"` {
		t.Fatalf("subheader = %s", lines[1])
	}
	if lines[2] != `"100","Corn Chips","Snacks - Chips","2.00","14","28.00","0.00","0","0.00"` {
		t.Fatalf("data row = %s", lines[2])
	}
}
