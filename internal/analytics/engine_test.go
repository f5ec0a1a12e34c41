package analytics

import (
	"context"
	"errors"
	"testing"

	"scottys/backend/internal/domain"
)

// stubSource serves a fixed set of sale lines, filtering with the reference
// predicate semantics the way a real store adapter would in SQL.
type stubSource struct {
	lines []domain.SaleLine
	calls int
}

func (s *stubSource) matching(q SalesQuery) []domain.SaleLine {
	out := make([]domain.SaleLine, 0, len(s.lines))
	for _, line := range s.lines {
		if line.FromDate.Before(q.From) || line.ToDate.After(q.To) {
			continue
		}
		if !q.Filter.Matches(line.Category, line.Subcategory) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func (s *stubSource) AggregateSales(_ context.Context, q SalesQuery) ([]domain.ItemAggregate, error) {
	s.calls++
	byItem := make(map[int]*domain.ItemAggregate)
	order := make([]int, 0)
	for _, line := range s.matching(q) {
		agg, seen := byItem[line.ItemNumber]
		if !seen {
			agg = &domain.ItemAggregate{
				ItemNumber:  line.ItemNumber,
				Label:       line.Label,
				Category:    line.Category,
				Subcategory: line.Subcategory,
				UnitCost:    line.UnitCost,
				UnitRetail:  line.UnitRetail,
			}
			byItem[line.ItemNumber] = agg
			order = append(order, line.ItemNumber)
		}
		agg.TotalQuantity += line.Quantity
		agg.TotalCost = RoundMoney(agg.TotalCost + float64(line.Quantity)*line.UnitCost)
		agg.TotalRetail = RoundMoney(agg.TotalRetail + float64(line.Quantity)*line.UnitRetail)
	}

	rows := make([]domain.ItemAggregate, 0, len(order))
	for _, item := range order {
		rows = append(rows, *byItem[item])
	}
	return rows, nil
}

func (s *stubSource) ListSaleLines(_ context.Context, q SalesQuery) ([]domain.SaleLine, error) {
	s.calls++
	return s.matching(q), nil
}

func testSource(t *testing.T) *stubSource {
	return &stubSource{lines: []domain.SaleLine{
		{ItemNumber: 100, Label: "Corn Chips", Category: "Snacks", Subcategory: "Chips", UnitCost: 1.00, UnitRetail: 2.00,
			Quantity: 14, FromDate: day(t, "2024-01-01"), ToDate: day(t, "2024-01-07")},
		{ItemNumber: 100, Label: "Corn Chips", Category: "Snacks", Subcategory: "Chips", UnitCost: 1.00, UnitRetail: 2.00,
			Quantity: 7, FromDate: day(t, "2024-01-08"), ToDate: day(t, "2024-01-14")},
		{ItemNumber: 102, Label: "Gummy Bears", Category: "Snacks", Subcategory: "Candy", UnitCost: 0.80, UnitRetail: 1.50,
			Quantity: 21, FromDate: day(t, "2024-01-01"), ToDate: day(t, "2024-01-07")},
		{ItemNumber: 200, Label: "Organic Apples", Category: "Produce", Subcategory: "Organic", UnitCost: 2.40, UnitRetail: 4.00,
			Quantity: 28, FromDate: day(t, "2024-01-01"), ToDate: day(t, "2024-01-14")},
	}}
}

func reportSpec(t *testing.T, categories []string) FilterSpec {
	t.Helper()
	s, err := NewFilterSpec(day(t, "2024-01-01"), day(t, "2024-01-14"), categories, []string{"ALL"})
	if err != nil {
		t.Fatalf("filter spec: %v", err)
	}
	return s
}

func TestEngineReport(t *testing.T) {
	source := testSource(t)
	engine := NewEngine(source)

	report, err := engine.Report(context.Background(), reportSpec(t, []string{"Snacks"}))
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	// Two groups, one item each, plus subtotals.
	if len(report) != 4 {
		t.Fatalf("got %d rows, want 4", len(report))
	}

	var item domain.AnalyticsRow
	for _, row := range report {
		if row.ItemNumber == 100 {
			item = row
		}
	}
	if item.TotalQuantity != 21 {
		t.Fatalf("item 100 quantity = %d, want 21 (two transactions summed)", item.TotalQuantity)
	}
	if item.TotalCost != 21.00 || item.TotalRetail != 42.00 {
		t.Fatalf("item 100 money = %.2f / %.2f", item.TotalCost, item.TotalRetail)
	}

	last := report[len(report)-1]
	if !last.IsSubtotal() || last.Category != "Snacks" || last.Subcategory != "Chips" {
		t.Fatalf("last row = %+v, want Snacks/Chips subtotal", last)
	}
}

func TestEngineReportEmptyFilterShortCircuits(t *testing.T) {
	source := testSource(t)
	engine := NewEngine(source)

	s, err := NewFilterSpec(day(t, "2024-01-01"), day(t, "2024-01-14"), nil, nil)
	if err != nil {
		t.Fatalf("filter spec: %v", err)
	}

	report, err := engine.Report(context.Background(), s)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report) != 0 {
		t.Fatalf("empty filter produced %d rows", len(report))
	}
	if source.calls != 0 {
		t.Fatalf("source was queried %d times for an empty filter", source.calls)
	}
}

func TestEngineWeeklyReportMergesTransactions(t *testing.T) {
	source := testSource(t)
	engine := NewEngine(source)

	spec := reportSpec(t, []string{"Snacks"})
	buckets, err := WeekBuckets(spec.From, spec.To)
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}

	rows, err := engine.WeeklyReport(context.Background(), spec, buckets)
	if err != nil {
		t.Fatalf("weekly report: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	var item domain.WeeklyRow
	for _, row := range rows {
		if row.ItemNumber == 100 {
			item = row
		}
	}
	if item.TotalQuantity != 21 {
		t.Fatalf("item 100 quantity = %d, want 21", item.TotalQuantity)
	}
	if got := item.WeeklySales["2024-01-01 to 2024-01-07"]; got != 14 {
		t.Fatalf("week 1 allocation = %d, want 14", got)
	}
	if got := item.WeeklySales["2024-01-08 to 2024-01-14"]; got != 7 {
		t.Fatalf("week 2 allocation = %d, want 7", got)
	}
}

func TestEngineDistribution(t *testing.T) {
	engine := NewEngine(testSource(t))

	distribution, err := engine.Distribution(context.Background(),
		day(t, "2024-01-01"), day(t, "2024-01-14"), DimensionCategory, []string{"ALL"})
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if distribution["Snacks"] != 42 || distribution["Produce"] != 28 {
		t.Fatalf("distribution = %v", distribution)
	}
}

func TestEngineDistributionEmptySelection(t *testing.T) {
	source := testSource(t)
	engine := NewEngine(source)

	distribution, err := engine.Distribution(context.Background(),
		day(t, "2024-01-01"), day(t, "2024-01-14"), DimensionCategory, nil)
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(distribution) != 0 {
		t.Fatalf("empty selection produced %v", distribution)
	}
	if source.calls != 0 {
		t.Fatal("source was queried for an empty selection")
	}
}

func TestEngineDistributionSubcategoryPairs(t *testing.T) {
	engine := NewEngine(testSource(t))

	distribution, err := engine.Distribution(context.Background(),
		day(t, "2024-01-01"), day(t, "2024-01-14"), DimensionSubcategory, []string{"Snacks - Chips"})
	if err != nil {
		t.Fatalf("distribution: %v", err)
	}
	if len(distribution) != 1 || distribution["Chips"] != 21 {
		t.Fatalf("distribution = %v", distribution)
	}

	_, err = engine.Distribution(context.Background(),
		day(t, "2024-01-01"), day(t, "2024-01-14"), DimensionSubcategory, []string{"not-a-pair"})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter for malformed pair, got %v", err)
	}
}

func TestEngineTrend(t *testing.T) {
	engine := NewEngine(testSource(t))

	series, err := engine.Trend(context.Background(),
		day(t, "2024-01-01"), day(t, "2024-01-14"), DimensionCategory, "Snacks")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}

	snacks := series["Snacks"]
	if snacks == nil {
		t.Fatalf("series = %v, want a Snacks series", series)
	}
	if snacks["2024-01-01"] != 35 || snacks["2024-01-08"] != 7 {
		t.Fatalf("snacks series = %v", snacks)
	}
}

func TestEngineTrendRequiresKey(t *testing.T) {
	engine := NewEngine(testSource(t))

	_, err := engine.Trend(context.Background(),
		day(t, "2024-01-01"), day(t, "2024-01-14"), DimensionCategory, " ")
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

func TestParseDimension(t *testing.T) {
	if _, err := ParseDimension("Category"); err != nil {
		t.Fatalf("parse dimension: %v", err)
	}
	if _, err := ParseDimension("donut"); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}
