package analytics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"scottys/backend/internal/domain"
)

// Dimension selects the grouping axis for distribution and trend reports.
type Dimension string

const (
	DimensionCategory    Dimension = "category"
	DimensionSubcategory Dimension = "subcategory"
	DimensionLabel       Dimension = "label"
)

// ParseDimension resolves a wire-level dimension name.
func ParseDimension(raw string) (Dimension, error) {
	switch Dimension(strings.ToLower(strings.TrimSpace(raw))) {
	case DimensionCategory:
		return DimensionCategory, nil
	case DimensionSubcategory:
		return DimensionSubcategory, nil
	case DimensionLabel:
		return DimensionLabel, nil
	}
	return "", fmt.Errorf("unknown dimension %q: %w", raw, ErrInvalidFilter)
}

// SalesQuery is the storage contract's input: a date window plus the abstract
// category/subcategory predicate. The window keeps a sale only when its span
// lies fully inside [From, To].
type SalesQuery struct {
	From   time.Time
	To     time.Time
	Filter Predicate
}

// SalesSource is the queryable relation the engine reads. Implementations
// must return deterministic row sets for a given query and translate the
// predicate with the same semantics as Predicate.Matches.
type SalesSource interface {
	// AggregateSales returns one row per distinct item number in the
	// filtered sale/product join, with summed quantity and rounded totals.
	AggregateSales(ctx context.Context, q SalesQuery) ([]domain.ItemAggregate, error)

	// ListSaleLines returns the filtered join rows one per sale transaction.
	ListSaleLines(ctx context.Context, q SalesQuery) ([]domain.SaleLine, error)
}

// Engine computes the analytics reports. It holds no state besides the
// storage handle and is safe for concurrent use; all intermediate state is
// request-scoped.
type Engine struct {
	source SalesSource
}

func NewEngine(source SalesSource) *Engine {
	return &Engine{source: source}
}

// Report produces the full item+subtotal report for the filter: per-item
// aggregates from the store, grouped by (category, subcategory) with a
// subtotal row closing each group.
func (e *Engine) Report(ctx context.Context, spec FilterSpec) ([]domain.AnalyticsRow, error) {
	predicate := BuildPredicate(spec)
	if predicate.Kind == MatchNone {
		return []domain.AnalyticsRow{}, nil
	}

	rows, err := e.source.AggregateSales(ctx, SalesQuery{From: spec.From, To: spec.To, Filter: predicate})
	if err != nil {
		return nil, dataErr("aggregate sales", err)
	}
	return Rollup(rows, true), nil
}

// WeeklyReport produces per-item rows annotated with the quantity allocated
// to each of the given week buckets. Allocations from multiple transactions
// of the same item merge additively per bucket.
func (e *Engine) WeeklyReport(ctx context.Context, spec FilterSpec, buckets []WeekBucket) ([]domain.WeeklyRow, error) {
	predicate := BuildPredicate(spec)
	if predicate.Kind == MatchNone {
		return []domain.WeeklyRow{}, nil
	}

	lines, err := e.source.ListSaleLines(ctx, SalesQuery{From: spec.From, To: spec.To, Filter: predicate})
	if err != nil {
		return nil, dataErr("list sale lines", err)
	}

	byItem := make(map[int]*domain.WeeklyRow)
	order := make([]int, 0)
	for _, line := range lines {
		allocation := AllocateWeekly(line.FromDate, line.ToDate, line.Quantity, buckets)

		row, seen := byItem[line.ItemNumber]
		if !seen {
			row = &domain.WeeklyRow{
				AnalyticsRow: domain.AnalyticsRow{
					ItemNumber:  line.ItemNumber,
					Label:       line.Label,
					Category:    line.Category,
					Subcategory: line.Subcategory,
					UnitCost:    line.UnitCost,
					UnitRetail:  line.UnitRetail,
				},
				WeeklySales: make(map[string]int, len(buckets)),
			}
			byItem[line.ItemNumber] = row
			order = append(order, line.ItemNumber)
		}
		MergeAllocations(row.WeeklySales, allocation)
		row.TotalQuantity += line.Quantity
		row.TotalCost = RoundMoney(row.TotalCost + float64(line.Quantity)*line.UnitCost)
		row.TotalRetail = RoundMoney(row.TotalRetail + float64(line.Quantity)*line.UnitRetail)
	}

	report := make([]domain.WeeklyRow, 0, len(order))
	for _, itemNumber := range order {
		report = append(report, *byItem[itemNumber])
	}
	sort.SliceStable(report, func(i, j int) bool {
		a, b := report[i], report[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.TotalQuantity != b.TotalQuantity {
			return a.TotalQuantity > b.TotalQuantity
		}
		return a.Label < b.Label
	})
	return report, nil
}

// Distribution totals sale quantity per dimension value for pie-chart style
// consumption. The selection narrows the scan: category names for the
// category dimension, "Category - Subcategory" pairs for the subcategory
// dimension, and category names for the label dimension (items of those
// categories, grouped by label).
func (e *Engine) Distribution(ctx context.Context, from, to time.Time, dim Dimension, selection []string) (map[string]int, error) {
	spec, err := NewFilterSpec(from, to, nil, nil)
	if err != nil {
		return nil, err
	}

	predicate, err := distributionPredicate(dim, normalizeSelection(selection))
	if err != nil {
		return nil, err
	}
	if predicate.Kind == MatchNone {
		return map[string]int{}, nil
	}

	lines, err := e.source.ListSaleLines(ctx, SalesQuery{From: spec.From, To: spec.To, Filter: predicate})
	if err != nil {
		return nil, dataErr("list sale lines", err)
	}

	distribution := make(map[string]int)
	for _, line := range lines {
		switch dim {
		case DimensionCategory:
			distribution[line.Category] += line.Quantity
		case DimensionSubcategory:
			distribution[line.Subcategory] += line.Quantity
		case DimensionLabel:
			distribution[line.Label] += line.Quantity
		}
	}
	return distribution, nil
}

func distributionPredicate(dim Dimension, selection []string) (Predicate, error) {
	if containsAll(selection) {
		return Predicate{Kind: MatchAll}, nil
	}
	if len(selection) == 0 {
		return Predicate{Kind: MatchNone}, nil
	}

	switch dim {
	case DimensionCategory, DimensionLabel:
		return Predicate{Kind: CategoryIn, Values: selection}, nil
	case DimensionSubcategory:
		pairs := make([]CategoryPair, 0, len(selection))
		for _, raw := range selection {
			category, subcategory, ok := strings.Cut(raw, " - ")
			if !ok {
				return Predicate{}, fmt.Errorf("selection %q is not a category pair: %w", raw, ErrInvalidFilter)
			}
			pairs = append(pairs, CategoryPair{Category: category, Subcategory: subcategory})
		}
		return Predicate{Kind: PairsAnyOf, Pairs: pairs}, nil
	}
	return Predicate{}, fmt.Errorf("unknown dimension %q: %w", dim, ErrInvalidFilter)
}

// Trend produces quantity-by-date series for line-chart consumption. The key
// narrows the scan to one dimension value; for the label dimension the key is
// a category and one series is emitted per item label within it. Dates are
// the sale from dates, formatted as YYYY-MM-DD.
func (e *Engine) Trend(ctx context.Context, from, to time.Time, dim Dimension, key string) (map[string]map[string]int, error) {
	spec, err := NewFilterSpec(from, to, nil, nil)
	if err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("trend key is required: %w", ErrInvalidFilter)
	}

	predicate := Predicate{Kind: CategoryIn, Values: []string{key}}
	if dim == DimensionSubcategory {
		predicate = Predicate{Kind: SubcategoryIn, Values: []string{key}}
	}

	lines, err := e.source.ListSaleLines(ctx, SalesQuery{From: spec.From, To: spec.To, Filter: predicate})
	if err != nil {
		return nil, dataErr("list sale lines", err)
	}

	series := make(map[string]map[string]int)
	for _, line := range lines {
		name := line.Category
		switch dim {
		case DimensionSubcategory:
			name = line.Subcategory
		case DimensionLabel:
			name = line.Label
		}

		date := line.FromDate.Format(domain.DateFormat)
		if series[name] == nil {
			series[name] = make(map[string]int)
		}
		series[name][date] += line.Quantity
	}
	return series, nil
}
