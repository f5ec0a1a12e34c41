package analytics

import (
	"math"
	"sort"

	"scottys/backend/internal/domain"
)

// Rollup groups per-item aggregate rows, orders them, and injects a synthetic
// subtotal row after each group. Groups are keyed by (category, subcategory)
// when bySubcategory is set, by category alone otherwise, and emitted in
// ascending key order. Within a group, item rows sort by total quantity
// descending with label, category, subcategory as ascending tiebreaks.
//
// An empty input yields an empty report, not an error.
func Rollup(rows []domain.ItemAggregate, bySubcategory bool) []domain.AnalyticsRow {
	groups := make(map[string][]domain.ItemAggregate)
	keys := make([]string, 0)
	for _, row := range rows {
		key := row.Category
		if bySubcategory {
			key = row.Category + " - " + row.Subcategory
		}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], row)
	}
	sort.Strings(keys)

	report := make([]domain.AnalyticsRow, 0, len(rows)+len(keys))
	for _, key := range keys {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.TotalQuantity != b.TotalQuantity {
				return a.TotalQuantity > b.TotalQuantity
			}
			if a.Label != b.Label {
				return a.Label < b.Label
			}
			if a.Category != b.Category {
				return a.Category < b.Category
			}
			return a.Subcategory < b.Subcategory
		})

		var subtotalQty int
		var subtotalCost, subtotalRetail float64
		for _, row := range group {
			report = append(report, domain.AnalyticsRow{
				ItemNumber:    row.ItemNumber,
				Label:         row.Label,
				Category:      row.Category,
				Subcategory:   row.Subcategory,
				UnitCost:      row.UnitCost,
				UnitRetail:    row.UnitRetail,
				TotalQuantity: row.TotalQuantity,
				TotalCost:     row.TotalCost,
				TotalRetail:   row.TotalRetail,
			})
			subtotalQty += row.TotalQuantity
			subtotalCost += row.TotalCost
			subtotalRetail += row.TotalRetail
		}

		report = append(report, domain.AnalyticsRow{
			ItemNumber:    domain.SubtotalItemNumber,
			Label:         domain.SubtotalLabel,
			Category:      group[0].Category,
			Subcategory:   group[0].Subcategory,
			TotalQuantity: subtotalQty,
			TotalCost:     RoundMoney(subtotalCost),
			TotalRetail:   RoundMoney(subtotalRetail),
		})
	}
	return report
}

// RoundMoney rounds to two decimal places, half away from zero.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
