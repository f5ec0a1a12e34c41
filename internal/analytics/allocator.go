package analytics

import "time"

// AllocateWeekly spreads one sale's quantity across week buckets proportional
// to date overlap. The per-day rate is quantity divided by the sale's
// inclusive day count using integer division; the division remainder is not
// redistributed, so the bucket total can undershoot the original quantity for
// quantities not divisible by the day span. That loss is the established
// behavior of every report built on this allocation and is kept as is.
//
// Every bucket appears in the result, non-overlapping ones with 0.
func AllocateWeekly(saleFrom, saleTo time.Time, quantity int, buckets []WeekBucket) map[string]int {
	saleFrom = Midnight(saleFrom)
	saleTo = Midnight(saleTo)

	totalDays := daysBetween(saleFrom, saleTo) + 1
	perDay := 0
	if totalDays > 0 {
		perDay = quantity / totalDays
	}

	allocation := make(map[string]int, len(buckets))
	for _, bucket := range buckets {
		if saleTo.Before(bucket.Start) || saleFrom.After(bucket.End) {
			allocation[bucket.Label()] = 0
			continue
		}

		overlapStart := saleFrom
		if bucket.Start.After(overlapStart) {
			overlapStart = bucket.Start
		}
		overlapEnd := saleTo
		if bucket.End.Before(overlapEnd) {
			overlapEnd = bucket.End
		}

		overlapDays := daysBetween(overlapStart, overlapEnd) + 1
		allocation[bucket.Label()] = overlapDays * perDay
	}
	return allocation
}

// MergeAllocations adds src's per-bucket quantities into dst. Multiple sale
// transactions for the same item contribute additively to shared buckets.
func MergeAllocations(dst, src map[string]int) {
	for label, qty := range src {
		dst[label] += qty
	}
}
