package analytics

import (
	"time"

	"scottys/backend/internal/domain"
)

// WeekBucket is one contiguous span of at most seven days. A reporting range
// is partitioned into buckets that are contiguous, non-overlapping and cover
// the range exactly; only the final bucket may be shorter than seven days.
type WeekBucket struct {
	Start time.Time
	End   time.Time
}

// Label renders the bucket the way weekly reports key their breakdown maps,
// e.g. "2024-01-01 to 2024-01-07".
func (b WeekBucket) Label() string {
	return b.Start.Format(domain.DateFormat) + " to " + b.End.Format(domain.DateFormat)
}

// WeekBuckets partitions [from, to] into week buckets. A single-day range
// yields one single-day bucket.
func WeekBuckets(from, to time.Time) ([]WeekBucket, error) {
	from = Midnight(from)
	to = Midnight(to)
	if from.After(to) {
		return nil, ErrInvalidRange
	}

	var buckets []WeekBucket
	for start := from; !start.After(to); {
		end := start.AddDate(0, 0, 6)
		if end.After(to) {
			end = to
		}
		buckets = append(buckets, WeekBucket{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return buckets, nil
}

// BucketLabels returns the labels of buckets in order.
func BucketLabels(buckets []WeekBucket) []string {
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label()
	}
	return labels
}
