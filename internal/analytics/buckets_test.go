package analytics

import (
	"errors"
	"testing"
	"time"

	"scottys/backend/internal/domain"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(domain.DateFormat, value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func TestWeekBucketsCoverRangeContiguously(t *testing.T) {
	from := day(t, "2024-01-01")
	to := day(t, "2024-01-17")

	buckets, err := WeekBuckets(from, to)
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}

	if !buckets[0].Start.Equal(from) {
		t.Fatalf("first bucket starts at %v, want %v", buckets[0].Start, from)
	}
	if !buckets[len(buckets)-1].End.Equal(to) {
		t.Fatalf("last bucket ends at %v, want %v", buckets[len(buckets)-1].End, to)
	}

	for i, bucket := range buckets {
		span := daysBetween(bucket.Start, bucket.End) + 1
		if span < 1 || span > 7 {
			t.Fatalf("bucket %d spans %d days", i, span)
		}
		if i > 0 {
			expected := buckets[i-1].End.AddDate(0, 0, 1)
			if !bucket.Start.Equal(expected) {
				t.Fatalf("bucket %d starts at %v, want %v", i, bucket.Start, expected)
			}
		}
	}
}

func TestWeekBucketsSingleDay(t *testing.T) {
	from := day(t, "2024-03-05")

	buckets, err := WeekBuckets(from, from)
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if !buckets[0].Start.Equal(from) || !buckets[0].End.Equal(from) {
		t.Fatalf("single-day bucket is %v..%v", buckets[0].Start, buckets[0].End)
	}
}

func TestWeekBucketsRejectsReversedRange(t *testing.T) {
	_, err := WeekBuckets(day(t, "2024-01-10"), day(t, "2024-01-01"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestBucketLabelFormat(t *testing.T) {
	buckets, err := WeekBuckets(day(t, "2024-01-01"), day(t, "2024-01-10"))
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}

	labels := BucketLabels(buckets)
	want := []string{"2024-01-01 to 2024-01-07", "2024-01-08 to 2024-01-10"}
	if len(labels) != len(want) {
		t.Fatalf("got %d labels, want %d", len(labels), len(want))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("label %d is %q, want %q", i, labels[i], want[i])
		}
	}
}
