package analytics

import "testing"

func TestAllocateWeeklySplitsByOverlap(t *testing.T) {
	buckets, err := WeekBuckets(day(t, "2024-01-01"), day(t, "2024-01-10"))
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}

	// 10 units over 10 days: one per day, 7 in the first week, 3 in the rest.
	allocation := AllocateWeekly(day(t, "2024-01-01"), day(t, "2024-01-10"), 10, buckets)
	if got := allocation["2024-01-01 to 2024-01-07"]; got != 7 {
		t.Fatalf("first bucket got %d, want 7", got)
	}
	if got := allocation["2024-01-08 to 2024-01-10"]; got != 3 {
		t.Fatalf("second bucket got %d, want 3", got)
	}
}

func TestAllocateWeeklySingleBucketExact(t *testing.T) {
	buckets, err := WeekBuckets(day(t, "2024-01-01"), day(t, "2024-01-07"))
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}

	allocation := AllocateWeekly(day(t, "2024-01-01"), day(t, "2024-01-07"), 14, buckets)
	if got := allocation[buckets[0].Label()]; got != 14 {
		t.Fatalf("got %d, want all 14 units in the only bucket", got)
	}
}

func TestAllocateWeeklyNonOverlappingBucketsPresentWithZero(t *testing.T) {
	buckets, err := WeekBuckets(day(t, "2024-01-01"), day(t, "2024-01-21"))
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}

	allocation := AllocateWeekly(day(t, "2024-01-08"), day(t, "2024-01-14"), 7, buckets)
	if len(allocation) != len(buckets) {
		t.Fatalf("allocation has %d entries, want %d", len(allocation), len(buckets))
	}
	if got := allocation["2024-01-01 to 2024-01-07"]; got != 0 {
		t.Fatalf("non-overlapping bucket got %d, want 0", got)
	}
	if got := allocation["2024-01-08 to 2024-01-14"]; got != 7 {
		t.Fatalf("overlapping bucket got %d, want 7", got)
	}
}

func TestAllocateWeeklyIntegerDivisionDropsRemainder(t *testing.T) {
	buckets, err := WeekBuckets(day(t, "2024-01-01"), day(t, "2024-01-03"))
	if err != nil {
		t.Fatalf("week buckets: %v", err)
	}

	// 14 units over 3 days: per-day rate floors to 4, so 2 units are lost.
	allocation := AllocateWeekly(day(t, "2024-01-01"), day(t, "2024-01-03"), 14, buckets)
	if got := allocation[buckets[0].Label()]; got != 12 {
		t.Fatalf("got %d, want 12 after floor division", got)
	}
}

func TestMergeAllocationsIsAdditive(t *testing.T) {
	dst := map[string]int{"w1": 3, "w2": 0}
	MergeAllocations(dst, map[string]int{"w1": 2, "w2": 5, "w3": 1})

	if dst["w1"] != 5 || dst["w2"] != 5 || dst["w3"] != 1 {
		t.Fatalf("merge result %v", dst)
	}
}
