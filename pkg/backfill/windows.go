package backfill

import "time"

// Record is the orchestrator's view of one observation with incomplete
// generation data.
type Record struct {
	ID          int64
	Ts          time.Time
	Demand      float64
	DemandValid bool
}

// dateBucket groups the records that fall on one UTC calendar date.
type dateBucket struct {
	date    time.Time // midnight UTC
	records []Record
}

// window is one weather-fetch unit: a run of consecutive dates spanning at
// most maxDays calendar days.
type window struct {
	start   time.Time
	end     time.Time
	buckets []dateBucket
}

func (w window) recordCount() int {
	n := 0
	for _, b := range w.buckets {
		n += len(b.records)
	}
	return n
}

// groupByDate partitions chronologically-ordered records into per-date
// buckets, preserving order.
func groupByDate(records []Record) []dateBucket {
	var buckets []dateBucket
	for _, rec := range records {
		date := rec.Ts.UTC().Truncate(24 * time.Hour)
		if n := len(buckets); n > 0 && buckets[n-1].date.Equal(date) {
			buckets[n-1].records = append(buckets[n-1].records, rec)
			continue
		}
		buckets = append(buckets, dateBucket{date: date, records: []Record{rec}})
	}
	return buckets
}

// batchWindows packs date buckets into fetch windows of at most maxDays
// calendar days each, so one upstream failure costs at most one window of
// work rather than the whole run.
func batchWindows(buckets []dateBucket, maxDays int) []window {
	if maxDays <= 0 {
		maxDays = 1
	}
	var windows []window
	for _, bucket := range buckets {
		if n := len(windows); n > 0 {
			span := bucket.date.Sub(windows[n-1].start)
			if span < time.Duration(maxDays)*24*time.Hour {
				windows[n-1].buckets = append(windows[n-1].buckets, bucket)
				windows[n-1].end = bucket.date
				continue
			}
		}
		windows = append(windows, window{start: bucket.date, end: bucket.date, buckets: []dateBucket{bucket}})
	}
	return windows
}
