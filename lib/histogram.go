// Package lib supplies convenience helpers for goebr packages. Package
// shall not import packages other than golang's standard packages.
package lib

import "strconv"

// HistogramInt64 statistical histogram with fixed width buckets and
// overflow buckets on either side.
type HistogramInt64 struct {
	// stats
	n      int64
	sum    int64
	minval int64
	maxval int64
	seen   bool
	counts []int64
	// setup
	from  int64
	width int64
}

// NewhistogramInt64 return a new histogram object collecting samples
// over [from, till) in steps of width.
func NewhistogramInt64(from, till, width int64) *HistogramInt64 {
	from, till = (from/width)*width, (till/width)*width
	h := &HistogramInt64{from: from, width: width}
	h.counts = make([]int64, ((till-from)/width)+2)
	return h
}

// Add a sample to this histogram.
func (h *HistogramInt64) Add(sample int64) {
	h.n++
	h.sum += sample
	if h.seen == false {
		h.minval, h.maxval, h.seen = sample, sample, true
	} else if sample < h.minval {
		h.minval = sample
	} else if sample > h.maxval {
		h.maxval = sample
	}

	idx := int64(0)
	if sample >= h.from {
		idx = ((sample - h.from) / h.width) + 1
		if idx >= int64(len(h.counts)) {
			idx = int64(len(h.counts)) - 1
		}
	}
	h.counts[idx]++
}

// Min return minimum value from sample.
func (h *HistogramInt64) Min() int64 {
	return h.minval
}

// Max return maximum value from sample.
func (h *HistogramInt64) Max() int64 {
	return h.maxval
}

// Samples return total number of samples in the set.
func (h *HistogramInt64) Samples() int64 {
	return h.n
}

// Sum return the sum of all sample values.
func (h *HistogramInt64) Sum() int64 {
	return h.sum
}

// Mean return the average value of all samples.
func (h *HistogramInt64) Mean() int64 {
	if h.n == 0 {
		return 0
	}
	return int64(float64(h.sum) / float64(h.n))
}

// Stats return a map of non-empty buckets, keyed by the bucket's lower
// bound; samples below the range land under "-", samples at or above
// the range under "+".
func (h *HistogramInt64) Stats() map[string]int64 {
	m := make(map[string]int64)
	for i, count := range h.counts {
		if count == 0 {
			continue
		}
		switch {
		case i == 0:
			m["-"] = count
		case i == len(h.counts)-1:
			m["+"] = count
		default:
			key := strconv.Itoa(int(h.from + int64(i-1)*h.width))
			m[key] = count
		}
	}
	return m
}

// Fullstats includes sample statistics along with Stats().
func (h *HistogramInt64) Fullstats() map[string]interface{} {
	return map[string]interface{}{
		"samples":   h.Samples(),
		"min":       h.Min(),
		"max":       h.Max(),
		"mean":      h.Mean(),
		"sum":       h.Sum(),
		"histogram": h.Stats(),
	}
}
