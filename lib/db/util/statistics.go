// Package util provides testing, benchmarking, and utility tools for KVDB implementations.
// This file implements a size histogram for estimating the memory held by values
// without a full scan. The histogram uses exponential bucket sizing to cover
// a wide range of values (bytes to gigabytes) with a fixed number of counters.
//
// Samples are recorded with atomic operations only, so the histogram can be
// filled while the caller holds a read lock on its own data structure.
package util

import (
	"math"
	"sync/atomic"
)

// sizeBoundaries are the inclusive upper bounds of all but the last bucket
var sizeBoundaries = [...]int64{
	16, 64, 256, 1024, 4096, // Bytes: 16B to 4KB
	16384, 65536, 262144, 1048576, // KB range: 16KB to 1MB
	4194304, 16777216, 67108864, // MB range: 4MB to 64MB
	268435456, 1073741824, 4294967296, // Above 256MB to 4GB
}

// SizeHistogram tracks the distribution of data sizes.
// The zero value is ready to use.
type SizeHistogram struct {
	buckets [len(sizeBoundaries) + 1]atomic.Int64 // last bucket holds everything above 4GB
	count   atomic.Int64
	sum     atomic.Int64
}

// NewSizeHistogram creates a new empty size histogram
func NewSizeHistogram() *SizeHistogram {
	return &SizeHistogram{}
}

// bucketFor returns the bucket index for a size
func bucketFor(size int64) int {
	for i, boundary := range sizeBoundaries {
		if size <= boundary {
			return i
		}
	}
	return len(sizeBoundaries)
}

// estimateFor returns a representative size for a bucket
func estimateFor(bucket int) int64 {
	switch {
	case bucket == 0:
		return sizeBoundaries[0] / 2
	case bucket < len(sizeBoundaries):
		return (sizeBoundaries[bucket-1] + sizeBoundaries[bucket]) / 2
	default:
		return sizeBoundaries[len(sizeBoundaries)-1] * 2
	}
}

// AddSample adds a size sample to the histogram
//
// Thread-safe: This method is safe for concurrent use
func (h *SizeHistogram) AddSample(size int64) {
	h.buckets[bucketFor(size)].Add(1)
	h.count.Add(1)
	h.sum.Add(size)
}

// Count returns the total number of samples
func (h *SizeHistogram) Count() int64 {
	return h.count.Load()
}

// AverageSize returns the average size across all samples
func (h *SizeHistogram) AverageSize() int64 {
	count := h.count.Load()
	if count == 0 {
		return 0
	}
	return h.sum.Load() / count
}

// PercentileEstimate returns an estimate for the given percentile (0-100).
// The estimate is the midpoint of the bucket holding the percentile.
func (h *SizeHistogram) PercentileEstimate(percentile int) int64 {
	count := h.count.Load()
	if count == 0 || percentile < 0 || percentile > 100 {
		return 0
	}

	target := int64(math.Ceil(float64(count) * float64(percentile) / 100.0))
	var cumulative int64
	for i := range h.buckets {
		cumulative += h.buckets[i].Load()
		if cumulative >= target {
			return estimateFor(i)
		}
	}

	// concurrent AddSample calls can leave count ahead of the buckets
	return h.AverageSize()
}

// MedianEstimate estimates the median size based on the histogram
func (h *SizeHistogram) MedianEstimate() int64 {
	return h.PercentileEstimate(50)
}

// Reset clears all histogram data.
// Not atomic with respect to concurrent AddSample calls.
func (h *SizeHistogram) Reset() {
	for i := range h.buckets {
		h.buckets[i].Store(0)
	}
	h.count.Store(0)
	h.sum.Store(0)
}
