package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeHistogramEmpty(t *testing.T) {
	var h SizeHistogram

	assert.Equal(t, int64(0), h.Count())
	assert.Equal(t, int64(0), h.AverageSize())
	assert.Equal(t, int64(0), h.MedianEstimate())
}

func TestSizeHistogramEstimates(t *testing.T) {
	h := NewSizeHistogram()

	for i := 0; i < 90; i++ {
		h.AddSample(10) // first bucket
	}
	for i := 0; i < 10; i++ {
		h.AddSample(2000) // 1KB - 4KB bucket
	}

	assert.Equal(t, int64(100), h.Count())
	assert.Equal(t, int64(90*10+10*2000)/100, h.AverageSize())
	assert.Equal(t, int64(8), h.MedianEstimate())
	assert.Equal(t, int64(1024+4096)/2, h.PercentileEstimate(95))
	assert.Equal(t, int64(0), h.PercentileEstimate(101))

	h.Reset()
	assert.Equal(t, int64(0), h.Count())
}

func TestSizeHistogramConcurrent(t *testing.T) {
	h := NewSizeHistogram()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				h.AddSample(int64(i))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8000), h.Count())
}

func TestSizeHistogramLargeSizes(t *testing.T) {
	h := NewSizeHistogram()

	h.AddSample(3 << 30) // 1GB - 4GB bucket
	h.AddSample(5 << 30) // above the last boundary

	assert.Equal(t, int64(2), h.Count())
	assert.Equal(t, int64(4<<30), h.AverageSize())
	assert.Equal(t, int64(1073741824+4294967296)/2, h.PercentileEstimate(50))
	assert.Equal(t, int64(4294967296*2), h.PercentileEstimate(100))
}
