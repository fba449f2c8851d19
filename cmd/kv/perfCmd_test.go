package kv

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetKeys(t *testing.T) {
	perfKeySpread = 20
	keys := getKeys("get")

	require.Len(t, keys, 20)
	assert.Equal(t, "__test-get-0/0", keys[0])
	assert.Equal(t, "__test-get-3/13", keys[13])
}

func TestShouldSkip(t *testing.T) {
	perfSkip = []string{"put", " get"}

	assert.True(t, shouldSkip("put"))
	assert.True(t, shouldSkip("get"))
	assert.False(t, shouldSkip("mixed"))
}

func TestRunCase(t *testing.T) {
	kvStore = newTestStore(t)
	t.Cleanup(func() { kvStore = nil })

	perfKeySpread = 10
	perfNumThreads = 1

	registry := metrics.NewRegistry()
	for _, c := range perfCases() {
		if c.name != "get" && c.name != "prefix" {
			continue
		}

		result, err := runCase(c, registry)
		require.NoError(t, err)
		assert.Equal(t, c.name, result.name)
		assert.Greater(t, result.bench.N, 0)
		assert.Greater(t, result.latency.Count(), int64(0))
	}

	// every case cleans up after itself
	size, err := kvStore.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestWriteResultsCSV(t *testing.T) {
	timer := metrics.NewTimer()
	timer.Update(2 * time.Microsecond)
	timer.Update(4 * time.Microsecond)

	results := []perfResult{
		{name: "get", latency: timer},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResultsCSV(&buf, results, 200*time.Millisecond, 32))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header, row := records[0], records[1]
	require.Len(t, row, len(header))
	assert.Equal(t, "Test", header[0])
	assert.Equal(t, "get", row[0])
	assert.Equal(t, "4000", row[6], "max latency in ns")
	assert.Equal(t, "200ms", row[7])
	assert.Equal(t, "32", row[8])
}
