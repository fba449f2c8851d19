package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixSuccessor(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		want    string
		bounded bool
	}{
		{"empty", "", "", false},
		{"simple", "ap", "aq", true},
		{"single byte", "a", "b", true},
		{"trailing max byte", "a\xff", "b", true},
		{"several trailing max bytes", "ab\xff\xff", "ac", true},
		{"only max bytes", "\xff\xff", "", false},
		{"zero byte", "a\x00", "a\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, bounded := PrefixSuccessor(tt.prefix)
			assert.Equal(t, tt.bounded, bounded)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrefixSuccessorIsUpperBound(t *testing.T) {
	prefixes := []string{"ap", "user:", "x\xfe", "k\xff"}

	for _, prefix := range prefixes {
		hi, bounded := PrefixSuccessor(prefix)
		require.True(t, bounded, "prefix %q should have a successor", prefix)

		// every extension of the prefix sorts below the successor
		for _, suffix := range []string{"", "a", "\x00", "\xff\xff\xff", strings.Repeat("z", 64)} {
			assert.Less(t, prefix+suffix, hi, "key %q should be below successor of %q", prefix+suffix, prefix)
		}

		// the successor itself does not carry the prefix
		assert.False(t, strings.HasPrefix(hi, prefix))
	}
}

func TestPrefixRangeContains(t *testing.T) {
	r := PrefixRange("ap")

	assert.True(t, r.Contains("ap"))
	assert.True(t, r.Contains("app"))
	assert.True(t, r.Contains("apricot"))
	assert.False(t, r.Contains("a"))
	assert.False(t, r.Contains("aq"))
	assert.False(t, r.Contains("banana"))

	unbounded := PrefixRange("")
	assert.False(t, unbounded.Bounded)
	assert.True(t, unbounded.Contains(""))
	assert.True(t, unbounded.Contains("\xff\xff\xff"))

	maxed := PrefixRange("\xff")
	assert.False(t, maxed.Bounded)
	assert.True(t, maxed.Contains("\xff\x01"))
	assert.False(t, maxed.Contains("\xfe"))
}
