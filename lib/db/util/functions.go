package util

// --------------------------------------------------------------------------
// Key Range Functions
// --------------------------------------------------------------------------

// PrefixSuccessor returns the smallest key that is greater than every key starting with prefix.
// It increments the last byte that is not 0xFF and drops everything after it.
// The boolean is false if there is no such key (empty prefix or a prefix of only 0xFF bytes),
// in which case a prefix scan has no upper bound and runs to the end of the key space.
func PrefixSuccessor(prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}

	hi := []byte(prefix)
	for i := len(hi) - 1; i >= 0; i-- {
		if hi[i] != 0xFF {
			hi[i]++
			return string(hi[:i+1]), true
		}
	}

	// every byte is already the maximum value
	return "", false
}

// KeyRange is a half-open range of keys [From, To).
// If Bounded is false, the range has no upper bound.
type KeyRange struct {
	From    string
	To      string
	Bounded bool
}

// PrefixRange returns the key range covering all keys that start with prefix
func PrefixRange(prefix string) KeyRange {
	to, bounded := PrefixSuccessor(prefix)
	return KeyRange{
		From:    prefix,
		To:      to,
		Bounded: bounded,
	}
}

// Contains reports whether key lies in the range
func (r KeyRange) Contains(key string) bool {
	if key < r.From {
		return false
	}
	return !r.Bounded || key < r.To
}
