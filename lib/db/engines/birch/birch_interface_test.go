package birch

import (
	"testing"

	"github.com/ValentinKolb/ttlkv/lib/db"
	dbtesting "github.com/ValentinKolb/ttlkv/lib/db/testing"
)

func newTestDB(tb testing.TB) db.KVDB {
	database, err := NewBirchDB(nil)
	if err != nil {
		tb.Fatalf("failed to create BirchDB: %v", err)
	}
	return database
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "BirchDB", newTestDB)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "BirchDB", newTestDB)
}
