package kv

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/ttlkv/cmd/util"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd runs benchmarks against an in-process store
	PerfCmd = &cobra.Command{
		Use:                "perf",
		Short:              "Performance testing tool for the in-process store",
		Long:               "Runs parallel benchmarks against an in-process store and reports throughput and latency percentiles.",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  processPerfConfig,
		PersistentPostRunE: closeStore,
		RunE:               run,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfTTL              = 50 * time.Millisecond
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	PerfCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. put,get)"))
	key = "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines per CPU to use for the benchmark"))
	key = "large-value-size"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How large the value for the put-large test should be (in KB)"))
	key = "keys"
	PerfCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "ttl"
	PerfCmd.Flags().Duration(key, 50*time.Millisecond, util.WrapString("TTL used by the put-ttl and mixed tests"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, args []string) error {
	if err := setupStore(cmd, args); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfTTL = viper.GetDuration("ttl")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	if perfKeySpread <= 0 {
		return fmt.Errorf("keys must be positive, got %d", perfKeySpread)
	}
	if perfNumThreads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", perfNumThreads)
	}

	return nil
}

// --------------------------------------------------------------------------
// Benchmarks
// --------------------------------------------------------------------------

// perfCase is a single benchmark. prepare runs before the timer starts,
// op is called once per iteration with a per-goroutine counter.
type perfCase struct {
	name    string
	prepare func(keys []string) error
	op      func(counter int, keys []string) error
}

// perfResult is the outcome of one perfCase
type perfResult struct {
	name    string
	bench   testing.BenchmarkResult
	latency metrics.Timer
}

func perfCases() []perfCase {
	largeValue := make([]byte, perfLargeValueSizeKB*1024)

	fill := func(keys []string) error {
		for _, k := range keys {
			if err := kvStore.Put(k, []byte("test"), 0); err != nil {
				return err
			}
		}
		return nil
	}

	return []perfCase{
		{
			name: "put",
			op: func(counter int, keys []string) error {
				return kvStore.Put(keys[counter%len(keys)], []byte("test"), 0)
			},
		},
		{
			name: "put-ttl",
			op: func(counter int, keys []string) error {
				return kvStore.Put(keys[counter%len(keys)], []byte("test"), perfTTL)
			},
		},
		{
			name: "put-large",
			op: func(counter int, keys []string) error {
				return kvStore.Put(keys[counter%len(keys)], largeValue, 0)
			},
		},
		{
			name:    "get",
			prepare: fill,
			op: func(counter int, keys []string) error {
				_, _, err := kvStore.Get(keys[counter%len(keys)])
				return err
			},
		},
		{
			name: "get-miss",
			op: func(counter int, keys []string) error {
				_, _, err := kvStore.Get(keys[counter%len(keys)])
				return err
			},
		},
		{
			name:    "prefix",
			prepare: fill,
			op: func(counter int, _ []string) error {
				_, err := kvStore.PrefixGet(fmt.Sprintf("%s-prefix-%d", perfKeyPrefix, counter%10), 10)
				return err
			},
		},
		{
			name:    "del",
			prepare: fill,
			op: func(counter int, keys []string) error {
				_, err := kvStore.Erase(keys[counter%len(keys)])
				return err
			},
		},
		{
			name:    "mixed",
			prepare: fill,
			op: func(counter int, keys []string) error {
				key := keys[counter%len(keys)]
				var err error
				switch counter % 5 {
				case 0:
					err = kvStore.Put(key, []byte("test"), perfTTL)
				case 1, 2:
					_, _, err = kvStore.Get(key)
				case 3:
					_, err = kvStore.PrefixGet(key, 5)
				case 4:
					_, err = kvStore.Erase(key)
				}
				return err
			},
		},
	}
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	config := util.GetStoreConfig()

	fmt.Fprintln(out, "Performance testing tool for the in-process store")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, config.String())
	fmt.Fprintf(out, "Threads: %d\n", perfNumThreads)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "starting tests...")

	registry := metrics.NewRegistry()
	results := make([]perfResult, 0)

	for _, c := range perfCases() {
		if shouldSkip(c.name) {
			printResult(out, perfResult{name: c.name})
			continue
		}

		result, err := runCase(c, registry)
		if err != nil {
			return fmt.Errorf("(%s) - %w", c.name, err)
		}

		results = append(results, result)
		printResult(out, result)
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// runCase runs one benchmark on an empty store. The latency of every operation is
// recorded in a timer of the registry. The first error of an operation is returned
// after the benchmark has finished.
func runCase(c perfCase, registry metrics.Registry) (perfResult, error) {
	keys := getKeys(c.name)
	latency := metrics.GetOrRegisterTimer(c.name, registry)

	if err := kvStore.Clear(); err != nil {
		return perfResult{}, err
	}
	if c.prepare != nil {
		if err := c.prepare(keys); err != nil {
			return perfResult{}, err
		}
	}

	var opErr error
	errOnce := make(chan error, 1)

	bench := testing.Benchmark(func(b *testing.B) {
		b.SetParallelism(perfNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				start := time.Now()
				err := c.op(counter, keys)
				latency.UpdateSince(start)

				if err != nil {
					select {
					case errOnce <- err:
					default:
					}
				}
				counter++
			}
		})
	})

	select {
	case opErr = <-errOnce:
	default:
	}

	plog.Debugf("(%s) - %d operations timed", c.name, latency.Count())

	// cleanup
	if err := kvStore.Clear(); err != nil && opErr == nil {
		opErr = err
	}

	return perfResult{name: c.name, bench: bench, latency: latency}, opErr
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == strings.TrimSpace(skip) {
			return true
		}
	}
	return false
}

// getKeys creates the test keys of a benchmark, spread over 10 prefix groups
func getKeys(prefix string) []string {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d/%d", perfKeyPrefix, prefix, i%10, i)
	}
	return keys
}

// opsPerSecond converts a benchmark result to operations per second, 0 for skipped results
func opsPerSecond(result testing.BenchmarkResult) (nsPerOp float64, opsPerSec float64) {
	if result.NsPerOp() == 0 {
		return 0, 0
	}
	nsPerOp = math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	return nsPerOp, 1.0 / (nsPerOp / 1e9)
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(out io.Writer, result perfResult) {
	nsPerOp, opsPerSec := opsPerSecond(result.bench)
	if nsPerOp == 0 || result.latency == nil {
		fmt.Fprintf(out, "%-12sskipped\n", result.name)
		return
	}

	snapshot := result.latency.Snapshot()

	fmt.Fprintf(out, "%-12s%.0fns/op (%s/op)\t%.0f ops/sec\tp50=%s p99=%s max=%s\n",
		result.name, nsPerOp, time.Duration(nsPerOp), opsPerSec,
		time.Duration(snapshot.Percentile(0.5)),
		time.Duration(snapshot.Percentile(0.99)),
		time.Duration(snapshot.Max()),
	)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []perfResult) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	return writeResultsCSV(file, results, util.GetStoreConfig().SweepInterval, util.GetStoreConfig().Degree)
}

// writeResultsCSV writes the header and one row per result
func writeResultsCSV(w io.Writer, results []perfResult, sweepInterval time.Duration, degree int) error {
	writer := csv.NewWriter(w)

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec",
		"P50Ns", "P99Ns", "MaxNs",
		"SweepInterval", "Degree",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for _, result := range results {
		nsPerOp, opsPerSec := opsPerSecond(result.bench)

		var p50, p99, maxNs float64
		if result.latency != nil {
			snapshot := result.latency.Snapshot()
			p50 = snapshot.Percentile(0.5)
			p99 = snapshot.Percentile(0.99)
			maxNs = float64(snapshot.Max())
		}

		row := []string{
			result.name,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			fmt.Sprintf("%.0f", p50),
			fmt.Sprintf("%.0f", p99),
			fmt.Sprintf("%.0f", maxNs),
			sweepInterval.String(),
			strconv.Itoa(degree),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", result.name, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
