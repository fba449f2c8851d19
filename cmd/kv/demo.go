package kv

import (
	"fmt"
	"io"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/store"
	"github.com/spf13/cobra"
)

var (
	demoWait = 700 * time.Millisecond

	// DemoCmd walks through ttl expiry and prefix queries
	DemoCmd = &cobra.Command{
		Use:                "demo",
		Short:              "Show ttl expiry and prefix queries on a small data set",
		Args:               cobra.NoArgs,
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: closeStore,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(kvStore, cmd.OutOrStdout(), demoWait)
		},
	}
)

// runDemo stores four fruits, one of them with a 500ms ttl, and shows the
// prefix "ap" before and after the ttl has passed
func runDemo(s store.IStore, out io.Writer, wait time.Duration) error {
	puts := []struct {
		key   string
		value string
		ttl   time.Duration
	}{
		{"apple", "red", 500 * time.Millisecond},
		{"app", "prefix", 0},
		{"banana", "yellow", 0},
		{"apricot", "orange", 0},
	}

	for _, p := range puts {
		if err := s.Put(p.key, []byte(p.value), p.ttl); err != nil {
			return err
		}
	}

	if err := printPrefix(s, out, "ap"); err != nil {
		return err
	}

	time.Sleep(wait)

	_, ok, err := s.Get("apple")
	if err != nil {
		return err
	}
	state := "expired"
	if ok {
		state = "present"
	}
	fmt.Fprintf(out, "get apple after ttl: %s\n", state)

	return printPrefix(s, out, "ap")
}

func printPrefix(s store.IStore, out io.Writer, prefix string) error {
	result, err := s.PrefixGet(prefix, 0)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "prefix '%s':\n", prefix)
	for _, kv := range result {
		fmt.Fprintf(out, "  %s -> %s\n", kv.Key, kv.Value)
	}
	return nil
}
