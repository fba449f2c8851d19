package kv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/lockmgr"
	"github.com/ValentinKolb/ttlkv/lib/store"
	"github.com/spf13/cobra"
)

var (
	shellQuiet bool

	// ShellCmd starts an interactive shell on an in-process store
	ShellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell on an in-process store",
		Long: `Start an interactive shell on an in-process store. Commands are read line by line from stdin,
type "help" for a list of commands. The store only lives as long as the shell.`,
		Args:               cobra.NoArgs,
		PersistentPreRunE:  setupStore,
		PersistentPostRunE: closeStore,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sh := newShell(kvStore, cmd.OutOrStdout())
			return sh.run(cmd.InOrStdin(), !shellQuiet)
		},
	}
)

func init() {
	ShellCmd.Flags().BoolVarP(&shellQuiet, "quiet", "q", false, "Do not print a prompt (useful when piping commands)")
}

// errExit is returned by the exit command to end the shell
var errExit = errors.New("exit")

// --------------------------------------------------------------------------
// Shell commands
// --------------------------------------------------------------------------

type shellCommand struct {
	usage   string
	help    string
	minArgs int
	maxArgs int
	run     func(sh *shell, args []string) error
}

// shellCommands is filled in init, the help command refers to it
var shellCommands map[string]shellCommand

func init() {
	shellCommands = map[string]shellCommand{
		"put": {
			usage: "put <key> <value> [ttl]", help: "Set a value, ttl like 500ms or 2s (0 = no expiry)",
			minArgs: 2, maxArgs: 3, run: (*shell).put,
		},
		"putnx": {
			usage: "putnx <key> <value> [ttl]", help: "Set a value only if the key has no live value",
			minArgs: 2, maxArgs: 3, run: (*shell).putIfAbsent,
		},
		"get": {
			usage: "get <key>", help: "Read the value of a key",
			minArgs: 1, maxArgs: 1, run: (*shell).get,
		},
		"del": {
			usage: "del <key>", help: "Erase a key",
			minArgs: 1, maxArgs: 1, run: (*shell).erase,
		},
		"prefix": {
			usage: "prefix <prefix> [limit]", help: "List live pairs with the prefix in key order (limit 0 = all)",
			minArgs: 1, maxArgs: 2, run: (*shell).prefix,
		},
		"size": {
			usage: "size", help: "Number of stored entries (may include expired, not yet reclaimed ones)",
			run: (*shell).size,
		},
		"clear": {
			usage: "clear", help: "Remove all entries",
			run: (*shell).clear,
		},
		"info": {
			usage: "info", help: "Show database information",
			run: (*shell).info,
		},
		"metrics": {
			usage: "metrics", help: "Show metrics in Prometheus text format",
			run: (*shell).metrics,
		},
		"lock": {
			usage: "lock <key> [timeout]", help: "Acquire a lock, prints the owner id",
			minArgs: 1, maxArgs: 2, run: (*shell).lock,
		},
		"unlock": {
			usage: "unlock <key> <owner>", help: "Release a lock with the owner id returned by lock",
			minArgs: 2, maxArgs: 2, run: (*shell).unlock,
		},
		"help": {
			usage: "help", help: "Show this help",
			run: (*shell).help,
		},
		"exit": {
			usage: "exit", help: "Leave the shell",
			run: func(*shell, []string) error { return errExit },
		},
	}
	shellCommands["quit"] = shellCommands["exit"]
}

// --------------------------------------------------------------------------
// Shell
// --------------------------------------------------------------------------

type shell struct {
	store store.IStore
	locks lockmgr.ILockManager
	out   io.Writer
}

func newShell(s store.IStore, out io.Writer) *shell {
	return &shell{
		store: s,
		locks: lockmgr.NewLockManager(s),
		out:   out,
	}
}

// run reads commands from in until it is exhausted or exit is called.
// Command errors are printed and do not end the shell.
func (sh *shell) run(in io.Reader, prompt bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for {
		if prompt {
			fmt.Fprint(sh.out, "> ")
		}
		if !scanner.Scan() {
			break
		}

		err := sh.exec(scanner.Text())
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
	}

	return scanner.Err()
}

// exec runs a single line. Empty lines and lines starting with # are ignored.
func (sh *shell) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	name, args := strings.ToLower(fields[0]), fields[1:]
	command, ok := shellCommands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (type help for a list of commands)", name)
	}
	if len(args) < command.minArgs || len(args) > command.maxArgs {
		return fmt.Errorf("usage: %s", command.usage)
	}

	return command.run(sh, args)
}

func (sh *shell) put(args []string) error {
	ttl, err := parseTTL(args, 2)
	if err != nil {
		return err
	}
	if err := sh.store.Put(args[0], []byte(args[1]), ttl); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "OK")
	return nil
}

func (sh *shell) putIfAbsent(args []string) error {
	ttl, err := parseTTL(args, 2)
	if err != nil {
		return err
	}
	written, err := sh.store.PutIfAbsent(args[0], []byte(args[1]), ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "written=%t\n", written)
	return nil
}

func (sh *shell) get(args []string) error {
	value, ok, err := sh.store.Get(args[0])
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(sh.out, "(nil)")
		return nil
	}
	fmt.Fprintf(sh.out, "%s\n", value)
	return nil
}

func (sh *shell) erase(args []string) error {
	removed, err := sh.store.Erase(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "removed=%t\n", removed)
	return nil
}

func (sh *shell) prefix(args []string) error {
	limit := 0
	if len(args) == 2 {
		var err error
		if limit, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("limit must be a number: %w", err)
		}
	}

	result, err := sh.store.PrefixGet(args[0], limit)
	if err != nil {
		return err
	}
	for _, kv := range result {
		fmt.Fprintf(sh.out, "%s -> %s\n", kv.Key, kv.Value)
	}
	fmt.Fprintf(sh.out, "(%d results)\n", len(result))
	return nil
}

func (sh *shell) size(_ []string) error {
	size, err := sh.store.Size()
	if err != nil {
		return err
	}
	fmt.Fprintln(sh.out, size)
	return nil
}

func (sh *shell) clear(_ []string) error {
	if err := sh.store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "OK")
	return nil
}

func (sh *shell) info(_ []string) error {
	info, err := sh.store.GetDBInfo()
	if err != nil {
		return err
	}

	features := make([]string, len(info.SupportedFeatures))
	for i, f := range info.SupportedFeatures {
		features[i] = f.String()
	}

	out, err := json.MarshalIndent(struct {
		SizeBytes int         `json:"size_bytes"`
		DbType    string      `json:"db_type"`
		Features  []string    `json:"supported_features"`
		Metadata  interface{} `json:"metadata"`
	}{info.SizeBytes, string(info.DbType), features, info.Metadata}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s\n", out)
	return nil
}

func (sh *shell) metrics(_ []string) error {
	return sh.store.WriteMetrics(sh.out)
}

func (sh *shell) lock(args []string) error {
	timeout, err := parseTTL(args, 1)
	if err != nil {
		return err
	}
	acquired, ownerID, err := sh.locks.AcquireLock(args[0], timeout)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		fmt.Fprintln(sh.out, "acquired=false")
		return nil
	}
	fmt.Fprintf(sh.out, "acquired=true owner=%s\n", ownerID)
	return nil
}

func (sh *shell) unlock(args []string) error {
	released, err := sh.locks.ReleaseLock(args[0], []byte(args[1]))
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	fmt.Fprintf(sh.out, "released=%t\n", released)
	return nil
}

func (sh *shell) help(_ []string) error {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		if name != "quit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		command := shellCommands[name]
		fmt.Fprintf(sh.out, "  %-28s%s\n", command.usage, command.help)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseTTL parses the optional ttl argument at position idx.
// A plain number is read as milliseconds.
func parseTTL(args []string, idx int) (time.Duration, error) {
	if len(args) <= idx {
		return 0, nil
	}

	raw := args[idx]
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q: %w", raw, err)
	}
	return ttl, nil
}
