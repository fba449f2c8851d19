// Package cmd implements the command-line interface of ttlkv. All commands
// work on a store that lives inside the ttlkv process, there is no server.
//
// The package is organized into several subpackages:
//
//   - kv: The demo walkthrough, the interactive shell and the performance test tool
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See ttlkv -help for a list of all commands.
package cmd
