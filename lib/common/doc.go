// Package common holds the configuration and logging setup shared by the
// command line tools.
//
// Logging follows the dragonboat logger facade: packages obtain a named logger
// with logger.GetLogger and InitLoggers installs a factory producing lines of the form
//
//	2025/01/01 12:00:00 INFO  | birch           | sweeper started (interval 200ms)
//
// StoreConfig describes an in-process store and converts to birch.DBOptions.
package common
