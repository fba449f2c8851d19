package util

import (
	"strings"

	"github.com/ValentinKolb/ttlkv/lib/common"
	"github.com/ValentinKolb/ttlkv/lib/db"
	"github.com/ValentinKolb/ttlkv/lib/db/engines/birch"
	"github.com/ValentinKolb/ttlkv/lib/store"
	"github.com/ValentinKolb/ttlkv/lib/store/lstore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. TTLKV_SWEEP_INTERVAL)
	EnvPrefix = "ttlkv"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags configuring the in-process store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	defaults := common.DefaultStoreConfig()

	key := "sweep-interval"
	cmd.PersistentFlags().Duration(key, defaults.SweepInterval, WrapString("Time the background sweeper waits when no expiration is scheduled"))

	key = "degree"
	cmd.PersistentFlags().Int(key, defaults.Degree, WrapString("Degree of the B-tree holding the entries (must be >= 2)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetStoreConfig reads the store configuration from viper
func GetStoreConfig() *common.StoreConfig {
	return &common.StoreConfig{
		SweepInterval: viper.GetDuration("sweep-interval"),
		Degree:        viper.GetInt("degree"),
		LogLevel:      viper.GetString("log-level"),
	}
}

// NewStore validates the configuration, initializes the loggers and creates a local store
func NewStore(config *common.StoreConfig) (store.IStore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	return lstore.NewLocalStore(func() (db.KVDB, error) {
		return birch.NewBirchDB(config.DBOptions())
	})
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
