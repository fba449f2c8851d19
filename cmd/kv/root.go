package kv

import (
	"github.com/ValentinKolb/ttlkv/cmd/util"
	"github.com/ValentinKolb/ttlkv/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	plog = logger.GetLogger("cli")

	kvStore store.IStore
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)
}

// setupStore creates the in-process store from flags and environment variables
func setupStore(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config := util.GetStoreConfig()

	s, err := util.NewStore(config)
	if err != nil {
		return err
	}

	plog.Debugf("store created with configuration:%s", config)
	kvStore = s
	return nil
}

// closeStore closes the store created by setupStore
func closeStore(_ *cobra.Command, _ []string) error {
	if kvStore == nil {
		return nil
	}
	err := kvStore.Close()
	kvStore = nil
	return err
}
