package util

import (
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/ttlkv/lib/common"
	"github.com/ValentinKolb/ttlkv/lib/db"
	"github.com/ValentinKolb/ttlkv/lib/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}

	assert.Equal(t, "short text", WrapString("  short   text "))
	assert.Equal(t, "", WrapString(""))
}

func TestStoreConfigFromFlagsAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TTLKV_DEGREE", "8")
	InitConfig()

	cmd := &cobra.Command{Use: "test"}
	SetupStoreFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("sweep-interval", "250ms"))
	require.NoError(t, viper.BindPFlags(cmd.PersistentFlags()))

	config := GetStoreConfig()
	assert.Equal(t, 250*time.Millisecond, config.SweepInterval)
	assert.Equal(t, 8, config.Degree)
	assert.Equal(t, "info", config.LogLevel)
}

func TestNewStoreRejectsInvalidConfig(t *testing.T) {
	config := common.DefaultStoreConfig()
	config.SweepInterval = -time.Second

	s, err := NewStore(&config)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, db.ErrInvalidSweepInterval)
}

func TestNewStore(t *testing.T) {
	config := common.DefaultStoreConfig()

	s, err := NewStore(&config)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put("k", []byte("v"), 0))
	value, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)
}

func TestNewStoreTwice(t *testing.T) {
	config := common.DefaultStoreConfig()

	for i := 0; i < 2; i++ {
		var s store.IStore
		require.NotPanics(t, func() {
			var err error
			s, err = NewStore(&config)
			require.NoError(t, err)
		})

		require.NoError(t, s.Put("k", []byte("v"), 0))
		require.NoError(t, s.Close())
	}
}
