package config_test

import (
	"github.com/bugcenter/helpscot/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWithDefault(t *testing.T) {
	v := config.NewViperWithDefaults()

	assert.Equal(t, false, v.GetBool(config.DebugKey), "%s should be %t", config.DebugKey, false)
	assert.Equal(t, ":3000", v.GetString(config.ListenAddressKey))
	assert.Equal(t, "~/.helpscot", v.GetString(config.StoragePathKey))
	assert.Equal(t, "Local", v.GetString(config.TimeLocationKey), "%s should be %s", config.TimeLocationKey, "Local")
	assert.Equal(t, 500, v.GetInt(config.UserInfoCacheSizeKey))
	assert.Equal(t, 16, v.GetInt(config.MessageProcessingPartitionCount), "%s should be %d", config.MessageProcessingPartitionCount, 16)
	assert.Equal(t, 10, v.GetInt(config.MessageProcessingBufferedMessageCount), "%s should be %d", config.MessageProcessingBufferedMessageCount, 10)
}

func TestLayeredConfigWithDefaultsAndOverrides(t *testing.T) {
	v := viper.New()
	v.Set(config.ListenAddressKey, ":8080")
	v.Set(config.MessageProcessingPartitionCount, 32)

	v = config.LayerConfigWithDefaults(v)

	assert.Equal(t, ":8080", v.GetString(config.ListenAddressKey))
	assert.Equal(t, 32, v.GetInt(config.MessageProcessingPartitionCount))
	assert.Equal(t, 10, v.GetInt(config.MessageProcessingBufferedMessageCount))
	assert.Equal(t, "Local", v.GetString(config.TimeLocationKey))
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "helpscot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: xoxb-file\nplugins:\n  tagger:\n    repository: bugcenter/tags\n"), 0600))
	t.Setenv("HELPSCOT_SIGNINGSECRET", "from-env")

	v, err := config.NewFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "xoxb-file", v.GetString(config.TokenKey))
	assert.Equal(t, "from-env", v.GetString(config.SigningSecretKey))
	assert.Equal(t, ":3000", v.GetString(config.ListenAddressKey))

	pc, err := config.GetPluginConfig(v, "tagger")
	require.NoError(t, err)
	assert.Equal(t, "bugcenter/tags", pc.GetString("repository"))
}

func TestNewFromMissingFile(t *testing.T) {
	_, err := config.NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))

	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "Error loading configuration file")
	}
}

func TestGetTimeLocationWithTimezoneId(t *testing.T) {
	v := viper.New()
	v.Set(config.TimeLocationKey, "America/Montreal")

	timeLoc, err := config.GetTimeLocation(v)

	assert.Nil(t, err)
	if assert.NotNil(t, timeLoc) {
		assert.Equal(t, "America/Montreal", timeLoc.String())
	}
}

func TestGetTimeLocationWithInvalidValue(t *testing.T) {
	v := viper.New()
	v.Set(config.TimeLocationKey, "invalid")

	_, err := config.GetTimeLocation(v)

	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "invalid")
	}
}

func TestGetPluginConfig(t *testing.T) {
	v := viper.New()
	v.Set(config.PluginsKey, map[string]interface{}{
		"tagger": map[string]interface{}{"repository": "bugcenter/tags", "admins": []string{"U1", "U2"}},
	})

	pc, err := config.GetPluginConfig(v, "tagger")

	assert.Nil(t, err)
	if assert.NotNil(t, pc) {
		assert.Equal(t, []string{"U1", "U2"}, pc.GetStringSlice("admins"))
	}
}

func TestGetPluginConfigWithMissingConfig(t *testing.T) {
	v := viper.New()

	_, err := config.GetPluginConfig(v, "tagger")
	if assert.NotNil(t, err) {
		assert.Contains(t, err.Error(), "Missing plugin configuration for plugin [tagger]")
	}

	assert.NotNil(t, config.GetPluginConfigOrEmpty(v, "tagger"))
}
