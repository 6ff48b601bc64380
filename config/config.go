// Package config provides the configuration keys of helpscot along with functions to load
// and layer them with defaults
package config

import (
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

// Configuration keys
const (
	TokenKey                              = "token"             // Bot token, string value
	SigningSecretKey                      = "signingSecret"     // Signing secret used to verify slack requests, string value
	DebugKey                              = "debug"             // Debug mode, boolean value
	ListenAddressKey                      = "listenAddress"     // Address the http server listens on (i.e. :3000)
	StoragePathKey                        = "storagePath"       // Base directory of leveldb storage, string value
	TimeLocationKey                       = "timeLocation"      // Time location for scheduled actions (i.e. America/Montreal)
	UserInfoCacheSizeKey                  = "userInfoCacheSize" // Number of entries of the user info cache, int value, 0 disables caching
	PluginsKey                            = "plugins"           // Root key of plugin configurations
	MessageProcessingPartitionCount       = "advanced.messageProcessingPartitionCount"
	MessageProcessingBufferedMessageCount = "advanced.messageProcessingBufferedMessageCount"
	StorageGCloudProjectIDKey             = "storage.gcloudProjectID" // Selects the datastore storage when set
	StorageGCloudCredentialsFileKey       = "storage.gcloudCredentialsFile"
)

// EnvPrefix is the prefix of environment variables overriding configuration values
const EnvPrefix = "HELPSCOT"

const (
	defaultListenAddress                         = ":3000"
	defaultStoragePath                           = "~/.helpscot"
	defaultTimeLocation                          = "Local"
	defaultUserInfoCacheSize                     = 500
	defaultMessageProcessingPartitionCount       = 16
	defaultMessageProcessingBufferedMessageCount = 10
)

// PluginConfig is the configuration of a single plugin
type PluginConfig = viper.Viper

// NewViperWithDefaults creates a new viper instance with default values set for
// all keys that have one
func NewViperWithDefaults() (v *viper.Viper) {
	v = viper.New()
	setDefaults(v)

	return v
}

// LayerConfigWithDefaults layers defaults under the values of v
func LayerConfigWithDefaults(v *viper.Viper) *viper.Viper {
	setDefaults(v)

	return v
}

// NewFromFile reads the configuration file at path (any format supported by viper) with
// defaults and environment overrides (i.e. HELPSCOT_TOKEN for token)
func NewFromFile(path string) (v *viper.Viper, err error) {
	v = NewViperWithDefaults()
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("Error loading configuration file [%s]: %v", path, err)
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(DebugKey, false)
	v.SetDefault(ListenAddressKey, defaultListenAddress)
	v.SetDefault(StoragePathKey, defaultStoragePath)
	v.SetDefault(TimeLocationKey, defaultTimeLocation)
	v.SetDefault(UserInfoCacheSizeKey, defaultUserInfoCacheSize)
	v.SetDefault(MessageProcessingPartitionCount, defaultMessageProcessingPartitionCount)
	v.SetDefault(MessageProcessingBufferedMessageCount, defaultMessageProcessingBufferedMessageCount)
}

// GetTimeLocation returns the time location for the configured time location value
func GetTimeLocation(v *viper.Viper) (timeLoc *time.Location, err error) {
	timeLocationName := v.GetString(TimeLocationKey)
	timeLoc, err = time.LoadLocation(timeLocationName)
	if err != nil {
		return nil, fmt.Errorf("Error loading location [%s]: %v", timeLocationName, err)
	}

	return timeLoc, nil
}

// GetPluginConfig returns the viper sub-tree for a named plugin configuration
func GetPluginConfig(v *viper.Viper, name string) (pluginConfig *PluginConfig, err error) {
	pluginConfig = v.Sub(fmt.Sprintf("%s.%s", PluginsKey, name))
	if pluginConfig == nil {
		return nil, fmt.Errorf("Missing plugin configuration for plugin [%s]", name)
	}

	return pluginConfig, nil
}

// GetPluginConfigOrEmpty returns the configuration of a plugin or an empty one when the plugin
// has none so that its defaults apply
func GetPluginConfigOrEmpty(v *viper.Viper, name string) (pluginConfig *PluginConfig) {
	pluginConfig, err := GetPluginConfig(v, name)
	if err != nil {
		return viper.New()
	}

	return pluginConfig
}
