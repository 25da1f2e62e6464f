// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LoadConfig resolves AppConfig with the usual precedence: defaults,
// then an optional matterhub.yaml in the working directory or
// SettingsDir, then MATTERHUB_* environment variables. Command-line
// flags are bound on top by the CLI layer before this runs.
func LoadConfig(v *viper.Viper, logger *zap.Logger) (AppConfig, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetDefault("key_url", "")
	v.SetDefault("auth_key_url", "")
	v.SetDefault("database", "matterhub")
	v.SetDefault("collection", "registrations")
	v.SetDefault("mongo_max_pool_size", 20)
	v.SetDefault("mongo_min_pool_size", 2)
	v.SetDefault("callback_addr", "127.0.0.1:5000")
	v.SetDefault("signin_url", "")
	v.SetDefault("demo", false)
	v.SetDefault("settings_dir", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("MATTERHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("matterhub")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := v.GetString("settings_dir"); dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		logger.Debug("config file loaded", zap.String("path", v.ConfigFileUsed()))
	}

	cfg := AppConfig{
		KeyURL:           v.GetString("key_url"),
		AuthKeyURL:       v.GetString("auth_key_url"),
		Database:         v.GetString("database"),
		Collection:       v.GetString("collection"),
		MongoMaxPoolSize: v.GetUint64("mongo_max_pool_size"),
		MongoMinPoolSize: v.GetUint64("mongo_min_pool_size"),
		CallbackAddr:     v.GetString("callback_addr"),
		SignInURL:        v.GetString("signin_url"),
		Demo:             v.GetBool("demo"),
		SettingsDir:      v.GetString("settings_dir"),
		LogLevel:         v.GetString("log_level"),
	}
	return cfg, cfg.validate()
}

func (c AppConfig) validate() error {
	if !c.Demo && c.KeyURL == "" {
		return fmt.Errorf("key_url is required unless demo mode is set")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection must not be empty")
	}
	if c.MongoMinPoolSize > c.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size %d exceeds mongo_max_pool_size %d",
			c.MongoMinPoolSize, c.MongoMaxPoolSize)
	}
	return nil
}
