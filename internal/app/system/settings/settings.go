// Package settings is the operator-editable settings store: a small
// key-value blob persisted to disk with get/set/sync semantics, backed
// by viper.
//
// It holds everything the operator can reconfigure at runtime — the
// credential endpoints, the roster collection name, the callback
// listener address, and the column schema — separate from the static
// process configuration in bootstrap.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// Setting keys.
const (
	KeyURL          = "key_url"
	AuthKeyURL      = "auth_key_url"
	CollectionName  = "collection_name"
	CallbackAddr    = "callback_addr"
	SignInURL       = "signin_url"
	TableColumns    = "table_columns"
	RecentConfigs   = "recent_configs"
	maxRecentConfig = 10
)

// RecentConfig is one remembered configuration, most recent first.
type RecentConfig struct {
	Name   string         `json:"name" yaml:"name" mapstructure:"name"`
	Values map[string]any `json:"config" yaml:"config" mapstructure:"config"`
}

// Store wraps a viper instance bound to one settings file.
type Store struct {
	v    *viper.Viper
	path string
	log  *zap.Logger
}

// Open loads (or initializes) the settings file in dir; a blank dir
// resolves to matterhub's folder under the user config directory. A
// malformed file is not fatal: the store logs a warning and continues
// on the built-in defaults.
func Open(dir string, log *zap.Logger) (*Store, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve settings directory: %w", err)
		}
		dir = filepath.Join(base, "matterhub")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Malformed file: keep running on defaults rather than
			// blocking startup.
			log.Warn("settings file unreadable, falling back to defaults",
				zap.String("dir", dir), zap.Error(err))
			v = viper.New()
			v.SetConfigName("settings")
			v.SetConfigType("yaml")
			v.AddConfigPath(dir)
			setDefaults(v)
		}
	}

	return &Store{v: v, path: filepath.Join(dir, "settings.yaml"), log: log}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyURL, "https://api.eliomatters.com/sangammun.json")
	v.SetDefault(AuthKeyURL, "https://api.eliomatters.com/eliomatter.json")
	v.SetDefault(CollectionName, "registrations")
	v.SetDefault(CallbackAddr, "127.0.0.1:5000")
	v.SetDefault(SignInURL, "https://eliomatters.com/auth.html")
	cols, _ := json.Marshal(models.DefaultColumns())
	v.SetDefault(TableColumns, string(cols))
	v.SetDefault(RecentConfigs, []RecentConfig(nil))
}

// GetString returns the string value for key.
func (s *Store) GetString(key string) string { return s.v.GetString(key) }

// Endpoints returns the operator-reconfigurable connection values as a
// map, the shape AddRecent remembers them in.
func (s *Store) Endpoints() map[string]any {
	return map[string]any{
		KeyURL:         s.v.GetString(KeyURL),
		AuthKeyURL:     s.v.GetString(AuthKeyURL),
		CollectionName: s.v.GetString(CollectionName),
		CallbackAddr:   s.v.GetString(CallbackAddr),
		SignInURL:      s.v.GetString(SignInURL),
	}
}

// Set stores a value; it is not persisted until Sync.
func (s *Store) Set(key string, value any) { s.v.Set(key, value) }

// Sync writes the settings file to disk.
func (s *Store) Sync() error {
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Columns returns the persisted column schema, or the built-in defaults
// when the stored schema is missing or malformed.
func (s *Store) Columns() models.Columns {
	raw := s.v.GetString(TableColumns)
	if raw == "" {
		return models.DefaultColumns()
	}
	var cols models.Columns
	if err := json.Unmarshal([]byte(raw), &cols); err != nil {
		s.log.Warn("stored column schema is malformed, using defaults", zap.Error(err))
		return models.DefaultColumns()
	}
	if err := cols.Validate(); err != nil {
		s.log.Warn("stored column schema is invalid, using defaults", zap.Error(err))
		return models.DefaultColumns()
	}
	return cols
}

// SetColumns persists a new column schema.
func (s *Store) SetColumns(cols models.Columns) error {
	if err := cols.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(cols)
	if err != nil {
		return err
	}
	s.v.Set(TableColumns, string(raw))
	return nil
}

// Recent returns the remembered configurations, most recent first.
func (s *Store) Recent() []RecentConfig {
	var out []RecentConfig
	if err := s.v.UnmarshalKey(RecentConfigs, &out); err != nil {
		s.log.Warn("recent configs unreadable", zap.Error(err))
		return nil
	}
	return out
}

// AddRecent remembers a named configuration, deduplicating by name and
// keeping at most ten entries.
func (s *Store) AddRecent(name string, values map[string]any) {
	recent := s.Recent()
	kept := make([]RecentConfig, 0, len(recent)+1)
	kept = append(kept, RecentConfig{Name: name, Values: values})
	for _, r := range recent {
		if r.Name == name {
			continue
		}
		kept = append(kept, r)
	}
	if len(kept) > maxRecentConfig {
		kept = kept[:maxRecentConfig]
	}
	s.v.Set(RecentConfigs, kept)
}

// Export writes all current settings to a standalone JSON file.
func (s *Store) Export(path string) error {
	data, err := json.MarshalIndent(s.v.AllSettings(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Import replaces current settings with the contents of a JSON file
// previously written by Export.
func (s *Store) Import(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parse settings file: %w", err)
	}
	for k, v := range values {
		s.v.Set(k, v)
	}
	return nil
}
