// Root command for the matterhub CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Global flag values. Each flag is bound into viper so the precedence is
// flags > MATTERHUB_* environment > config file > defaults.
var (
	flagKeyURL       string
	flagAuthKeyURL   string
	flagDatabase     string
	flagCollection   string
	flagCallbackAddr string
	flagSignInURL    string
	flagDemo         bool
	flagSettingsDir  string
	flagLogLevel     string
)

// vp carries the flag bindings into bootstrap.LoadConfig.
var vp = viper.New()

var rootCmd = &cobra.Command{
	Use:   "matterhub",
	Short: "matterhub manages a conference roster against a shared document store",
	Long: `matterhub signs an operator in through a browser callback, mirrors a
roster collection into a local cache, and reconciles edits, attendance
marks, and deletions back to the store. Without credentials or
connectivity it runs the same pipelines on generated demo data.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagKeyURL, "key-url", "", "URL serving the service credential blob")
	pf.StringVar(&flagAuthKeyURL, "auth-key-url", "", "URL serving the auth credential blob (optional)")
	pf.StringVar(&flagDatabase, "database", "", "document store database name")
	pf.StringVar(&flagCollection, "collection", "", "managed roster collection")
	pf.StringVar(&flagCallbackAddr, "callback-addr", "", "loopback address for the sign-in callback")
	pf.StringVar(&flagSignInURL, "signin-url", "", "sign-in page opened in the browser")
	pf.BoolVar(&flagDemo, "demo", false, "run on generated demo data, no credentials needed")
	pf.StringVar(&flagSettingsDir, "settings-dir", "", "directory for the operator settings file")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")

	bind := map[string]string{
		"key_url":       "key-url",
		"auth_key_url":  "auth-key-url",
		"database":      "database",
		"collection":    "collection",
		"callback_addr": "callback-addr",
		"signin_url":    "signin-url",
		"demo":          "demo",
		"settings_dir":  "settings-dir",
		"log_level":     "log-level",
	}
	for key, flag := range bind {
		if err := vp.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger. Debug level switches to the
// development encoder for readable interactive output.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	var cfg zap.Config
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
