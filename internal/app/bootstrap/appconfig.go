// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds process-level configuration resolved before anything
// connects: where the credential blobs live, which collection to manage,
// and how the sign-in callback is reachable.
//
// Operator-facing settings that change between runs (saved column
// layouts, recent configurations) live in the settings store instead;
// AppConfig is what the process needs to boot.
type AppConfig struct {
	// Credential endpoints. KeyURL serves the service blob and must be
	// reachable; AuthKeyURL serves the auth blob and may be empty.
	KeyURL     string
	AuthKeyURL string

	// MongoDB database and managed collection. The connection URI comes
	// from the fetched service blob, never from config.
	Database   string
	Collection string

	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sign-in flow.
	CallbackAddr string // loopback listen address for the token callback
	SignInURL    string // page the browser opens; blank skips the browser

	// Demo forces demo mode without attempting credentials or sign-in.
	Demo bool

	// SettingsDir is where the operator settings file lives; blank means
	// the user config directory.
	SettingsDir string

	LogLevel string
}
