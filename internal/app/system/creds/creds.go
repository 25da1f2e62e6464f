// Package creds fetches the service and auth credential blobs that gate
// connected mode.
//
// Both blobs are JSON documents served from HTTPS endpoints. The service
// blob carries the remote store connection material; the auth blob
// carries the key used to verify session tokens. When the auth endpoint
// is unreachable the service blob is silently reused for verification —
// intentional degraded behavior inherited from the deployment this tool
// serves, kept as-is but logged so it stays visible.
package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FetchTimeout bounds each credential request. There is no retry: a slow
// or dead endpoint resolves to demo mode at the caller.
const FetchTimeout = 20 * time.Second

// requiredKeys are the keys a credential blob must carry to be usable.
var requiredKeys = []string{"project_id", "private_key", "client_email"}

// Blob is one parsed credential document. It stays an opaque mapping;
// accessors pull out the few keys this program reads.
type Blob map[string]any

// String returns the blob's string value for key, or "".
func (b Blob) String(key string) string {
	s, _ := b[key].(string)
	return s
}

// StoreURI returns the remote store connection string carried by the
// service blob.
func (b Blob) StoreURI() string { return b.String("mongo_uri") }

// PrivateKeyPEM returns the PEM-encoded key used for token verification.
func (b Blob) PrivateKeyPEM() string { return b.String("private_key") }

func (b Blob) validate() error {
	for _, k := range requiredKeys {
		if b.String(k) == "" {
			return fmt.Errorf("credential blob missing required key %q", k)
		}
	}
	return nil
}

// Bootstrapper downloads and parses credential blobs.
type Bootstrapper struct {
	client *http.Client
	log    *zap.Logger
}

// NewBootstrapper returns a Bootstrapper using a TLS-verifying client
// with the fixed per-request timeout.
func NewBootstrapper(log *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		client: &http.Client{Timeout: FetchTimeout},
		log:    log,
	}
}

// Fetch retrieves the service and auth blobs sequentially.
//
// A failure fetching the service blob is a hard error; there is no
// fallback for the primary material. A failure fetching the auth blob —
// any failure, including parse errors — substitutes the service blob.
// An empty authURL reuses the service blob without a second request.
func (b *Bootstrapper) Fetch(ctx context.Context, serviceURL, authURL string) (service, auth Blob, err error) {
	service, err = b.fetchOne(ctx, serviceURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch service credentials: %w", err)
	}

	if authURL == "" {
		return service, service, nil
	}
	auth, err = b.fetchOne(ctx, authURL)
	if err != nil {
		b.log.Warn("auth credential fetch failed, reusing service credentials",
			zap.String("url", authURL), zap.Error(err))
		return service, service, nil
	}
	return service, auth, nil
}

func (b *Bootstrapper) fetchOne(ctx context.Context, url string) (Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credential endpoint returned %s", resp.Status)
	}

	var blob Blob
	if err := json.NewDecoder(resp.Body).Decode(&blob); err != nil {
		return nil, fmt.Errorf("parse credential blob: %w", err)
	}
	if err := blob.validate(); err != nil {
		return nil, err
	}
	return blob, nil
}
