package authflow

import (
	"context"
	"errors"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/domain/models"
)

// ErrCancelled is returned by SignIn when the caller's context is
// cancelled before a token arrives.
var ErrCancelled = errors.New("sign-in cancelled")

// DefaultPollInterval is how often the session manager checks the
// listener's token slot.
const DefaultPollInterval = 500 * time.Millisecond

// Session is the resolved outcome of a sign-in: a verified subject in
// connected mode, or an empty subject in demo mode. Demo is a usable
// state, not an error path.
type Session struct {
	Subject string
	Mode    models.Mode
}

// Prompter asks the user whether to retry after token expiry. A nil
// Prompter retries without asking.
type Prompter func(reason string) bool

// Manager orchestrates one or more sign-in attempts against the loopback
// listener.
type Manager struct {
	Log       *zap.Logger
	Addr      string // listener bind address, e.g. 127.0.0.1:5000
	SignInURL string // browser sign-in page

	Verifier Verifier

	// OpenBrowser launches the sign-in page; nil uses the default
	// browser. Failure to open is not fatal — the user can navigate
	// manually.
	OpenBrowser func(url string) error

	Prompt       Prompter
	PollInterval time.Duration
}

// SignIn runs the sign-in protocol and always resolves to a usable
// state on the happy paths: (subject, connected) or (none, demo).
//
// Two failures are surfaced instead of absorbed: a listener bind failure
// returns ErrPortUnavailable (the caller decides what to do — it is not
// an automatic demo fallback), and context cancellation returns
// ErrCancelled. Token expiry is retried exactly once, restarting the
// whole attempt; every other verification failure resolves to demo.
func (m *Manager) SignIn(ctx context.Context) (Session, error) {
	retries := 1
	for {
		token, err := m.captureToken(ctx)
		if err != nil {
			return Session{}, err
		}

		subject, verr := m.Verifier.Verify(ctx, token)
		switch {
		case verr == nil && subject != "":
			m.Log.Info("sign-in verified", zap.String("subject", subject))
			return Session{Subject: subject, Mode: models.Connected}, nil

		case verr == nil:
			m.Log.Warn("token verified but carries no subject, continuing in demo mode")
			return Session{Mode: models.Demo}, nil

		case errors.Is(verr, ErrTokenExpired):
			if retries > 0 && m.confirmRetry() {
				m.Log.Info("session token expired, retrying sign-in")
				retries--
				continue
			}
			m.Log.Warn("session token expired, continuing in demo mode", zap.Error(verr))
			return Session{Mode: models.Demo}, nil

		default:
			m.Log.Warn("token verification failed, continuing in demo mode", zap.Error(verr))
			return Session{Mode: models.Demo}, nil
		}
	}
}

func (m *Manager) confirmRetry() bool {
	if m.Prompt == nil {
		return true
	}
	return m.Prompt("Your login token has expired. Sign in again?")
}

// captureToken runs one listener lifetime: bind, open the browser, poll
// the token slot until a token arrives or ctx is cancelled. The port is
// released on every exit path.
func (m *Manager) captureToken(ctx context.Context) (string, error) {
	l := NewListener(m.Addr, m.Log)
	if err := l.Start(); err != nil {
		return "", err
	}
	defer l.Stop()

	open := m.OpenBrowser
	if open == nil {
		open = browser.OpenURL
	}
	go func() {
		if err := open(m.SignInURL); err != nil {
			m.Log.Warn("could not open sign-in page, navigate manually",
				zap.String("url", m.SignInURL), zap.Error(err))
		}
	}()

	interval := m.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ErrCancelled
		case <-ticker.C:
			if tok := l.Token(); tok != "" {
				return tok, nil
			}
		}
	}
}
