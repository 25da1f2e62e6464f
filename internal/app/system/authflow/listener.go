// Package authflow implements the browser-based sign-in lifecycle: the
// short-lived loopback callback listener, token verification, and the
// session manager that turns "user wants to sign in" into either a
// connected identity or demo mode.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ErrPortUnavailable is returned by Listener.Start when the loopback
// port is already bound. It is distinct from failures after a successful
// bind, which only surface in the log: the caller must be able to tell
// "pick another port / close the other process" apart from "the server
// died mid-flight".
var ErrPortUnavailable = errors.New("callback port unavailable")

// CallbackPath is the fixed path the sign-in page redirects to.
const CallbackPath = "/callback"

const successPage = `<!DOCTYPE html>
<html><body>
<h1>Login successful</h1>
<p>You may close this window and return to MatterHub.</p>
</body></html>`

// Listener is the one-shot loopback callback server. It accepts exactly
// one GET /callback carrying a non-empty token, captures it, and shuts
// itself down. Start never blocks; Stop is idempotent and safe whether
// or not a callback ever arrived.
type Listener struct {
	log  *zap.Logger
	addr string

	mu    sync.Mutex
	token string
	ln    net.Listener
	srv   *http.Server

	stopOnce sync.Once
}

// NewListener returns a Listener that will bind addr (host:port on the
// loopback interface).
func NewListener(addr string, log *zap.Logger) *Listener {
	return &Listener{addr: addr, log: log}
}

// Start binds the port and begins serving on its own goroutine. A failed
// bind returns ErrPortUnavailable (wrapped); any later serve failure is
// logged, not returned, because the caller has already moved on.
func (l *Listener) Start() error {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPortUnavailable, err)
	}

	r := chi.NewRouter()
	r.Get(CallbackPath, l.handleCallback)
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	srv := &http.Server{Handler: r}

	l.mu.Lock()
	l.ln = ln
	l.srv = srv
	l.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.log.Error("callback server failed after bind", zap.Error(err))
		}
	}()

	l.log.Info("callback listener started", zap.String("addr", ln.Addr().String()))
	return nil
}

func (l *Listener) handleCallback(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	l.mu.Lock()
	first := l.token == ""
	if first {
		l.token = token
	}
	l.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)

	if first {
		l.log.Info("callback token received")
		// Shut down off the handler goroutine so the response flushes.
		go l.Stop()
	}
}

// Token returns the captured token, or "" if none has arrived. The token
// slot is written at most once per listener lifetime; polling it from
// another goroutine is the intended handoff.
func (l *Listener) Token() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.token
}

// Addr returns the bound address, useful when the configured port is 0.
func (l *Listener) Addr() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}

// Stop shuts the server down and releases the port. Safe to call zero or
// more times, from any goroutine, whether or not Start succeeded.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		srv := l.srv
		l.mu.Unlock()
		if srv == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			l.log.Warn("callback listener shutdown", zap.Error(err))
		}
	})
}
