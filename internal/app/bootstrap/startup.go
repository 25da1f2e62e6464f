// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eliomatters/matterhub/internal/app/engine"
	attendancestore "github.com/eliomatters/matterhub/internal/app/store/attendance"
	"github.com/eliomatters/matterhub/internal/app/store/memstore"
	rosterstore "github.com/eliomatters/matterhub/internal/app/store/roster"
	"github.com/eliomatters/matterhub/internal/app/system/authflow"
	"github.com/eliomatters/matterhub/internal/app/system/creds"
	"github.com/eliomatters/matterhub/internal/app/system/settings"
	"github.com/eliomatters/matterhub/internal/domain/models"
)

// App is the assembled application: session, engine, settings, and the
// backend handles that need tearing down on exit.
type App struct {
	Log      *zap.Logger
	Config   AppConfig
	Settings *settings.Store
	Session  authflow.Session
	Engine   *engine.Engine

	deps Deps
}

// Startup assembles the whole application: operator settings, credential
// bootstrap, sign-in, store connection, engine, and the initial load.
//
// Every failure on the way degrades to demo mode with a warning, with
// two exceptions that must reach the operator as errors: the callback
// port being unavailable (authflow.ErrPortUnavailable) and a cancelled
// sign-in (authflow.ErrCancelled).
func Startup(ctx context.Context, cfg AppConfig, prompt authflow.Prompter, logger *zap.Logger) (*App, error) {
	st, err := settings.Open(cfg.SettingsDir, logger)
	if err != nil {
		return nil, err
	}

	app := &App{Log: logger, Config: cfg, Settings: st}

	if cfg.Demo {
		logger.Info("demo mode requested, skipping credentials and sign-in")
		app.Session = authflow.Session{Mode: models.Demo}
		return app, app.buildEngine(ctx)
	}

	service, auth, err := creds.NewBootstrapper(logger).Fetch(ctx, cfg.KeyURL, cfg.AuthKeyURL)
	if err != nil {
		logger.Warn("credential bootstrap failed, continuing in demo mode", zap.Error(err))
		app.Session = authflow.Session{Mode: models.Demo}
		return app, app.buildEngine(ctx)
	}

	session, err := signIn(ctx, cfg, auth, prompt, logger)
	if err != nil {
		return nil, err
	}
	app.Session = session

	if session.Mode == models.Connected {
		deps, err := ConnectStore(ctx, service.StoreURI(), cfg, logger)
		if err != nil {
			logger.Warn("store connection failed, continuing in demo mode", zap.Error(err))
			app.Session.Mode = models.Demo
		} else {
			app.deps = deps
		}
	}

	return app, app.buildEngine(ctx)
}

// signIn runs the browser sign-in. Bind failure and cancellation
// propagate; verification problems have already been resolved to demo
// mode inside the manager.
func signIn(ctx context.Context, cfg AppConfig, auth creds.Blob, prompt authflow.Prompter, logger *zap.Logger) (authflow.Session, error) {
	verifier, err := authflow.NewJWTVerifier(auth, logger)
	if err != nil {
		logger.Warn("auth credentials unusable, continuing in demo mode", zap.Error(err))
		return authflow.Session{Mode: models.Demo}, nil
	}

	mgr := &authflow.Manager{
		Log:       logger,
		Addr:      cfg.CallbackAddr,
		SignInURL: cfg.SignInURL,
		Verifier:  verifier,
		Prompt:    prompt,
	}
	session, err := mgr.SignIn(ctx)
	if err != nil {
		if errors.Is(err, authflow.ErrPortUnavailable) || errors.Is(err, authflow.ErrCancelled) {
			return authflow.Session{}, err
		}
		logger.Warn("sign-in failed, continuing in demo mode", zap.Error(err))
		return authflow.Session{Mode: models.Demo}, nil
	}
	return session, nil
}

// buildEngine wires stores matching the session mode and performs the
// initial load. A connected load that cannot reach the store degrades
// inside the engine.
func (a *App) buildEngine(ctx context.Context) error {
	cfg := engine.Config{
		Log:     a.Log,
		Mode:    a.Session.Mode,
		Columns: a.Settings.Columns(),
	}
	if a.Session.Mode == models.Connected {
		cfg.Roster = rosterstore.New(a.deps.MongoDatabase, a.Config.Collection)
		cfg.Attendance = attendancestore.New(a.deps.MongoDatabase)
	} else {
		cfg.Roster = memstore.NewRoster(memstore.DemoRoster())
		cfg.Attendance = memstore.NewAttendance(memstore.DemoAttendance())
	}
	a.Engine = engine.New(cfg)

	res, err := a.Engine.Load(ctx, true)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		a.Log.Warn(res.Warning)
		a.Session.Mode = res.Mode
	}
	a.Log.Info("initial load complete",
		zap.Stringer("mode", res.Mode),
		zap.Int("documents", res.Documents),
		zap.Int("attendance", res.Attendance))
	return nil
}
