// Package app wires the store, services, notification dispatcher and HTTP
// server together and owns the process lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	apihttp "github.com/DSAshv/urbanAssist/internal/http"
	"github.com/DSAshv/urbanAssist/internal/notify"
	"github.com/DSAshv/urbanAssist/internal/service"
	"github.com/DSAshv/urbanAssist/internal/store"
	"github.com/DSAshv/urbanAssist/internal/store/drivers/sqlite"
	"github.com/DSAshv/urbanAssist/pkg/jwtx"
	"github.com/DSAshv/urbanAssist/pkg/slogx"
)

const version = "1.0.0"

type Application struct {
	cfg        Config
	log        *slog.Logger
	store      store.Store
	dispatcher *notify.Dispatcher
	server     *http.Server
}

// New builds the full application. The caller runs it with Run.
func New(cfg Config) (*Application, error) {
	log := slogx.New(slogx.Config{
		Service: "urbanassist",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	st, err := sqlite.NewStore(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.ApplyMigrations(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	dispatcher := notify.NewDispatcher(log,
		&notify.Mailer{
			APIKey:     cfg.MailAPIKey,
			SenderName: cfg.MailSenderName,
			SenderMail: cfg.MailSenderAddr,
			Env:        cfg.Env,
		},
		&notify.Pusher{
			ServerKey: cfg.PushServerKey,
			Env:       cfg.Env,
		},
	)

	access := jwtx.NewSigner([]byte(cfg.JWTSecret), cfg.TokenIssuer, jwtx.UseAccess, cfg.AccessTokenTTL)
	refresh := jwtx.NewSigner([]byte(cfg.RefreshTokenSecret), cfg.TokenIssuer, jwtx.UseRefresh, cfg.RefreshTokenTTL)

	uploads, err := apihttp.NewUploadStore(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	api := &apihttp.API{
		Auth:       &service.AuthService{Store: st, Access: access, Refresh: refresh, Notifier: dispatcher},
		MFA:        &service.MFAService{Store: st, Issuer: "UrbanAssist"},
		Complaints: &service.ComplaintService{Store: st, Notifier: dispatcher},
		Users:      &service.UserService{Store: st, Notifier: dispatcher},
		Store:      st,
		Access:     access,
		Env:        cfg.Env,
		Uploads:    uploads,
	}

	router := apihttp.NewRouter(api, log, apihttp.RouterConfig{
		ClientURL: cfg.ClientURL,
		UploadDir: cfg.UploadDir,
	})

	return &Application{
		cfg:        cfg,
		log:        log,
		store:      st,
		dispatcher: dispatcher,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully: stop accepting
// requests, drain in-flight ones within the grace period, drain the
// notification queue, close the store.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.dispatcher.Start()

	errc := make(chan error, 1)
	go func() {
		a.log.Info("server listening", "addr", a.server.Addr, "env", a.cfg.Env)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		a.shutdown(context.Background())
		return err
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownGracePeriod)
	defer cancel()
	return a.shutdown(shutdownCtx)
}

func (a *Application) shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)

	a.dispatcher.Close()
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}

	a.log.Info("shutdown complete")
	return err
}
