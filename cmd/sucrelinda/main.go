package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	adapthttp "sucrelinda/internal/adapter/http"
	"sucrelinda/internal/adapter/postgres"
	"sucrelinda/internal/app"
	"sucrelinda/internal/config"
	"sucrelinda/internal/token"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	}))

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() { _ = db.Close() }()

	tokens, err := token.New(cfg.TokenSecret, cfg.AccessTokenTTL)
	if err != nil {
		return err
	}

	refreshRepo := postgres.NewRefreshTokenRepo(db)
	authSvc := app.NewAuthService(db, refreshRepo, tokens, cfg.RefreshTokenTTL)
	accountSvc := app.NewAccountService(db, refreshRepo)

	ctx := context.Background()
	if cfg.AdminEmail != "" {
		if err := authSvc.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	oidcCfg, err := buildOIDC(ctx, cfg.OIDC)
	if err != nil {
		return fmt.Errorf("oidc setup: %w", err)
	}

	h := adapthttp.New(authSvc, accountSvc, oidcCfg, logger).Handler()
	logger.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, h); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func buildOIDC(ctx context.Context, cfg config.OIDC) (*adapthttp.OIDCConfig, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	return &adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}
