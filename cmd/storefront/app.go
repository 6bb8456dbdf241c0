package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/apperr"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
)

type storeOpener func(ctx context.Context, cfg *config.Config, l *zap.Logger) (store.Store, error)

// app is built once per invocation and torn down when the command returns.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer

	store    store.Store
	client   *api.Client
	session  *session.Manager
	ledger   *cart.Ledger
	carts    *cart.Repository
	catalog  *catalog.Cache
	checkout *checkout.Service
	orders   *orders.History
	admin    *admin.Service
}

func newApp(ctx context.Context, cfg *config.Config, out, errOut io.Writer, open storeOpener) (*app, error) {
	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return nil, err
	}

	client, err := api.New(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
		api.WithBreaker(cfg.BreakerFailures, cfg.BreakerCooldown),
	)
	if err != nil {
		return nil, err
	}

	st, err := open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	sess := session.NewManager(client, st, log)
	if err := sess.Rehydrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	carts := cart.NewRepository(st, log)
	ledger, err := carts.Load(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	policy := cart.FeePolicy{Fee: cfg.Fee(), FreeThreshold: cfg.FreeThreshold()}
	return &app{
		cfg:      cfg,
		logger:   log,
		out:      out,
		errOut:   errOut,
		store:    st,
		client:   client,
		session:  sess,
		ledger:   ledger,
		carts:    carts,
		catalog:  catalog.NewCache(client, log),
		checkout: checkout.NewService(client, sess, ledger, carts, policy, log),
		orders:   orders.NewHistory(client, sess, log),
		admin:    admin.NewService(client, sess, log),
	}, nil
}

func (a *app) close() error {
	_ = a.logger.Sync()
	return a.store.Close()
}

func (a *app) saveCart(ctx context.Context) error {
	return a.carts.Save(ctx, a.ledger)
}

// loadCatalog degrades to an empty catalog; the failure is only reported.
func (a *app) loadCatalog(ctx context.Context) {
	if err := a.catalog.Load(ctx); err != nil {
		fmt.Fprintln(a.errOut, "warning: catalog unavailable:", describe(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, l *zap.Logger) (store.Store, error) {
	switch cfg.StateBackend {
	case config.StateMemory:
		return store.NewMemoryStore(), nil
	case config.StateRedis:
		client, err := store.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		l.Debug("using redis state", zap.String("addr", cfg.RedisAddr))
		return store.NewRedisStore(client, cfg.RedisTTL), nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
		l.Debug("using sqlite state", zap.String("path", cfg.StatePath))
		return store.OpenSQLiteStore(cfg.StatePath)
	}
}

// describe renders an error for the terminal.
func describe(err error) string {
	var (
		apiErr *apperr.APIError
		netErr *apperr.NetworkError
	)
	var notSaved *checkout.CartNotSavedError
	switch {
	case errors.As(err, &notSaved):
		return fmt.Sprintf("order %s was placed, but the cart could not be cleared (%v); run `storefront cart clear`",
			notSaved.Order.ID, notSaved.Err)
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.As(err, &netErr):
		return "could not reach the store: " + netErr.Err.Error()
	case errors.Is(err, apperr.ErrInvalidResponse):
		return "the store sent an unexpected response"
	}
	return err.Error()
}
