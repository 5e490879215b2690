package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/checkout"
	"github.com/jcmexdev/storefront-cart/internal/checkout/orderlog"
	orderlogsqlite "github.com/jcmexdev/storefront-cart/internal/checkout/orderlog/sqlite"
	"github.com/jcmexdev/storefront-cart/internal/health"
	"github.com/jcmexdev/storefront-cart/internal/order"
	"github.com/jcmexdev/storefront-cart/internal/pkg/config"
	"github.com/jcmexdev/storefront-cart/internal/pkg/kvstore"
	"github.com/jcmexdev/storefront-cart/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront-cart/internal/storefront/httpx"
	"github.com/jcmexdev/storefront-cart/internal/view"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()
	telemetry.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	store, closeStore, err := kvstore.Open(cfg.StoreBackend, cfg.SQLitePath, cfg.RedisAddr, cfg.ServiceName)
	if err != nil {
		return err
	}
	defer closeStore()

	orders, closeOrders, err := openOrderLog(cfg, store)
	if err != nil {
		return err
	}
	defer closeOrders()

	menu, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	filter := catalog.NewFilter(menu.Categories())

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	carts := cart.NewManager(store)
	if err := carts.Restore(ctx); err != nil {
		slog.Error("could not restore cart, starting empty", "error", err)
	}

	orch := checkout.NewOrchestrator(carts, order.NewFormatter(cfg.StoreName, loc), cfg.WhatsAppNumber, checkout.ClientOpener, orders)
	presenter := view.NewPresenter(carts.Snapshot(), orch.ValidityFor, view.ResizeDelay)
	defer presenter.Stop()
	notices := view.NewNotices(view.ConfirmationDuration, view.FeedbackDuration)
	defer notices.Stop()
	view.Bind(carts, orch, presenter, notices)

	handler := httpx.NewHandler(cfg.StoreName, menu, filter, carts, orch, presenter, notices, orders)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpx.NewRouter(handler, cfg.StaticDir),
		ReadHeaderTimeout: 5 * time.Second,
	}
	httpServer.RegisterOnShutdown(handler.CloseStreams)

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	healthServer := health.NewServer(cfg.ServiceName)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("storefront HTTP running",
			"addr", httpServer.Addr,
			"products", len(menu.Products()),
			"cart_items", carts.ItemCount(),
			"store", cfg.StoreBackend,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := healthServer.Serve(lis); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		healthServer.Stop()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openOrderLog picks the order log backend. The sqlite store shares its
// database; redis keeps the log in a local sqlite file; memory keeps it in memory.
func openOrderLog(cfg config.Config, store kvstore.Store) (orderlog.Repository, func() error, error) {
	noop := func() error { return nil }

	switch s := store.(type) {
	case *kvstore.SQLite:
		repo, err := orderlogsqlite.New(s.DB())
		return repo, noop, err
	case *kvstore.Memory:
		return orderlog.NewMemoryRepository(), noop, nil
	}

	db, err := kvstore.OpenDB(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	repo, err := orderlogsqlite.New(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db.Close, nil
}
