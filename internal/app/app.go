package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ximepaparella/giftvoucher/internal/domain/order"
	"github.com/ximepaparella/giftvoucher/internal/domain/redemption"
	"github.com/ximepaparella/giftvoucher/internal/domain/voucher"
	"github.com/ximepaparella/giftvoucher/internal/handler"
	"github.com/ximepaparella/giftvoucher/internal/storage/memory"
	"github.com/ximepaparella/giftvoucher/internal/storage/postgres"
	"github.com/ximepaparella/giftvoucher/pkg/health"
	"github.com/ximepaparella/giftvoucher/pkg/httpmiddleware"
)

// stores bundles the three domain store implementations behind one type so
// Run can wire either backend uniformly.
type stores struct {
	orders      order.Store
	vouchers    voucher.Store
	redemptions redemption.Store
}

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	st, cleanup, err := buildStores(ctx, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer cleanup()

	// Code guard: warm the bloom filter with every issued code so the
	// redemption path can reject unknown codes without a storage hit.
	var guard *voucher.CodeGuard
	if cfg.Voucher.GuardCapacity > 0 {
		guard = voucher.NewCodeGuard(cfg.Voucher.GuardCapacity, cfg.Voucher.GuardFPR)
		if err := guard.Warm(ctx, st.vouchers); err != nil {
			return errors.Wrap(err, "warm code guard")
		}
	}

	// Domain services.
	issuer := voucher.NewStoreIssuer(st.vouchers, guard, cfg.Voucher.TTL)
	orderService := order.NewService(st.orders, issuer)
	engine := redemption.NewEngine(st.vouchers, st.redemptions, guard)
	reports := redemption.NewReports(st.redemptions)

	// HTTP routes: health endpoints + API router on one server.
	h := handler.NewHandler(orderService, st.vouchers, engine, reports)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Router())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("giftvoucher-api", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
		),
	}

	healthSvc.SetReady(true)

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildStores creates the configured storage backend and registers its
// readiness check. The returned cleanup releases backend resources.
func buildStores(ctx context.Context, cfg *Config, healthSvc *health.Health) (stores, func(), error) {
	if cfg.Storage == "memory" {
		db := memory.NewDB()
		return stores{
			orders:      db.Orders(),
			vouchers:    db.Vouchers(),
			redemptions: db.Redemptions(),
		}, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return stores{}, nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return stores{}, nil, errors.Wrap(err, "run migrations")
	}

	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	return stores{
		orders:      postgres.NewOrderStore(pool),
		vouchers:    postgres.NewVoucherStore(pool),
		redemptions: postgres.NewRedemptionStore(pool),
	}, pool.Close, nil
}
