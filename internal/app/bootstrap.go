package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"trove_go/internal/domain"
	"trove_go/internal/infra"
	"trove_go/internal/infra/pricefeed"
	"trove_go/internal/infra/storage"
	"trove_go/internal/service"
	"trove_go/internal/validation"

	"github.com/shopspring/decimal"
)

const persistInterval = 30 * time.Second

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Storage   *storage.Storage
	Metrics   *infra.Metrics
	Validator *validation.Validator
	Service   *service.TroveService

	feeds []domain.PriceFeed
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// LoadConfig reads path, or uses defaults when path is empty.
func (b *Bootstrap) LoadConfig(path string) error {
	if path == "" {
		b.Config = infra.DefaultConfig()
		return b.Config.Validate()
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg
	return nil
}

// InitCore builds the validator and service from the loaded config.
func (b *Bootstrap) InitCore() {
	b.Metrics = infra.NewMetrics()
	b.Validator = validation.NewValidator(b.Config.Protocol.Params)
	b.Service = service.NewTroveService(b.Validator, b.Config.Protocol.BorrowingRate)
	b.Service.SetMetrics(b.Metrics)
}

// Initialize performs full system initialization for the long-running mode
func (b *Bootstrap) Initialize(ctx context.Context, configPath string) error {
	if err := b.LoadConfig(configPath); err != nil {
		return err
	}

	logger := infra.NewLogger(b.Config)
	slog.SetDefault(logger)
	slog.Info("🚀 Bootstrapping trovecheck...", slog.String("version", b.Config.App.Version))

	b.InitCore()

	store, err := storage.NewStorage(b.Config.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	b.Service.SetValidationLog(store)
	slog.Info("✅ Database initialized", slog.String("path", b.Config.Storage.Path))

	if err := b.Service.LoadFrom(ctx, store); err != nil {
		return fmt.Errorf("hydrate service: %w", err)
	}
	slog.Info("✅ Trove state restored")

	return nil
}

// StartFeeds connects the configured price feeds. Prices flow into the
// service through its price channel.
func (b *Bootstrap) StartFeeds(ctx context.Context) {
	b.Service.StartPriceProcessor(ctx)

	onUpdate := func(price decimal.Decimal) {
		if !b.Service.PublishPrice(price) {
			slog.Warn("Price update dropped", slog.String("price", price.String()))
		}
	}

	pf := b.Config.PriceFeed
	if pf.WSURL != "" {
		stream := pricefeed.NewStream(pf.WSURL, pf.Symbol, onUpdate, b.Metrics)
		if err := stream.Connect(ctx); err != nil {
			slog.Error("Failed to connect price stream", slog.Any("error", err))
		} else {
			b.feeds = append(b.feeds, stream)
			slog.Info("✅ Price stream started", slog.String("symbol", pf.Symbol))
		}
	}
	if pf.PollURL != "" {
		poller := pricefeed.NewPoller(pf.PollURL, pf.PollIntervalSec, onUpdate, b.Metrics)
		if err := poller.Connect(ctx); err != nil {
			slog.Error("Failed to start price poller", slog.Any("error", err))
		} else {
			b.feeds = append(b.feeds, poller)
			slog.Info("✅ Price poller started", slog.Int("interval_sec", pf.PollIntervalSec))
		}
	}
	if len(b.feeds) == 0 {
		slog.Warn("No price feed configured; price only changes through stored snapshot")
	}
}

// StopFeeds disconnects every started feed.
func (b *Bootstrap) StopFeeds() {
	for _, f := range b.feeds {
		f.Disconnect()
	}
	b.feeds = nil
}

// Serve runs the HTTP server and periodic persistence until ctx is done,
// then saves state and shuts the server down.
func (b *Bootstrap) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              b.Config.Server.Addr,
		Handler:           NewHandler(b.Service, b.Metrics, b.Config.Server.RateLimit, b.Config.Server.Burst),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("✅ HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ticker := time.NewTicker(persistInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("http server: %w", err)
		case <-ticker.C:
			b.persist(ctx)
		case <-ctx.Done():
			// ctx is already cancelled; persist and shut down on a fresh one
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			b.persist(shutdownCtx)
			return srv.Shutdown(shutdownCtx)
		}
	}
}

func (b *Bootstrap) persist(ctx context.Context) {
	if b.Storage == nil {
		return
	}
	if err := b.Service.Persist(ctx, b.Storage); err != nil {
		slog.Error("Failed to persist state", slog.Any("error", err))
		b.Metrics.RecordError("storage")
	}
}

// Close releases storage.
func (b *Bootstrap) Close() {
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Warn("Failed to close storage", slog.Any("error", err))
		}
	}
}
