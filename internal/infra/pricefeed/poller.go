package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"trove_go/internal/domain"
	"trove_go/internal/infra"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
)

const pollerName = "poller"

// priceResponse is the body served by the polled endpoint
type priceResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Poller fetches the price from an HTTP endpoint on an interval
type Poller struct {
	onUpdate     func(decimal.Decimal)
	metrics      *infra.Metrics
	price        decimal.Decimal
	connected    bool
	mu           sync.RWMutex
	pollInterval time.Duration
	apiURL       string
	httpClient   *http.Client
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

var _ domain.PriceFeed = (*Poller)(nil)

// NewPoller creates a poller. pollIntervalSec <= 0 means one minute.
func NewPoller(apiURL string, pollIntervalSec int, onUpdate func(decimal.Decimal), metrics *infra.Metrics) *Poller {
	p := &Poller{
		onUpdate:     onUpdate,
		metrics:      metrics,
		price:        decimal.Zero,
		pollInterval: 60 * time.Second,
		apiURL:       apiURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	if pollIntervalSec > 0 {
		p.pollInterval = time.Duration(pollIntervalSec) * time.Second
	}
	return p
}

// Connect begins polling for price updates
func (p *Poller) Connect(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	// Fetch immediately on start
	if err := p.fetchPrice(ctx); err != nil {
		slog.Warn("Initial price fetch failed", slog.Any("error", err))
		// Continue anyway - will retry on next tick
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Price polling panic recovered", slog.Any("panic", r))
			}
		}()

		ticker := time.NewTicker(p.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Price polling stopped")
				return
			case <-ticker.C:
				if err := p.fetchPrice(ctx); err != nil {
					slog.Warn("Price fetch failed", slog.Any("error", err))
				}
			}
		}
	}()

	return nil
}

// fetchPrice fetches the current price with retry logic
func (p *Poller) fetchPrice(ctx context.Context) error {
	var lastErr error
	for i := 0; i < 3; i++ {
		if i > 0 {
			delay := Backoff(i - 1)
			slog.Info("Retrying price fetch", slog.Int("attempt", i), slog.Duration("delay", delay))
			if p.metrics != nil {
				p.metrics.RecordReconnect(pollerName)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := p.doFetch(ctx)
		p.setConnected(err == nil)
		if err == nil {
			return nil
		}
		lastErr = err
		if !domain.IsRetriable(err) {
			break
		}
		slog.Warn("Price fetch attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
	}
	return lastErr
}

func (p *Poller) doFetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return domain.NewFatalNetworkError("request", err)
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError("get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewNetworkError("get", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError("read", err)
	}

	var data priceResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return domain.NewFatalNetworkError("decode", err)
	}

	newPrice, err := quant.Parse(data.Price)
	if err != nil || !newPrice.IsPositive() {
		return domain.NewFatalNetworkError("decode", fmt.Errorf("%w: %q", domain.ErrInvalidPrice, data.Price))
	}

	p.mu.Lock()
	oldPrice := p.price
	p.price = newPrice
	p.mu.Unlock()

	// Notify if price changed
	if !oldPrice.Equal(newPrice) && p.onUpdate != nil {
		slog.Info("Price updated",
			slog.String("price", newPrice.String()),
			slog.String("old_price", oldPrice.String()),
		)
		p.onUpdate(newPrice)
	}

	return nil
}

func (p *Poller) setConnected(ok bool) {
	p.mu.Lock()
	p.connected = ok
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.SetFeedConnected(pollerName, ok)
	}
}

// Disconnect stops the polling
func (p *Poller) Disconnect() {
	if p.cancel != nil {
		p.cancel()
		p.wg.Wait()
	}
}

// IsConnected reports whether the last fetch succeeded.
func (p *Poller) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}

// Price returns the last fetched price
func (p *Poller) Price() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.price
}
