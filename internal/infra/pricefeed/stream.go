// Package pricefeed keeps the collateral price current, either from a
// websocket stream or by polling an HTTP endpoint.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"trove_go/internal/domain"
	"trove_go/internal/infra"
	"trove_go/pkg/quant"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	maxRetries  = 10
	readTimeout = 60 * time.Second
	streamName  = "stream"
)

// priceMessage is a price frame pushed by the stream.
type priceMessage struct {
	Type   string `json:"type"` // price
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type subscribeMessage struct {
	Op     string `json:"op"`
	Symbol string `json:"symbol"`
}

// Stream handles the websocket price connection
type Stream struct {
	url       string
	symbol    string
	onUpdate  func(decimal.Decimal)
	metrics   *infra.Metrics
	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

var _ domain.PriceFeed = (*Stream)(nil)

// NewStream creates a stream for symbol. metrics may be nil.
func NewStream(url, symbol string, onUpdate func(decimal.Decimal), metrics *infra.Metrics) *Stream {
	return &Stream{
		url:      url,
		symbol:   symbol,
		onUpdate: onUpdate,
		metrics:  metrics,
	}
}

// Connect starts the WebSocket connection
func (s *Stream) Connect(ctx context.Context) error {
	if s.url == "" {
		return &domain.ConfigError{Field: "price_feed.ws_url", Err: fmt.Errorf("empty")}
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.connectionLoop(ctx)
	return nil
}

func (s *Stream) connectionLoop(ctx context.Context) {
	defer s.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			if !domain.IsRetriable(err) {
				slog.Error("Price stream stopped", slog.Any("error", err))
				return
			}
			slog.Warn("Price stream connection failed", slog.Any("error", err), slog.Int("retry", retryCount))
			if s.metrics != nil {
				s.metrics.RecordReconnect(streamName)
			}
			delay := Backoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			s.readLoop(ctx)
		}
	}
}

func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("User-Agent", infra.DefaultUserAgent)

	conn, resp, err := dialer.DialContext(ctx, s.url, header)
	if err != nil {
		// A handshake rejected with 4xx will not succeed on retry
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return domain.NewFatalNetworkError("dial", fmt.Errorf("handshake status %d: %w", resp.StatusCode, err))
		}
		return domain.NewNetworkError("dial", err)
	}

	// Disconnect may have run while the dial was in flight
	s.mu.Lock()
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		conn.Close()
		return err
	}
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	if err := s.subscribe(); err != nil {
		s.closeConnection()
		return domain.NewNetworkError("subscribe", err)
	}

	if s.metrics != nil {
		s.metrics.SetFeedConnected(streamName, true)
	}
	slog.Info("Price stream connected", slog.String("symbol", s.symbol))
	return nil
}

func (s *Stream) subscribe() error {
	b, err := json.Marshal(subscribeMessage{Op: "subscribe", Symbol: s.symbol})
	if err != nil {
		return err
	}
	return s.threadSafeWrite(websocket.TextMessage, b)
}

func (s *Stream) threadSafeWrite(msgType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return fmt.Errorf("no conn")
	}
	return s.conn.WriteMessage(msgType, data)
}

func (s *Stream) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeConnection()
			return
		default:
		}

		s.mu.RLock()
		conn := s.conn
		s.mu.RUnlock()
		if conn == nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		_, msg, err := conn.ReadMessage()
		if err != nil {
			s.closeConnection()
			return
		}
		s.handleMessage(msg)
	}
}

func (s *Stream) handleMessage(msg []byte) {
	var m priceMessage
	if json.Unmarshal(msg, &m) != nil || m.Type != "price" {
		return
	}
	if m.Symbol != "" && m.Symbol != s.symbol {
		return
	}

	price, err := quant.Parse(m.Price)
	if err != nil || !price.IsPositive() {
		slog.Warn("Ignoring bad price frame", slog.String("price", m.Price))
		return
	}

	if s.onUpdate != nil {
		s.onUpdate(price)
	}
}

func (s *Stream) closeConnection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	if s.metrics != nil {
		s.metrics.SetFeedConnected(streamName, false)
	}
}

// IsConnected reports whether the socket is currently up.
func (s *Stream) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Stream) Disconnect() {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeConnection()
	s.wg.Wait()
}
