package app

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"trove_go/internal/domain"
	"trove_go/internal/infra"
	"trove_go/internal/service"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// validateRequest is the body of POST /validate.
type validateRequest struct {
	Owner    string       `json:"owner"`
	Proposed domain.Trove `json:"proposed"`
}

// NewHandler routes /validate, /snapshot, /healthz and /metrics.
// ratePerSec <= 0 leaves /validate unthrottled.
func NewHandler(svc *service.TroveService, metrics *infra.Metrics, ratePerSec float64, burst int) http.Handler {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Snapshot())
	})

	mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		if !limiter.Allow() {
			metrics.RecordError("rate_limit")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}

		var req validateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if req.Owner == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "owner is required"})
			return
		}

		res, err := svc.ValidateEdit(r.Context(), req.Owner, domain.NewTrove(req.Proposed.Collateral, req.Proposed.Debt))
		if err != nil {
			slog.Warn("Validation request failed",
				slog.String("request_id", requestID),
				slog.String("owner", req.Owner),
				slog.Any("error", err),
			)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res.Report())
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", slog.Any("error", err))
	}
}
