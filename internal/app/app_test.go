package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"trove_go/internal/domain"
	"trove_go/internal/infra"
	"trove_go/internal/service"
	"trove_go/internal/validation"
	"trove_go/pkg/quant"

	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
original:
  collateral: "3"
  debt: "2000"
proposed:
  collateral: "3"
  debt: "2500"
borrowing_rate: "0"
state:
  price: "1000"
  total:
    collateral: "100"
    debt: "20000"
  account_balance: "10"
  lusd_balance: "5000"
  number_of_troves: 10
`

func TestScenario_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.True(t, s.State.Price.Equal(quant.MustParse("1000")))
	require.Equal(t, 10, s.State.NumberOfTroves)

	rep, err := s.Run(validation.NewValidator(domain.DefaultParams()))
	require.NoError(t, err)
	require.Equal(t, "accepted", rep.Outcome)
	require.Equal(t, "adjustment", rep.ChangeKind)
	require.Equal(t, "borrow", rep.Action)
	require.NotNil(t, rep.Amounts.BorrowLUSD)
	require.True(t, rep.Amounts.BorrowLUSD.Equal(quant.MustParse("500")))
}

func TestScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func newTestHandler(t *testing.T, ratePerSec float64, burst int) http.Handler {
	t.Helper()
	svc := service.NewTroveService(validation.NewValidator(domain.DefaultParams()), quant.MustParse("0.005"))
	require.NoError(t, svc.UpdatePrice(quant.MustParse("1000")))
	require.NoError(t, svc.UpdateTotal(domain.NewTrove(quant.MustParse("100"), quant.MustParse("20000")), 10))
	require.NoError(t, svc.UpdateBalances("alice", quant.MustParse("10"), quant.MustParse("5000")))
	require.NoError(t, svc.PutTrove(domain.UserTrove{
		Owner:  "alice",
		Trove:  domain.NewTrove(quant.MustParse("3"), quant.MustParse("2000")),
		Status: domain.TroveStatusOpen,
	}))
	metrics := infra.NewMetrics()
	svc.SetMetrics(metrics)
	return NewHandler(svc, metrics, ratePerSec, burst)
}

func TestHandler_Validate(t *testing.T) {
	h := newTestHandler(t, 0, 0)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantOut    string
		wantReject string
	}{
		{"withdraw below mcr", `{"owner":"alice","proposed":{"collateral":"2","debt":"2000"}}`, http.StatusOK, "rejected", "below_minimum_ratio"},
		{"deposit", `{"owner":"alice","proposed":{"collateral":"4","debt":"2000"}}`, http.StatusOK, "accepted", ""},
		{"missing owner", `{"proposed":{"collateral":"4","debt":"2000"}}`, http.StatusBadRequest, "", ""},
		{"bad json", `{`, http.StatusBadRequest, "", ""},
		{"negative", `{"owner":"alice","proposed":{"collateral":"-1","debt":"2000"}}`, http.StatusUnprocessableEntity, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			if tt.wantOut == "" {
				return
			}
			var rep validation.Report
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
			require.Equal(t, tt.wantOut, rep.Outcome)
			require.Equal(t, tt.wantReject, rep.Rejection)
		})
	}
}

func TestHandler_RateLimit(t *testing.T) {
	h := newTestHandler(t, 0.001, 1)
	body := `{"owner":"alice","proposed":{"collateral":"4","debt":"2000"}}`

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(body)))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandler_MetricsAndHealth(t *testing.T) {
	h := newTestHandler(t, 0, 0)

	for _, path := range []string{"/healthz", "/metrics", "/snapshot"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestBootstrap_DefaultConfig(t *testing.T) {
	b := NewBootstrap()
	require.NoError(t, b.LoadConfig(""))
	b.InitCore()

	require.NotNil(t, b.Service)
	require.True(t, b.Validator.Params().MinimumNetDebt.Equal(quant.MustParse("1800")))
	require.True(t, b.Service.Snapshot().BorrowingRate.Equal(quant.MustParse("0.005")))
}
