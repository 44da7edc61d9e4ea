package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/mnrates/server/config"
	"github.com/sig-0/mnrates/storage/mock"
	"github.com/sig-0/mnrates/storage/types"
)

func TestServer_New(t *testing.T) {
	t.Parallel()

	t.Run("invalid config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Timezone = "Mars/Olympus"

		_, err := New(&mock.Storage{}, WithConfig(cfg))
		assert.Error(t, err)
	})

	t.Run("scrape routes require an ingestor", func(t *testing.T) {
		t.Parallel()

		s, err := New(&mock.Storage{}, WithGatherer(prometheus.NewRegistry()))
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/scrape/khan", http.NoBody)
		w := httptest.NewRecorder()
		s.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("routes", func(t *testing.T) {
		t.Parallel()

		ingestor := &mockIngestor{
			runOneFn: func(_ context.Context, _, _ string) (types.Quotes, error) {
				return usdQuotes(), nil
			},
		}

		storage := &mock.Storage{
			SnapshotsFn: func(
				_ context.Context,
				_ *types.SnapshotQuery,
			) (*types.Page[*types.BankSnapshot], error) {
				return &types.Page[*types.BankSnapshot]{
					Results: []*types.BankSnapshot{{Bank: "KhanBank", Date: "2026-01-15"}},
					Total:   1,
				}, nil
			},
		}

		s, err := New(
			storage,
			WithIngestor(ingestor),
			WithGatherer(prometheus.NewRegistry()),
		)
		require.NoError(t, err)

		testTable := []struct {
			method string
			path   string
			status int
		}{
			{http.MethodGet, "/health", http.StatusOK},
			{http.MethodGet, "/metrics", http.StatusOK},
			{http.MethodGet, "/openapi.yaml", http.StatusOK},
			{http.MethodGet, "/docs", http.StatusOK},
			{http.MethodGet, "/v1/rates", http.StatusOK},
			{http.MethodGet, "/v1/banks/KhanBank/rates/2026-01-15", http.StatusOK},
			{http.MethodGet, "/v1/banks/KhanBank/rates/bad", http.StatusBadRequest},
			{http.MethodGet, "/v1/scrape/khan?date=2026-01-15", http.StatusOK},
			{http.MethodPost, "/v1/scrape?date=2026-01-15", http.StatusOK},
		}

		for _, testCase := range testTable {
			req := httptest.NewRequest(testCase.method, testCase.path, http.NoBody)
			w := httptest.NewRecorder()
			s.ServeHTTP(w, req)

			assert.Equal(t, testCase.status, w.Code, testCase.path)
		}
	})
}
