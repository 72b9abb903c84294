package server_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/terraria-exporter/internal/config"
	srv "github.com/and161185/terraria-exporter/internal/server"
	"github.com/and161185/terraria-exporter/internal/server/mocks"
	"github.com/and161185/terraria-exporter/model"
	"github.com/and161185/terraria-exporter/storage/inmemory"
)

func mockRouter(t *testing.T, storage srv.Storage) http.Handler {
	t.Helper()
	s := srv.NewServer(storage, prometheus.NewRegistry(), &config.ExporterConfig{Logger: zap.NewNop().Sugar()})
	router, err := s.Router()
	require.NoError(t, err)
	return router
}

func TestHandlers_StorageFailures(t *testing.T) {
	errBroken := errors.New("storage broken")

	tests := []struct {
		name       string
		setup      func(m *mocks.MockStorage)
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{
			name:       "value lookup fails",
			setup:      func(m *mocks.MockStorage) { m.EXPECT().Get(gomock.Any(), "terraria_players_max").Return(model.Sample{}, errBroken) },
			method:     http.MethodGet,
			target:     "/value/terraria_players_max",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "value not found",
			setup: func(m *mocks.MockStorage) {
				m.EXPECT().Get(gomock.Any(), "nope").Return(model.Sample{}, inmemory.ErrMetricNotFound)
			},
			method:     http.MethodGet,
			target:     "/value/nope",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "JSON lookup fails",
			setup:      func(m *mocks.MockStorage) { m.EXPECT().Get(gomock.Any(), "x").Return(model.Sample{}, errBroken) },
			method:     http.MethodPost,
			target:     "/value",
			body:       `{"id":"x"}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "list fails",
			setup:      func(m *mocks.MockStorage) { m.EXPECT().GetAll(gomock.Any()).Return(nil, errBroken) },
			method:     http.MethodGet,
			target:     "/",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "health fails",
			setup:      func(m *mocks.MockStorage) { m.EXPECT().Ping(gomock.Any()).Return(errBroken) },
			method:     http.MethodGet,
			target:     "/healthz",
			wantStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			storage := mocks.NewMockStorage(ctrl)
			tt.setup(storage)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			mockRouter(t, storage).ServeHTTP(rec, req)
			require.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
