package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func promServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPromQuerier_Fallback(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(down.Close)
	up := promServer(t, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1700000000,"3"]}]}}`)

	q, err := NewPromQuerier([]string{down.URL, up.URL + "/"}, zap.NewNop().Sugar())
	require.NoError(t, err)

	v := q.Scalar(context.Background(), "max(terraria_players_online)")
	require.NotNil(t, v)
	require.Equal(t, 3.0, *v)
}

func TestPromQuerier_Results(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *float64
	}{
		{"empty vector", `{"status":"success","data":{"resultType":"vector","result":[]}}`, f64(0)},
		{"scalar", `{"status":"success","data":{"resultType":"scalar","result":[1700000000,"1.5"]}}`, f64(1.5)},
		{"query error", `{"status":"error","errorType":"bad_data","error":"parse error"}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := promServer(t, tt.body)
			q, err := NewPromQuerier([]string{srv.URL}, zap.NewNop().Sugar())
			require.NoError(t, err)
			require.Equal(t, tt.want, q.Scalar(context.Background(), "x"))
		})
	}
}

func TestPromQuerier_NoBackends(t *testing.T) {
	q, err := NewPromQuerier(nil, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.Nil(t, q.Scalar(context.Background(), "x"))
}

func f64(v float64) *float64 { return &v }
