package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecompressMiddleware(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"id":"terraria_players_max"}`))
	require.NoError(t, zw.Close())

	tests := []struct {
		name     string
		body     []byte
		encoding string
		wantCode int
		wantBody string
	}{
		{"plain", []byte("plain"), "", http.StatusOK, "plain"},
		{"gzip", buf.Bytes(), "gzip", http.StatusOK, `{"id":"terraria_players_max"}`},
		{"broken gzip", []byte("not-gzip"), "gzip", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := DecompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				got = string(b)
			}))
			req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(tt.body))
			if tt.encoding != "" {
				req.Header.Set("Content-Encoding", tt.encoding)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			require.Equal(t, tt.wantCode, rr.Code)
			require.Equal(t, tt.wantBody, got)
		})
	}
}

func TestCompressMiddleware_SkipWhenNoAcceptGzip(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("plain"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Empty(t, rr.Header().Get("Content-Encoding"))
	require.Equal(t, "plain", rr.Body.String())
}

func TestCompressMiddleware_GzipResponse(t *testing.T) {
	h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":`))
		_, _ = w.Write([]byte(`true}`))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	gr, err := gzip.NewReader(bytes.NewReader(rr.Body.Bytes()))
	require.NoError(t, err)
	defer gr.Close()
	decompressed, _ := io.ReadAll(gr)
	require.Equal(t, `{"ok":true}`, string(decompressed))
}

func TestCompressMiddleware_LeavesOtherContentAlone(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"binary", map[string]string{"Content-Type": "application/octet-stream"}},
		{"already encoded", map[string]string{"Content-Type": "text/plain", "Content-Encoding": "gzip"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CompressMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				_, _ = w.Write([]byte("raw"))
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Encoding", "gzip, deflate")
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			require.Equal(t, "raw", rr.Body.String())
			require.Equal(t, tt.headers["Content-Encoding"], rr.Header().Get("Content-Encoding"))
			require.False(t, strings.Contains(rr.Header().Get("Vary"), "Accept-Encoding"))
		})
	}
}

func TestGzipResponseWriter_Close_NoWrites(t *testing.T) {
	rw := httptest.NewRecorder()
	grw := &gzipResponseWriter{ResponseWriter: rw}
	require.NoError(t, grw.Close())
	require.Empty(t, rw.Header().Get("Content-Encoding"))
}
