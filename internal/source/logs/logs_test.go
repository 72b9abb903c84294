package logs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/terraria-exporter/internal/kubectl"
	"github.com/and161185/terraria-exporter/internal/source"
	"github.com/and161185/terraria-exporter/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Signals
	}{
		{"203.0.113.7:51234 is connecting...", Signals{Connection: true}},
		{"Backing up world file", Signals{WorldSave: true}},
		{"The Blood Moon is rising...", Signals{BloodMoon: model.True}},
		{"The blood moon has ended.", Signals{BloodMoon: model.False}},
		{"A solar eclipse is happening!", Signals{Eclipse: model.True}},
		{"The solar eclipse has ended.", Signals{Eclipse: model.False}},
		{"Night has fallen", Signals{Daytime: model.False}},
		{"Day has dawned", Signals{Daytime: model.True}},
		{"Alice has joined.", Signals{Joined: "Alice"}},
		{"Bob joined the game", Signals{Joined: "Bob"}},
		{"[12:00:01] Carol has left.", Signals{Left: "Carol"}},
		{"[Server] Dave left the game", Signals{Left: "Dave"}},
		{"nothing to see here", Signals{}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			require.Equal(t, tt.want, Classify(tt.line))
		})
	}
}

func TestCapturePlayer_Truncates(t *testing.T) {
	long := strings.Repeat("a", 40)
	got := capturePlayer(joinPatterns, long+" has joined")
	require.Equal(t, strings.Repeat("a", 32), got)
}

func TestStripANSI(t *testing.T) {
	require.Equal(t, "Day has dawned", StripANSI("\x1b[32m Day has dawned\x1b[0m \r"))
}

func TestAnalyze_Presence(t *testing.T) {
	res := Analyze([]byte("Alice has joined\nBob joined the game\nAlice has left\n"))
	require.True(t, res.OK)
	require.Equal(t, []string{"Bob"}, res.Players)
	require.Equal(t, 1.0, res.PlayersOnline)
}

func TestAnalyze_Signals(t *testing.T) {
	text := strings.Join([]string{
		"\x1b[33mThe Blood Moon is rising...\x1b[0m",
		"Night has fallen",
		"10.0.0.2:7777 is connecting...",
		"Backing up world file",
		"10.0.0.3:7777 is connecting...",
		"The Blood Moon is over.",
		"Day has dawned",
		"Backing up world file",
	}, "\r\n")

	res := Analyze([]byte(text))
	require.True(t, res.OK)
	require.Equal(t, model.False, res.BloodMoon, "last line wins")
	require.Equal(t, model.True, res.Daytime)
	require.Equal(t, model.Unknown, res.Eclipse)
	require.Equal(t, 2.0, res.ConnectionAttempts)
	require.Equal(t, 2.0, res.WorldSaves)
	require.Empty(t, res.Players)
}

func TestAnalyze_NoText(t *testing.T) {
	require.False(t, Analyze([]byte{0xff, 0xfe, '\n', 0xc3}).OK)
	require.False(t, Analyze([]byte("\xff\xfe\x80\n\xc3\x28\n")).OK, "trailing newline")
	require.False(t, Analyze([]byte("\xff\n\n  \r\n\xc3\x28\r\n")).OK, "blank lines are not text")
	require.True(t, Analyze(nil).OK)
	require.True(t, Analyze([]byte("Alice has joined\n\xff\n")).OK, "one bad line does not spoil the window")
}

func TestPresence(t *testing.T) {
	p := NewPresence()
	p.Join("alice")
	p.Join("Alice")
	p.Join("Zed")
	p.Leave("nobody")
	require.Equal(t, 2, p.Count())
	require.Equal(t, []string{"Alice", "Zed"}, p.Names())

	p.Leave("ZED")
	p.Leave("ZED")
	require.Equal(t, []string{"Alice"}, p.Names())
}

type sourceFunc func(ctx context.Context, lines int) (Chunk, error)

func (f sourceFunc) Tail(ctx context.Context, lines int) (Chunk, error) { return f(ctx, lines) }

func TestAdapter_Collect(t *testing.T) {
	var gotLines int
	src := sourceFunc(func(_ context.Context, lines int) (Chunk, error) {
		gotLines = lines
		return Chunk{Pod: "terraria-0", Text: []byte("Day has dawned\n")}, nil
	})
	res := NewAdapter(src, 500, time.Second).Collect(context.Background())
	require.True(t, res.OK)
	require.Equal(t, "terraria-0", res.Pod)
	require.Equal(t, model.True, res.Daytime)
	require.Equal(t, 500, gotLines)

	var nilAdapter *Adapter
	require.False(t, nilAdapter.Collect(context.Background()).OK)
	require.False(t, NewAdapter(nil, 1, 0).Collect(context.Background()).OK)
}

func TestAdapter_CollectFailureAndTimeout(t *testing.T) {
	boom := errors.New("boom")
	res := NewAdapter(sourceFunc(func(context.Context, int) (Chunk, error) {
		return Chunk{Pod: "p"}, boom
	}), 10, time.Second).Collect(context.Background())
	require.False(t, res.OK)
	require.ErrorIs(t, res.Err, boom)
	require.Equal(t, "p", res.Pod)

	hung := sourceFunc(func(ctx context.Context, _ int) (Chunk, error) {
		<-ctx.Done()
		return Chunk{}, ctx.Err()
	})
	start := time.Now()
	res = NewAdapter(hung, 10, 50*time.Millisecond).Collect(context.Background())
	require.False(t, res.OK)
	require.ErrorIs(t, res.Err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	var b strings.Builder
	for i := range 10 {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	chunk, err := FileSource{Path: path}.Tail(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "line 7\nline 8\nline 9\n", string(chunk.Text))

	chunk, err = FileSource{Path: path}.Tail(context.Background(), 50)
	require.NoError(t, err)
	require.Equal(t, b.String(), string(chunk.Text))

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.log")}.Tail(context.Background(), 3)
	require.ErrorIs(t, err, source.ErrSourceUnavailable)
}

func TestKubeSource(t *testing.T) {
	var logQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sa-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/v1/namespaces/terraria/pods":
			require.Equal(t, "app=terraria-server", r.URL.Query().Get("labelSelector"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"items":[
				{"metadata":{"name":"old","creationTimestamp":"2026-01-01T00:00:00Z"},"status":{"phase":"Running"}},
				{"metadata":{"name":"new","creationTimestamp":"2026-02-01T00:00:00Z"},"status":{"phase":"Running"}},
				{"metadata":{"name":"pending","creationTimestamp":"2026-03-01T00:00:00Z"},"status":{"phase":"Pending"}}
			]}`))
		case "/api/v1/namespaces/terraria/pods/new/log":
			logQuery = r.URL.RawQuery
			_, _ = w.Write([]byte("Alice has joined\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	tokenPath := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenPath, []byte("sa-token\n"), 0o600))

	host, port, _ := strings.Cut(strings.TrimPrefix(ts.URL, "http://"), ":")
	src, err := NewKubeSource(KubeOptions{
		Host:          host,
		Port:          port,
		Scheme:        "http",
		Namespace:     "terraria",
		LabelSelector: "app=terraria-server",
		Container:     "terraria",
		TokenPath:     tokenPath,
		HTTPClient:    ts.Client(),
	})
	require.NoError(t, err)

	chunk, err := src.Tail(context.Background(), 2000)
	require.NoError(t, err)
	require.Equal(t, "new", chunk.Pod)
	require.Equal(t, "Alice has joined\n", string(chunk.Text))
	require.Equal(t, "container=terraria&tailLines=2000&timestamps=false", logQuery)
}

func TestNewKubeSource_Unconfigured(t *testing.T) {
	_, err := NewKubeSource(KubeOptions{})
	require.ErrorIs(t, err, source.ErrSourceUnavailable)

	_, err = NewKubeSource(KubeOptions{Host: "10.0.0.1", TokenPath: filepath.Join(t.TempDir(), "none")})
	require.ErrorIs(t, err, source.ErrSourceUnavailable)
}

func TestKubectlSource_Failure(t *testing.T) {
	src := KubectlSource{
		Runner:     kubectl.NewRunner("definitely-not-a-real-binary-3f9a", ""),
		Namespace:  "terraria",
		Deployment: "terraria-server",
	}
	chunk, err := src.Tail(context.Background(), 10)
	require.ErrorIs(t, err, source.ErrSourceUnavailable)
	require.Equal(t, "deployment/terraria-server", chunk.Pod)
}
