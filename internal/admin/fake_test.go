package admin

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/and161185/terraria-exporter/internal/kubectl"
)

// fakeKube answers CLI calls from tables keyed by the space-joined args.
type fakeKube struct {
	mu        sync.Mutex
	calls     []string
	json      map[string]string
	run       map[string]kubectl.Result
	execs     []kubectl.Command
	exec      kubectl.Result
	apply     kubectl.Result
	manifests []string
}

func (f *fakeKube) record(args []string) string {
	key := strings.Join(args, " ")
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	return key
}

func (f *fakeKube) Run(_ context.Context, _ time.Duration, args ...string) kubectl.Result {
	if r, ok := f.run[f.record(args)]; ok {
		return r
	}
	return kubectl.Result{ExitCode: 1, Output: "Error from server (NotFound)"}
}

func (f *fakeKube) JSON(_ context.Context, _ time.Duration, into any, args ...string) error {
	body, ok := f.json[f.record(args)]
	if !ok {
		return kubectl.ErrFailed
	}
	return json.Unmarshal([]byte(body), into)
}

func (f *fakeKube) Apply(_ context.Context, _ time.Duration, manifest string) kubectl.Result {
	f.mu.Lock()
	f.manifests = append(f.manifests, manifest)
	f.mu.Unlock()
	return f.apply
}

func (f *fakeKube) Exec(_ context.Context, c kubectl.Command) kubectl.Result {
	f.mu.Lock()
	f.execs = append(f.execs, c)
	f.mu.Unlock()
	return f.exec
}

type fakeQuerier map[string]float64

func (q fakeQuerier) Scalar(_ context.Context, query string) *float64 {
	v, ok := q[query]
	if !ok {
		return nil
	}
	return &v
}
