// Package api probes the loosely specified gameplay HTTP API of the game
// server. Every resource is tried over an ordered list of candidate paths and
// a resource that no path serves is simply absent.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/terraria-exporter/internal/client/transport"
	"github.com/and161185/terraria-exporter/internal/jsontree"
	"github.com/and161185/terraria-exporter/internal/source"
)

// Resource is one logical API resource.
type Resource string

const (
	Status     Resource = "status"
	Players    Resource = "players"
	World      Resource = "world"
	Monsters   Resource = "monsters"
	Chests     Resource = "chests"
	Houses     Resource = "houses"
	HousedNPCs Resource = "housed_npcs"
)

// Resources lists every resource in merge order.
var Resources = []Resource{Status, Players, World, Monsters, Chests, Houses, HousedNPCs}

// DefaultPaths are the candidate endpoints per resource, most specific API
// generation last.
var DefaultPaths = map[Resource][]string{
	Status:     {"/status", "/v2/server/status", "/v3/server/status", "/v2/status"},
	Players:    {"/players", "/v2/players/list", "/v3/players/list", "/v2/players"},
	World:      {"/world", "/v2/world/status", "/v3/world/status", "/v2/world"},
	Monsters:   {"/monsters", "/v2/monsters/list", "/v3/monsters/list", "/v2/npcs/list"},
	Chests:     {"/v2/world/chests", "/v3/world/chests", "/chests"},
	Houses:     {"/v2/world/houses", "/v3/world/houses", "/houses"},
	HousedNPCs: {"/v2/world/housednpcs", "/v3/world/housednpcs", "/v2/npcs/housed", "/housednpcs"},
}

const (
	defaultTimeout = 6 * time.Second
	maxBodyBytes   = 16 << 20
)

var errStatus = errors.New("unexpected status")

// Payloads holds the decoded body of every resource that answered.
type Payloads map[Resource]jsontree.Node

// Options configures a Client.
type Options struct {
	BaseURL   string
	Token     string
	TokenMode transport.TokenMode
	Timeout   time.Duration // per probe, 6s by default
	Paths     map[Resource][]string

	// BreakerFailures is the number of consecutive cycles with every resource
	// absent after which probing pauses for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	OnBreakerChange func(from, to gobreaker.State)

	HTTPClient *http.Client
}

// Client fetches the API resources.
type Client struct {
	baseURL    string
	timeout    time.Duration
	paths      map[Resource][]string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[Payloads]
}

// NewClient builds a client. An empty BaseURL yields a client whose every
// fetch is absent.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	paths := opts.Paths
	if paths == nil {
		paths = DefaultPaths
	}
	hc := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		hc = &c
	}
	hc.Transport = &transport.TokenRoundTripper{Base: hc.Transport, Token: opts.Token, Mode: opts.TokenMode}

	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	cb := gobreaker.NewCircuitBreaker[Payloads](gobreaker.Settings{
		Name:        "gameplay-api",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if opts.OnBreakerChange != nil {
				opts.OnBreakerChange(from, to)
			}
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		timeout:    timeout,
		paths:      paths,
		httpClient: hc,
		breaker:    cb,
	}
}

// BreakerState reports the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// Fetch probes every resource concurrently and returns once all probes have
// finished or timed out. Resources that failed are missing from the result.
func (c *Client) Fetch(ctx context.Context) Payloads {
	if c.baseURL == "" {
		return Payloads{}
	}

	out, err := c.breaker.Execute(func() (Payloads, error) {
		p := c.fetchAll(ctx)
		if len(p) == 0 {
			return p, source.ErrSourceUnavailable
		}
		return p, nil
	})
	if err != nil {
		return Payloads{}
	}
	return out
}

func (c *Client) fetchAll(ctx context.Context) Payloads {
	var (
		mu  sync.Mutex
		g   errgroup.Group
		out = make(Payloads, len(Resources))
	)
	for _, r := range Resources {
		paths := c.paths[r]
		g.Go(func() error {
			n, err := c.Probe(ctx, paths)
			if err != nil {
				return nil
			}
			mu.Lock()
			out[r] = n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Probe tries each path in order and returns the first 200 response whose
// body decodes as JSON.
func (c *Client) Probe(ctx context.Context, paths []string) (jsontree.Node, error) {
	if c.baseURL == "" {
		return jsontree.Node{}, source.ErrSourceUnavailable
	}

	lastErr := errors.New("no candidate paths")
	for _, p := range paths {
		n, err := c.get(ctx, p)
		if err == nil {
			return n, nil
		}
		lastErr = err
	}
	return jsontree.Node{}, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, lastErr)
}

func (c *Client) get(ctx context.Context, path string) (jsontree.Node, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return jsontree.Node{}, fmt.Errorf("new request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return jsontree.Node{}, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return jsontree.Node{}, fmt.Errorf("get %s: %w: %d", path, errStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return jsontree.Node{}, fmt.Errorf("read %s: %w", path, err)
	}
	n, err := jsontree.Parse(body)
	if err != nil {
		return jsontree.Node{}, fmt.Errorf("decode %s: %w: %v", path, source.ErrMalformedPayload, err)
	}
	return n, nil
}
