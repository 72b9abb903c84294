package logs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/and161185/terraria-exporter/internal/source"
	"github.com/and161185/terraria-exporter/internal/utils"
)

// ServiceAccountDir is where the in-cluster credentials are mounted.
const ServiceAccountDir = "/var/run/secrets/kubernetes.io/serviceaccount"

const maxLogBytes = 32 << 20

// KubeOptions configures a KubeSource.
type KubeOptions struct {
	Host          string // KUBERNETES_SERVICE_HOST
	Port          string // KUBERNETES_SERVICE_PORT, 443 when empty
	Namespace     string
	LabelSelector string
	Container     string

	// TokenPath and CAPath default to the service account mount.
	TokenPath string
	CAPath    string

	// HTTPClient replaces the client built from CAPath.
	HTTPClient *http.Client
	// Scheme is "https" unless set.
	Scheme string
}

// KubeSource reads the log of the newest running server pod through the
// Kubernetes REST API with the pod's service account.
type KubeSource struct {
	opts   KubeOptions
	client *http.Client
}

// NewKubeSource checks the credentials are mounted and builds the client.
// The token is re-read on every request since projected tokens rotate.
func NewKubeSource(opts KubeOptions) (*KubeSource, error) {
	if opts.Host == "" {
		return nil, fmt.Errorf("%w: no kubernetes service host", source.ErrSourceUnavailable)
	}
	if opts.Port == "" {
		opts.Port = "443"
	}
	if opts.Scheme == "" {
		opts.Scheme = "https"
	}
	if opts.TokenPath == "" {
		opts.TokenPath = filepath.Join(ServiceAccountDir, "token")
	}
	if opts.CAPath == "" {
		opts.CAPath = filepath.Join(ServiceAccountDir, "ca.crt")
	}
	if _, err := os.Stat(opts.TokenPath); err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}

	client := opts.HTTPClient
	if client == nil {
		pem, err := os.ReadFile(opts.CAPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", source.ErrSourceUnavailable, opts.CAPath)
		}
		client = &http.Client{Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12},
		}}
	}
	return &KubeSource{opts: opts, client: client}, nil
}

// Tail fetches the last lines of the server container's log.
func (k *KubeSource) Tail(ctx context.Context, lines int) (Chunk, error) {
	pod, err := k.runningPod(ctx)
	if err != nil {
		return Chunk{}, err
	}

	q := url.Values{}
	q.Set("container", k.opts.Container)
	q.Set("tailLines", strconv.Itoa(lines))
	q.Set("timestamps", "false")
	body, err := k.get(ctx, "/api/v1/namespaces/"+url.PathEscape(k.opts.Namespace)+"/pods/"+url.PathEscape(pod)+"/log", q)
	if err != nil {
		return Chunk{Pod: pod}, err
	}
	return Chunk{Pod: pod, Text: body}, nil
}

type podList struct {
	Items []struct {
		Metadata struct {
			Name              string `json:"name"`
			CreationTimestamp string `json:"creationTimestamp"`
		} `json:"metadata"`
		Status struct {
			Phase string `json:"phase"`
		} `json:"status"`
	} `json:"items"`
}

// runningPod picks the most recently created Running pod.
func (k *KubeSource) runningPod(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("labelSelector", k.opts.LabelSelector)

	var body []byte
	err := utils.WithRetry(ctx, utils.DefaultDelays, func() error {
		var err error
		body, err = k.get(ctx, "/api/v1/namespaces/"+url.PathEscape(k.opts.Namespace)+"/pods", q)
		return err
	})
	if err != nil {
		return "", err
	}

	var list podList
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("%w: pod list: %v", source.ErrMalformedPayload, err)
	}

	type candidate struct{ created, name string }
	var running []candidate
	for _, it := range list.Items {
		if it.Status.Phase != "Running" || it.Metadata.Name == "" {
			continue
		}
		running = append(running, candidate{it.Metadata.CreationTimestamp, it.Metadata.Name})
	}
	if len(running) == 0 {
		return "", fmt.Errorf("%w: no running pod for %q", source.ErrSourceUnavailable, k.opts.LabelSelector)
	}
	sort.Slice(running, func(i, j int) bool {
		if running[i].created != running[j].created {
			return running[i].created < running[j].created
		}
		return running[i].name < running[j].name
	})
	return running[len(running)-1].name, nil
}

func (k *KubeSource) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	token, err := os.ReadFile(k.opts.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}

	u := url.URL{
		Scheme:   k.opts.Scheme,
		Host:     net.JoinHostPort(k.opts.Host, k.opts.Port),
		Path:     path,
		RawQuery: q.Encode(),
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(string(token)))

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %s returned %d", source.ErrSourceUnavailable, path, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxLogBytes))
}
