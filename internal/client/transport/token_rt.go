package transport

import "net/http"

// TokenMode selects how the API token travels.
type TokenMode string

const (
	TokenQuery  TokenMode = "query"  // ?token=<token>
	TokenBearer TokenMode = "bearer" // Authorization: Bearer <token>
)

// TokenRoundTripper attaches the gameplay API token to every request.
type TokenRoundTripper struct {
	Base  http.RoundTripper
	Token string
	Mode  TokenMode
}

func (t *TokenRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := t.Base
	if rt == nil {
		rt = http.DefaultTransport
	}
	if t.Token == "" {
		return rt.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	switch t.Mode {
	case TokenBearer:
		r.Header.Set("Authorization", "Bearer "+t.Token)
	default:
		q := r.URL.Query()
		q.Set("token", t.Token)
		r.URL.RawQuery = q.Encode()
	}
	return rt.RoundTrip(r)
}
