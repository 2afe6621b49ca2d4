package patentsearch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option customizes a Client.
type Option func(*settings)

type settings struct {
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	retries    int
	retryWait  time.Duration
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// WithAPIKey authenticates every call with a Bearer key.
func WithAPIKey(key string) Option {
	return func(s *settings) { s.apiKey = key }
}

// WithHTTPClient supplies the HTTP client, for example one carrying an
// OAuth2 token source. WithTimeout is ignored when set.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) { s.httpClient = hc }
}

// WithTimeout bounds each attempt. Defaults to 30s.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithUserAgent replaces the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.userAgent = ua }
}

// WithRetry retries rate limited and unavailable-backend answers up to n
// more times. The server's Retry-After wins over the exponential wait that
// starts at base.
func WithRetry(n int, base time.Duration) Option {
	return func(s *settings) {
		s.retries = max(n, 0)
		s.retryWait = base
	}
}

// WithLogger logs failed calls at Warn and successful ones at Debug.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithPrometheus records call counts, retries and latency on reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = reg }
}
