package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultPollTimeout  = 30 * time.Second
	defaultPollInterval = 2 * time.Second
)

// Poller is a bounded long-poll client for the notifications endpoint. It
// repeatedly asks for items newer than a cursor, pausing between empty
// responses, until items arrive or the total wall-clock budget runs out.
// Total time is bounded by the deadline, not a retry counter.
type Poller struct {
	client   *http.Client
	baseURL  string
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

// PollerOption configures Poller behavior.
type PollerOption func(*Poller)

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(c *http.Client) PollerOption {
	return func(p *Poller) {
		if c != nil {
			p.client = c
		}
	}
}

// WithTimeout bounds the total poll duration. Zero means a single fetch.
func WithTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithInterval sets the wait between empty responses.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) PollerOption {
	return func(p *Poller) {
		if fn != nil {
			p.now = fn
		}
	}
}

// NewPoller creates a poller against the API base URL.
func NewPoller(baseURL string, opts ...PollerOption) *Poller {
	p := &Poller{
		client:   http.DefaultClient,
		baseURL:  strings.TrimRight(baseURL, "/"),
		interval: defaultPollInterval,
		timeout:  defaultPollTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Poll fetches notifications newer than lastSeenID. It returns as soon as
// items arrive, or an empty slice once the deadline passes or the context
// ends. Request failures are swallowed into an empty result; polling is a
// convenience, never an error surface for the caller.
func (p *Poller) Poll(ctx context.Context, lastSeenID string) []Notification {
	deadline := p.now().Add(p.timeout)

	for {
		items, err := p.fetch(ctx, lastSeenID)
		if err != nil {
			return nil
		}
		if len(items) > 0 {
			return items
		}
		if !p.now().Before(deadline) {
			return nil
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

type listResponse struct {
	Items []Notification `json:"items"`
}

func (p *Poller) fetch(ctx context.Context, lastSeenID string) ([]Notification, error) {
	u := p.baseURL + "/v1/notifications"
	if lastSeenID != "" {
		u += "?" + url.Values{"id_gt": {lastSeenID}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errStatus(resp.StatusCode)
	}
	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Items, nil
}

type errStatus int

func (e errStatus) Error() string { return "unexpected status " + http.StatusText(int(e)) }
