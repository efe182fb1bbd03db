package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
	"ramadantracker.app/config"
	"ramadantracker.app/errors"
)

// Result reports the outcome of a single push send attempt.
type Result struct {
	StatusCode int
}

// OK reports whether the push service accepted the message.
func (r Result) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Gone reports whether the push service declared the delivery target
// permanently invalid. Such subscriptions will never accept messages again.
func (r Result) Gone() bool {
	return r.StatusCode == http.StatusNotFound || r.StatusCode == http.StatusGone
}

// Sender delivers payload-less reminder notifications to push endpoints,
// attaching a freshly minted VAPID authorization per send. Outbound requests
// share a rate limiter so a large scan cannot flood the push service.
type Sender struct {
	client  *http.Client
	keys    *VAPIDKeys
	subject string
	ttl     int
	limiter *rate.Limiter
}

// NewSender creates a push sender from the push configuration.
func NewSender(cfg *config.PushConfig) (*Sender, error) {
	keys, err := LoadVAPIDKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
	if err != nil {
		return nil, err
	}

	return &Sender{
		client:  &http.Client{Timeout: time.Duration(cfg.SendTimeout) * time.Second},
		keys:    keys,
		subject: cfg.Subject,
		ttl:     cfg.TTL,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}, nil
}

// Keys exposes the loaded VAPID key pair (the public half is served to clients).
func (s *Sender) Keys() *VAPIDKeys {
	return s.keys
}

// Send POSTs an empty-body notification to endpoint. A non-nil error means
// the attempt never reached the push service (bad endpoint, crypto failure,
// network error); otherwise the Result carries the service's verdict.
func (s *Sender) Send(ctx context.Context, endpoint string) (Result, error) {
	audience, err := endpointAudience(endpoint)
	if err != nil {
		return Result{}, err
	}

	token, err := s.keys.Token(audience, time.Now().Add(TokenLifetime), s.subject)
	if err != nil {
		return Result{}, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return Result{}, errors.NewPushError("rate limiter wait aborted", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return Result{}, errors.NewPushError("build push request", err)
	}
	req.Header.Set("TTL", fmt.Sprintf("%d", s.ttl))
	req.Header.Set("Urgency", "normal")
	req.Header.Set("Authorization", fmt.Sprintf("vapid t=%s, k=%s", token, s.keys.PublicKey()))

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, errors.NewPushError("push request failed", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused; the body itself is irrelevant.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return Result{StatusCode: resp.StatusCode}, nil
}

// endpointAudience extracts the push service origin the token is scoped to.
func endpointAudience(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.NewPushError("parse push endpoint", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.NewPushError("push endpoint is not an absolute URL", nil)
	}
	return u.Scheme + "://" + u.Host, nil
}
