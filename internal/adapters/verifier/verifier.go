// Package verifier adapts the external email-verification provider
//
// All calls run behind a circuit breaker, a bounded retry loop and a local
// timeout. Provider failures surface as provider-coded errors; the email
// service decides how to degrade
package verifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cleanse/internal/platform/circuit"
	"cleanse/internal/platform/config"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
	"cleanse/internal/platform/retry"
)

// Status is the provider's verdict vocabulary
type Status string

// Provider statuses
const (
	StatusValid     Status = "valid"
	StatusInvalid   Status = "invalid"
	StatusCatchAll  Status = "catch-all"
	StatusSpamtrap  Status = "spamtrap"
	StatusAbuse     Status = "abuse"
	StatusDoNotMail Status = "do_not_mail"
	StatusUnknown   Status = "unknown"
)

// Result is one provider answer mapped to our field names
type Result struct {
	Address    string
	Status     Status
	SubStatus  string
	DidYouMean string
	Domain     string
	FreeEmail  bool
}

// Port is what the email service depends on
type Port interface {
	Verify(ctx context.Context, email string) (*Result, error)
	Available() bool
	BreakerState() circuit.State
}

// Config for the provider client
type Config struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retry   retry.Config
}

// FromConfig reads VERIFIER_* settings
func FromConfig(cfg config.Conf) Config {
	vf := cfg.Prefix("VERIFIER_")
	return Config{
		Enabled: vf.MayBool("ENABLED", false),
		BaseURL: vf.MayString("URL", ""),
		APIKey:  vf.MayString("API_KEY", ""),
		Timeout: vf.MayDuration("TIMEOUT", 5*time.Second),
		Retry: retry.Config{
			MaxAttempts: vf.MayInt("RETRY_ATTEMPTS", 3),
		},
	}
}

// Client talks to the verification provider over HTTP
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuit.Breaker
}

// New builds a Client; httpc may be nil for the default client
func New(cfg Config, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{}
	}
	return &Client{
		cfg:     cfg,
		http:    httpc,
		breaker: circuit.New("email-verifier"),
	}
}

// Available reports whether a live call would currently be attempted
func (c *Client) Available() bool {
	return c.cfg.Enabled && c.cfg.BaseURL != "" && !c.breaker.IsOpen()
}

// BreakerState exposes breaker state for health reporting
func (c *Client) BreakerState() circuit.State { return c.breaker.State() }

// wire is the provider's JSON response shape
type wire struct {
	Address    string `json:"address"`
	Status     string `json:"status"`
	SubStatus  string `json:"sub_status"`
	DidYouMean string `json:"did_you_mean"`
	Domain     string `json:"domain"`
	FreeEmail  bool   `json:"free_email"`
}

// Verify asks the provider about email
// Returns a provider-coded error when disabled, tripped or failing
func (c *Client) Verify(ctx context.Context, email string) (*Result, error) {
	if !c.cfg.Enabled || c.cfg.BaseURL == "" {
		return nil, perr.Providerf("email verifier disabled")
	}

	var out *Result
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
			r, err := c.call(ctx, email)
			if err != nil {
				return err
			}
			out = r
			return nil
		})
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Str("email_domain", domainOf(email)).Msg("email verification failed")
		return nil, perr.WrapIf(err, perr.ErrorCodeProvider, "email verification")
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, email string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "verifier base url")
	}
	q := u.Query()
	q.Set("api_key", c.cfg.APIKey)
	q.Set("email", email)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "verifier request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "verifier call")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "verifier rate limited")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, perr.Unauthorizedf("verifier credentials rejected")
	case resp.StatusCode == http.StatusPaymentRequired:
		// credit exhaustion fails fast; retrying burns nothing but time
		return nil, perr.Forbiddenf("verifier credits exhausted")
	case resp.StatusCode >= 500:
		return nil, perr.Unavailablef("verifier %d", resp.StatusCode)
	default:
		return nil, perr.InvalidArgf("verifier rejected request: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "verifier body")
	}
	var w wire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "verifier response")
	}

	return &Result{
		Address:    w.Address,
		Status:     parseStatus(w.Status),
		SubStatus:  w.SubStatus,
		DidYouMean: strings.TrimSpace(w.DidYouMean),
		Domain:     w.Domain,
		FreeEmail:  w.FreeEmail,
	}, nil
}

func parseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusValid:
		return StatusValid
	case StatusInvalid:
		return StatusInvalid
	case StatusCatchAll:
		return StatusCatchAll
	case StatusSpamtrap:
		return StatusSpamtrap
	case StatusAbuse:
		return StatusAbuse
	case StatusDoNotMail:
		return StatusDoNotMail
	default:
		return StatusUnknown
	}
}

func domainOf(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
