// Package geocoder adapts the external geocoding provider
//
// Forward lookups resolve a free-text address query; postal lookups
// corroborate a postal code and complete city/state. Country bounding boxes
// narrow the provider's search area. Calls run behind a circuit breaker,
// retry loop and local timeout like every provider adapter
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cleanse/internal/platform/circuit"
	"cleanse/internal/platform/config"
	perr "cleanse/internal/platform/errors"
	"cleanse/internal/platform/logger"
	"cleanse/internal/platform/retry"
)

// Place is one geocoded match mapped to our component vocabulary
type Place struct {
	HouseNumber string
	Street      string
	City        string
	State       string
	PostalCode  string
	CountryCode string
	Latitude    float64
	Longitude   float64
	Match       float64 // provider match confidence in [0,1]
}

// Port is what the address service depends on
type Port interface {
	Forward(ctx context.Context, query, countryCode string) (*Place, error)
	PostalLookup(ctx context.Context, postal, countryCode string) (*Place, error)
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

// FromConfig reads GEOCODER_* settings
func FromConfig(cfg config.Conf) Config {
	gc := cfg.Prefix("GEOCODER_")
	return Config{
		Enabled: gc.MayBool("ENABLED", false),
		BaseURL: gc.MayString("URL", ""),
		APIKey:  gc.MayString("API_KEY", ""),
		Timeout: gc.MayDuration("TIMEOUT", 5*time.Second),
		Retry: retry.Config{
			MaxAttempts: gc.MayInt("RETRY_ATTEMPTS", 3),
		},
	}
}

// boundingBoxes narrows provider search per country: minLon,minLat,maxLon,maxLat
var boundingBoxes = map[string][4]float64{
	"US": {-125.0, 24.5, -66.9, 49.5},
	"CA": {-141.0, 41.7, -52.6, 83.1},
	"GB": {-8.6, 49.9, 1.8, 60.9},
	"AU": {112.9, -43.7, 153.6, -10.6},
	"NZ": {166.4, -47.3, 178.6, -34.4},
	"DE": {5.9, 47.3, 15.0, 55.1},
	"FR": {-5.1, 41.3, 9.6, 51.1},
	"IE": {-10.5, 51.4, -6.0, 55.4},
	"NL": {3.3, 50.8, 7.2, 53.6},
	"MX": {-118.4, 14.5, -86.7, 32.7},
}

// Client talks to the geocoding provider over HTTP
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
		breaker: circuit.New("geocoder"),
	}
}

// Available reports whether a live call would currently be attempted
func (c *Client) Available() bool {
	return c.cfg.Enabled && c.cfg.BaseURL != "" && !c.breaker.IsOpen()
}

// BreakerState exposes breaker state for health reporting
func (c *Client) BreakerState() circuit.State { return c.breaker.State() }

// Forward geocodes a free-text query, optionally bounded to a country
func (c *Client) Forward(ctx context.Context, query, countryCode string) (*Place, error) {
	params := url.Values{}
	params.Set("q", query)
	return c.search(ctx, params, countryCode)
}

// PostalLookup resolves a postal code to city/state within a country
func (c *Client) PostalLookup(ctx context.Context, postal, countryCode string) (*Place, error) {
	params := url.Values{}
	params.Set("postalcode", postal)
	return c.search(ctx, params, countryCode)
}

func (c *Client) search(ctx context.Context, params url.Values, countryCode string) (*Place, error) {
	if !c.cfg.Enabled || c.cfg.BaseURL == "" {
		return nil, perr.Providerf("geocoder disabled")
	}

	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if cc != "" {
		params.Set("countrycodes", strings.ToLower(cc))
		if bb, ok := boundingBoxes[cc]; ok {
			params.Set("viewbox", fmt.Sprintf("%g,%g,%g,%g", bb[0], bb[1], bb[2], bb[3]))
			params.Set("bounded", "1")
		}
	}
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	if c.cfg.APIKey != "" {
		params.Set("key", c.cfg.APIKey)
	}

	var out *Place
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, c.cfg.Retry, func(ctx context.Context) error {
			p, err := c.call(ctx, params)
			if err != nil {
				return err
			}
			out = p
			return nil
		})
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("geocode lookup failed")
		return nil, perr.WrapIf(err, perr.ErrorCodeProvider, "geocode")
	}
	if out == nil {
		return nil, perr.NotFoundf("geocode: no match")
	}
	return out, nil
}

// wirePlace is the provider's JSON shape for one match
type wirePlace struct {
	Lat        string  `json:"lat"`
	Lon        string  `json:"lon"`
	Importance float64 `json:"importance"`
	Address    struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

func (c *Client) call(ctx context.Context, params url.Values) (*Place, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "geocoder base url")
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "geocoder request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "geocoder call")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "geocoder rate limited")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, perr.Unauthorizedf("geocoder credentials rejected")
	case resp.StatusCode >= 500:
		return nil, perr.Unavailablef("geocoder %d", resp.StatusCode)
	default:
		return nil, perr.InvalidArgf("geocoder rejected request: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "geocoder body")
	}
	var ws []wirePlace
	if err := json.Unmarshal(body, &ws); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "geocoder response")
	}
	if len(ws) == 0 {
		return nil, nil
	}

	w := ws[0]
	city := w.Address.City
	if city == "" {
		city = w.Address.Town
	}
	if city == "" {
		city = w.Address.Village
	}
	lat, _ := strconv.ParseFloat(w.Lat, 64)
	lon, _ := strconv.ParseFloat(w.Lon, 64)

	match := w.Importance
	if match < 0 {
		match = 0
	}
	if match > 1 {
		match = 1
	}

	return &Place{
		HouseNumber: w.Address.HouseNumber,
		Street:      w.Address.Road,
		City:        city,
		State:       w.Address.State,
		PostalCode:  w.Address.Postcode,
		CountryCode: strings.ToUpper(w.Address.CountryCode),
		Latitude:    lat,
		Longitude:   lon,
		Match:       match,
	}, nil
}
