// Package weather fetches current conditions for a city from an external
// HTTP weather service. Each call issues exactly one outbound request;
// there is no caching, retry, or backoff, and a failed lookup is never
// fatal to the page that asked for it.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/user/skynote-go/apperror"
	"github.com/user/skynote-go/config"
)

// FallbackMessage is rendered in place of the weather widget when the
// lookup fails or the city has no current-conditions data.
const FallbackMessage = "No weather data found for your location."

// providerNoLocation is the provider's error code for a city it cannot
// match.
const providerNoLocation = 1006

// Snapshot holds current conditions for one city, for the duration of one
// page render. It is never persisted.
type Snapshot struct {
	City       string
	Condition  string
	TempC      float64
	FeelsLikeC float64
	Humidity   int
}

// Client looks up current conditions against a weatherapi.com-shaped
// endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

// NewClient creates a weather Client. The configured timeout bounds every
// lookup so a slow provider cannot stall page rendering.
func NewClient(cfg *config.WeatherConfig, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		log:        log,
	}
}

// Current fetches current conditions for the city. An unknown city or a
// response without a current-conditions block yields a NotFoundError;
// network errors, unexpected statuses, malformed bodies, and timeouts
// yield an ExternalServiceError.
func (c *Client) Current(ctx context.Context, city string) (*Snapshot, error) {
	reqURL := fmt.Sprintf("%s/current.json?key=%s&q=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(city))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperror.NewExternalServiceError("failed to build weather request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("city", city).Msg("weather request failed")
		return nil, apperror.NewExternalServiceError("weather request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperror.NewExternalServiceError("failed to read weather response", err)
	}

	if resp.StatusCode == http.StatusBadRequest {
		// The provider reports an unmatchable city as 400 with a coded
		// error body.
		if gjson.GetBytes(body, "error.code").Int() == providerNoLocation {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("no weather data for city '%s'", city), nil)
		}
		return nil, apperror.NewExternalServiceError(fmt.Sprintf("weather service rejected request: %s", gjson.GetBytes(body, "error.message").String()), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperror.NewExternalServiceError(fmt.Sprintf("unexpected weather status code: %d", resp.StatusCode), nil)
	}

	if !gjson.ValidBytes(body) {
		return nil, apperror.NewExternalServiceError("malformed weather response", nil)
	}

	current := gjson.GetBytes(body, "current")
	if !current.Exists() {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("no current conditions for city '%s'", city), nil)
	}

	snapshot := &Snapshot{
		City:       gjson.GetBytes(body, "location.name").String(),
		Condition:  current.Get("condition.text").String(),
		TempC:      current.Get("temp_c").Float(),
		FeelsLikeC: current.Get("feelslike_c").Float(),
		Humidity:   int(current.Get("humidity").Int()),
	}
	if snapshot.City == "" {
		snapshot.City = city
	}
	return snapshot, nil
}
