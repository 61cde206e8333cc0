package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	apperrors "github.com/fieldops/kobo-dolibarr-bridge/pkg/util"
)

// Reverser turns a coordinate pair into a human-readable address.
// Implementations return an empty string when the provider has no
// answer for the point.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// New selects the configured provider.
func New(cfg config.GeocodeConfig, logger *zap.Logger) Reverser {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	if cfg.Provider == "google" {
		return &googleReverser{apiKey: cfg.GoogleAPIKey, http: httpClient}
	}
	return &nominatimReverser{
		baseURL: strings.TrimRight(cfg.NominatimURL, "/"),
		email:   cfg.NominatimEmail,
		http:    httpClient,
		// Nominatim's usage policy is one request per second.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger,
	}
}

type nominatimReverser struct {
	baseURL string
	email   string
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func (n *nominatimReverser) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", err
	}

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("zoom", "18")
	query.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+query.Encode(), nil)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("kobo-dolibarr-bridge/1.0 (%s)", n.email))

	var decoded struct {
		DisplayName string         `json:"display_name"`
		Address     map[string]any `json:"address"`
	}
	if err := doJSON(n.http, req, &decoded); err != nil {
		return "", err
	}

	if pretty := AssembleAddress(decoded.Address); pretty != "" {
		return pretty, nil
	}
	return decoded.DisplayName, nil
}

type googleReverser struct {
	apiKey string
	http   *http.Client
}

func (g *googleReverser) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("latlng", fmt.Sprintf("%f,%f", lat, lon))
	query.Set("key", g.apiKey)

	endpoint := "https://maps.googleapis.com/maps/api/geocode/json?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}

	var decoded struct {
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
	}
	if err := doJSON(g.http, req, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Results) == 0 {
		return "", nil
	}
	return decoded.Results[0].FormattedAddress, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return apperrors.NewRemoteError("geocode", 0, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewRemoteError("geocode", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperrors.NewRemoteError("geocode", resp.StatusCode,
			fmt.Errorf("reverse geocode: %s", strings.TrimSpace(string(payload))))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.NewRemoteError("geocode", resp.StatusCode, err)
	}
	return nil
}
