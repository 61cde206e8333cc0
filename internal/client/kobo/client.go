package kobo

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

	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	apperrors "github.com/fieldops/kobo-dolibarr-bridge/pkg/util"
)

// Lister reads form submissions from the survey platform.
type Lister interface {
	ListSubmissions(ctx context.Context) ([]domain.Submission, error)
}

// Client consumes the survey-results listing API for one asset, using
// token-bearer authentication.
type Client struct {
	baseURL  string
	token    string
	assetUID string
	pageSize int
	http     *http.Client
}

// New constructs a client from config.
func New(cfg config.KoboConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		assetUID: cfg.AssetUID,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: 50 * time.Second},
	}
}

type listResponse struct {
	Count   int                 `json:"count"`
	Results []domain.Submission `json:"results"`
}

// ListSubmissions walks the paged listing until a short page and
// returns all submissions for the configured asset.
func (c *Client) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	var all []domain.Submission
	for start := 0; ; start += c.pageSize {
		page, err := c.listPage(ctx, start)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < c.pageSize {
			return all, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, start int) ([]domain.Submission, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("start", strconv.Itoa(start))
	query.Set("limit", strconv.Itoa(c.pageSize))

	endpoint := fmt.Sprintf("%s/api/v2/assets/%s/data/?%s", c.baseURL, url.PathEscape(c.assetUID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewRemoteError("kobo", 0, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewRemoteError("kobo", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewRemoteError("kobo", resp.StatusCode,
			fmt.Errorf("list submissions: %s", strings.TrimSpace(string(payload))))
	}

	var decoded listResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, apperrors.NewRemoteError("kobo", resp.StatusCode, err)
	}
	return decoded.Results, nil
}
