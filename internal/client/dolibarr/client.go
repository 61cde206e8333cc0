package dolibarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/domain"
	"github.com/fieldops/kobo-dolibarr-bridge/internal/reconcile"
	apperrors "github.com/fieldops/kobo-dolibarr-bridge/pkg/util"
)

// TicketClient covers the ticketing endpoints used by the close run.
type TicketClient interface {
	// SearchTicketByRef runs the server-side filtered fast path. A nil
	// ticket with nil error means the filter produced no exact match.
	SearchTicketByRef(ctx context.Context, ref string) (*domain.RemoteTicket, error)
	ListTickets(ctx context.Context, page, limit int) ([]domain.RemoteTicket, error)
	GetTicket(ctx context.Context, id string) (*domain.RemoteTicket, error)
	UpdateTicketStatus(ctx context.Context, id string, status int) error
	WriteTicketOptions(ctx context.Context, id string, options map[string]any) error
}

// DirectoryClient covers third-party and user lookups.
type DirectoryClient interface {
	SearchThirdpartyByCode(ctx context.Context, code string) (*domain.RemoteThirdparty, error)
	ListThirdparties(ctx context.Context, page, limit int) ([]domain.RemoteThirdparty, error)
	SearchUserByLogin(ctx context.Context, login string) (*domain.RemoteUser, error)
	ListUsers(ctx context.Context, page, limit int) ([]domain.RemoteUser, error)
}

// AgendaClient creates calendar events.
type AgendaClient interface {
	CreateEvent(ctx context.Context, event domain.AgendaEvent) (string, error)
}

// Client is the REST client for the Dolibarr API. Authentication is a
// static DOLAPIKEY header on every request.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New constructs a client from config.
func New(cfg config.DolibarrConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

// Ping checks API reachability for readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	var out json.RawMessage
	return c.call(ctx, http.MethodGet, "/status", nil, nil, &out)
}

// SearchTicketByRef implements the single-shot filtered query. The
// returned list is still checked for an exact normalized match because
// the remote filter is case-sensitive.
func (c *Client) SearchTicketByRef(ctx context.Context, ref string) (*domain.RemoteTicket, error) {
	query := url.Values{}
	query.Set("sqlfilters", fmt.Sprintf("(t.ref:=:'%s')", reconcile.Normalize(ref)))

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/tickets", query, nil, &raw); err != nil {
		return nil, err
	}
	target := reconcile.Normalize(ref)
	for _, record := range asRecords(raw) {
		ticket := ticketFrom(record)
		if reconcile.Normalize(ticket.Ref) == target {
			return &ticket, nil
		}
	}
	return nil, nil
}

// ListTickets fetches one page of the ticket listing, oldest first as
// returned by the remote. A malformed body yields an empty page.
func (c *Client) ListTickets(ctx context.Context, page, limit int) ([]domain.RemoteTicket, error) {
	raw, err := c.listPage(ctx, "/tickets", page, limit)
	if err != nil {
		return nil, err
	}
	records := asRecords(raw)
	tickets := make([]domain.RemoteTicket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, ticketFrom(record))
	}
	return tickets, nil
}

// GetTicket reads a single ticket, including its current extension
// fields, ahead of a read-modify-write.
func (c *Client) GetTicket(ctx context.Context, id string) (*domain.RemoteTicket, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/tickets/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, apperrors.NewRemoteError("dolibarr", 0, err)
	}
	ticket := ticketFrom(record)
	return &ticket, nil
}

// UpdateTicketStatus writes one workflow transition.
func (c *Client) UpdateTicketStatus(ctx context.Context, id string, status int) error {
	body := map[string]any{"fk_statut": status}
	return c.call(ctx, http.MethodPut, "/tickets/"+url.PathEscape(id), nil, body, nil)
}

// WriteTicketOptions replaces the ticket's extension-field map. Callers
// must send the full merged map, not a delta.
func (c *Client) WriteTicketOptions(ctx context.Context, id string, options map[string]any) error {
	body := map[string]any{"array_options": options}
	return c.call(ctx, http.MethodPut, "/tickets/"+url.PathEscape(id), nil, body, nil)
}

// SearchThirdpartyByCode is the filtered fast path over customer codes.
func (c *Client) SearchThirdpartyByCode(ctx context.Context, code string) (*domain.RemoteThirdparty, error) {
	query := url.Values{}
	query.Set("sqlfilters", fmt.Sprintf("(t.code_client:=:'%s')", reconcile.Normalize(code)))

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/thirdparties", query, nil, &raw); err != nil {
		return nil, err
	}
	target := reconcile.Normalize(code)
	for _, record := range asRecords(raw) {
		tp := thirdpartyFrom(record)
		if reconcile.Normalize(tp.ClientCode) == target || reconcile.Normalize(tp.Ref) == target {
			return &tp, nil
		}
	}
	return nil, nil
}

// ListThirdparties fetches one page of the third-party listing.
func (c *Client) ListThirdparties(ctx context.Context, page, limit int) ([]domain.RemoteThirdparty, error) {
	raw, err := c.listPage(ctx, "/thirdparties", page, limit)
	if err != nil {
		return nil, err
	}
	records := asRecords(raw)
	parties := make([]domain.RemoteThirdparty, 0, len(records))
	for _, record := range records {
		parties = append(parties, thirdpartyFrom(record))
	}
	return parties, nil
}

// SearchUserByLogin is the filtered fast path over user logins.
func (c *Client) SearchUserByLogin(ctx context.Context, login string) (*domain.RemoteUser, error) {
	query := url.Values{}
	query.Set("sqlfilters", fmt.Sprintf("(t.login:=:'%s')", strings.TrimSpace(login)))

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/users", query, nil, &raw); err != nil {
		return nil, err
	}
	target := reconcile.NormalizeLogin(login)
	for _, record := range asRecords(raw) {
		user := userFrom(record)
		if reconcile.NormalizeLogin(user.Login) == target {
			return &user, nil
		}
	}
	return nil, nil
}

// ListUsers fetches one page of the user listing.
func (c *Client) ListUsers(ctx context.Context, page, limit int) ([]domain.RemoteUser, error) {
	raw, err := c.listPage(ctx, "/users", page, limit)
	if err != nil {
		return nil, err
	}
	records := asRecords(raw)
	users := make([]domain.RemoteUser, 0, len(records))
	for _, record := range records {
		users = append(users, userFrom(record))
	}
	return users, nil
}

// CreateEvent posts a new agenda event and returns its id.
func (c *Client) CreateEvent(ctx context.Context, event domain.AgendaEvent) (string, error) {
	body := map[string]any{
		"socid":       asNumberOrString(event.ThirdpartyID),
		"userownerid": asNumberOrString(event.OwnerUserID),
		"type_code":   event.TypeCode,
		"label":       event.Label,
		"note":        event.Note,
		"datep":       event.Start,
		"datef":       event.End,
		"location":    event.Location,
	}
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodPost, "/agendaevents", nil, body, &raw); err != nil {
		return "", err
	}
	var id any
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", apperrors.NewRemoteError("dolibarr", 0, err)
	}
	return domain.Stringify(id), nil
}

func (c *Client) listPage(ctx context.Context, path string, page, limit int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("page", strconv.Itoa(page))

	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("DOLAPIKEY", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewRemoteError("dolibarr", 0, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewRemoteError("dolibarr", resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("dolibarr call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apperrors.NewRemoteError("dolibarr", resp.StatusCode,
			fmt.Errorf("%s %s: %s", method, path, strings.TrimSpace(string(payload))))
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return apperrors.NewRemoteError("dolibarr", resp.StatusCode, err)
		}
	}
	return nil
}

func asNumberOrString(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}
