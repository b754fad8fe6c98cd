package network

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

	"github.com/ZDSRepositories/dotwar/pkg/config"
	"github.com/ZDSRepositories/dotwar/pkg/entity"
	"github.com/ZDSRepositories/dotwar/pkg/event"
	"github.com/ZDSRepositories/dotwar/pkg/registry"
)

// Client talks to a running API server. All requests go through the
// circuit breaker with retry, so a briefly unreachable server is retried
// and a dead one fails fast.
type Client struct {
	baseURL string
	http    *http.Client
	service *NetworkService
}

// NewClient creates an API client for the server at baseURL, such as
// "http://localhost:8080".
func NewClient(baseURL string, envConfig *config.EnvironmentConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: envConfig.ReadTimeout,
		},
		service: NewNetworkService(envConfig),
	}
}

// apiResponse is implemented by every response struct via an embedded
// apiStatus.
type apiResponse interface {
	okay() bool
	message() string
}

// do performs one HTTP request through the circuit breaker and decodes the
// response body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, form url.Values, out apiResponse) error {
	return c.service.ExecuteWithRetry(ctx, func() error {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, u, body)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("requesting %s: %w", path, err)
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response from %s: %w", path, err)
		}
		if !out.okay() {
			return fmt.Errorf("server rejected %s: %s", path, out.message())
		}
		return nil
	})
}

// apiStatus is the ok/msg pair present in every response body.
type apiStatus struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

func (s apiStatus) okay() bool      { return s.OK }
func (s apiStatus) message() string { return s.Msg }

// Games lists the games hosted by the server.
func (c *Client) Games(ctx context.Context) ([]string, error) {
	var resp struct {
		apiStatus
		Games []string `json:"games"`
	}
	if err := c.do(ctx, http.MethodGet, "/games", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Games, nil
}

// Status fetches a game's metadata.
func (c *Client) Status(ctx context.Context, game string) (registry.Status, error) {
	var resp struct {
		apiStatus
		Game registry.Status `json:"game"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/"+game+"/status", nil, nil, &resp); err != nil {
		return registry.Status{}, err
	}
	return resp.Game, nil
}

// Scan fetches the public entity views of a game, optionally filtered.
func (c *Client) Scan(ctx context.Context, game string, filter registry.ScanFilter) ([]registry.EntityView, error) {
	query := url.Values{}
	if filter != (registry.ScanFilter{}) {
		raw, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encoding filter: %w", err)
		}
		query.Set("filter", string(raw))
	}

	var resp struct {
		apiStatus
		Entities []registry.EntityView `json:"entities"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/"+game+"/scan", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// EventLog fetches events with occurrence time in [start, end]. Zero
// bounds default server-side to the epoch and the current system time.
func (c *Client) EventLog(ctx context.Context, game string, start, end time.Time) ([]event.Event, error) {
	query := url.Values{}
	if !start.IsZero() {
		query.Set("start", start.Format(time.RFC3339))
	}
	if !end.IsZero() {
		query.Set("end", end.Format(time.RFC3339))
	}

	var resp struct {
		apiStatus
		Events []event.Event `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/"+game+"/event_log", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Agenda fetches a vessel's pending orders.
func (c *Client) Agenda(ctx context.Context, game, vessel, authcode string) ([]entity.Order, error) {
	query := url.Values{}
	query.Set("vessel", vessel)
	query.Set("authcode", authcode)

	var resp struct {
		apiStatus
		Agenda []entity.Order `json:"agenda"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/"+game+"/agenda", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agenda, nil
}

// AddOrder schedules an order for a vessel and returns the new order id.
func (c *Client) AddOrder(ctx context.Context, game, vessel, authcode string, order OrderRequest) (int, error) {
	raw, err := json.Marshal(order)
	if err != nil {
		return 0, fmt.Errorf("encoding order: %w", err)
	}

	query := url.Values{}
	query.Set("vessel", vessel)
	query.Set("authcode", authcode)
	query.Set("order", string(raw))

	var resp struct {
		apiStatus
		AddedID int `json:"added_id"`
	}
	if err := c.do(ctx, http.MethodGet, "/game/"+game+"/add_order", query, nil, &resp); err != nil {
		return 0, err
	}
	return resp.AddedID, nil
}

// DeleteOrder removes a pending order, returning the removed id and the
// number of orders still pending.
func (c *Client) DeleteOrder(ctx context.Context, game, vessel, authcode string, orderID int) (int, int, error) {
	form := url.Values{}
	form.Set("vessel", vessel)
	form.Set("authcode", authcode)
	form.Set("order_id", strconv.Itoa(orderID))

	var resp struct {
		apiStatus
		RemovedID    int `json:"removed_id"`
		PendingCount int `json:"pending_count"`
	}
	if err := c.do(ctx, http.MethodPost, "/game/"+game+"/delete_order", nil, form, &resp); err != nil {
		return 0, 0, err
	}
	return resp.RemovedID, resp.PendingCount, nil
}
