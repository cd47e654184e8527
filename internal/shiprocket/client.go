// Package shiprocket is a client for the Shiprocket external API. The sorter
// core never calls it; the fetch command uses it to pull bulk label PDFs that
// become the sorter's source document.
package shiprocket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://apiv2.shiprocket.in/v1/external"

// Tokens are valid for 10 days; refresh an hour early so in-flight requests
// never race expiry.
const (
	tokenLifetime     = 9 * 24 * time.Hour
	tokenExpiryBuffer = time.Hour
)

// Config holds client settings.
type Config struct {
	BaseURL  string
	Email    string
	Password string
	Timeout  time.Duration
}

// Client talks to the Shiprocket API, caching the auth token across calls.
type Client struct {
	cfg    Config
	httpc  *http.Client
	logger *slog.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("shiprocket credentials not provided")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Authenticate logs in and caches the bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": c.cfg.Email, "password": c.cfg.Password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, payload, &out, false); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if out.Token == "" {
		return fmt.Errorf("authenticate: empty token in response")
	}
	c.mu.Lock()
	c.token = out.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	c.mu.Unlock()
	c.logger.Info("shiprocket.auth.ok", "email", c.cfg.Email)
	return nil
}

func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.tokenExpiry
	c.mu.Unlock()
	if token != "" && time.Now().Before(expiry.Add(-tokenExpiryBuffer)) {
		return token, nil
	}
	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	token = c.token
	c.mu.Unlock()
	return token, nil
}

// Orders fetches orders filtered by status. perPage maxes out at 50 on the
// API side.
func (c *Client) Orders(ctx context.Context, status string, page, perPage int) (*OrdersResponse, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	q := url.Values{
		"filter":   {strings.ToLower(status)},
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}
	var out OrdersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/orders", q, nil, &out, true); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &out, nil
}

// OrderDetails fetches one order by id.
func (c *Client) OrderDetails(ctx context.Context, orderID int64) (*Order, error) {
	var out struct {
		Data Order `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/orders/show/%d", orderID), nil, nil, &out, true); err != nil {
		return nil, fmt.Errorf("order details: %w", err)
	}
	return &out.Data, nil
}

// ShipmentDetails fetches one shipment, including its AWB once assigned.
func (c *Client) ShipmentDetails(ctx context.Context, shipmentID int64) (*Shipment, error) {
	var out struct {
		Data Shipment `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/shipments/%d", shipmentID), nil, nil, &out, true); err != nil {
		return nil, fmt.Errorf("shipment details: %w", err)
	}
	return &out.Data, nil
}

// AssignAWB ships an order. courierID 0 lets Shiprocket pick by priority.
func (c *Client) AssignAWB(ctx context.Context, shipmentID, courierID int64) (*AWBResponse, error) {
	payload := map[string]any{"shipment_id": shipmentID}
	if courierID != 0 {
		payload["courier_id"] = courierID
	}
	var out AWBResponse
	if err := c.doJSON(ctx, http.MethodPost, "/courier/assign/awb", nil, payload, &out, true); err != nil {
		return nil, fmt.Errorf("assign awb: %w", err)
	}
	return &out, nil
}

// BulkShip assigns AWBs to many shipments with auto courier selection,
// capturing per-shipment errors and pausing between calls to stay under the
// rate limit.
func (c *Client) BulkShip(ctx context.Context, shipmentIDs []int64, delay time.Duration) []ShipResult {
	results := make([]ShipResult, 0, len(shipmentIDs))
	for i, id := range shipmentIDs {
		res := ShipResult{ShipmentID: id}
		awb, err := c.AssignAWB(ctx, id, 0)
		if err != nil {
			res.Err = err.Error()
		} else {
			res.Success = awb.AWBAssignStatus == 1
			res.AWBCode = awb.Response.Data.AWBCode
		}
		results = append(results, res)

		if delay > 0 && i < len(shipmentIDs)-1 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(delay):
			}
		}
	}
	return results
}

// Serviceability lists courier options for a pickup/delivery route.
func (c *Client) Serviceability(ctx context.Context, pickupPostcode, deliveryPostcode string, weightKG float64, cod bool) (*ServiceabilityResponse, error) {
	codFlag := "0"
	if cod {
		codFlag = "1"
	}
	q := url.Values{
		"pickup_postcode":   {pickupPostcode},
		"delivery_postcode": {deliveryPostcode},
		"weight":            {strconv.FormatFloat(weightKG, 'f', -1, 64)},
		"cod":               {codFlag},
	}
	var out ServiceabilityResponse
	if err := c.doJSON(ctx, http.MethodGet, "/courier/serviceability", q, nil, &out, true); err != nil {
		return nil, fmt.Errorf("serviceability: %w", err)
	}
	return &out, nil
}

// LabelURL requests label generation for up to 50 shipments and returns the
// URL of the combined label PDF.
func (c *Client) LabelURL(ctx context.Context, shipmentIDs []int64) (string, error) {
	var out struct {
		LabelCreated int    `json:"label_created"`
		LabelURL     string `json:"label_url"`
	}
	payload := map[string]any{"shipment_id": shipmentIDs}
	if err := c.doJSON(ctx, http.MethodPost, "/courier/generate/label", nil, payload, &out, true); err != nil {
		return "", fmt.Errorf("generate label: %w", err)
	}
	if out.LabelURL == "" {
		return "", fmt.Errorf("generate label: no label_url in response")
	}
	return out.LabelURL, nil
}

// DownloadLabels fetches the bulk label PDF for the given shipments. The
// returned bytes are a valid sorter source document.
func (c *Client) DownloadLabels(ctx context.Context, shipmentIDs []int64) ([]byte, error) {
	labelURL, err := c.LabelURL(ctx, shipmentIDs)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, labelURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build label download request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download label: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("download label: non-2xx status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read label body: %w", err)
	}
	c.logger.Info("shiprocket.label.downloaded", "shipments", len(shipmentIDs), "bytes", len(data))
	return data, nil
}

// GenerateManifest generates a manifest for the given shipments.
func (c *Client) GenerateManifest(ctx context.Context, shipmentIDs []int64) error {
	payload := map[string]any{"shipment_id": shipmentIDs}
	if err := c.doJSON(ctx, http.MethodPost, "/manifests/generate", nil, payload, nil, true); err != nil {
		return fmt.Errorf("generate manifest: %w", err)
	}
	return nil
}

// RequestPickup schedules pickup for shipped orders. An empty pickupDate
// defaults to tomorrow.
func (c *Client) RequestPickup(ctx context.Context, shipmentIDs []int64, pickupDate string) error {
	if pickupDate == "" {
		pickupDate = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	}
	payload := map[string]any{"shipment_id": shipmentIDs, "pickup_date": pickupDate}
	if err := c.doJSON(ctx, http.MethodPost, "/courier/generate/pickup", nil, payload, nil, true); err != nil {
		return fmt.Errorf("request pickup: %w", err)
	}
	return nil
}

// TrackAWB fetches tracking by AWB number.
func (c *Client) TrackAWB(ctx context.Context, awb string) (*TrackingResponse, error) {
	var out TrackingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/courier/track/awb/"+url.PathEscape(awb), nil, nil, &out, true); err != nil {
		return nil, fmt.Errorf("track awb: %w", err)
	}
	return &out, nil
}

// TrackShipment fetches tracking by shipment id.
func (c *Client) TrackShipment(ctx context.Context, shipmentID int64) (*TrackingResponse, error) {
	var out TrackingResponse
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/courier/track/shipment/%d", shipmentID), nil, nil, &out, true); err != nil {
		return nil, fmt.Errorf("track shipment: %w", err)
	}
	return &out, nil
}

// CancelShipments cancels shipments by AWB codes.
func (c *Client) CancelShipments(ctx context.Context, awbCodes []string) error {
	payload := map[string]any{"awbs": awbCodes}
	if err := c.doJSON(ctx, http.MethodPost, "/orders/cancel/shipment/awbs", nil, payload, nil, true); err != nil {
		return fmt.Errorf("cancel shipments: %w", err)
	}
	return nil
}

// WalletBalance fetches the current account wallet balance.
func (c *Client) WalletBalance(ctx context.Context) (float64, error) {
	var out WalletBalanceResponse
	if err := c.doJSON(ctx, http.MethodGet, "/account/details/wallet-balance", nil, nil, &out, true); err != nil {
		return 0, fmt.Errorf("wallet balance: %w", err)
	}
	return out.Data.BalanceAmount, nil
}

// doJSON sends one JSON request and decodes the response into out (when out
// is non-nil). Callers own path, query, and payload; authed requests get a
// bearer token, refreshed lazily.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	reqID := uuid.New().String()
	start := time.Now()

	var reqBody io.Reader
	contentLength := 0
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		reqBody = bytes.NewReader(bs)
		contentLength = len(bs)
	}

	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("shiprocket.http.request",
		"req_id", reqID,
		"method", method,
		"path", path,
		"content_length", contentLength,
	)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("shiprocket.http.send_error", "req_id", reqID, "path", path, "error", err)
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("shiprocket.http.body_close_error", "req_id", reqID, "error", cerr)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)

	c.logger.Debug("shiprocket.http.response",
		"req_id", reqID,
		"path", path,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("non-2xx status: %d: %s", resp.StatusCode, truncate(string(raw), 256))
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
