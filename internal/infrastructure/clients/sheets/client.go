package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nakanaka07/kueccha/pkg/config"
	apperrors "github.com/nakanaka07/kueccha/pkg/errors"
)

const defaultHTTPTimeout = 10 * time.Second

// Client reads sheet ranges through the Google Sheets values API.
type Client struct {
	baseURL       string
	spreadsheetID string
	apiKey        string
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker
}

// NewClient creates a new Sheets API client.
func NewClient(cfg *config.SheetsConfig) (*Client, error) {
	return NewClientWithOptions(cfg, nil)
}

// NewClientWithOptions allows overriding the HTTP client (used for tests).
func NewClientWithOptions(cfg *config.SheetsConfig, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "sheets-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		spreadsheetID: cfg.SpreadsheetID,
		apiKey:        cfg.APIKey,
		httpClient:    httpClient,
		breaker:       breaker,
	}, nil
}

// FetchRange fetches one A1 range of a sheet and returns its rows. The
// header row is included; callers decide how many leading rows to drop.
func (c *Client) FetchRange(ctx context.Context, sheetName, a1Range string) ([][]string, error) {
	if c.apiKey == "" {
		return nil, apperrors.NewAPIKeyError("sheets api key is not configured", nil)
	}

	rangeRef := sheetName
	if a1Range != "" {
		rangeRef = fmt.Sprintf("%s!%s", sheetName, a1Range)
	}
	endpoint := fmt.Sprintf("%s/%s/values/%s?key=%s",
		c.baseURL,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(rangeRef),
		url.QueryEscape(c.apiKey),
	)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doValuesRequest(ctx, endpoint)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperrors.NewNetworkError("sheets api circuit open", err)
		}
		return nil, err
	}

	return result.([][]string), nil
}

func (c *Client) doValuesRequest(ctx context.Context, endpoint string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build sheets request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperrors.NewAPIKeyError(
			"sheets api rejected the api key",
			fmt.Errorf("status 403: %s", string(payload)),
		)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("sheets api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sheets response: %w", err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, apperrors.NewDataFormatError("sheets response is not valid JSON", err)
	}

	rawValues, ok := envelope["values"]
	if !ok {
		return nil, apperrors.NewDataFormatError("sheets response has no values field", nil)
	}

	var values [][]string
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return nil, apperrors.NewDataFormatError("sheets values field is not a row array", err)
	}

	return values, nil
}

// ColumnLetter converts a zero-based column index to its A1 letter form.
func ColumnLetter(index int) string {
	letters := ""
	for index >= 0 {
		letters = string(rune('A'+index%26)) + letters
		index = index/26 - 1
	}
	return letters
}
