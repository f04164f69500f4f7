// Package payment предоставляет клиент внешней платёжной системы.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome описывает результат списания.
type Outcome string

const (
	Succeeded Outcome = "succeeded"
	Failed    Outcome = "failed"
)

// ErrRateLimited возвращается, если платёжная система попросила повторить запрос позже.
var ErrRateLimited = errors.New("payment system rate limited")

// Client инкапсулирует HTTP-взаимодействие с платёжной системой.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type chargeRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type chargeResponse struct {
	Status string `json:"status"`
}

// NewClient создаёт HTTP-клиент платёжной системы по указанному адресу.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Charge списывает сумму в указанной валюте. Отказ платёжной системы возвращается как Failed
// без ошибки; ошибка означает, что результат списания неизвестен.
func (c *Client) Charge(ctx context.Context, amount decimal.Decimal, currency string) (Outcome, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("payment client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(chargeRequest{Amount: amount.StringFixed(2), Currency: currency})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/charges", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPaymentRequired:
		return Failed, nil
	case http.StatusTooManyRequests:
		retryAfter := time.Duration(0)
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return "", fmt.Errorf("%w: retry after %s", ErrRateLimited, retryAfter)
	case http.StatusOK, http.StatusCreated:
	default:
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chargeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	switch Outcome(result.Status) {
	case Succeeded:
		return Succeeded, nil
	case Failed:
		return Failed, nil
	}
	return "", fmt.Errorf("unexpected charge status: %q", result.Status)
}

// Static одобряет или отклоняет все списания. Используется, когда адрес платёжной системы не задан.
type Static struct {
	Approve bool
}

// Charge возвращает заранее заданный результат.
func (s Static) Charge(ctx context.Context, _ decimal.Decimal, _ string) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Approve {
		return Succeeded, nil
	}
	return Failed, nil
}
