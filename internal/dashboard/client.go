package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rebirth/internal/domain/model"
	"rebirth/internal/usecase"
)

// 配送ダッシュボードが使うAPI
type API interface {
	ShippingOrders(ctx context.Context) ([]usecase.OrderOutput, error)
	MarkDelivered(ctx context.Context, orderIDs []string) error
}

// 管理者トークンでAPIサーバーを呼ぶ
type Client struct {
	BaseURL string
	Token   string
	Page    int
	Limit   int
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Page:    1,
		Limit:   20,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type shippingListResponse struct {
	Message string                `json:"message"`
	Orders  []usecase.OrderOutput `json:"orders"`
	Count   int64                 `json:"count"`
}

type apiError struct {
	Message string `json:"message"`
}

// 配送中の注文
func (c *Client) ShippingOrders(ctx context.Context) ([]usecase.OrderOutput, error) {
	path := fmt.Sprintf("/api/v1/orders/shipping/%d/%d", c.Page, c.Limit)
	body := map[string]string{"status": string(model.OrderStatusShipping)}

	var out shippingListResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// 選択した注文を配送完了にする
func (c *Client) MarkDelivered(ctx context.Context, orderIDs []string) error {
	body := map[string]any{
		"orderIds": orderIDs,
		"status":   string(model.OrderStatusDelivered),
	}
	return c.do(ctx, http.MethodPatch, "/api/v1/orders/update/status", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Message != "" {
			return fmt.Errorf("status %d: %s", resp.StatusCode, ae.Message)
		}
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
