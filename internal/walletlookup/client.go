// Package walletlookup queries an external wallet service for the address
// shown on the read-only /wallet endpoint.
package walletlookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
)

var ErrNoAddress = errors.New("wallet service returned no address")

type Client struct {
	client *resty.Client
}

// Both the plain wallet service shape and the proxy's own /wallet shape are accepted.
type walletResponse struct {
	Address       string `json:"address"`
	WalletAddress string `json:"walletAddress"`
}

// New creates a client for baseURL. A zero timeout defaults to 10s.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{client: client}
}

// WalletAddress fetches GET /wallet and returns the reported address.
func (c *Client) WalletAddress(ctx context.Context) (common.Address, error) {
	var out walletResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/wallet")
	if err != nil {
		return common.Address{}, fmt.Errorf("wallet lookup: %w", err)
	}
	if resp.IsError() {
		return common.Address{}, fmt.Errorf("wallet lookup: unexpected status %d", resp.StatusCode())
	}
	if out.Address == "" {
		out.Address = out.WalletAddress
	}
	if out.Address == "" {
		return common.Address{}, ErrNoAddress
	}
	if !common.IsHexAddress(out.Address) {
		return common.Address{}, fmt.Errorf("wallet lookup: invalid address %q", out.Address)
	}
	return common.HexToAddress(out.Address), nil
}
