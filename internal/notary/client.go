// Package notary delivers blacklist events to an external notarization
// endpoint. Delivery is fire-and-forget with a single attempt: the pipeline
// blacklists the account whether or not a reference comes back.
package notary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client POSTs account-id hashes to the configured notary service and
// returns the opaque reference it answers with.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a notary client with a bounded request timeout. The
// timeout caps the pipeline's worst-case wait; the engine additionally wraps
// each attempt in its own context deadline.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type notarizeRequest struct {
	AccountHash string `json:"account_hash"`
	ObservedAt  string `json:"observed_at"`
}

type notarizeResponse struct {
	TxHash string `json:"tx_hash"`
}

// Notarize submits one blacklist event. Any transport or decode failure
// returns an error the pipeline maps to "no reference".
func (c *Client) Notarize(ctx context.Context, accountHash string) (string, error) {
	payload, err := json.Marshal(notarizeRequest{
		AccountHash: accountHash,
		ObservedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("notary returned status %d", resp.StatusCode)
	}

	var out notarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("notary response decode: %w", err)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("notary returned empty reference")
	}

	c.logger.Debug("blacklist event notarized", zap.String("tx_hash", out.TxHash))
	return out.TxHash, nil
}
