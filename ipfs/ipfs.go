// Package ipfs is the content-addressed metadata store client: reads go
// through a public gateway, writes through a pinning endpoint.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/arbitrable-escrow/escrow-api/types"
)

type Client struct {
	gatewayURL string
	pinURL     string
	httpc      *http.Client
	logger     *slog.Logger
}

type ClientOpts struct {
	// GatewayURL serves /ipfs/<cid> reads.
	GatewayURL string
	// PinURL accepts uploads and returns the pinned cid.
	PinURL  string
	Logger  *slog.Logger
	Timeout time.Duration
}

const defaultTimeout = 30 * time.Second

func NewClient(opts ClientOpts) *Client {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{
		gatewayURL: strings.TrimRight(opts.GatewayURL, "/"),
		pinURL:     opts.PinURL,
		httpc:      &http.Client{Timeout: opts.Timeout},
		logger:     opts.Logger,
	}
}

// Fetch loads and decodes a metadata record by content hash. Accepts bare
// cids, /ipfs/<cid> paths and ipfs:// uris.
func (c *Client) Fetch(ctx context.Context, uri string) (types.MetaEvidence, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gatewayURL+"/ipfs/"+normalizeCID(uri), nil)
	if err != nil {
		return types.MetaEvidence{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return types.MetaEvidence{}, fmt.Errorf("failed to fetch %s: %w", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.MetaEvidence{}, fmt.Errorf("gateway returned status %d for %s", resp.StatusCode, uri)
	}

	var meta types.MetaEvidence
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return types.MetaEvidence{}, fmt.Errorf("failed to decode metadata %s: %w", uri, err)
	}
	return meta, nil
}

// UploadJSON pins a JSON document and returns its /ipfs/<cid> uri.
func (c *Client) UploadJSON(ctx context.Context, name string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return c.UploadFile(ctx, name, data)
}

// UploadFile pins raw bytes and returns their /ipfs/<cid> uri.
func (c *Client) UploadFile(ctx context.Context, name string, data []byte) (string, error) {
	body, err := json.Marshal(struct {
		FileName string `json:"fileName"`
		Buffer   []byte `json:"buffer"`
	}{FileName: name, Buffer: data})
	if err != nil {
		return "", fmt.Errorf("failed to encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pinURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pin endpoint returned status %d: %s", resp.StatusCode, payload)
	}

	var result struct {
		Cids []string `json:"cids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode pin response: %w", err)
	}
	if len(result.Cids) == 0 {
		return "", fmt.Errorf("pin endpoint returned no cid for %s", name)
	}

	c.logger.Debug("pinned content", "name", name, "cid", result.Cids[0])
	return "/ipfs/" + normalizeCID(result.Cids[0]), nil
}

func normalizeCID(uri string) string {
	uri = strings.TrimPrefix(uri, "ipfs://")
	uri = strings.TrimPrefix(uri, "/ipfs/")
	return strings.TrimPrefix(uri, "ipfs/")
}
