// Package subgraph queries the event index of one escrow track. The index is
// append-only and may return events out of chronological order; ordering is
// the timeline normalizer's job, not ours.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/arbitrable-escrow/escrow-api/types"
)

type Client struct {
	endpoint string
	httpc    *http.Client
	logger   *slog.Logger
}

type ClientOpts struct {
	Endpoint string
	Logger   *slog.Logger
	Timeout  time.Duration
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
		endpoint: opts.Endpoint,
		httpc:    &http.Client{Timeout: opts.Timeout},
		logger:   opts.Logger,
	}
}

const creationEventsQuery = `query {
  metaEvidences(first: 1000, orderBy: blockTimestamp, orderDirection: desc) {
    id
    _metaEvidenceID
    _evidence
    blockTimestamp
    blockNumber
    transactionHash
  }
}`

// CreationEvents lists every transaction-creation record on the track.
func (c *Client) CreationEvents(ctx context.Context) ([]types.MetaEvidenceEvent, error) {
	var out struct {
		MetaEvidences []types.MetaEvidenceEvent `json:"metaEvidences"`
	}
	if err := c.query(ctx, creationEventsQuery, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to query creation events: %w", err)
	}
	return out.MetaEvidences, nil
}

const transactionEventsQuery = `query($id: String!) {
  payments(where: {_transactionID: $id}) {
    id
    _transactionID
    _amount
    _party
    blockNumber
    blockTimestamp
    transactionHash
  }
  evidences(where: {_evidenceGroupID: $id}) {
    _arbitrator
    _party
    _evidence
    _evidenceGroupID
    blockNumber
    transactionHash
  }
  disputes(where: {_metaEvidenceID: $id}) {
    _arbitrator
    _disputeID
    _metaEvidenceID
    _evidenceGroupID
    blockNumber
    blockTimestamp
    transactionHash
  }
  hasToPayFees(where: {_transactionID: $id}) {
    _transactionID
    _party
    blockNumber
    blockTimestamp
    transactionHash
  }
}`

const rulingsQuery = `query($disputeIDs: [String!]) {
  rulings(where: {_disputeID_in: $disputeIDs}) {
    _arbitrator
    _disputeID
    _ruling
    blockNumber
    blockTimestamp
    transactionHash
  }
}`

// TransactionEvents fetches every event kind observed for one transaction.
// Rulings are keyed by dispute id in the index, so they need a follow-up
// query once the dispute ids are known. Absent arrays come back nil and are
// treated as empty downstream.
func (c *Client) TransactionEvents(ctx context.Context, id string) (types.TransactionEvents, error) {
	var events types.TransactionEvents
	if err := c.query(ctx, transactionEventsQuery, map[string]any{"id": id}, &events); err != nil {
		return types.TransactionEvents{}, fmt.Errorf("failed to query events for transaction %s: %w", id, err)
	}

	if len(events.Disputes) > 0 {
		disputeIDs := make([]string, 0, len(events.Disputes))
		for _, d := range events.Disputes {
			disputeIDs = append(disputeIDs, d.DisputeID)
		}
		var out struct {
			Rulings []types.RulingEvent `json:"rulings"`
		}
		if err := c.query(ctx, rulingsQuery, map[string]any{"disputeIDs": disputeIDs}, &out); err != nil {
			return types.TransactionEvents{}, fmt.Errorf("failed to query rulings for transaction %s: %w", id, err)
		}
		events.Rulings = out.Rulings
	}

	return events, nil
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach event index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("event index returned status %d: %s", resp.StatusCode, payload)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("event index error: %s", envelope.Errors[0].Message)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
