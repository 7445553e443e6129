// Package remote implements the RemoteService contract over the
// authoritative service's HTTP API. Transport failures surface as
// ErrRemoteUnavailable; the client never retries on its own.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	connectiondomain "github.com/venturebridge/venturebridge/internal/connection/domain"
	obsmetrics "github.com/venturebridge/venturebridge/internal/observability/metrics"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func NewClient(baseURL string, log *zap.Logger, metrics *obsmetrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log.Named("connection.remote"),
		metrics: metrics,
	}
}

type createConnectionRequest struct {
	InitiatorID string `json:"initiator_id"`
	RecipientID string `json:"recipient_id"`
}

type relationshipPayload struct {
	ConnectionID string `json:"connection_id"`
	InitiatorID  string `json:"initiator_id"`
	RecipientID  string `json:"recipient_id"`
	Status       string `json:"status"`
	DealClosed   bool   `json:"deal_closed"`
}

type errorPayload struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateConnection(ctx context.Context, initiator, recipient snowflake.ID) (snowflake.ID, error) {
	body := createConnectionRequest{
		InitiatorID: initiator.String(),
		RecipientID: recipient.String(),
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.do(ctx, "create_connection", http.MethodPost, "/api/connections", body, &resp); err != nil {
		return 0, err
	}
	id, err := snowflake.ParseString(resp.Data.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed connection id %q", connectiondomain.ErrRemoteUnavailable, resp.Data.ID)
	}
	return id, nil
}

func (c *Client) GetConnection(ctx context.Context, a, b snowflake.ID) (*connectiondomain.Relationship, error) {
	path := fmt.Sprintf("/api/connections/status?a=%s&b=%s", a.String(), b.String())
	var resp struct {
		Data *relationshipPayload `json:"data"`
	}
	if err := c.do(ctx, "get_connection", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}
	return decodeRelationship(resp.Data)
}

func (c *Client) UpdateStatus(ctx context.Context, id snowflake.ID, status connectiondomain.Status) error {
	body := map[string]string{"status": string(status)}
	path := fmt.Sprintf("/api/connections/%s/status", id.String())
	return c.do(ctx, "update_status", http.MethodPost, path, body, nil)
}

func (c *Client) MarkDealClosed(ctx context.Context, id snowflake.ID) error {
	path := fmt.Sprintf("/api/connections/%s/close", id.String())
	return c.do(ctx, "mark_deal_closed", http.MethodPost, path, nil, nil)
}

func (c *Client) DeleteConnection(ctx context.Context, id snowflake.ID) error {
	path := fmt.Sprintf("/api/connections/%s", id.String())
	return c.do(ctx, "delete_connection", http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordRemoteFailure(operation)
		return fmt.Errorf("%w: %v", connectiondomain.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.metrics.RecordRemoteFailure(operation)
			return fmt.Errorf("%w: decode response: %v", connectiondomain.ErrRemoteUnavailable, err)
		}
		return nil
	}

	return c.mapError(operation, resp)
}

func (c *Client) mapError(operation string, resp *http.Response) error {
	var payload errorPayload
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return connectiondomain.ErrNotFound
	case http.StatusConflict:
		return connectiondomain.ErrAlreadyExists
	case http.StatusForbidden:
		return connectiondomain.ErrNotAuthorized
	case http.StatusBadRequest:
		if strings.Contains(payload.Error.Type, "self_target") {
			return connectiondomain.ErrSelfTarget
		}
		return fmt.Errorf("%w: %s", connectiondomain.ErrRemoteUnavailable, payload.Error.Message)
	default:
		c.metrics.RecordRemoteFailure(operation)
		c.log.Warn("remote call failed",
			zap.Int("status", resp.StatusCode),
			zap.String("type", payload.Error.Type),
		)
		return fmt.Errorf("%w: http %d", connectiondomain.ErrRemoteUnavailable, resp.StatusCode)
	}
}

func decodeRelationship(payload *relationshipPayload) (*connectiondomain.Relationship, error) {
	connectionID, err := snowflake.ParseString(payload.ConnectionID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed connection id", connectiondomain.ErrRemoteUnavailable)
	}
	initiatorID, err := snowflake.ParseString(payload.InitiatorID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed initiator id", connectiondomain.ErrRemoteUnavailable)
	}
	recipientID, err := snowflake.ParseString(payload.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed recipient id", connectiondomain.ErrRemoteUnavailable)
	}
	return &connectiondomain.Relationship{
		ConnectionID: connectionID,
		InitiatorID:  initiatorID,
		RecipientID:  recipientID,
		Status:       connectiondomain.Status(payload.Status),
		DealClosed:   payload.DealClosed,
	}, nil
}
