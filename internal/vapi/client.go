// Package vapi is a thin client for the Vapi voice API.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.vapi.ai"
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg}
}

// Customer identifies the phone number being dialed.
type Customer struct {
	Number string `json:"number"`
}

// AssistantOverrides carries per-call variables the assistant consumes at
// call time.
type AssistantOverrides struct {
	VariableValues map[string]string `json:"variableValues,omitempty"`
}

type CreateCallRequest struct {
	AssistantID        string              `json:"assistantId"`
	PhoneNumberID      string              `json:"phoneNumberId"`
	Customer           Customer            `json:"customer"`
	AssistantOverrides *AssistantOverrides `json:"assistantOverrides,omitempty"`
	Metadata           map[string]string   `json:"metadata,omitempty"`
}

// CallMonitor holds the realtime endpoints Vapi exposes for an active call.
type CallMonitor struct {
	ListenURL  string `json:"listenUrl,omitempty"`
	ControlURL string `json:"controlUrl,omitempty"`
}

type Call struct {
	ID      string      `json:"id"`
	Status  string      `json:"status"`
	Monitor CallMonitor `json:"monitor"`
}

// CreateCall places one outbound call. There is no retry and no idempotency
// key: calling twice dials the customer twice.
func (c *Client) CreateCall(ctx context.Context, req CreateCallRequest) (Call, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Call{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/call", bytes.NewReader(body))
	if err != nil {
		return Call{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.cfg.HTTP.Do(httpReq)
	if err != nil {
		return Call{}, fmt.Errorf("create call: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		if apiErr.Message == "" {
			apiErr.Message = "vapi api error"
		}
		return Call{}, fmt.Errorf("create call: status %d: %s", res.StatusCode, apiErr.Message)
	}

	var call Call
	if err := json.NewDecoder(res.Body).Decode(&call); err != nil {
		return Call{}, fmt.Errorf("decode call response: %w", err)
	}
	if call.ID == "" {
		return Call{}, fmt.Errorf("call response missing id")
	}
	return call, nil
}
