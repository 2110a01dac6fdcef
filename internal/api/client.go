// Package api is a hand-rolled client for OpenAI-style Responses APIs. It
// owns request/response shapes and HTTP issuance; SSE framing and retry
// policy live upstream of it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	responsesPath = "/responses"

	// Bound on raw error bodies quoted back to the user.
	maxErrorBodyBytes = 2048
	maxErrorMsgRunes  = 300
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a client for one credential profile. There is no overall
// request timeout: streams stay open as long as the model generates. Dial and
// header timeouts still bound a dead gateway.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 60 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// Send issues a non-streaming request and decodes the result.
func (c *Client) Send(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := c.post(ctx, req.WithStream(false), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp.StatusCode, body)
	}
	return NewChatResponse(body), nil
}

// OpenStream issues a streaming request and hands back the raw SSE body. The
// caller owns framing and must close the body.
func (c *Client) OpenStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	resp, err := c.post(ctx, req.WithStream(true), "text/event-stream")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		return nil, apiError(resp.StatusCode, body)
	}
	return resp.Body, nil
}

func (c *Client) post(ctx context.Context, req ChatRequest, accept string) (*http.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+responsesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return resp, nil
}

// apiError turns a failed HTTP response into a readable error. The body may
// be plain JSON or an SSE-framed error record; structured extraction is tried
// first, then a bounded slice of the raw body.
func apiError(status int, body []byte) error {
	return fmt.Errorf("API error %d: %s", status, errorBodyMessage(body))
}

func errorBodyMessage(body []byte) string {
	text := strings.TrimSpace(string(body))

	if msg := structuredErrorMessage(text); msg != "" {
		return msg
	}

	// Some gateways deliver the error SSE-framed even on non-2xx statuses.
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if msg := structuredErrorMessage(payload); msg != "" {
			return msg
		}
	}

	if text == "" {
		return "empty error body"
	}
	runes := []rune(text)
	if len(runes) > maxErrorMsgRunes {
		return string(runes[:maxErrorMsgRunes]) + "…"
	}
	return text
}

func structuredErrorMessage(payload string) string {
	if !gjson.Valid(payload) {
		return ""
	}
	if msg := gjson.Get(payload, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	if msg := gjson.Get(payload, "message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return ""
}
