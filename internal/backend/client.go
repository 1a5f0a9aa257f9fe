// Package backend implements the HTTP client for the remote job-processing
// service that runs generations, prices and balances. The engine consumes it
// through the engine.Backend interface.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bananapics/internal/engine"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the generation service. Status 402
// denotes insufficient balance.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("backend: unexpected status %d", e.Status)
}

// StatusCode returns the HTTP status carried by the error.
func (e *APIError) StatusCode() int { return e.Status }

// IsInsufficientBalance reports whether err is a 402 from the backend.
func IsInsufficientBalance(err error) bool {
	ae, ok := err.(*APIError)
	return ok && ae.Status == http.StatusPaymentRequired
}

// Client talks to the generation service over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a Client for the service at baseURL. An empty token disables
// the Authorization header.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

type submitPayload struct {
	UserID        string   `json:"user_id"`
	ModelID       string   `json:"model_id"`
	Prompt        string   `json:"prompt"`
	Ratio         string   `json:"ratio,omitempty"`
	Quality       string   `json:"quality,omitempty"`
	ReferenceURLs []string `json:"reference_urls,omitempty"`
}

type submitReply struct {
	ID       string `json:"id"`
	PublicID string `json:"public_id"`
	Status   string `json:"status"`
}

type generationReply struct {
	PublicID     string   `json:"public_id"`
	Status       string   `json:"status"`
	ResultURLs   []string `json:"result_urls"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

type listReply struct {
	Generations []generationReply `json:"generations"`
}

type balanceReply struct {
	Balance float64 `json:"balance"`
}

type trialReply struct {
	TrialAvailable bool `json:"trial_available"`
}

// SubmitGeneration starts a generation job and returns its server identity.
func (c *Client) SubmitGeneration(ctx context.Context, req engine.SubmitRequest) (engine.SubmitResult, error) {
	payload := submitPayload{
		UserID:        req.UserID,
		ModelID:       req.ModelID,
		Prompt:        req.Prompt,
		Ratio:         req.Ratio,
		Quality:       req.Quality,
		ReferenceURLs: req.ReferenceURLs,
	}
	var reply submitReply
	if err := c.do(ctx, http.MethodPost, "/v1/generations", payload, &reply); err != nil {
		return engine.SubmitResult{}, err
	}
	return engine.SubmitResult{ID: reply.ID, PublicID: reply.PublicID, Status: reply.Status}, nil
}

// ListGenerations fetches the caller's recent generations, newest first.
func (c *Client) ListGenerations(ctx context.Context, userID string, limit int) ([]engine.RemoteGeneration, error) {
	path := "/v1/generations?user_id=" + url.QueryEscape(userID)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var reply listReply
	if err := c.do(ctx, http.MethodGet, path, nil, &reply); err != nil {
		return nil, err
	}
	out := make([]engine.RemoteGeneration, 0, len(reply.Generations))
	for _, g := range reply.Generations {
		out = append(out, engine.RemoteGeneration{
			PublicID:     g.PublicID,
			Status:       g.Status,
			ResultURLs:   g.ResultURLs,
			ErrorMessage: g.ErrorMessage,
		})
	}
	return out, nil
}

// GetBalance fetches the user's current credit balance.
func (c *Client) GetBalance(ctx context.Context, userID string) (float64, error) {
	var reply balanceReply
	if err := c.do(ctx, http.MethodGet, "/v1/balance?user_id="+url.QueryEscape(userID), nil, &reply); err != nil {
		return 0, err
	}
	return reply.Balance, nil
}

// GetTrialStatus reports whether a free trial generation is still available.
func (c *Client) GetTrialStatus(ctx context.Context, userID string) (bool, error) {
	var reply trialReply
	if err := c.do(ctx, http.MethodGet, "/v1/trial?user_id="+url.QueryEscape(userID), nil, &reply); err != nil {
		return false, err
	}
	return reply.TrialAvailable, nil
}

// do sends one JSON request and decodes the reply into out. Non-2xx
// responses become *APIError carrying the machine-readable status and the
// service's human-readable detail string when present.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&er)
		detail := er.Detail
		if detail == "" {
			detail = er.Error
		}
		return &APIError{Status: resp.StatusCode, Detail: detail}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
