package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"go.uber.org/zap"

	"assistui/chat"
)

const (
	DefaultBaseURL = "http://localhost:8001"

	// NoResponseText is shown when the project backend answers without content.
	NoResponseText = "No response received"
)

// ErrUnauthorized matches APIErrors with status 401
var ErrUnauthorized = errors.New("backend: unauthorized")

// APIError is a non-2xx backend response. Detail carries the server's
// "detail" field when present.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Client talks to the assistant backend's REST endpoints
type Client struct {
	http    *http.Client
	baseURL *url.URL
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme must be http or https", baseURL)
	}

	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: parsedURL,
		logger:  logger,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// RAGChat asks the document index
func (c *Client) RAGChat(ctx context.Context, message string) (string, error) {
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/rag-chat", chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// ProjectChat asks the project-management assistant
func (c *Client) ProjectChat(ctx context.Context, message string) (string, error) {
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/project-chat", chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	if resp.Answer == "" {
		return NoResponseText, nil
	}
	return resp.Answer, nil
}

// TodoChat asks the Microsoft To-Do assistant
func (c *Client) TodoChat(ctx context.Context, message string) (string, error) {
	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/todo-chat", chatRequest{Message: message}, &resp); err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// Chat dispatches to the endpoint behind a channel
func (c *Client) Chat(ctx context.Context, channel, message string) (string, error) {
	switch channel {
	case chat.ChannelRAG:
		return c.RAGChat(ctx, message)
	case chat.ChannelProject:
		return c.ProjectChat(ctx, message)
	case chat.ChannelTodo:
		return c.TodoChat(ctx, message)
	}
	return "", fmt.Errorf("no backend endpoint for channel %q", channel)
}

// projectEnvelope is the shape of both project endpoints. Failures come back
// as 200 responses carrying an error field.
type projectEnvelope struct {
	Error         string          `json:"error"`
	Message       string          `json:"message"`
	Authenticated *bool           `json:"authenticated"`
	Projects      json.RawMessage `json:"projects"`
	ProjectDetail json.RawMessage `json:"project_detail"`
}

func (e projectEnvelope) err() error {
	if e.Authenticated != nil && !*e.Authenticated {
		detail := e.Message
		if detail == "" {
			detail = e.Error
		}
		return &APIError{Status: http.StatusUnauthorized, Detail: detail}
	}
	if e.Error != "" {
		return &APIError{Status: http.StatusBadGateway, Detail: e.Error}
	}
	return nil
}

// Projects lists project names
func (c *Client) Projects(ctx context.Context) ([]string, error) {
	var resp projectEnvelope
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	return projectList(resp.Projects), nil
}

// projectList accepts a list, a JSON-encoded list inside a string, a plain
// string, or an object whose values are the projects.
func projectList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		return stringify(list)
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if text == "" {
			return out
		}
		if err := json.Unmarshal([]byte(text), &list); err == nil {
			return stringify(list)
		}
		return []string{text}
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([]any, 0, len(keys))
		for _, k := range keys {
			values = append(values, obj[k])
		}
		return stringify(values)
	}
	return out
}

func stringify(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// ProjectDetail returns the backend's progress report for one project
func (c *Client) ProjectDetail(ctx context.Context, name string) (string, error) {
	var resp projectEnvelope
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(name), nil, &resp); err != nil {
		return "", err
	}
	if err := resp.err(); err != nil {
		return "", err
	}
	if len(resp.ProjectDetail) == 0 {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(resp.ProjectDetail, &text); err == nil {
		return text, nil
	}
	return string(resp.ProjectDetail), nil
}

// TodoLoginStatus reports whether the backend holds a Microsoft session
func (c *Client) TodoLoginStatus(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/todo/login-status", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// TodoExamples returns sample prompts for the To-Do assistant
func (c *Client) TodoExamples(ctx context.Context) ([]string, error) {
	var resp struct {
		Examples []string `json:"examples"`
	}
	if err := c.do(ctx, http.MethodGet, "/todo/examples", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Examples, nil
}

// TodoSuggestions returns the backend's free-text task suggestions
func (c *Client) TodoSuggestions(ctx context.Context) (string, error) {
	var resp struct {
		Suggestions string `json:"suggestions"`
	}
	if err := c.do(ctx, http.MethodGet, "/todo/suggestions", nil, &resp); err != nil {
		return "", err
	}
	return resp.Suggestions, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	// path is already escaped; JoinPath keeps escaped segments intact.
	endpoint := c.baseURL.JoinPath(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: errorDetail(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorDetail extracts FastAPI-style {"detail": ...} bodies. Structured
// details are re-encoded as JSON.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	return string(payload.Detail)
}

// ErrorText renders an error the way the chat shows it: the server's detail
// when there is one, otherwise the error message.
func ErrorText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
