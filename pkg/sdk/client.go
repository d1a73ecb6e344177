// Package sdk is a thin HTTP client for the askdocs API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

const defaultTimeout = 2 * time.Minute

// Client talks to an askdocs server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("askdocs: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// File is a knowledge-base document record.
type File struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	Status     string    `json:"status"`
	ChunkCount int       `json:"chunk_count"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FileList is a file listing.
type FileList struct {
	Items []File `json:"items"`
	Total int    `json:"total"`
}

// RoutingDetail reports which file won the routing.
type RoutingDetail struct {
	TopFile    string             `json:"top_file"`
	TopScore   float64            `json:"top_score"`
	FileScores map[string]float64 `json:"file_scores"`
}

// Answer is a composed reply.
type Answer struct {
	Status                string        `json:"status"`
	SelectedFiles         []string      `json:"selected_files"`
	RoutingDetail         RoutingDetail `json:"routing_detail"`
	Answer                string        `json:"answer"`
	Sources               []string      `json:"sources"`
	ConfidenceExplanation string        `json:"confidence_explanation"`
	ClarifyingQuestion    string        `json:"clarifying_question,omitempty"`
	RawUsedChunks         []string      `json:"raw_used_chunks"`
}

// AskResult pairs an answer with its chat identity.
type AskResult struct {
	ChatID string `json:"chat_id"`
	Answer Answer `json:"answer"`
}

// Message is one chat transcript entry.
type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// History is a chat transcript.
type History struct {
	ChatID   string    `json:"chat_id"`
	Messages []Message `json:"messages"`
}

// Upload sends a document for indexing. The returned file is pending;
// poll GetFile until its status settles.
func (c *Client) Upload(ctx context.Context, fileName string, data []byte) (File, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(fileName))
	if err != nil {
		return File{}, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return File{}, fmt.Errorf("build multipart body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return File{}, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/files", &buf)
	if err != nil {
		return File{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var file File
	if err := c.do(req, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

// ListFiles returns all file records.
func (c *Client) ListFiles(ctx context.Context) (FileList, error) {
	var list FileList
	err := c.get(ctx, "/v1/files", &list)
	return list, err
}

// GetFile returns one file record.
func (c *Client) GetFile(ctx context.Context, id int64) (File, error) {
	var file File
	err := c.get(ctx, fmt.Sprintf("/v1/files/%d", id), &file)
	return file, err
}

// DeleteFile removes a file and its vectors.
func (c *Client) DeleteFile(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+fmt.Sprintf("/v1/files/%d", id), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, nil)
}

// Ask sends a question. An empty chatID starts a new chat; topK 0 uses
// the server default.
func (c *Client) Ask(ctx context.Context, chatID, question string, topK int) (AskResult, error) {
	body, err := json.Marshal(map[string]any{
		"chat_id":  chatID,
		"question": question,
		"top_k":    topK,
	})
	if err != nil {
		return AskResult{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/ask", bytes.NewReader(body))
	if err != nil {
		return AskResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result AskResult
	if err := c.do(req, &result); err != nil {
		return AskResult{}, err
	}
	return result, nil
}

// ChatHistory returns a chat transcript.
func (c *Client) ChatHistory(ctx context.Context, chatID string) (History, error) {
	var history History
	err := c.get(ctx, "/v1/chats/"+chatID, &history)
	return history, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
